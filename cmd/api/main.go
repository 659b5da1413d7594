package main

import (
	"context"
	"log"

	_ "psms/api/swagger" // swagger docs
	"psms/internal/auth"
	"psms/internal/config"
	"psms/internal/database"
	"psms/internal/handler"
	"psms/internal/middleware"
	"psms/internal/repository"
	"psms/internal/service"
	"psms/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Population and Residency Management API
// @version         1.0
// @description     Registry backend for households, persons, temporary residence and complaints, guarded by role- and permission-based access control.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Auth primitives
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.AccessTokenTTL)
	refreshManager := auth.NewRefreshTokenManager(db, cfg.RefreshTokenTTL)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	authService := service.NewAuthService(userRepo, roleRepo, hasher, codec, refreshManager)
	userService := service.NewUserService(userRepo, txManager, hasher, refreshManager)
	roleService := service.NewRoleService(db, roleRepo, hasher)
	householdService := service.NewHouseholdService(db, txManager)
	personService := service.NewPersonService(db, txManager)
	tempService := service.NewTempService(db, txManager, wsHub)
	complaintService := service.NewComplaintService(db, txManager, wsHub)
	reportService := service.NewReportService(db)

	// Seed the permission vocabulary, well-known roles and the initial admin
	if err := roleService.SeedDefaults(context.Background(), cfg.SeedAdminPassword); err != nil {
		log.Fatalf("Seeding defaults failed: %v", err)
	}

	guard := middleware.NewAuthGuard(codec, userRepo)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, userService, guard, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userHandler := handler.NewUserHandler(userService, guard)
	roleHandler := handler.NewRoleHandler(roleService, guard)
	householdHandler := handler.NewHouseholdHandler(householdService, guard)
	personHandler := handler.NewPersonHandler(personService, guard)
	tempHandler := handler.NewTempHandler(tempService, guard)
	complaintHandler := handler.NewComplaintHandler(complaintService, guard)
	reportHandler := handler.NewReportHandler(reportService, guard)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for notification delivery
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, codec)
	})

	// Register API Routes
	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)
	householdHandler.RegisterRoutes(api)
	personHandler.RegisterRoutes(api)
	tempHandler.RegisterRoutes(api)
	complaintHandler.RegisterRoutes(api)
	reportHandler.RegisterRoutes(api)

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
