package handler

import (
	"net/http"

	"psms/internal/middleware"
	"psms/internal/service"
	"psms/pkg/pagination"
	"psms/pkg/response"

	"github.com/gin-gonic/gin"
)

type HouseholdHandler struct {
	householdService service.HouseholdService
	guard            *middleware.AuthGuard
}

func NewHouseholdHandler(householdService service.HouseholdService, guard *middleware.AuthGuard) *HouseholdHandler {
	return &HouseholdHandler{householdService: householdService, guard: guard}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *HouseholdHandler) RegisterRoutes(router *gin.RouterGroup) {
	households := router.Group("/households")
	{
		households.GET("", h.guard.RequirePermission("household.view"), h.ListHouseholds)
		households.GET("/:id", h.guard.RequirePermission("household.view"), h.GetHousehold)
		households.POST("", h.guard.RequirePermission("household.create"), h.CreateHousehold)
		households.POST("/:id/split", h.guard.RequirePermission("household.split"), h.SplitHousehold)
	}
}

// CreateHousehold handles POST /households
// @Summary      Create household
// @Tags         households
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateHouseholdRequest  true  "Create Household Payload"
// @Success      201      {object}  response.Response{data=service.HouseholdResponse}
// @Failure      400      {object}  response.Response
// @Router       /households [post]
func (h *HouseholdHandler) CreateHousehold(c *gin.Context) {
	var req service.CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	household, err := h.householdService.CreateHousehold(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, household))
}

// GetHousehold handles GET /households/:id
// @Summary      Get household by ID
// @Tags         households
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Household ID"
// @Success      200  {object}  response.Response{data=service.HouseholdResponse}
// @Failure      404  {object}  response.Response
// @Router       /households/{id} [get]
func (h *HouseholdHandler) GetHousehold(c *gin.Context) {
	household, err := h.householdService.GetHousehold(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, household))
}

// ListHouseholds handles GET /households
// @Summary      List households
// @Tags         households
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.HouseholdResponse}
// @Failure      500    {object}  response.Response
// @Router       /households [get]
func (h *HouseholdHandler) ListHouseholds(c *gin.Context) {
	params := pagination.Parse(c)

	households, total, err := h.householdService.ListHouseholds(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch households"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, households, params.Page, params.Limit, total))
}

// SplitHousehold handles POST /households/:id/split
// @Summary      Split household
// @Description  Moves the listed members into a newly created household in one transaction, writing a history row per moved person
// @Tags         households
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Source Household ID"
// @Param        payload  body      service.SplitHouseholdRequest  true  "Split Payload"
// @Success      201      {object}  response.Response{data=service.HouseholdResponse}
// @Failure      400      {object}  response.Response
// @Router       /households/{id}/split [post]
func (h *HouseholdHandler) SplitHousehold(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.SplitHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	household, err := h.householdService.SplitHousehold(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, household))
}
