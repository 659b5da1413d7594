package handler

import (
	"net/http"

	"psms/internal/middleware"
	"psms/internal/service"
	"psms/pkg/pagination"
	"psms/pkg/response"

	"github.com/gin-gonic/gin"
)

type PersonHandler struct {
	personService service.PersonService
	guard         *middleware.AuthGuard
}

func NewPersonHandler(personService service.PersonService, guard *middleware.AuthGuard) *PersonHandler {
	return &PersonHandler{personService: personService, guard: guard}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PersonHandler) RegisterRoutes(router *gin.RouterGroup) {
	persons := router.Group("/persons")
	{
		persons.GET("", h.guard.RequirePermission("person.view"), h.ListPersons)
		persons.GET("/:id", h.guard.RequirePermission("person.view"), h.GetPerson)
		persons.GET("/:id/history", h.guard.RequirePermission("person.view"), h.GetPersonHistory)
		persons.POST("", h.guard.RequirePermission("person.create"), h.CreatePerson)
		persons.PUT("/:id", h.guard.RequirePermission("person.update"), h.UpdatePerson)
	}
}

// CreatePerson handles POST /persons
// @Summary      Create person
// @Description  Registers a person, optionally placing them in a household; a "created" history row is written
// @Tags         persons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePersonRequest  true  "Create Person Payload"
// @Success      201      {object}  response.Response{data=service.PersonResponse}
// @Failure      400      {object}  response.Response
// @Router       /persons [post]
func (h *PersonHandler) CreatePerson(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	person, err := h.personService.CreatePerson(c.Request.Context(), req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, person))
}

// GetPerson handles GET /persons/:id
// @Summary      Get person by ID
// @Tags         persons
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Person ID"
// @Success      200  {object}  response.Response{data=service.PersonResponse}
// @Failure      404  {object}  response.Response
// @Router       /persons/{id} [get]
func (h *PersonHandler) GetPerson(c *gin.Context) {
	person, err := h.personService.GetPerson(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, person))
}

// ListPersons handles GET /persons
// @Summary      List persons
// @Tags         persons
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.PersonResponse}
// @Failure      500    {object}  response.Response
// @Router       /persons [get]
func (h *PersonHandler) ListPersons(c *gin.Context) {
	params := pagination.Parse(c)

	persons, total, err := h.personService.ListPersons(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch persons"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, persons, params.Page, params.Limit, total))
}

// UpdatePerson handles PUT /persons/:id
// @Summary      Update person
// @Description  Updates a person's fields; a household change writes a "moved" history row
// @Tags         persons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Person ID"
// @Param        payload  body      service.UpdatePersonRequest  true  "Update Person Payload"
// @Success      200      {object}  response.Response{data=service.PersonResponse}
// @Failure      400      {object}  response.Response
// @Router       /persons/{id} [put]
func (h *PersonHandler) UpdatePerson(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.UpdatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	person, err := h.personService.UpdatePerson(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, person))
}

// GetPersonHistory handles GET /persons/:id/history
// @Summary      Get person history
// @Description  Lists the person's residency history in chronological order
// @Tags         persons
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Person ID"
// @Success      200  {object}  response.Response{data=[]service.PersonHistoryResponse}
// @Failure      400  {object}  response.Response
// @Router       /persons/{id}/history [get]
func (h *PersonHandler) GetPersonHistory(c *gin.Context) {
	history, err := h.personService.GetPersonHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}
