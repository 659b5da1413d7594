package handler

import (
	"net/http"

	"psms/internal/middleware"
	"psms/internal/service"
	"psms/pkg/pagination"
	"psms/pkg/response"

	"github.com/gin-gonic/gin"
)

type TempHandler struct {
	tempService service.TempService
	guard       *middleware.AuthGuard
}

// DecideRequest approves or rejects a pending request
type DecideRequest struct {
	Approve bool `json:"approve"`
}

func NewTempHandler(tempService service.TempService, guard *middleware.AuthGuard) *TempHandler {
	return &TempHandler{tempService: tempService, guard: guard}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *TempHandler) RegisterRoutes(router *gin.RouterGroup) {
	absences := router.Group("/temp-absences")
	{
		absences.POST("", h.guard.RequirePermission("temp_absence.create"), h.CreateAbsence)
		absences.GET("", h.guard.RequirePermission("temp_absence.approve"), h.ListAbsences)
		absences.POST("/:id/decision", h.guard.RequirePermission("temp_absence.approve"), h.DecideAbsence)
	}

	residences := router.Group("/temp-residences")
	{
		residences.POST("", h.guard.RequirePermission("temp_residence.create"), h.CreateResidence)
		residences.GET("", h.guard.RequirePermission("temp_residence.approve"), h.ListResidences)
		residences.POST("/:id/decision", h.guard.RequirePermission("temp_residence.approve"), h.DecideResidence)
	}
}

// CreateAbsence handles POST /temp-absences
// @Summary      Register temporary absence
// @Tags         temp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTempAbsenceRequest  true  "Absence Payload"
// @Success      201      {object}  response.Response{data=service.TempRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /temp-absences [post]
func (h *TempHandler) CreateAbsence(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreateTempAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	absence, err := h.tempService.CreateAbsence(c.Request.Context(), req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, absence))
}

// CreateResidence handles POST /temp-residences
// @Summary      Register temporary residence
// @Tags         temp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTempResidenceRequest  true  "Residence Payload"
// @Success      201      {object}  response.Response{data=service.TempRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /temp-residences [post]
func (h *TempHandler) CreateResidence(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreateTempResidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	residence, err := h.tempService.CreateResidence(c.Request.Context(), req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, residence))
}

// ListAbsences handles GET /temp-absences
// @Summary      List temporary absences
// @Tags         temp
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.TempRequestResponse}
// @Failure      500    {object}  response.Response
// @Router       /temp-absences [get]
func (h *TempHandler) ListAbsences(c *gin.Context) {
	params := pagination.Parse(c)

	absences, total, err := h.tempService.ListAbsences(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch absences"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, absences, params.Page, params.Limit, total))
}

// ListResidences handles GET /temp-residences
// @Summary      List temporary residences
// @Tags         temp
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.TempRequestResponse}
// @Failure      500    {object}  response.Response
// @Router       /temp-residences [get]
func (h *TempHandler) ListResidences(c *gin.Context) {
	params := pagination.Parse(c)

	residences, total, err := h.tempService.ListResidences(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch residences"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, residences, params.Page, params.Limit, total))
}

// DecideAbsence handles POST /temp-absences/:id/decision
// @Summary      Decide temporary absence
// @Description  Approves or rejects a pending absence; a request can be decided at most once
// @Tags         temp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Request ID"
// @Param        payload  body      handler.DecideRequest  true  "Decision"
// @Success      200      {object}  response.Response{data=service.TempRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /temp-absences/{id}/decision [post]
func (h *TempHandler) DecideAbsence(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	absence, err := h.tempService.DecideAbsence(c.Request.Context(), c.Param("id"), req.Approve, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, absence))
}

// DecideResidence handles POST /temp-residences/:id/decision
// @Summary      Decide temporary residence
// @Description  Approves or rejects a pending residence; a request can be decided at most once
// @Tags         temp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Request ID"
// @Param        payload  body      handler.DecideRequest  true  "Decision"
// @Success      200      {object}  response.Response{data=service.TempRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /temp-residences/{id}/decision [post]
func (h *TempHandler) DecideResidence(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	residence, err := h.tempService.DecideResidence(c.Request.Context(), c.Param("id"), req.Approve, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, residence))
}
