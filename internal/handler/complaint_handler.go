package handler

import (
	"net/http"

	"psms/internal/middleware"
	"psms/internal/service"
	"psms/pkg/pagination"
	"psms/pkg/response"

	"github.com/gin-gonic/gin"
)

type ComplaintHandler struct {
	complaintService service.ComplaintService
	guard            *middleware.AuthGuard
}

func NewComplaintHandler(complaintService service.ComplaintService, guard *middleware.AuthGuard) *ComplaintHandler {
	return &ComplaintHandler{complaintService: complaintService, guard: guard}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ComplaintHandler) RegisterRoutes(router *gin.RouterGroup) {
	complaints := router.Group("/complaints")
	{
		complaints.POST("", h.guard.RequirePermission("complaint.create"), h.CreateComplaint)
		complaints.GET("", h.guard.RequirePermission("complaint.view"), h.ListComplaints)
		complaints.PUT("/:id/status", h.guard.RequirePermission("complaint.update_status"), h.UpdateStatus)
	}
}

// CreateComplaint handles POST /complaints
// @Summary      File complaint
// @Description  Files a complaint; a submission matching an existing complaint's content is merged into it instead of creating a duplicate
// @Tags         complaints
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateComplaintRequest  true  "Complaint Payload"
// @Success      201      {object}  response.Response{data=service.ComplaintResponse}
// @Failure      400      {object}  response.Response
// @Router       /complaints [post]
func (h *ComplaintHandler) CreateComplaint(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	complaint, err := h.complaintService.CreateComplaint(c.Request.Context(), req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, complaint))
}

// ListComplaints handles GET /complaints
// @Summary      List complaints
// @Tags         complaints
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.ComplaintResponse}
// @Failure      500    {object}  response.Response
// @Router       /complaints [get]
func (h *ComplaintHandler) ListComplaints(c *gin.Context) {
	params := pagination.Parse(c)

	complaints, total, err := h.complaintService.ListComplaints(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch complaints"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, complaints, params.Page, params.Limit, total))
}

// UpdateStatus handles PUT /complaints/:id/status
// @Summary      Update complaint status
// @Description  Transitions the complaint's status and notifies its creator
// @Tags         complaints
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Complaint ID"
// @Param        payload  body      service.UpdateComplaintStatusRequest  true  "New Status"
// @Success      200      {object}  response.Response{data=service.ComplaintResponse}
// @Failure      400      {object}  response.Response
// @Router       /complaints/{id}/status [put]
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.UpdateComplaintStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	complaint, err := h.complaintService.UpdateStatus(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, complaint))
}
