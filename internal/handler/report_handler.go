package handler

import (
	"net/http"

	"psms/internal/middleware"
	"psms/internal/service"
	"psms/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	guard         *middleware.AuthGuard
}

func NewReportHandler(reportService service.ReportService, guard *middleware.AuthGuard) *ReportHandler {
	return &ReportHandler{reportService: reportService, guard: guard}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports", h.guard.RequirePermission("report.statistics"))
	{
		reports.GET("/population-by-gender", h.PopulationByGender)
		reports.GET("/complaints-by-status", h.ComplaintsByStatus)
	}
}

// PopulationByGender handles GET /reports/population-by-gender
// @Summary      Population by gender
// @Description  Counts registered persons per gender with exact percentage shares
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PopulationByGenderRow}
// @Failure      500  {object}  response.Response
// @Router       /reports/population-by-gender [get]
func (h *ReportHandler) PopulationByGender(c *gin.Context) {
	rows, err := h.reportService.PopulationByGender(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build report"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// ComplaintsByStatus handles GET /reports/complaints-by-status
// @Summary      Complaints by status
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ComplaintsByStatusRow}
// @Failure      500  {object}  response.Response
// @Router       /reports/complaints-by-status [get]
func (h *ReportHandler) ComplaintsByStatus(c *gin.Context) {
	rows, err := h.reportService.ComplaintsByStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build report"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}
