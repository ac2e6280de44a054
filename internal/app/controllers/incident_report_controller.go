package controllers

import (
	"github.com/gin-gonic/gin"

	"visitor-pass-service/internal/app/middleware"
	"visitor-pass-service/internal/domain/models"
	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/domain/services/container"
	"visitor-pass-service/internal/error/code"
	"visitor-pass-service/internal/error/response"
)

// InterfaceIncidentReportController 定义事件报告控制器接口
type InterfaceIncidentReportController interface {
	GenerateReport()
	GetReport()
	ListReports()
}

// IncidentReportController 处理事件报告请求
type IncidentReportController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewIncidentReportController 创建事件报告控制器
func NewIncidentReportController(ctx *gin.Context, container *container.ServiceContainer) *IncidentReportController {
	return &IncidentReportController{
		Ctx:       ctx,
		Container: container,
	}
}

// GenerateReportRequest 生成报告请求
type GenerateReportRequest struct {
	Date     string `json:"date" example:"2024-05-01"`
	TimeFrom string `json:"timeFrom" example:"08:00"`
	TimeTo   string `json:"timeTo" example:"18:00"`
}

// ReportListData 报告分页数据
type ReportListData struct {
	Items      []services.IncidentReportView `json:"items"`
	Pagination models.PaginationResult       `json:"pagination"`
}

// HandleIncidentReportFunc 返回一个处理事件报告请求的Gin处理函数
func HandleIncidentReportFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewIncidentReportController(ctx, container)

		switch method {
		case "generateReport":
			controller.GenerateReport()
		case "getReport":
			controller.GetReport()
		case "listReports":
			controller.ListReports()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *IncidentReportController) service() services.InterfaceIncidentReportService {
	return c.Container.GetService("incident_report").(services.InterfaceIncidentReportService)
}

// GenerateReport 生成事件报告
// @Summary      Generate incident report
// @Description  Collects passes valid inside the window and asks the language model for a narrative
// @Tags         IncidentReport
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body GenerateReportRequest true "Report window"
// @Success      200  {object}  response.Response{data=services.IncidentReportView}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /incident-reports/generate [post]
func (c *IncidentReportController) GenerateReport() {
	adminID, ok := middleware.CurrentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	var req GenerateReportRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	report, err := c.service().GenerateReport(c.Ctx.Request.Context(), adminID, services.ReportWindowInput{
		Date:     req.Date,
		TimeFrom: req.TimeFrom,
		TimeTo:   req.TimeTo,
	})
	if err != nil {
		respondError(c.Ctx, err, code.ErrReportGenerationFailed)
		return
	}
	response.Success(c.Ctx, report)
}

// GetReport 获取事件报告详情
// @Summary      Get incident report
// @Tags         IncidentReport
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Report ID"
// @Success      200  {object}  response.Response{data=services.IncidentReportView}
// @Failure      404  {object}  response.Response
// @Router       /incident-reports/{id} [get]
func (c *IncidentReportController) GetReport() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	report, err := c.service().GetReport(c.Ctx.Request.Context(), id)
	if err != nil {
		respondError(c.Ctx, err, code.ErrDatabase)
		return
	}
	response.Success(c.Ctx, report)
}

// ListReports 分页获取事件报告
// @Summary      List incident reports
// @Tags         IncidentReport
// @Produce      json
// @Security     BearerAuth
// @Param        pageNum   query int false "Page number"
// @Param        pageSize  query int false "Page size"
// @Success      200  {object}  response.Response{data=ReportListData}
// @Router       /incident-reports [get]
func (c *IncidentReportController) ListReports() {
	var query models.PaginationQuery
	if err := c.Ctx.ShouldBindQuery(&query); err != nil {
		response.ParamError(c.Ctx, "无效的分页参数")
		return
	}

	items, pagination, err := c.service().ListReports(c.Ctx.Request.Context(), query)
	if err != nil {
		respondError(c.Ctx, err, code.ErrDatabase)
		return
	}
	response.Success(c.Ctx, ReportListData{Items: items, Pagination: pagination})
}
