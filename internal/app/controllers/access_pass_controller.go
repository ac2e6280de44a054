package controllers

import (
	"github.com/gin-gonic/gin"

	"visitor-pass-service/internal/app/middleware"
	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/domain/services/container"
	"visitor-pass-service/internal/error/code"
	"visitor-pass-service/internal/error/response"
)

// InterfaceAccessPassController 定义访客通行证控制器接口
type InterfaceAccessPassController interface {
	CreateAccessPass()
	GetByCode()
	GetMyPasses()
	CancelPass()
	RedeemPass()
}

// AccessPassController 处理访客通行证请求
type AccessPassController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAccessPassController 创建访客通行证控制器
func NewAccessPassController(ctx *gin.Context, container *container.ServiceContainer) *AccessPassController {
	return &AccessPassController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateAccessPassRequest 创建通行证请求
type CreateAccessPassRequest struct {
	VisitorName   string `json:"visitorName" example:"Ana Souza"`
	AccessType    string `json:"accessType" example:"time-bound"`
	AccessMethod  string `json:"accessMethod" example:"qr-pin"`
	Notifications bool   `json:"notifications" example:"true"`
	Date          string `json:"date,omitempty" example:"2024-05-01"`
	TimeFrom      string `json:"timeFrom,omitempty" example:"09:00"`
	TimeTo        string `json:"timeTo,omitempty" example:"17:00"`
	DateFrom      string `json:"dateFrom,omitempty" example:"2024-05-01"`
	DateTo        string `json:"dateTo,omitempty" example:"2024-05-07"`
	UsageLimit    *int   `json:"usageLimit,omitempty" example:"3"`
}

// HandleAccessPassFunc 返回一个处理通行证请求的Gin处理函数
func HandleAccessPassFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAccessPassController(ctx, container)

		switch method {
		case "createAccessPass":
			controller.CreateAccessPass()
		case "getByCode":
			controller.GetByCode()
		case "getMyPasses":
			controller.GetMyPasses()
		case "cancelPass":
			controller.CancelPass()
		case "redeemPass":
			controller.RedeemPass()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *AccessPassController) service() services.InterfaceAccessPassService {
	return c.Container.GetService("access_pass").(services.InterfaceAccessPassService)
}

// CreateAccessPass 创建访客通行证
// @Summary      Create access pass
// @Description  Issue a visitor pass with a 6-digit PIN and, for qr-pin passes, a QR code image
// @Tags         AccessPass
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateAccessPassRequest true "Pass definition"
// @Success      201  {object}  response.Response{data=services.AccessPassCreated}
// @Failure      400  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /access-passes [post]
func (c *AccessPassController) CreateAccessPass() {
	userID, ok := middleware.CurrentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	var req CreateAccessPassRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	created, err := c.service().CreateAccessPass(c.Ctx.Request.Context(), userID, services.CreateAccessPassInput{
		VisitorName:   req.VisitorName,
		AccessType:    req.AccessType,
		AccessMethod:  req.AccessMethod,
		Notifications: req.Notifications,
		Date:          req.Date,
		TimeFrom:      req.TimeFrom,
		TimeTo:        req.TimeTo,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
		UsageLimit:    req.UsageLimit,
	})
	if err != nil {
		respondError(c.Ctx, err, code.ErrPassCreateFailed)
		return
	}

	response.Created(c.Ctx, created)
}

// GetByCode 通过通行码查询通行证
// @Summary      Get access pass by code
// @Description  Public lookup by PIN; an elapsed pass is marked expired before it is returned
// @Tags         AccessPass
// @Produce      json
// @Param        code path string true "6-digit PIN"
// @Success      200  {object}  response.Response{data=services.AccessPassView}
// @Failure      404  {object}  response.Response
// @Router       /access-passes/code/{code} [get]
func (c *AccessPassController) GetByCode() {
	view, err := c.service().GetByCode(c.Ctx.Request.Context(), c.Ctx.Param("code"))
	if err != nil {
		respondError(c.Ctx, err, code.ErrPassFetchFailed)
		return
	}
	response.Success(c.Ctx, view)
}

// GetMyPasses 获取当前住户的通行证
// @Summary      List my access passes
// @Description  Passes of the caller, newest first, grouped into active, expired and cancelled
// @Tags         AccessPass
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=services.GroupedPasses}
// @Failure      401  {object}  response.Response
// @Router       /access-passes/my-passes [get]
func (c *AccessPassController) GetMyPasses() {
	userID, ok := middleware.CurrentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	grouped, err := c.service().GetMyPasses(c.Ctx.Request.Context(), userID)
	if err != nil {
		respondError(c.Ctx, err, code.ErrPassFetchFailed)
		return
	}
	response.Success(c.Ctx, grouped)
}

// CancelPass 取消通行证
// @Summary      Cancel access pass
// @Description  Only the resident who created the pass may cancel it
// @Tags         AccessPass
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Pass ID"
// @Success      200  {object}  response.Response{data=services.AccessPassView}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /access-passes/{id}/cancel [put]
func (c *AccessPassController) CancelPass() {
	userID, ok := middleware.CurrentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}
	passID, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	view, err := c.service().CancelPass(c.Ctx.Request.Context(), passID, userID)
	if err != nil {
		respondError(c.Ctx, err, code.ErrPassCancelFailed)
		return
	}
	response.Success(c.Ctx, view)
}

// RedeemPass 门岗核验并使用通行证
// @Summary      Redeem access pass
// @Description  Gate-side validation by security staff or admins; usage-limit passes consume one use
// @Tags         AccessPass
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "6-digit PIN"
// @Success      200  {object}  response.Response{data=services.AccessPassView}
// @Failure      400  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /access-passes/code/{code}/redeem [post]
func (c *AccessPassController) RedeemPass() {
	view, err := c.service().RedeemPass(c.Ctx.Request.Context(), c.Ctx.Param("code"))
	if err != nil {
		respondError(c.Ctx, err, code.ErrPassFetchFailed)
		return
	}
	response.Success(c.Ctx, view)
}
