package controllers

import (
	"github.com/gin-gonic/gin"

	"visitor-pass-service/internal/app/middleware"
	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/domain/services/container"
	"visitor-pass-service/internal/error/code"
	"visitor-pass-service/internal/error/response"
)

// InterfaceUserController 定义用户控制器接口
type InterfaceUserController interface {
	GetMe()
	CreateUnit()
	ListUnits()
	AssignUnits()
}

// UserController 处理用户与单元请求
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUserController 创建用户控制器
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateUnitRequest 新建单元请求
type CreateUnitRequest struct {
	Name     string `json:"name" example:"Tower A - 12B"`
	Building string `json:"building" example:"Tower A"`
}

// AssignUnitsRequest 分配单元请求
type AssignUnitsRequest struct {
	UnitIDs []uint `json:"unit_ids" example:"1,2"`
}

// HandleUserFunc 返回一个处理用户请求的Gin处理函数
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "getMe":
			controller.GetMe()
		case "createUnit":
			controller.CreateUnit()
		case "listUnits":
			controller.ListUnits()
		case "assignUnits":
			controller.AssignUnits()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *UserController) service() services.InterfaceUserService {
	return c.Container.GetService("user").(services.InterfaceUserService)
}

// GetMe 获取当前用户
// @Summary      Current user
// @Tags         User
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.User}
// @Failure      401  {object}  response.Response
// @Router       /users/me [get]
func (c *UserController) GetMe() {
	userID, ok := middleware.CurrentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	user, err := c.service().GetMe(c.Ctx.Request.Context(), userID)
	if err != nil {
		respondError(c.Ctx, err, code.ErrDatabase)
		return
	}
	response.Success(c.Ctx, user)
}

// CreateUnit 新建单元
// @Summary      Create unit
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateUnitRequest true "Unit"
// @Success      201  {object}  response.Response{data=models.Unit}
// @Failure      400  {object}  response.Response
// @Router       /units [post]
func (c *UserController) CreateUnit() {
	var req CreateUnitRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	unit, err := c.service().CreateUnit(c.Ctx.Request.Context(), req.Name, req.Building)
	if err != nil {
		respondError(c.Ctx, err, code.ErrDatabase)
		return
	}
	response.Created(c.Ctx, unit)
}

// ListUnits 获取全部单元
// @Summary      List units
// @Tags         Unit
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]models.Unit}
// @Router       /units [get]
func (c *UserController) ListUnits() {
	units, err := c.service().ListUnits(c.Ctx.Request.Context())
	if err != nil {
		respondError(c.Ctx, err, code.ErrDatabase)
		return
	}
	response.Success(c.Ctx, units)
}

// AssignUnits 设置用户所属单元
// @Summary      Assign units to user
// @Description  Replaces the unit membership of a user; an empty list clears it
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                true "User ID"
// @Param        request body AssignUnitsRequest true "Units"
// @Success      200  {object}  response.Response{data=models.User}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /users/{id}/units [put]
func (c *UserController) AssignUnits() {
	userID, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req AssignUnitsRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	user, err := c.service().AssignUnits(c.Ctx.Request.Context(), userID, req.UnitIDs)
	if err != nil {
		respondError(c.Ctx, err, code.ErrDatabase)
		return
	}
	response.Success(c.Ctx, user)
}
