package controllers

import (
	"github.com/gin-gonic/gin"

	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/domain/services/container"
	"visitor-pass-service/internal/error/code"
	"visitor-pass-service/internal/error/response"
)

// InterfaceAuthController 定义认证控制器接口
type InterfaceAuthController interface {
	Login()
	Invite()
}

// AuthController 处理登录与邀请请求
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController 创建认证控制器
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Identifier string `json:"identifier" example:"admin@example.com"`
	Password   string `json:"password" example:"admin123"`
}

// InviteRequest 邀请用户请求
type InviteRequest struct {
	Email string `json:"email" example:"guard@example.com"`
	Role  string `json:"role" example:"security"`
}

// HandleAuthFunc 返回一个处理认证请求的Gin处理函数
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		case "invite":
			controller.Invite()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// Login 处理用户登录
// @Summary      User login
// @Description  Log in with email or username and receive a JWT carrying the role
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200  {object}  response.Response{data=services.LoginResult}
// @Failure      400  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/login [post]
func (c *AuthController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	result, err := jwtService.Login(c.Ctx.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respondError(c.Ctx, err, code.ErrUnknown)
		return
	}
	response.Success(c.Ctx, result)
}

// Invite 邀请新用户
// @Summary      Invite user
// @Description  Create an account with a generated password and email it; the account is removed if the email cannot be sent
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body InviteRequest true "Invitee"
// @Success      200  {object}  response.Response{data=services.InvitationResult}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /auth/invite [post]
func (c *AuthController) Invite() {
	var req InviteRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	invitationService := c.Container.GetService("invitation").(services.InterfaceInvitationService)
	result, err := invitationService.Invite(c.Ctx.Request.Context(), req.Email, req.Role)
	if err != nil {
		respondError(c.Ctx, err, code.ErrInvitationFailed)
		return
	}
	response.Success(c.Ctx, result)
}
