package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/domain/services/container"
	"visitor-pass-service/internal/error/code"
	"visitor-pass-service/internal/error/response"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(ctx *gin.Context, container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{Ctx: ctx, Container: container}
}

// HandleHealthFunc 返回一个处理健康检查请求的Gin处理函数
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthCheckController(ctx, container)

		switch method {
		case "ping":
			controller.Ping()
		case "status":
			controller.Status()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// Ping 健康检查端点
// @Summary      Ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /ping [get]
func (h *HealthCheckController) Ping() {
	response.Success(h.Ctx, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Status 依赖组件状态，数据库不可用时返回503
// @Summary      Dependency status
// @Tags         Health
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /health/status [get]
func (h *HealthCheckController) Status() {
	ctx, cancel := context.WithTimeout(h.Ctx.Request.Context(), 3*time.Second)
	defer cancel()

	components := gin.H{
		"database": "up",
		"redis":    "disabled",
		"mqtt":     "disabled",
	}
	healthy := true

	if sqlDB, err := h.Container.GetDB().DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		components["database"] = "down"
		healthy = false
	}

	if redisService, ok := h.Container.GetService("redis").(services.InterfaceRedisService); ok && redisService != nil {
		components["redis"] = "up"
		if err := redisService.Ping(ctx); err != nil {
			components["redis"] = "down"
		}
	}

	if cfg := h.Container.GetConfig(); cfg.MQTTEnabled {
		components["mqtt"] = "down"
		if h.Container.MQTTConnected() {
			components["mqtt"] = "up"
		}
	}

	if !healthy {
		response.FailWithMessage(h.Ctx, code.ErrServiceUnavailable, "依赖服务不可用", components)
		return
	}
	response.Success(h.Ctx, components)
}
