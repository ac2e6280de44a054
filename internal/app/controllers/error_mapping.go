package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/error/code"
	"visitor-pass-service/internal/error/response"
	Logger "visitor-pass-service/pkg/logger"
)

// respondError 将业务错误转换为统一错误码，fallback 用于未识别的错误
func respondError(ctx *gin.Context, err error, fallback int) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.ParamError(ctx, validationErr.Message)
	case errors.Is(err, services.ErrPassNotFound):
		response.Fail(ctx, code.ErrPassNotFound, nil)
	case errors.Is(err, services.ErrReportNotFound):
		response.Fail(ctx, code.ErrReportNotFound, nil)
	case errors.Is(err, services.ErrUserNotFound):
		response.Fail(ctx, code.ErrUserNotFound, nil)
	case errors.Is(err, services.ErrForbidden):
		response.Forbidden(ctx, "")
	case errors.Is(err, services.ErrPassNotActive):
		response.Fail(ctx, code.ErrPassNotActive, nil)
	case errors.Is(err, services.ErrPassNotYetValid):
		response.Fail(ctx, code.ErrPassNotYetValid, nil)
	case errors.Is(err, services.ErrInvalidLogin):
		response.Fail(ctx, code.ErrUserPasswordIncorrect, nil)
	case errors.Is(err, services.ErrUserBlocked):
		response.Fail(ctx, code.ErrUserBlocked, nil)
	case errors.Is(err, services.ErrUserAlreadyExist):
		response.Fail(ctx, code.ErrUserAlreadyExist, nil)
	case errors.Is(err, services.ErrRoleNotFound):
		response.Fail(ctx, code.ErrRoleNotFound, nil)
	case errors.Is(err, services.ErrInvitationEmail):
		Logger.WithContext(ctx.Request.Context()).Errorf("邀请失败: %v", err)
		response.Fail(ctx, code.ErrInvitationFailed, nil)
	case errors.Is(err, services.ErrReportGeneration):
		Logger.WithContext(ctx.Request.Context()).Errorf("事件报告生成失败: %v", err)
		response.Fail(ctx, code.ErrReportGenerationFailed, nil)
	default:
		// ErrEncoding、ErrCodeExhausted 以及数据库错误只记录日志，对外返回通用消息
		Logger.WithContext(ctx.Request.Context()).Errorf("请求处理失败: %s %s: %v", ctx.Request.Method, ctx.FullPath(), err)
		response.Fail(ctx, fallback, nil)
	}
}

// parseUintParam 解析路径中的正整数ID
func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.ParamError(ctx, "无效的ID")
		return 0, false
	}
	return uint(id), true
}
