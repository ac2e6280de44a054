package services

import "errors"

var (
	ErrPassNotFound     = errors.New("通行证不存在")
	ErrForbidden        = errors.New("无权操作该资源")
	ErrEncoding         = errors.New("二维码生成失败")
	ErrCodeExhausted    = errors.New("无法生成唯一的通行码")
	ErrPassNotActive    = errors.New("通行证已失效")
	ErrPassNotYetValid  = errors.New("通行证尚未生效")
	ErrReportGeneration = errors.New("事件报告生成失败")
	ErrReportNotFound   = errors.New("事件报告不存在")
	ErrUserNotFound     = errors.New("用户不存在")
	ErrUserAlreadyExist = errors.New("该邮箱已注册")
	ErrRoleNotFound     = errors.New("角色不存在")
	ErrInvitationEmail  = errors.New("邀请邮件发送失败")
	ErrInvalidLogin     = errors.New("用户名或密码错误")
	ErrUserBlocked      = errors.New("用户已被禁用")
)

// ValidationError 请求参数不合法，Message 直接返回给调用方
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(message string) error {
	return &ValidationError{Message: message}
}

// IsValidationError 判断是否为参数校验错误
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
