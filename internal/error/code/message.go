package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:            "成功",
	ErrUnknown:            "未知错误",
	ErrBind:               "请求参数绑定错误",
	ErrValidation:         "请求参数验证错误",
	ErrTokenInvalid:       "无效的认证令牌",
	ErrTooManyRequests:    "请求频率过高，请稍后再试",
	ErrForbidden:          "无权执行此操作",
	ErrServiceUnavailable: "依赖服务不可用",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户名或密码错误",
	ErrRoleNotFound:          "角色不存在",
	ErrInvitationFailed:      "邀请用户失败",
	ErrUserBlocked:           "用户已被禁用",

	// 通行证相关错误码
	ErrPassNotFound:     "通行证不存在",
	ErrPassCreateFailed: "创建通行证失败",
	ErrPassFetchFailed:  "获取通行证失败",
	ErrPassCancelFailed: "取消通行证失败",
	ErrPassNotActive:    "通行证已失效",
	ErrPassNotYetValid:  "通行证尚未生效",

	// 事件报告相关错误码
	ErrReportNotFound:         "事件报告不存在",
	ErrReportGenerationFailed: "生成事件报告失败",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:            StatusOK,
	ErrUnknown:            StatusInternalServerError,
	ErrBind:               StatusBadRequest,
	ErrValidation:         StatusBadRequest,
	ErrTokenInvalid:       StatusUnauthorized,
	ErrTooManyRequests:    StatusTooManyRequests,
	ErrForbidden:          StatusForbidden,
	ErrServiceUnavailable: StatusServiceUnavailable,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrRoleNotFound:          StatusBadRequest,
	ErrInvitationFailed:      StatusBadRequest,
	ErrUserBlocked:           StatusUnauthorized,

	// 通行证相关错误码
	ErrPassNotFound:     StatusNotFound,
	ErrPassCreateFailed: StatusBadRequest,
	ErrPassFetchFailed:  StatusBadRequest,
	ErrPassCancelFailed: StatusBadRequest,
	ErrPassNotActive:    StatusBadRequest,
	ErrPassNotYetValid:  StatusBadRequest,

	// 事件报告相关错误码
	ErrReportNotFound:         StatusNotFound,
	ErrReportGenerationFailed: StatusBadRequest,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
