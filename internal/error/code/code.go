package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusCreated - 201: 已创建.
	StatusCreated = 201
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusServiceUnavailable - 503: 依赖服务不可用.
	StatusServiceUnavailable = 503
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrForbidden - 403: 无权访问.
	ErrForbidden
	// ErrServiceUnavailable - 503: 依赖服务不可用.
	ErrServiceUnavailable
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
	// ErrRoleNotFound - 400: 角色不存在.
	ErrRoleNotFound
	// ErrInvitationFailed - 400: 邀请失败.
	ErrInvitationFailed
	// ErrUserBlocked - 401: 用户已被禁用.
	ErrUserBlocked
)

// 通行证相关错误码 (102xxx).
const (
	// ErrPassNotFound - 404: 通行证不存在.
	ErrPassNotFound int = iota + 102000
	// ErrPassCreateFailed - 400: 通行证创建失败.
	ErrPassCreateFailed
	// ErrPassFetchFailed - 400: 获取通行证失败.
	ErrPassFetchFailed
	// ErrPassCancelFailed - 400: 取消通行证失败.
	ErrPassCancelFailed
	// ErrPassNotActive - 400: 通行证已失效.
	ErrPassNotActive
	// ErrPassNotYetValid - 400: 通行证尚未生效.
	ErrPassNotYetValid
)

// 事件报告相关错误码 (103xxx).
const (
	// ErrReportNotFound - 404: 报告不存在.
	ErrReportNotFound int = iota + 103000
	// ErrReportGenerationFailed - 400: 报告生成失败.
	ErrReportGenerationFailed
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)
