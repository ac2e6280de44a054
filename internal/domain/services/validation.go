package services

import (
	"regexp"
	"strings"

	"visitor-pass-service/internal/domain/models"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
	timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

// IsValidDate 校验 YYYY-MM-DD 格式，只校验格式不校验日历
func IsValidDate(value string) bool {
	return datePattern.MatchString(value)
}

// IsValidTime 校验 HH:mm 格式，小时允许一位
func IsValidTime(value string) bool {
	return timePattern.MatchString(value)
}

// CreateAccessPassInput 创建通行证的请求参数
type CreateAccessPassInput struct {
	VisitorName   string
	AccessType    string
	AccessMethod  string
	Notifications bool
	Date          string
	TimeFrom      string
	TimeTo        string
	DateFrom      string
	DateTo        string
	UsageLimit    *int
}

// Validate 校验请求并返回对应的有效期形态，任何生成或写库动作之前调用
func (in CreateAccessPassInput) Validate() (models.PassValidity, error) {
	if strings.TrimSpace(in.VisitorName) == "" || in.AccessType == "" || in.AccessMethod == "" {
		return nil, newValidationError("缺少必填字段")
	}

	switch models.AccessType(in.AccessType) {
	case models.AccessTypeTimeBound:
		if in.Date == "" || in.TimeFrom == "" || in.TimeTo == "" {
			return nil, newValidationError("缺少时段通行的日期或时间")
		}
		if !IsValidDate(in.Date) {
			return nil, newValidationError("日期格式无效，请使用 YYYY-MM-DD")
		}
		if !IsValidTime(in.TimeFrom) || !IsValidTime(in.TimeTo) {
			return nil, newValidationError("时间格式无效，请使用 HH:mm")
		}
		return models.TimeBoundValidity{Date: in.Date, TimeFrom: in.TimeFrom, TimeTo: in.TimeTo}, nil

	case models.AccessTypeDateRange:
		if in.DateFrom == "" || in.DateTo == "" {
			return nil, newValidationError("缺少日期区间的起止日期")
		}
		if !IsValidDate(in.DateFrom) || !IsValidDate(in.DateTo) {
			return nil, newValidationError("日期格式无效，请使用 YYYY-MM-DD")
		}
		return models.DateRangeValidity{DateFrom: in.DateFrom, DateTo: in.DateTo}, nil

	case models.AccessTypeUsageLimit:
		if in.UsageLimit == nil || *in.UsageLimit < 1 {
			return nil, newValidationError("使用次数限制无效")
		}
		return models.UsageLimitValidity{Limit: *in.UsageLimit}, nil
	}

	return nil, newValidationError("不支持的通行类型")
}

// ReportWindowInput 生成事件报告的时间窗口
type ReportWindowInput struct {
	Date     string
	TimeFrom string
	TimeTo   string
}

// Validate 校验报告窗口的必填字段与格式
func (in ReportWindowInput) Validate() error {
	if in.Date == "" || in.TimeFrom == "" || in.TimeTo == "" {
		return newValidationError("缺少日期或时间范围")
	}
	if !IsValidDate(in.Date) {
		return newValidationError("日期格式无效，请使用 YYYY-MM-DD")
	}
	if !IsValidTime(in.TimeFrom) || !IsValidTime(in.TimeTo) {
		return newValidationError("时间格式无效，请使用 HH:mm")
	}
	return nil
}
