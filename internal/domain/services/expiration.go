package services

import (
	"strconv"
	"strings"
	"time"

	"visitor-pass-service/internal/domain/models"
)

// ExpirationEvaluator 判断通行证是否已过期，日期与时间按 Location 解释
type ExpirationEvaluator struct {
	Location *time.Location
}

// NewExpirationEvaluator 创建过期判断器，loc 为空时使用本地时区
func NewExpirationEvaluator(loc *time.Location) *ExpirationEvaluator {
	if loc == nil {
		loc = time.Local
	}
	return &ExpirationEvaluator{Location: loc}
}

// IsExpired 纯函数，不修改通行证
//   - time-bound: 当前时间晚于 date@timeTo
//   - date-range: 当前时间晚于 dateTo@23:59:59
//   - usage-limit: 已使用次数达到上限
//
// 字段无法解析时视为未过期。
func (e *ExpirationEvaluator) IsExpired(pass *models.AccessPass, now time.Time) bool {
	switch v := pass.Validity().(type) {
	case models.TimeBoundValidity:
		end, ok := e.at(v.Date, v.TimeTo)
		return ok && now.After(end)
	case models.DateRangeValidity:
		end, ok := e.endOfDay(v.DateTo)
		return ok && now.After(end)
	case models.UsageLimitValidity:
		return v.Count >= v.Limit
	}
	return false
}

// ValidFrom 返回通行证生效的起始时间，次数型通行证没有起始时间
func (e *ExpirationEvaluator) ValidFrom(pass *models.AccessPass) (time.Time, bool) {
	switch v := pass.Validity().(type) {
	case models.TimeBoundValidity:
		return e.at(v.Date, v.TimeFrom)
	case models.DateRangeValidity:
		return e.at(v.DateFrom, "00:00")
	}
	return time.Time{}, false
}

// Window 返回某日两个时刻构成的时间窗口
func (e *ExpirationEvaluator) Window(date, timeFrom, timeTo string) (time.Time, time.Time, bool) {
	start, ok := e.at(date, timeFrom)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := e.at(date, timeTo)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (e *ExpirationEvaluator) at(date, clock string) (time.Time, bool) {
	y, m, d, ok := splitDate(date)
	if !ok {
		return time.Time{}, false
	}
	hh, mm, ok := splitClock(clock)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, hh, mm, 0, 0, e.Location), true
}

func (e *ExpirationEvaluator) endOfDay(date string) (time.Time, bool) {
	y, m, d, ok := splitDate(date)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 23, 59, 59, 0, e.Location), true
}

// splitDate 只拆分数值，越界的日会像日历构造函数一样顺延（2024-02-31 -> 2024-03-02）
func splitDate(value string) (int, int, int, bool) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

func splitClock(value string) (int, int, bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return h, m, true
}
