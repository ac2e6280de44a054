package models

// AccessType 通行证的有效期类型
type AccessType string

const (
	AccessTypeTimeBound  AccessType = "time-bound"
	AccessTypeDateRange  AccessType = "date-range"
	AccessTypeUsageLimit AccessType = "usage-limit"
)

// PassAccessMethod 访客出示凭证的方式
type PassAccessMethod string

const (
	PassAccessMethodQRPin PassAccessMethod = "qr-pin"
	PassAccessMethodPin   PassAccessMethod = "pin"
)

// PassStatus 通行证状态，只允许 active -> expired 或 -> cancelled
type PassStatus string

const (
	PassStatusActive    PassStatus = "active"
	PassStatusExpired   PassStatus = "expired"
	PassStatusCancelled PassStatus = "cancelled"
)

// AccessPass 住户为访客签发的通行证
type AccessPass struct {
	BaseModel
	VisitorName   string           `gorm:"type:varchar(100);not null" json:"visitor_name"`
	AccessType    AccessType       `gorm:"type:varchar(20);not null;index" json:"access_type"`
	VisitDate     *string          `gorm:"type:varchar(10);index" json:"visit_date,omitempty"` // time-bound: YYYY-MM-DD
	TimeFrom      *string          `gorm:"type:varchar(5)" json:"time_from,omitempty"`         // time-bound: HH:mm
	TimeTo        *string          `gorm:"type:varchar(5)" json:"time_to,omitempty"`
	DateFrom      *string          `gorm:"type:varchar(10)" json:"date_from,omitempty"` // date-range
	DateTo        *string          `gorm:"type:varchar(10)" json:"date_to,omitempty"`
	UsageLimit    *int             `json:"usage_limit,omitempty"` // usage-limit
	UsageCount    int              `gorm:"not null;default:0" json:"usage_count"`
	AccessMethod  PassAccessMethod `gorm:"type:varchar(20);not null" json:"access_method"`
	AccessCode    string           `gorm:"type:varchar(6);uniqueIndex;not null" json:"access_code"`
	QRCode        *string          `gorm:"type:mediumtext" json:"qr_code,omitempty"`
	Notifications bool             `json:"notifications"`
	Status        PassStatus       `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	ResidentID    uint             `gorm:"not null;index" json:"resident_id"`

	Resident *User `gorm:"foreignKey:ResidentID" json:"resident,omitempty"`
}

// PassValidity 通行证有效期的三种互斥形态
type PassValidity interface {
	Type() AccessType
	isPassValidity()
}

// TimeBoundValidity 某一天内的时间段
type TimeBoundValidity struct {
	Date     string
	TimeFrom string
	TimeTo   string
}

// DateRangeValidity 连续的日期区间（含首尾两天）
type DateRangeValidity struct {
	DateFrom string
	DateTo   string
}

// UsageLimitValidity 按使用次数计数
type UsageLimitValidity struct {
	Limit int
	Count int
}

func (TimeBoundValidity) Type() AccessType  { return AccessTypeTimeBound }
func (DateRangeValidity) Type() AccessType  { return AccessTypeDateRange }
func (UsageLimitValidity) Type() AccessType { return AccessTypeUsageLimit }

func (TimeBoundValidity) isPassValidity()  {}
func (DateRangeValidity) isPassValidity()  {}
func (UsageLimitValidity) isPassValidity() {}

// Validity 将扁平的数据库字段投影为对应的有效期形态，类型未知时返回 nil
func (p *AccessPass) Validity() PassValidity {
	switch p.AccessType {
	case AccessTypeTimeBound:
		return TimeBoundValidity{Date: deref(p.VisitDate), TimeFrom: deref(p.TimeFrom), TimeTo: deref(p.TimeTo)}
	case AccessTypeDateRange:
		return DateRangeValidity{DateFrom: deref(p.DateFrom), DateTo: deref(p.DateTo)}
	case AccessTypeUsageLimit:
		limit := 0
		if p.UsageLimit != nil {
			limit = *p.UsageLimit
		}
		return UsageLimitValidity{Limit: limit, Count: p.UsageCount}
	}
	return nil
}

// ApplyValidity 写入有效期字段并清空其它类型的字段
func (p *AccessPass) ApplyValidity(v PassValidity) {
	p.VisitDate, p.TimeFrom, p.TimeTo = nil, nil, nil
	p.DateFrom, p.DateTo = nil, nil
	p.UsageLimit = nil
	p.UsageCount = 0

	switch v := v.(type) {
	case TimeBoundValidity:
		p.AccessType = AccessTypeTimeBound
		p.VisitDate, p.TimeFrom, p.TimeTo = ptr(v.Date), ptr(v.TimeFrom), ptr(v.TimeTo)
	case DateRangeValidity:
		p.AccessType = AccessTypeDateRange
		p.DateFrom, p.DateTo = ptr(v.DateFrom), ptr(v.DateTo)
	case UsageLimitValidity:
		p.AccessType = AccessTypeUsageLimit
		limit := v.Limit
		p.UsageLimit = &limit
		p.UsageCount = v.Count
	}
}

// IsActive 是否处于可用状态
func (p *AccessPass) IsActive() bool {
	return p.Status == PassStatusActive
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	return &s
}
