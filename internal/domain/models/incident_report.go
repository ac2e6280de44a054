package models

import "gorm.io/datatypes"

// TimeDetails 报告中通行证的有效期描述
// 时段/日期区间类型填写 From/To，次数类型填写 UsageCount/Limit
type TimeDetails struct {
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	UsageCount *int   `json:"usageCount,omitempty"`
	Limit      *int   `json:"limit,omitempty"`
}

// AccessLogEntry 生成报告时的通行证快照
type AccessLogEntry struct {
	VisitorName  string      `json:"visitorName"`
	AccessType   AccessType  `json:"accessType"`
	Location     string      `json:"location"`
	ResidentName string      `json:"residentName"`
	TimeDetails  TimeDetails `json:"timeDetails"`
	Status       PassStatus  `json:"status"`
}

// IncidentReport 管理员生成的事件报告，创建后不再修改
type IncidentReport struct {
	BaseModel
	Date        string                               `gorm:"column:report_date;type:varchar(10);not null;index" json:"date"`
	TimeFrom    string                               `gorm:"type:varchar(5);not null" json:"time_from"`
	TimeTo      string                               `gorm:"type:varchar(5);not null" json:"time_to"`
	Report      string                               `gorm:"type:text;not null" json:"report"`
	AccessLogs  datatypes.JSONType[[]AccessLogEntry] `gorm:"type:json" json:"access_logs"`
	GeneratedBy uint                                 `gorm:"index" json:"generated_by"`

	Generator *User `gorm:"foreignKey:GeneratedBy" json:"generator,omitempty"`
}
