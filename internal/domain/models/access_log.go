package models

import (
	"time"
)

// AccessResult represents the result of a redemption attempt
type AccessResult string

const (
	AccessResultSuccess AccessResult = "success"
	AccessResultFailure AccessResult = "failure"
)

// AccessLog 记录通行码在门禁处的每次核验
type AccessLog struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	AccessPassID uint         `gorm:"index" json:"access_pass_id"`
	ResidentID   uint         `gorm:"index" json:"resident_id"`
	Result       AccessResult `gorm:"type:varchar(20)" json:"result"`
	Reason       string       `gorm:"type:varchar(100)" json:"reason,omitempty"`
	Timestamp    time.Time    `gorm:"index" json:"timestamp"`

	AccessPass *AccessPass `gorm:"foreignKey:AccessPassID" json:"access_pass,omitempty"`
}
