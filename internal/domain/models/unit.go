package models

// Unit 表示住户所在的单元，如 "Tower A - 12B"
type Unit struct {
	BaseModel
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Building string `gorm:"type:varchar(100)" json:"building"`
	Status   string `gorm:"type:varchar(20);default:'active'" json:"status"` // 状态：active, inactive

	Residents []User `gorm:"many2many:user_units;" json:"residents,omitempty"`
}
