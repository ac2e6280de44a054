package models

import (
	"visitor-pass-service/pkg/utils"

	"gorm.io/gorm"
)

const (
	RoleTypeAdmin         = "admin"
	RoleTypeResident      = "resident"
	RoleTypeSecurity      = "security"
	RoleTypeAuthenticated = "authenticated"
)

// Role 用户角色
type Role struct {
	BaseModel
	Name        string `gorm:"type:varchar(50);not null" json:"name"`
	Type        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"type"`
	Description string `gorm:"type:varchar(255)" json:"description"`
}

// DefaultRoles 系统启动时需要存在的角色
func DefaultRoles() []Role {
	return []Role{
		{Name: "Admin", Type: RoleTypeAdmin, Description: "物业管理员，可生成事件报告和邀请用户"},
		{Name: "Resident", Type: RoleTypeResident, Description: "住户，可为访客签发通行证"},
		{Name: "Security", Type: RoleTypeSecurity, Description: "门岗安保人员"},
		{Name: "Authenticated", Type: RoleTypeAuthenticated, Description: "默认登录用户"},
	}
}

// User 系统用户（管理员、住户、安保）
type User struct {
	BaseModel
	Username  string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Name      string `gorm:"type:varchar(100)" json:"name"`
	Email     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password  string `gorm:"type:varchar(100);not null" json:"-"`
	Provider  string `gorm:"type:varchar(20);default:'local'" json:"provider"`
	Confirmed bool   `json:"confirmed"`
	Blocked   bool   `json:"blocked"`
	RoleID    uint   `json:"role_id"`

	Role  *Role  `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Units []Unit `gorm:"many2many:user_units;" json:"units,omitempty"`
}

// BeforeSave 保存前对明文密码进行哈希
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password != "" && !utils.IsHashed(u.Password) {
		hashedPassword, err := utils.HashPassword(u.Password)
		if err != nil {
			return err
		}
		u.Password = hashedPassword
	}
	return nil
}

// RoleType 返回角色类型，未加载角色时为空
func (u *User) RoleType() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Type
}
