package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"visitor-pass-service/internal/domain/models"
	"visitor-pass-service/internal/infrastructure/config"
	Logger "visitor-pass-service/pkg/logger"
	"visitor-pass-service/pkg/utils"
)

// 迁移模式
const (
	MigrationAuto  = "auto"
	MigrationAlter = "alter"
	MigrationDrop  = "drop"
	MigrationSkip  = "skip"
)

// AllModels 需要迁移的模型，被依赖的表在前
func AllModels() []interface{} {
	return []interface{}{
		&models.Role{},
		&models.Unit{},
		&models.User{},
		&models.AccessPass{},
		&models.AccessLog{},
		&models.IncidentReport{},
	}
}

// AutoMigrate 自动迁移全部模型
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}

// Migrate 按配置的模式执行迁移
func Migrate(db *gorm.DB, mode string) error {
	switch strings.ToLower(mode) {
	case MigrationSkip:
		Logger.Info("跳过数据库迁移")
		return nil
	case MigrationDrop:
		Logger.Warning("删除并重建全部数据表")
		if err := dropTables(db); err != nil {
			return err
		}
		return AutoMigrate(db)
	case MigrationAlter:
		Logger.Info("以修改模式迁移数据表")
		for _, model := range AllModels() {
			if err := db.Migrator().AutoMigrate(model); err != nil {
				return fmt.Errorf("迁移 %T 失败: %w", model, err)
			}
		}
		return nil
	default:
		Logger.Info("自动迁移数据表")
		return AutoMigrate(db)
	}
}

func dropTables(db *gorm.DB) error {
	all := AllModels()
	// 先删除依赖方
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("删除表 %T 失败: %w", all[i], err)
		}
	}
	return db.Migrator().DropTable("user_units")
}

// EnsureDefaultRoles 确保默认角色存在
func EnsureDefaultRoles(db *gorm.DB) error {
	for _, role := range models.DefaultRoles() {
		var existing models.Role
		err := db.Where("type = ?", role.Type).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		role := role
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("创建角色 %s 失败: %w", role.Type, err)
		}
		Logger.Info("已创建默认角色: %s", role.Type)
	}
	return nil
}

// EnsureAdminExists 没有任何管理员时创建默认管理员账号
func EnsureAdminExists(db *gorm.DB, cfg *config.Config) error {
	var adminRole models.Role
	if err := db.Where("type = ?", models.RoleTypeAdmin).First(&adminRole).Error; err != nil {
		return fmt.Errorf("查询管理员角色失败: %w", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role_id = ?", adminRole.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := cfg.DefaultAdminPassword
	if password == "" {
		generated, err := utils.RandomHex(12)
		if err != nil {
			return err
		}
		password = generated
		Logger.Warning("未配置 DEFAULT_ADMIN_PASSWORD，已生成随机密码: %s", password)
	}

	admin := models.User{
		Username:  "admin",
		Name:      "Administrator",
		Email:     strings.ToLower(cfg.DefaultAdminEmail),
		Password:  password,
		Provider:  "local",
		Confirmed: true,
		RoleID:    adminRole.ID,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("创建默认管理员失败: %w", err)
	}

	Logger.Info("已创建默认管理员账号: %s", admin.Email)
	return nil
}
