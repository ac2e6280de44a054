package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"visitor-pass-service/internal/domain/models"
)

// InterfaceUserService 定义用户与单元管理接口
type InterfaceUserService interface {
	GetMe(ctx context.Context, userID uint) (*models.User, error)
	CreateUnit(ctx context.Context, name, building string) (*models.Unit, error)
	ListUnits(ctx context.Context) ([]models.Unit, error)
	AssignUnits(ctx context.Context, userID uint, unitIDs []uint) (*models.User, error)
}

// UserService 用户服务
type UserService struct {
	DB        *gorm.DB
	Residents InterfaceResidentDirectory
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, residents InterfaceResidentDirectory) InterfaceUserService {
	return &UserService{DB: db, Residents: residents}
}

// GetMe 返回当前用户及其角色与单元
func (s *UserService) GetMe(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Preload("Role").Preload("Units").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUnit 新建单元
func (s *UserService) CreateUnit(ctx context.Context, name, building string) (*models.Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("单元名称不能为空")
	}
	unit := models.Unit{Name: name, Building: strings.TrimSpace(building), Status: "active"}
	if err := s.DB.WithContext(ctx).Create(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// ListUnits 按ID顺序返回全部单元
func (s *UserService) ListUnits(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// AssignUnits 替换用户所属单元，并清除住户位置缓存
func (s *UserService) AssignUnits(ctx context.Context, userID uint, unitIDs []uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ids := uniqueIDs(unitIDs)
	association := s.DB.WithContext(ctx).Model(&user).Association("Units")
	if len(ids) == 0 {
		if err := association.Clear(); err != nil {
			return nil, err
		}
	} else {
		var units []models.Unit
		if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&units).Error; err != nil {
			return nil, err
		}
		if len(units) != len(ids) {
			return nil, newValidationError("单元不存在")
		}
		if err := association.Replace(units); err != nil {
			return nil, err
		}
	}
	if s.Residents != nil {
		s.Residents.Invalidate(ctx, userID)
	}

	return s.GetMe(ctx, userID)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
