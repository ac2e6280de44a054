package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	Logger "visitor-pass-service/pkg/logger"
)

const (
	UnknownLocation = "Unknown Location"
	UnknownResident = "Unknown Resident"

	residentProjectionKey = "resident_projection:%d"
)

// ResidentProjection 住户姓名及所在单元
type ResidentProjection struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// InterfaceResidentDirectory 查询住户的位置投影
type InterfaceResidentDirectory interface {
	Resolve(ctx context.Context, residentID uint) ResidentProjection
	Invalidate(ctx context.Context, residentID uint)
}

// ResidentDirectory 从数据库读取住户及其第一个单元，可选 Redis 缓存
type ResidentDirectory struct {
	DB    *gorm.DB
	Cache InterfaceRedisService
	TTL   time.Duration
}

// NewResidentDirectory 创建住户目录，cache 可以为 nil
func NewResidentDirectory(db *gorm.DB, cache InterfaceRedisService, ttl time.Duration) InterfaceResidentDirectory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResidentDirectory{DB: db, Cache: cache, TTL: ttl}
}

// Resolve 查询失败或数据缺失时返回占位值，不向调用方返回错误
func (d *ResidentDirectory) Resolve(ctx context.Context, residentID uint) ResidentProjection {
	key := fmt.Sprintf(residentProjectionKey, residentID)

	if d.Cache != nil {
		var cached ResidentProjection
		err := d.Cache.Get(ctx, key, &cached)
		if err == nil {
			return cached
		}
		if !errors.Is(err, redis.Nil) {
			Logger.Warning("读取住户缓存失败: %v", err)
		}
	}

	projection, found := d.load(ctx, residentID)
	if found && d.Cache != nil {
		if err := d.Cache.Set(ctx, key, projection, d.TTL); err != nil {
			Logger.Warning("写入住户缓存失败: %v", err)
		}
	}
	return projection
}

// Invalidate 删除缓存的住户投影
func (d *ResidentDirectory) Invalidate(ctx context.Context, residentID uint) {
	if d.Cache == nil {
		return
	}
	if err := d.Cache.Delete(ctx, fmt.Sprintf(residentProjectionKey, residentID)); err != nil {
		Logger.Warning("删除住户缓存失败: %v", err)
	}
}

// load 第二个返回值表示投影完整，只有完整的投影才写入缓存
func (d *ResidentDirectory) load(ctx context.Context, residentID uint) (ResidentProjection, bool) {
	projection := ResidentProjection{Name: UnknownResident, Location: UnknownLocation}

	var rows []struct {
		Name     string
		UnitName *string
	}
	err := d.DB.WithContext(ctx).
		Table("users").
		Select("users.name AS name, units.name AS unit_name").
		Joins("LEFT JOIN user_units ON user_units.user_id = users.id").
		Joins("LEFT JOIN units ON units.id = user_units.unit_id").
		Where("users.id = ?", residentID).
		Order("units.id").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		Logger.Error("查询住户信息失败: %v", err)
		return projection, false
	}
	if len(rows) == 0 {
		return projection, false
	}

	if rows[0].Name != "" {
		projection.Name = rows[0].Name
	}
	if rows[0].UnitName == nil || *rows[0].UnitName == "" {
		// 尚未分配单元，分配后应立即可见
		return projection, false
	}
	projection.Location = *rows[0].UnitName
	return projection, true
}
