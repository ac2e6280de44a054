package container

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/infrastructure/config"
	"visitor-pass-service/internal/infrastructure/mail"
	"visitor-pass-service/internal/infrastructure/mqtt"
	Logger "visitor-pass-service/pkg/logger"
)

// Dependencies 外部依赖，未提供的字段按配置创建默认实现
type Dependencies struct {
	Redis     *redis.Client
	Mailer    services.InterfaceMailSender
	Narrator  services.InterfaceNarrativeService
	Publisher services.MessagePublisher
	Registry  *prometheus.Registry
	Now       func() time.Time
}

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db       *gorm.DB
	config   *config.Config
	redis    *redis.Client
	registry *prometheus.Registry

	publisher services.MessagePublisher
	metrics   *services.Metrics

	// 基础服务
	jwtService        services.InterfaceJWTService
	redisService      services.InterfaceRedisService
	residentDirectory services.InterfaceResidentDirectory

	// 业务服务
	accessPassService     services.InterfaceAccessPassService
	incidentReportService services.InterfaceIncidentReportService
	invitationService     services.InterfaceInvitationService
	userService           services.InterfaceUserService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, deps Dependencies) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if deps.Redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			Logger.Warning("Redis连接测试失败: %v，住户信息将直接查询数据库", err)
		}
	}

	container := &ServiceContainer{
		db:       db,
		config:   cfg,
		redis:    deps.Redis,
		registry: deps.Registry,
	}
	container.initializeServices(deps)
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices(deps Dependencies) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	if c.registry != nil {
		registerer = c.registry
	}
	c.metrics = services.NewMetrics(registerer)

	c.jwtService = services.NewJWTService(c.config, c.db)

	if c.redis != nil {
		c.redisService = services.NewRedisService(c.redis)
		c.residentDirectory = services.NewResidentDirectory(c.db, c.redisService, c.config.ResidentCacheTTL)
	} else {
		c.residentDirectory = services.NewResidentDirectory(c.db, nil, 0)
	}

	// MQTT事件发布
	c.publisher = deps.Publisher
	if c.publisher == nil && c.config.MQTTEnabled {
		client := mqtt.NewClient(c.config)
		client.Connect()
		c.publisher = client
	}
	events := services.NewPassEventService(c.publisher, c.config.MQTTTopicPrefix)

	passService := services.NewAccessPassService(
		c.db,
		c.config,
		services.NewCredentialService(c.config),
		c.residentDirectory,
		events,
		c.metrics,
	)
	if deps.Now != nil {
		passService.Now = deps.Now
	}
	c.accessPassService = passService

	narrator := deps.Narrator
	if narrator == nil {
		narrator = services.NewNarrativeService(c.config)
	}
	c.incidentReportService = services.NewIncidentReportService(c.db, c.config, narrator, c.residentDirectory, c.metrics)

	mailer := deps.Mailer
	if mailer == nil {
		mailer = mail.NewSMTPMailer(c.config)
	}
	c.invitationService = services.NewInvitationService(c.db, mailer, c.metrics)

	c.userService = services.NewUserService(c.db, c.residentDirectory)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "resident_directory":
		return c.residentDirectory
	case "access_pass":
		return c.accessPassService
	case "incident_report":
		return c.incidentReportService
	case "invitation":
		return c.invitationService
	case "user":
		return c.userService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	return c.config
}

// Gatherer 指标采集源，未注入独立注册表时使用全局注册表
func (c *ServiceContainer) Gatherer() prometheus.Gatherer {
	if c.registry != nil {
		return c.registry
	}
	return prometheus.DefaultGatherer
}

// Registerer 与 Gatherer 对应的注册端
func (c *ServiceContainer) Registerer() prometheus.Registerer {
	if c.registry != nil {
		return c.registry
	}
	return prometheus.DefaultRegisterer
}

// MQTTConnected 事件总线连接状态，未启用时返回 false
func (c *ServiceContainer) MQTTConnected() bool {
	if checker, ok := c.publisher.(interface{ IsConnected() bool }); ok {
		return checker.IsConnected()
	}
	return false
}

// Close 释放外部连接
func (c *ServiceContainer) Close() {
	if client, ok := c.publisher.(*mqtt.Client); ok {
		client.Disconnect()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
}
