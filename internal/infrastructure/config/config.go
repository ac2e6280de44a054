package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "alter"(修改), "drop"(删除重建)

	// Server
	ServerPort string
	GinMode    string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	// 住户位置投影在 Redis 中的缓存时间
	ResidentCacheTTL time.Duration

	// MQTT配置
	MQTTBrokerURL   string // MQTT服务器地址，如 tcp://broker.example.com:1883
	MQTTClientID    string // MQTT客户端ID
	MQTTUsername    string // MQTT用户名
	MQTTPassword    string // MQTT密码
	MQTTQoS         int    // 服务质量 (0, 1, 2)
	MQTTRetained    bool   // 是否保留消息
	MQTTEnabled     bool   // 是否发布通行证生命周期事件
	MQTTTopicPrefix string

	// JWT Authentication
	JWTSecretKey  string
	JWTExpiration time.Duration

	// Admin
	DefaultAdminEmail    string
	DefaultAdminPassword string

	// SMTP 邀请邮件
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPReplyTo  string
	SMTPTimeout  time.Duration

	// OpenAI 事件报告
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIModel          string
	NarrativeTimeout     time.Duration
	NarrativeMaxTokens   int
	NarrativeTemperature float32

	// 二维码选项
	QRErrorCorrection string // L, M, Q, H
	QRMargin          int
	QRWidth           int
	QRForeground      string
	QRBackground      string
	QREnabled         bool // 为 false 时 qr-pin 通行证也只发放 PIN

	// 通行证日期与时间按该时区解释，默认 Local
	Timezone string

	// 限流
	RateLimitRPS   float64
	RateLimitBurst int
}

// env 对 viper 的轻量封装，每次加载创建新实例以便读取最新的环境变量
type env struct {
	v *viper.Viper
}

func newEnv() *env {
	v := viper.New()
	v.AutomaticEnv()
	return &env{v: v}
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	e := newEnv()

	envType := e.getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	switch strings.ToUpper(envType) {
	case "LOCAL":
		prefix = "LOCAL_"
	case "SERVER":
		prefix = "SERVER_"
	default:
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	return &Config{
		EnvType: strings.ToUpper(envType),

		DBHost:          e.getEnvRequired(prefix + "DB_HOST"),
		DBUser:          e.getEnvRequired(prefix + "DB_USER"),
		DBPassword:      e.getEnvRequired(prefix + "DB_PASSWORD"),
		DBName:          e.getEnvRequired(prefix + "DB_NAME"),
		DBPort:          e.getEnvRequired(prefix + "DB_PORT"),
		DBMigrationMode: e.getEnv(prefix+"DB_MIGRATION_MODE", "auto"),

		ServerPort: e.getEnv(prefix+"SERVER_PORT", e.getEnv("SERVER_PORT", "8080")),
		GinMode:    e.getEnv("GIN_MODE", "debug"),

		RedisHost:        e.getEnv(prefix+"REDIS_HOST", e.getEnv("REDIS_HOST", "localhost")),
		RedisPort:        e.getEnv(prefix+"REDIS_PORT", e.getEnv("REDIS_PORT", "6379")),
		RedisPassword:    e.getEnv("REDIS_PASSWORD", ""),
		RedisDB:          e.getEnvAsInt("REDIS_DB", 0),
		ResidentCacheTTL: e.getEnvAsDuration("RESIDENT_CACHE_TTL", 10*time.Minute),

		MQTTBrokerURL:   e.getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:    e.getEnv("MQTT_CLIENT_ID", "visitor_pass_server"),
		MQTTUsername:    e.getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    e.getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:         e.getEnvAsInt("MQTT_QOS", 1),
		MQTTRetained:    e.getEnvAsBool("MQTT_RETAINED", false),
		MQTTEnabled:     e.getEnvAsBool("MQTT_ENABLED", true),
		MQTTTopicPrefix: e.getEnv("MQTT_TOPIC_PREFIX", "access_pass"),

		JWTSecretKey:  e.getEnv("JWT_SECRET_KEY", "visitor-pass-secret-key-change-in-production"),
		JWTExpiration: e.getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),

		DefaultAdminEmail:    e.getEnv("DEFAULT_ADMIN_EMAIL", "admin@example.com"),
		DefaultAdminPassword: e.getEnvRequired("DEFAULT_ADMIN_PASSWORD"),

		SMTPHost:     e.getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     e.getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: e.getEnv("SMTP_USERNAME", ""),
		SMTPPassword: e.getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     e.getEnv("SMTP_FROM", "no-reply@example.com"),
		SMTPReplyTo:  e.getEnv("SMTP_REPLY_TO", ""),
		SMTPTimeout:  e.getEnvAsDuration("SMTP_TIMEOUT", 15*time.Second),

		OpenAIAPIKey:         e.getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        e.getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:          e.getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
		NarrativeTimeout:     e.getEnvAsDuration("NARRATIVE_TIMEOUT", 60*time.Second),
		NarrativeMaxTokens:   e.getEnvAsInt("NARRATIVE_MAX_TOKENS", 2000),
		NarrativeTemperature: float32(e.getEnvAsFloat("NARRATIVE_TEMPERATURE", 0.7)),

		QRErrorCorrection: strings.ToUpper(e.getEnv("QR_ERROR_CORRECTION", "Q")),
		QRMargin:          e.getEnvAsInt("QR_MARGIN", 2),
		QRWidth:           e.getEnvAsInt("QR_WIDTH", 200),
		QRForeground:      e.getEnv("QR_FOREGROUND", "#000000"),
		QRBackground:      e.getEnv("QR_BACKGROUND", "#FFFFFF"),
		QREnabled:         e.getEnvAsBool("QR_ENABLED", true),

		Timezone: e.getEnv("TIMEZONE", "Local"),

		RateLimitRPS:   e.getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: e.getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Location 返回通行证日期时间所使用的时区，无法识别时回退到本地时区
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" || strings.EqualFold(c.Timezone, "Local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		fmt.Printf("Warning: Unknown TIMEZONE '%s', falling back to Local\n", c.Timezone)
		return time.Local
	}
	return loc
}

// Helper function to get environment variable with default value
func (e *env) getEnv(key, defaultValue string) string {
	if e.v.IsSet(key) {
		return e.v.GetString(key)
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func (e *env) getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(e.getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func (e *env) getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(e.getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func (e *env) getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(e.getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func (e *env) getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(e.getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

// 要求必须提供环境变量的辅助函数
func (e *env) getEnvRequired(key string) string {
	if value := e.getEnv(key, ""); value != "" {
		return value
	}
	panic(fmt.Sprintf("Required environment variable %s is not set", key))
}
