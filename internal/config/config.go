package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Env       string          `mapstructure:"env"`      // 环境: development, production
	Timezone  string          `mapstructure:"timezone"` // 解析 ISO 时间戳所用时区
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Session   SessionConfig   `mapstructure:"session"`
	Approval  ApprovalConfig  `mapstructure:"approval"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Security  SecurityConfig  `mapstructure:"security"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	ForceHTTPS bool   `mapstructure:"force_https"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, sqlite
	URL             string `mapstructure:"url"`    // 设置后优先于 host/port 等字段
	Path            string `mapstructure:"path"`   // sqlite 文件路径
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 秒
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 秒
	ConnectTimeout  int    `mapstructure:"connect_timeout"`    // 秒
}

// RetryConfig 瞬时故障重试配置
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Delay      time.Duration `mapstructure:"delay"`
}

// SessionConfig 登录会话配置
type SessionConfig struct {
	CookieName  string        `mapstructure:"cookie_name"`
	TTL         time.Duration `mapstructure:"ttl"`          // 滑动过期
	MaxLifetime time.Duration `mapstructure:"max_lifetime"` // 绝对过期
	Secure      bool          `mapstructure:"secure"`
	SameSite    string        `mapstructure:"same_site"` // lax, strict, none
}

// ApprovalConfig OD 审批流程配置
type ApprovalConfig struct {
	Mode string `mapstructure:"mode"` // manual, auto
}

// AdminConfig 初始管理员配置
type AdminConfig struct {
	Seed               bool   `mapstructure:"seed"`
	RegistrationNumber string `mapstructure:"registration_number"`
	Name               string `mapstructure:"name"`
	Mobile             string `mapstructure:"mobile"`
	Password           string `mapstructure:"password"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// RateLimitConfig 登录注册限流配置
type RateLimitConfig struct {
	AuthRPS   float64 `mapstructure:"auth_rps"`
	AuthBurst int     `mapstructure:"auth_burst"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error
	Format string `mapstructure:"format"` // 日志格式: json, text
	Output string `mapstructure:"output"` // 输出位置: stdout, file, both
}

// Load 加载配置,支持配置文件、.env 和环境变量
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果提供了配置文件路径,从文件加载
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.uniod")
		// 忽略配置文件不存在的错误,使用默认值
		_ = v.ReadInConfig()
	}

	// 支持环境变量
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容托管平台注入的 DATABASE_URL
	_ = v.BindEnv("database.url", "APP_DATABASE_URL", "DATABASE_URL")

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	switch c.Approval.Mode {
	case ApprovalModeManual, ApprovalModeAuto:
	default:
		return fmt.Errorf("unsupported approval mode: %q", c.Approval.Mode)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.Session.TTL <= 0 || c.Session.MaxLifetime <= 0 {
		return fmt.Errorf("session ttl and max_lifetime must be positive")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	return nil
}

// Location 返回配置的时区
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// 审批模式
const (
	ApprovalModeManual = "manual"
	ApprovalModeAuto   = "auto"
)

// IsProduction 判断是否为生产环境
func IsProduction(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return cfg.Env == "production"
}

// Default 返回默认配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	env := v.GetString("env")
	if env == "" {
		env = os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}
	}
	v.SetDefault("env", env)
	v.SetDefault("timezone", "UTC")

	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.force_https", false)

	// 数据库默认配置
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.path", "uniod.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "uniod")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.connect_timeout", 10)

	// 按一次请求一个实例部署,连接池保持最小
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 300) // 5 分钟
	v.SetDefault("database.conn_max_idle_time", 10) // 10 秒

	// 重试默认配置
	v.SetDefault("retry.max_retries", 2)
	v.SetDefault("retry.delay", "2s")

	// 会话默认配置
	v.SetDefault("session.cookie_name", "od_tracker_session")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.max_lifetime", "168h")
	if env == "production" {
		v.SetDefault("session.secure", true)
		v.SetDefault("session.same_site", "none")
	} else {
		v.SetDefault("session.secure", false)
		v.SetDefault("session.same_site", "lax")
	}

	// 审批流程
	v.SetDefault("approval.mode", ApprovalModeManual)

	// 初始管理员
	v.SetDefault("admin.seed", true)
	v.SetDefault("admin.registration_number", "ADMIN001")
	v.SetDefault("admin.name", "System Administrator")
	v.SetDefault("admin.mobile", "1234567890")
	v.SetDefault("admin.password", "admin123")

	v.SetDefault("security.bcrypt_cost", 10)

	v.SetDefault("rate_limit.auth_rps", 5)
	v.SetDefault("rate_limit.auth_burst", 10)

	// CORS 默认配置
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.max_age", 86400)

	// 日志配置（根据环境设置默认值）
	if env == "production" {
		v.SetDefault("log.level", "info")
		v.SetDefault("log.format", "json")
	} else {
		v.SetDefault("log.level", "debug")
		v.SetDefault("log.format", "text")
	}
	v.SetDefault("log.output", "stdout")
}
