package database

import (
	"context"
	"fmt"
	"time"

	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// GetPoolConfig 获取连接池默认配置
// 服务按请求粒度运行,默认最多一个连接
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: 300, // 5 分钟
		ConnMaxIdleTime: 10,  // 10 秒
	}
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=uniod",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
	if cfg.ConnectTimeout > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", cfg.ConnectTimeout)
	}
	return dsn
}

// Dialector 根据驱动类型选择 gorm 方言
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(BuildDSN(cfg)), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "uniod.db"
		}
		return sqlite.Open(fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", path)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数，未设置的使用默认值
	poolConfig := GetPoolConfig()
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
// 仅对瞬时故障重试,配置错误等立即返回
func ConnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, policy RetryPolicy) (*gorm.DB, error) {
	var db *gorm.DB
	err := policy.Do(ctx, func(ctx context.Context) error {
		conn, err := Connect(cfg)
		if err != nil {
			return err
		}
		if err := Ping(ctx, conn); err != nil {
			Close(conn)
			return err
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.OdRequest{},
		&model.LoginSession{},
		&model.AuditLogModel{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	statements := []struct {
		name string
		sql  string
	}{
		{"idx_od_requests_user_date", "CREATE INDEX IF NOT EXISTS idx_od_requests_user_date ON od_requests(user_id, date DESC)"},
		{"idx_od_requests_user_status", "CREATE INDEX IF NOT EXISTS idx_od_requests_user_status ON od_requests(user_id, status)"},
		{"idx_users_role_name", "CREATE INDEX IF NOT EXISTS idx_users_role_name ON users(role, name)"},
		{"idx_audit_resource", "CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)"},
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt.sql).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}

	// PostgreSQL 使用部分索引加速待审核学生查询
	if dialector == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_users_pending_students ON users(created_at DESC) WHERE role = 'student' AND is_approved = false").Error; err != nil {
			return fmt.Errorf("failed to create idx_users_pending_students: %w", err)
		}
	}

	return nil
}

// Ping 检查连接可用
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return Ping(ctx, db) == nil
}

// Close 关闭底层连接
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
