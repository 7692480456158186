package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/surya-d-naidu/UniOD/internal/auth"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/logging"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
	"gorm.io/gorm"
)

// AdminSeeder 初始管理员
type AdminSeeder struct {
	userRepo repository.UserRepository
	hasher   auth.PasswordHasher
	cfg      config.AdminConfig
}

// NewAdminSeeder 创建初始管理员写入器
func NewAdminSeeder(userRepo repository.UserRepository, hasher auth.PasswordHasher, cfg config.AdminConfig) *AdminSeeder {
	return &AdminSeeder{userRepo: userRepo, hasher: hasher, cfg: cfg}
}

// Seed 管理员不存在时创建,已存在时不做修改
// 返回是否新建
func (s *AdminSeeder) Seed(ctx context.Context) (bool, error) {
	regNo := strings.TrimSpace(s.cfg.RegistrationNumber)
	if regNo == "" || s.cfg.Password == "" {
		return false, errors.New("admin registration number and password are required")
	}

	existing, err := s.userRepo.FindByRegistrationNumber(ctx, regNo)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			return false, errors.New("seed registration number belongs to a non-admin account")
		}
		logging.GetLogger().WithField("registration_number", regNo).Debug("admin user already exists")
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	digest, err := s.hasher.Hash(s.cfg.Password)
	if err != nil {
		return false, err
	}

	admin := &model.User{
		RegistrationNumber: regNo,
		Name:               s.cfg.Name,
		Mobile:             s.cfg.Mobile,
		Password:           digest,
		Role:               model.RoleAdmin,
		IsApproved:         true,
	}
	if err := admin.Validate(); err != nil {
		return false, err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		// 并发启动时另一实例已创建
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}

	logging.GetLogger().WithFields(logrus.Fields{
		"user_id":             admin.ID,
		"registration_number": regNo,
	}).Info("admin user created")
	return true, nil
}

// SeedBestEffort 启动时写入管理员,失败只记录日志
func (s *AdminSeeder) SeedBestEffort(ctx context.Context) {
	if _, err := s.Seed(ctx); err != nil {
		logging.GetLogger().WithError(err).Error("admin seeding failed, server will continue")
	}
}
