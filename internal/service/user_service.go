package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/surya-d-naidu/UniOD/internal/auth"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/logging"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
	"gorm.io/gorm"
)

// 登录失败提示,调用方只用于展示
const (
	msgInvalidCredentials = "Invalid registration number or password"
	msgPendingApproval    = "Your account is pending approval"
)

// 可直接用 errors.Is 比较的业务错误
var (
	ErrRegistrationTaken = Conflict("Registration number already exists")
	ErrPendingApproval   = Unauthorized(msgPendingApproval)
)

// RegisterInput 学生注册参数
type RegisterInput struct {
	RegistrationNumber string
	Name               string
	Mobile             string
	Password           string
}

// StudentView 管理端学生列表项
type StudentView struct {
	*model.User
	ApprovedByName *string `json:"approvedByName"`
	OdCount        int64   `json:"odCount"`
	HasOdRequests  bool    `json:"hasOdRequests"`
}

// UserService 用户目录服务
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, registrationNumber, password string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByRegistrationNumber(ctx context.Context, registrationNumber string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	ListStudents(ctx context.Context) ([]*StudentView, error)
	ListPendingStudents(ctx context.Context) ([]*model.User, error)
	ApproveStudent(ctx context.Context, studentID, approverID uint) (*model.User, error)
	DenyStudent(ctx context.Context, studentID, actorID uint) error
}

// userService 用户目录服务实现
type userService struct {
	userRepo repository.UserRepository
	odRepo   repository.OdRequestRepository
	hasher   auth.PasswordHasher
	audit    AuditLogService
}

// NewUserService 创建用户目录服务
func NewUserService(
	userRepo repository.UserRepository,
	odRepo repository.OdRequestRepository,
	hasher auth.PasswordHasher,
	audit AuditLogService,
) UserService {
	return &userService{
		userRepo: userRepo,
		odRepo:   odRepo,
		hasher:   hasher,
		audit:    audit,
	}
}

// Register 学生自助注册,注册后等待管理员审核
func (s *userService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	regNo := strings.TrimSpace(input.RegistrationNumber)
	name := strings.TrimSpace(input.Name)
	mobile := strings.TrimSpace(input.Mobile)
	if regNo == "" || name == "" || mobile == "" || input.Password == "" {
		return nil, Validation("Invalid request data")
	}

	// 1. 检查学号是否已存在
	existing, err := s.userRepo.FindByRegistrationNumber(ctx, regNo)
	switch {
	case err == nil && existing != nil:
		return nil, ErrRegistrationTaken
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, classify(err, "")
	}

	// 2. 生成密码摘要
	digest, err := s.hasher.Hash(input.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, Validation("Password must not exceed 72 bytes")
	}
	if err != nil {
		return nil, Internal("Failed to hash password", err)
	}

	// 3. 创建用户,并发注册由唯一索引兜底
	user := &model.User{
		RegistrationNumber: regNo,
		Name:               name,
		Mobile:             mobile,
		Password:           digest,
		Role:               model.RoleStudent,
		IsApproved:         false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrRegistrationTaken
		}
		return nil, classify(err, "")
	}

	logging.GetLogger().WithFields(logrus.Fields{
		"user_id":             user.ID,
		"registration_number": user.RegistrationNumber,
	}).Info("student registered")

	return user, nil
}

// Authenticate 校验登录凭据
// 账号不存在、密码错误和未审核均返回 Unauthorized,仅提示文案不同
func (s *userService) Authenticate(ctx context.Context, registrationNumber, password string) (*model.User, error) {
	user, err := s.userRepo.FindByRegistrationNumber(ctx, strings.TrimSpace(registrationNumber))
	if err != nil {
		svcErr := classify(err, msgInvalidCredentials)
		if KindOf(svcErr) == KindNotFound {
			s.hasher.VerifyDummy(password)
			return nil, Unauthorized(msgInvalidCredentials)
		}
		return nil, svcErr
	}

	if !s.hasher.Verify(password, user.Password) {
		return nil, Unauthorized(msgInvalidCredentials)
	}
	if !user.CanAuthenticate() {
		return nil, ErrPendingApproval
	}

	// 旧格式摘要登录成功后升级为 bcrypt
	if s.hasher.NeedsRehash(user.Password) {
		s.rehash(ctx, user, password)
	}

	return user, nil
}

func (s *userService) rehash(ctx context.Context, user *model.User, password string) {
	digest, err := s.hasher.Hash(password)
	if err == nil {
		err = s.userRepo.UpdatePassword(ctx, user.ID, digest)
	}
	if err != nil {
		logging.GetLogger().WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("failed to upgrade password digest")
		return
	}
	user.Password = digest
}

// GetByID 根据 ID 获取用户
func (s *userService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "User not found")
	}
	return user, nil
}

// GetByRegistrationNumber 根据学号获取用户
func (s *userService) GetByRegistrationNumber(ctx context.Context, registrationNumber string) (*model.User, error) {
	user, err := s.userRepo.FindByRegistrationNumber(ctx, registrationNumber)
	if err != nil {
		return nil, classify(err, "User not found")
	}
	return user, nil
}

// ListUsers 获取全部账号
func (s *userService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, classify(err, "")
	}
	return users, nil
}

// ListStudents 获取学生列表,附带审核人姓名和 OD 申请数量
func (s *userService) ListStudents(ctx context.Context) ([]*StudentView, error) {
	students, err := s.userRepo.FindStudents(ctx)
	if err != nil {
		return nil, classify(err, "")
	}

	studentIDs := make([]uint, 0, len(students))
	approverSet := make(map[uint]struct{})
	approverIDs := make([]uint, 0)
	for _, student := range students {
		studentIDs = append(studentIDs, student.ID)
		if student.ApprovedByID == nil {
			continue
		}
		if _, ok := approverSet[*student.ApprovedByID]; !ok {
			approverSet[*student.ApprovedByID] = struct{}{}
			approverIDs = append(approverIDs, *student.ApprovedByID)
		}
	}

	counts, err := s.odRepo.CountByUser(ctx, studentIDs)
	if err != nil {
		return nil, classify(err, "")
	}

	approvers, err := s.userRepo.FindByIDs(ctx, approverIDs)
	if err != nil {
		return nil, classify(err, "")
	}
	approverNames := make(map[uint]string, len(approvers))
	for _, approver := range approvers {
		approverNames[approver.ID] = approver.Name
	}

	views := make([]*StudentView, 0, len(students))
	for _, student := range students {
		view := &StudentView{
			User:    student,
			OdCount: counts[student.ID],
		}
		view.HasOdRequests = view.OdCount > 0
		if student.ApprovedByID != nil {
			if name, ok := approverNames[*student.ApprovedByID]; ok {
				view.ApprovedByName = &name
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// ListPendingStudents 获取待审核学生,最新注册在前
func (s *userService) ListPendingStudents(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.FindPendingStudents(ctx)
	if err != nil {
		return nil, classify(err, "")
	}
	return users, nil
}

// ApproveStudent 审核通过学生
func (s *userService) ApproveStudent(ctx context.Context, studentID, approverID uint) (*model.User, error) {
	ok, err := s.userRepo.Approve(ctx, studentID, approverID, time.Now().UTC())
	if err != nil {
		return nil, classify(err, "User not found")
	}

	user, err := s.userRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, classify(err, "User not found")
	}
	if !ok {
		if user.Role != model.RoleStudent {
			return nil, Validation("Only students can be approved")
		}
		return nil, Conflict("Student is already approved")
	}

	recordAudit(ctx, s.audit, approverID, AuditApproveStudent, ResourceUser, strconv.FormatUint(uint64(studentID), 10), map[string]interface{}{
		"registrationNumber": user.RegistrationNumber,
	})
	return user, nil
}

// DenyStudent 拒绝注册申请并删除账号,仅限未审核学生
func (s *userService) DenyStudent(ctx context.Context, studentID, actorID uint) error {
	user, err := s.userRepo.FindByID(ctx, studentID)
	if err != nil {
		return classify(err, "User not found")
	}
	if user.Role != model.RoleStudent {
		return Validation("Only students can be denied")
	}
	if user.IsApproved {
		return Conflict("Approved students cannot be denied")
	}

	ok, err := s.userRepo.DeleteUnapprovedStudent(ctx, studentID)
	if err != nil {
		return classify(err, "User not found")
	}
	if !ok {
		// 查询与删除之间被审核或删除
		return Conflict("Student state changed, please refresh")
	}

	recordAudit(ctx, s.audit, actorID, AuditDenyStudent, ResourceUser, strconv.FormatUint(uint64(studentID), 10), map[string]interface{}{
		"registrationNumber": user.RegistrationNumber,
	})
	return nil
}
