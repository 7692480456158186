package service

import (
	"context"

	"github.com/surya-d-naidu/UniOD/internal/metrics"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
)

// StatisticsService 管理端统计服务接口
type StatisticsService interface {
	GetAdminStatistics(ctx context.Context) (*AdminStatistics, error)
}

// AdminStatistics 管理端统计
type AdminStatistics struct {
	TotalOdRequests  int64                    `json:"totalOdRequests"`
	OdByStatus       map[model.OdStatus]int64 `json:"odByStatus"`
	ApprovalRate     float64                  `json:"approvalRate"` // 已决申请中通过的百分比
	TotalStudents    int64                    `json:"totalStudents"`
	ApprovedStudents int64                    `json:"approvedStudents"`
	PendingStudents  int64                    `json:"pendingStudents"`
	ApprovalMode     string                   `json:"approvalMode"`
}

// statisticsService 统计服务实现
type statisticsService struct {
	userRepo repository.UserRepository
	odRepo   repository.OdRequestRepository
	workflow *Workflow
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(userRepo repository.UserRepository, odRepo repository.OdRequestRepository, workflow *Workflow) StatisticsService {
	return &statisticsService{userRepo: userRepo, odRepo: odRepo, workflow: workflow}
}

// GetAdminStatistics 汇总 OD 申请和学生数量
func (s *statisticsService) GetAdminStatistics(ctx context.Context) (*AdminStatistics, error) {
	byStatus, err := s.odRepo.CountByStatus(ctx)
	if err != nil {
		return nil, classify(err, "")
	}

	totalStudents, err := s.userRepo.CountStudents(ctx, nil)
	if err != nil {
		return nil, classify(err, "")
	}
	approved := true
	approvedStudents, err := s.userRepo.CountStudents(ctx, &approved)
	if err != nil {
		return nil, classify(err, "")
	}

	stats := &AdminStatistics{
		OdByStatus:       byStatus,
		TotalStudents:    totalStudents,
		ApprovedStudents: approvedStudents,
		PendingStudents:  totalStudents - approvedStudents,
		ApprovalMode:     s.workflow.Mode(),
	}
	for status, count := range byStatus {
		stats.TotalOdRequests += count
		metrics.UpdateOdRequestsByStatus(string(status), float64(count))
	}

	decided := byStatus[model.OdStatusApproved] + byStatus[model.OdStatusRejected]
	if decided > 0 {
		stats.ApprovalRate = float64(byStatus[model.OdStatusApproved]) / float64(decided) * 100
	}
	return stats, nil
}
