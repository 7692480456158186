package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// TestStatisticsService_GetAdminStatistics 测试管理端统计
func TestStatisticsService_GetAdminStatistics(t *testing.T) {
	env := newTestEnv(t, config.ApprovalModeManual)
	ctx := context.Background()
	admin := env.admin(t)
	asha := env.student(t, "21BCE1001", "Asha")
	_, err := env.users.Register(ctx, service.RegisterInput{RegistrationNumber: "R9", Name: "Pending", Mobile: "1234567", Password: "secret123"})
	require.NoError(t, err)

	var ids []uint
	for _, date := range []string{"2025-05-01", "2025-05-02", "2025-05-03"} {
		req, err := env.ods.Create(ctx, asha, service.CreateOdInput{Date: day(t, date), Session: model.SessionFN})
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}
	_, err = env.ods.ConfirmSubmission(ctx, asha)
	require.NoError(t, err)
	_, err = env.ods.Approve(ctx, admin, ids[0])
	require.NoError(t, err)
	_, err = env.ods.Reject(ctx, admin, ids[1])
	require.NoError(t, err)

	stats, err := env.stats.GetAdminStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOdRequests)
	assert.Equal(t, int64(1), stats.OdByStatus[model.OdStatusPending])
	assert.Equal(t, int64(1), stats.OdByStatus[model.OdStatusApproved])
	assert.Equal(t, int64(1), stats.OdByStatus[model.OdStatusRejected])
	assert.Equal(t, 50.0, stats.ApprovalRate)
	assert.Equal(t, int64(2), stats.TotalStudents)
	assert.Equal(t, int64(1), stats.ApprovedStudents)
	assert.Equal(t, int64(1), stats.PendingStudents)
	assert.Equal(t, config.ApprovalModeManual, stats.ApprovalMode)

	logs, total, err := env.audit.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)
}
