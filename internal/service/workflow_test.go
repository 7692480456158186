package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// TestWorkflow_Manual 测试人工审核流转表
func TestWorkflow_Manual(t *testing.T) {
	w := service.NewWorkflow(config.ApprovalModeManual)
	assert.Equal(t, model.OdStatusDraft, w.InitialStatus())
	assert.False(t, w.AutoApprove())

	tests := []struct {
		from   model.OdStatus
		action service.Action
		to     model.OdStatus
		ok     bool
	}{
		{model.OdStatusDraft, service.ActionSubmit, model.OdStatusPending, true},
		{model.OdStatusPending, service.ActionApprove, model.OdStatusApproved, true},
		{model.OdStatusPending, service.ActionReject, model.OdStatusRejected, true},
		{model.OdStatusDraft, service.ActionApprove, "", false},
		{model.OdStatusApproved, service.ActionReject, "", false},
		{model.OdStatusRejected, service.ActionApprove, "", false},
		{model.OdStatusPending, service.ActionSubmit, "", false},
	}
	for _, tt := range tests {
		to, ok := w.Next(tt.from, tt.action)
		assert.Equal(t, tt.ok, ok, "%s --%s-->", tt.from, tt.action)
		assert.Equal(t, tt.to, to)
	}

	assert.True(t, w.OwnerCanModify(model.OdStatusDraft))
	assert.True(t, w.OwnerCanModify(model.OdStatusPending))
	assert.False(t, w.OwnerCanModify(model.OdStatusApproved))
	assert.False(t, w.OwnerCanModify(model.OdStatusRejected))
}

// TestWorkflow_Auto 测试自动审批流转表
func TestWorkflow_Auto(t *testing.T) {
	w := service.NewWorkflow(config.ApprovalModeAuto)
	assert.Equal(t, model.OdStatusApproved, w.InitialStatus())
	assert.True(t, w.AutoApprove())

	to, ok := w.Next(model.OdStatusDraft, service.ActionSubmit)
	assert.True(t, ok)
	assert.Equal(t, model.OdStatusApproved, to)

	_, ok = w.Next(model.OdStatusApproved, service.ActionReject)
	assert.False(t, ok)

	assert.Nil(t, w.EditableStatuses())
	assert.True(t, w.OwnerCanModify(model.OdStatusApproved))
}

// TestWorkflow_UnknownModeIsManual 测试未知模式
func TestWorkflow_UnknownModeIsManual(t *testing.T) {
	w := service.NewWorkflow("bogus")
	assert.Equal(t, config.ApprovalModeManual, w.Mode())
}
