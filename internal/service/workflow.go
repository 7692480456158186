package service

import (
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/model"
)

// Action 审批动作
type Action string

const (
	ActionCreate  Action = "create"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// statusNone 创建前的虚拟状态
const statusNone model.OdStatus = ""

type transitionKey struct {
	from   model.OdStatus
	action Action
}

var manualTransitions = map[transitionKey]model.OdStatus{
	{statusNone, ActionCreate}:             model.OdStatusDraft,
	{model.OdStatusDraft, ActionSubmit}:    model.OdStatusPending,
	{model.OdStatusPending, ActionApprove}: model.OdStatusApproved,
	{model.OdStatusPending, ActionReject}:  model.OdStatusRejected,
}

var autoTransitions = map[transitionKey]model.OdStatus{
	{statusNone, ActionCreate}:             model.OdStatusApproved,
	{model.OdStatusDraft, ActionSubmit}:    model.OdStatusApproved,
	{model.OdStatusPending, ActionApprove}: model.OdStatusApproved,
	{model.OdStatusPending, ActionReject}:  model.OdStatusRejected,
}

// Workflow OD 申请状态机
type Workflow struct {
	mode        string
	transitions map[transitionKey]model.OdStatus
}

// NewWorkflow 按审批模式创建状态机,未知模式按人工审核处理
func NewWorkflow(mode string) *Workflow {
	if mode == config.ApprovalModeAuto {
		return &Workflow{mode: config.ApprovalModeAuto, transitions: autoTransitions}
	}
	return &Workflow{mode: config.ApprovalModeManual, transitions: manualTransitions}
}

// Mode 当前审批模式
func (w *Workflow) Mode() string {
	return w.mode
}

// AutoApprove 是否自动审批
func (w *Workflow) AutoApprove() bool {
	return w.mode == config.ApprovalModeAuto
}

// InitialStatus 新建申请的状态
func (w *Workflow) InitialStatus() model.OdStatus {
	status, _ := w.Next(statusNone, ActionCreate)
	return status
}

// Next 查询状态流转,不允许的流转返回 false
func (w *Workflow) Next(from model.OdStatus, action Action) (model.OdStatus, bool) {
	to, ok := w.transitions[transitionKey{from: from, action: action}]
	return to, ok
}

// EditableStatuses 申请人可修改或删除的状态,nil 表示不限
func (w *Workflow) EditableStatuses() []model.OdStatus {
	if w.AutoApprove() {
		return nil
	}
	return []model.OdStatus{model.OdStatusDraft, model.OdStatusPending}
}

// OwnerCanModify 申请人是否可以修改该状态的申请
func (w *Workflow) OwnerCanModify(status model.OdStatus) bool {
	allowed := w.EditableStatuses()
	if allowed == nil {
		return true
	}
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}
