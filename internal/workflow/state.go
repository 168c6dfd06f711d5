package workflow

import (
	"errors"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

// Action 状态机事件
type Action string

const (
	ActionSubmit   Action = "submit"   // 草稿提交进入审批
	ActionApprove  Action = "approve"  // 批准
	ActionDeny     Action = "deny"     // 拒绝
	ActionWithdraw Action = "withdraw" // 提交人撤回，回到草稿
)

var (
	// ErrInvalidTransition 当前状态不允许该事件
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnauthorized 请求人没有执行该事件的权限
	ErrUnauthorized = errors.New("not authorized for this action")

	// ErrValidationFailed 提交数据未通过模板校验
	ErrValidationFailed = errors.New("submission data failed validation")
)

// transitions 状态迁移表：from -> event -> to
// 不在表内的组合一律拒绝；approved/denied 为终态，被拒绝的提交单
// 只能新建提交，不能重新打开
var transitions = map[model.SubmissionStatus]map[Action]model.SubmissionStatus{
	model.SubmissionStatusDraft: {
		ActionSubmit: model.SubmissionStatusPending,
	},
	model.SubmissionStatusPending: {
		ActionApprove:  model.SubmissionStatusApproved,
		ActionDeny:     model.SubmissionStatusDenied,
		ActionWithdraw: model.SubmissionStatusDraft,
	},
}

// Next 查询迁移表
func Next(from model.SubmissionStatus, action Action) (model.SubmissionStatus, bool) {
	to, ok := transitions[from][action]
	return to, ok
}
