package auth

import (
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/casbin"
)

// 权限动作定义
const (
	ObjectAny = "*"

	ActApproveSubmissions = "submissions:approve"
	ActManageTemplates    = "templates:manage"
)

// CasbinGuard 基于Casbin策略的审批权限守卫
// 策略主体可以是用户ID或角色（通过 g 规则继承），客体是模板ID或通配
type CasbinGuard struct{}

// NewCasbinGuard 创建权限守卫
func NewCasbinGuard() *CasbinGuard {
	return &CasbinGuard{}
}

// CanApprove 判断用户是否有权审批指定模板的提交单
func (g *CasbinGuard) CanApprove(userID, templateID string) (bool, error) {
	return casbin.CheckPermission(userID, templateID, ActApproveSubmissions)
}

// CanManageTemplates 判断用户是否有权管理表单模板
func (g *CasbinGuard) CanManageTemplates(userID string) (bool, error) {
	return casbin.CheckPermission(userID, ObjectAny, ActManageTemplates)
}
