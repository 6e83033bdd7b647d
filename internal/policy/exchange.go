package policy

import "github.com/langchou/fleetdesk/internal/models"

// CanViewAnyExchange 所有角色均可查看交接单列表（列表本身按角色过滤）
func CanViewAnyExchange(user *models.User) bool {
	return true
}

// CanViewExchange 管理员可查看所有交接单，司机仅可查看自己参与的
func CanViewExchange(user *models.User, exchange *models.Exchange) bool {
	return user.IsAdmin() ||
		exchange.FromDriverID == user.ID ||
		exchange.ToDriverID == user.ID
}

// CanCreateExchange 仅司机可发起交接
func CanCreateExchange(user *models.User) bool {
	return user.IsChauffeur()
}

// CanUpdateExchange 仅发起人可更新，且仅在待审批状态下
func CanUpdateExchange(user *models.User, exchange *models.Exchange) bool {
	return exchange.FromDriverID == user.ID && exchange.IsPending()
}

// CanDeleteExchange 管理员可删除任意交接单，发起人仅可删除待审批的
func CanDeleteExchange(user *models.User, exchange *models.Exchange) bool {
	return user.IsAdmin() ||
		(exchange.FromDriverID == user.ID && exchange.IsPending())
}

// CanApproveExchange 仅管理员可审批，且仅限待审批状态
func CanApproveExchange(user *models.User, exchange *models.Exchange) bool {
	return user.IsAdmin() && exchange.IsPending()
}

// CanRejectExchange 仅管理员可驳回，且仅限待审批状态
func CanRejectExchange(user *models.User, exchange *models.Exchange) bool {
	return user.IsAdmin() && exchange.IsPending()
}
