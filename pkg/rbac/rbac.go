package rbac

// 权限常量
const (
	// 里程碑操作权限
	PermissionInitializeMilestones = "milestone:initialize"
	PermissionUpdateMilestone      = "milestone:update"
	PermissionCompleteMilestone    = "milestone:complete"
	PermissionReadMilestone        = "milestone:read"

	// 计时操作权限
	PermissionStartTimer = "timer:start"
	PermissionStopTimer  = "timer:stop"
	PermissionReadTimer  = "timer:read"

	// 管理操作权限
	PermissionManageOutbox = "outbox:manage"
)

// 角色常量
const (
	RoleInfluencer = "influencer"
	RoleBrand      = "brand"
	RoleAdmin      = "admin"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	// 博主：干活的人，跑计时器、完成里程碑
	RoleInfluencer: {
		PermissionReadMilestone,
		PermissionCompleteMilestone,
		PermissionStartTimer,
		PermissionStopTimer,
		PermissionReadTimer,
	},
	// 品牌方：发起合作、调整里程碑计划
	RoleBrand: {
		PermissionReadMilestone,
		PermissionInitializeMilestones,
		PermissionUpdateMilestone,
		PermissionReadTimer,
	},
	RoleAdmin: {
		PermissionReadMilestone,
		PermissionInitializeMilestones,
		PermissionUpdateMilestone,
		PermissionCompleteMilestone,
		PermissionStartTimer,
		PermissionStopTimer,
		PermissionReadTimer,
		PermissionManageOutbox,
	},
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 检查角色是否有指定权限（返回错误而不是布尔值，便于处理）
func CheckPermission(role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
