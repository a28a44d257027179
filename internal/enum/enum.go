package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusDraft         = "DRAFT"
	OrderStatusUnderReview   = "UNDER_REVIEW"
	OrderStatusSentToKitchen = "SENT_TO_KITCHEN"
	OrderStatusUnderProcess  = "UNDER_PROCESS"
	OrderStatusShipped       = "SHIPPED"
	OrderStatusReceived      = "RECEIVED"
	OrderStatusRejected      = "REJECTED"
)

// ── Group B: Borderline (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleBranch  = "BRANCH"
	UserRoleKitchen = "KITCHEN"
)

const (
	OrderTypeUrgent   = "URGENT"
	OrderTypeRoutine  = "ROUTINE"
	OrderTypeSchedule = "SCHEDULE"
)

const (
	WastageTypeExpired   = "EXPIRED"
	WastageTypeUnsold    = "UNSOLD"
	WastageTypeSpillOver = "SPILL_OVER"
)
