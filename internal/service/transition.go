package service

import (
	"fmt"

	"github.com/karahi-ops/api/internal/enum"
)

// allowedTransitions defines the legal order status edges. Key is the current
// status, value is the set of statuses it can move to. RECEIVED and REJECTED
// are terminal: no entry. The UNDER_REVIEW self-edge covers branch edits to
// item lines while the order sits in review.
var allowedTransitions = map[string][]string{
	enum.OrderStatusDraft:         {enum.OrderStatusUnderReview},
	enum.OrderStatusUnderReview:   {enum.OrderStatusUnderReview, enum.OrderStatusSentToKitchen},
	enum.OrderStatusSentToKitchen: {enum.OrderStatusUnderProcess, enum.OrderStatusRejected},
	enum.OrderStatusUnderProcess:  {enum.OrderStatusShipped},
	enum.OrderStatusShipped:       {enum.OrderStatusReceived},
}

// IsValidOrderStatus reports whether s is one of the seven known statuses.
func IsValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusDraft, enum.OrderStatusUnderReview,
		enum.OrderStatusSentToKitchen, enum.OrderStatusUnderProcess,
		enum.OrderStatusShipped, enum.OrderStatusReceived,
		enum.OrderStatusRejected:
		return true
	}
	return false
}

// IsTerminalOrderStatus reports whether s admits no further transitions.
func IsTerminalOrderStatus(s string) bool {
	return s == enum.OrderStatusReceived || s == enum.OrderStatusRejected
}

// ValidateTransition checks if moving from current to next is allowed.
func ValidateTransition(current, next string) error {
	if IsTerminalOrderStatus(current) {
		return fmt.Errorf("%w: %s is terminal", ErrIllegalTransition, current)
	}
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("%w: cannot transition from %s", ErrIllegalTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrIllegalTransition, current, next)
}
