package types

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonPayment    SubscriptionChangeReason = "payment"
	SubscriptionChangeReasonReconcile  SubscriptionChangeReason = "reconcile"
	SubscriptionChangeReasonCancel     SubscriptionChangeReason = "cancel"
	SubscriptionChangeReasonReactivate SubscriptionChangeReason = "reactivate"
	SubscriptionChangeReasonExpire     SubscriptionChangeReason = "expire"
)

// SubscriptionInfo is the read shape returned to API consumers.
type SubscriptionInfo struct {
	Status          SubscriptionStatus `json:"status"`
	StartDate       *time.Time         `json:"start_date"`
	LastBillingDate *time.Time         `json:"last_billing_date"`
	NextBillingDate *time.Time         `json:"next_billing_date"`
	DaysRemaining   int                `json:"days_remaining"`
}
