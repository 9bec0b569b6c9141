package models

import (
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"gorm.io/datatypes"
)

// Subscription holds the lifecycle state of one subscription. The platform
// row (the tenant's own access to the product) is the one with both
// customer_id and plan_id NULL; exactly one such row exists per tenant.
type Subscription struct {
	ID       string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TenantID string                   `gorm:"column:tenant_id;type:varchar(64);not null;index" json:"tenant_id"`
	Status   types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// CustomerID and PlanID are set only on customer-scope subscriptions,
	// which this core never writes.
	CustomerID *string `gorm:"column:customer_id;type:varchar(64)" json:"customer_id"`
	PlanID     *string `gorm:"column:plan_id;type:varchar(64)" json:"plan_id"`
	// StartDate is the first recognized payment (or trial start).
	StartDate *time.Time `gorm:"column:start_date;default:null" json:"start_date"`
	// LastBillingDate is the most recent recognized payment.
	LastBillingDate *time.Time `gorm:"column:last_billing_date;default:null" json:"last_billing_date"`
	// NextBillingDate is when access lapses absent further payment.
	NextBillingDate     *time.Time     `gorm:"column:next_billing_date;default:null" json:"next_billing_date"`
	FailedPaymentsCount int            `gorm:"column:failed_payments_count;not null;default:0" json:"failed_payments_count"`
	Extra               datatypes.JSON `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

func (s *Subscription) IsPlatform() bool {
	return s != nil && s.CustomerID == nil && s.PlanID == nil
}

// DaysRemaining is the whole number of days until NextBillingDate, negative
// once it has passed. Returns 0 when no billing date is set.
func (s *Subscription) DaysRemaining(now time.Time) int {
	if s == nil || s.NextBillingDate == nil {
		return 0
	}
	return int(s.NextBillingDate.Sub(now).Hours() / 24)
}

// Valid reports whether the subscription currently grants access. Cancelled
// subscriptions keep access until the billing date passes.
func (s *Subscription) Valid(now time.Time) bool {
	if s == nil || s.NextBillingDate == nil {
		return s != nil && s.Status == types.SubscriptionStatusTrial
	}
	switch s.Status {
	case types.SubscriptionStatusActive, types.SubscriptionStatusTrial, types.SubscriptionStatusCancelled:
		return s.NextBillingDate.After(now)
	default:
		return false
	}
}

func (s *Subscription) Info(now time.Time) *types.SubscriptionInfo {
	if s == nil {
		return nil
	}
	return &types.SubscriptionInfo{
		Status:          s.Status,
		StartDate:       s.StartDate,
		LastBillingDate: s.LastBillingDate,
		NextBillingDate: s.NextBillingDate,
		DaysRemaining:   s.DaysRemaining(now),
	}
}
