package models

import (
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProcessedForPlatformRecalc tags payment events already consumed by a
// platform reconciliation run. The opportunistic scan skips tagged events
// unless the tenant is explicitly re-selected.
const ProcessedForPlatformRecalc = "platform_recalc"

// PaymentMetadata is whatever the gateway attached at charge-creation time.
// Months is normalized by billing.NormalizePeriodMonths before accumulation.
type PaymentMetadata struct {
	Months   int    `json:"months,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	PlanName string `json:"plan_name,omitempty"`
}

// PaymentEvent is one row of the payment ledger. The raw feed may contain the
// same gateway transaction more than once (webhook retries/replays); the
// transaction id is the dedup key, not a unique column.
type PaymentEvent struct {
	ID            string                                  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TenantID      string                                  `gorm:"column:tenant_id;type:varchar(64);not null;index" json:"tenant_id"`
	TransactionID string                                  `gorm:"column:transaction_id;type:varchar(128);not null;index" json:"transaction_id"`
	Status        types.PaymentEventStatus                `gorm:"column:status;type:varchar(32);not null" json:"status"`
	Scope         types.PaymentScope                      `gorm:"column:scope;type:varchar(32);not null;index" json:"scope"`
	Amount        decimal.Decimal                         `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency      string                                  `gorm:"column:currency;type:varchar(8);not null;default:'BRL'" json:"currency"`
	CustomerID    *string                                 `gorm:"column:customer_id;type:varchar(64)" json:"customer_id"`
	PlanID        *string                                 `gorm:"column:plan_id;type:varchar(64)" json:"plan_id"`
	PaidAt        *time.Time                              `gorm:"column:paid_at;default:null" json:"paid_at"`
	ProcessedFor  *string                                 `gorm:"column:processed_for;type:varchar(64);default:null" json:"processed_for"`
	Metadata      datatypes.JSONType[*PaymentMetadata]    `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt     time.Time                               `json:"created_at"`
	UpdatedAt     time.Time                               `json:"updated_at"`
}

func (PaymentEvent) TableName() string {
	return "payment_event"
}

// EffectivePaidAt is the timestamp used for ordering and accumulation.
// PaidAt is nullable until the gateway confirms; CreatedAt is the fallback.
func (e *PaymentEvent) EffectivePaidAt() time.Time {
	if e.PaidAt != nil {
		return *e.PaidAt
	}
	return e.CreatedAt
}

// RawPeriodMonths returns the unnormalized period length from metadata.
func (e *PaymentEvent) RawPeriodMonths() int {
	if m := e.Metadata.Data(); m != nil {
		return m.Months
	}
	return 0
}

// IsPlatformScope reports whether the event feeds the tenant's own
// subscription rather than client billing.
func (e *PaymentEvent) IsPlatformScope() bool {
	return e.Scope == types.PaymentScopePlatform && e.CustomerID == nil && e.PlanID == nil
}
