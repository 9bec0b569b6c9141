package types

type PaymentScope string

const (
	// PaymentScopePlatform marks payments for the tenant's own access to the
	// platform. These are the only events the reconciler consumes.
	PaymentScopePlatform PaymentScope = "platform"
	// PaymentScopeCustomer marks payments the tenant collects from its own
	// customers (client billing, separate subsystem).
	PaymentScopeCustomer PaymentScope = "customer"
)

type PaymentEventStatus string

const (
	PaymentEventStatusPending  PaymentEventStatus = "pending"
	PaymentEventStatusPaid     PaymentEventStatus = "paid"
	PaymentEventStatusFailed   PaymentEventStatus = "failed"
	PaymentEventStatusRefunded PaymentEventStatus = "refunded"
)

// CurrencyBRL is the only currency the billing core handles.
const CurrencyBRL = "BRL"

// Canonical billing period lengths in months. Raw gateway metadata is
// normalized onto these three values before accumulation.
const (
	PeriodMonthly    = 1
	PeriodSemiannual = 6
	PeriodAnnual     = 12
)
