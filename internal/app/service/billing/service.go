package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/config"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/logctx"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/metrics"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/tool"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Manager is the reconciliation surface consumed by HTTP handlers and the
// scheduled runner.
type Manager interface {
	Reconcile(ctx context.Context, opts *ReconcileOptions) (*ReconciliationReport, error)
	Cancel(ctx context.Context, tenantID string) (*models.Subscription, error)
	GetPlatformSubscription(ctx context.Context, tenantID string) (*models.Subscription, error)
}

type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger
}

var _ Manager = (*Service)(nil)

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log}
}

type ReconcileOptions struct {
	// TenantID forces reconciliation of one tenant regardless of apparent
	// corruption. Empty selects the opportunistic repair scan.
	TenantID string `json:"tenant_id"`
	// DryRun computes and reports without persisting anything.
	DryRun bool `json:"dry_run"`
}

type TenantResultStatus string

const (
	TenantResultUpdated TenantResultStatus = "updated"
	TenantResultSkipped TenantResultStatus = "skipped"
	TenantResultError   TenantResultStatus = "error"
)

const SkipReasonNoPayments = "no_payments"

type PaymentDetail struct {
	TransactionID string          `json:"transaction_id"`
	PaidAt        time.Time       `json:"paid_at"`
	Amount        decimal.Decimal `json:"amount"`
	Months        int             `json:"months"`
}

type TenantResult struct {
	TenantID      string             `json:"tenant_id"`
	Status        TenantResultStatus `json:"status"`
	Reason        string             `json:"reason,omitempty"`
	OldDays       int                `json:"old_days"`
	NewDays       int                `json:"new_days"`
	TotalPayments int                `json:"total_payments"`
	TotalMonths   int                `json:"total_months"`
	Payments      []*PaymentDetail   `json:"payment_details,omitempty"`
	Error         string             `json:"error,omitempty"`
}

type ReconciliationReport struct {
	TotalChecked int             `json:"total_checked"`
	Updated      int             `json:"updated"`
	Skipped      int             `json:"skipped"`
	Errors       int             `json:"errors"`
	DryRun       bool            `json:"dry_run"`
	Results      []*TenantResult `json:"results"`
}

// Reconcile recomputes the authoritative billing state from the payment
// ledger. With a tenant id it is an explicit repair; without one it scans for
// platform subscriptions whose days-remaining exceed the guard-rail threshold
// (a proxy for historical corruption). Per-tenant failures are recorded in
// the report and never abort the remaining tenants; the returned error is
// non-nil only when the initial selection itself fails.
func (s *Service) Reconcile(ctx context.Context, opts *ReconcileOptions) (*ReconciliationReport, error) {
	if opts == nil {
		opts = &ReconcileOptions{}
	}
	now := time.Now()

	var tenants []string
	if opts.TenantID != "" {
		tenants = []string{opts.TenantID}
	} else {
		var err error
		tenants, err = s.selectSuspectTenants(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("failed to select reconcile candidates: %w", err)
		}
	}

	report := &ReconciliationReport{
		TotalChecked: len(tenants),
		DryRun:       opts.DryRun,
		Results:      make([]*TenantResult, 0, len(tenants)),
	}
	for _, tenantID := range tenants {
		res := s.reconcileTenant(ctx, tenantID, opts.DryRun, now)
		report.Results = append(report.Results, res)
		switch res.Status {
		case TenantResultUpdated:
			report.Updated++
		case TenantResultSkipped:
			report.Skipped++
		case TenantResultError:
			report.Errors++
		}
	}

	if !opts.DryRun {
		metrics.ReconcileRuns.Inc()
		metrics.ReconcileTenantsUpdated.Add(float64(report.Updated))
	}
	logctx.FromCtx(ctx, s.log).Infow("reconcile_done",
		"checked", report.TotalChecked, "updated", report.Updated,
		"skipped", report.Skipped, "errors", report.Errors, "dry_run", opts.DryRun)
	return report, nil
}

// selectSuspectTenants returns tenants whose platform subscription has a next
// billing date beyond the guard-rail horizon. Tenants that drift without ever
// crossing the threshold are not picked up here; use the explicit per-tenant
// path for those.
func (s *Service) selectSuspectTenants(ctx context.Context, now time.Time) ([]string, error) {
	horizon := now.AddDate(0, 0, s.guardRailDays())
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("customer_id IS NULL AND plan_id IS NULL").
		Where("next_billing_date > ?", horizon).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(subs, func(sub *models.Subscription, _ int) string { return sub.TenantID }), nil
}

func (s *Service) reconcileTenant(ctx context.Context, tenantID string, dryRun bool, now time.Time) *TenantResult {
	res := &TenantResult{TenantID: tenantID}
	log := logctx.FromCtx(ctx, s.log).With("tenant_id", tenantID)

	sub, err := s.GetPlatformSubscription(ctx, tenantID)
	if err != nil {
		res.Status = TenantResultError
		res.Error = fmt.Sprintf("failed to load subscription: %v", err)
		return res
	}
	res.OldDays = sub.DaysRemaining(now)

	events, err := s.listPaidPlatformEvents(ctx, tenantID)
	if err != nil {
		res.Status = TenantResultError
		res.Error = fmt.Sprintf("failed to load payment events: %v", err)
		return res
	}
	if len(events) == 0 {
		log.Infow("reconcile_skipped", "reason", SkipReasonNoPayments)
		res.Status = TenantResultSkipped
		res.Reason = SkipReasonNoPayments
		return res
	}

	SortByEffectivePaidAt(events)
	events = Dedupe(events)
	acc, err := Accumulate(events, now)
	if err != nil {
		res.Status = TenantResultError
		res.Error = err.Error()
		return res
	}

	res.TotalPayments = len(events)
	res.TotalMonths = acc.TotalMonths
	res.NewDays = int(acc.NextBillingDate.Sub(now).Hours() / 24)
	res.Payments = lo.Map(events, func(ev *models.PaymentEvent, _ int) *PaymentDetail {
		return &PaymentDetail{
			TransactionID: ev.TransactionID,
			PaidAt:        ev.EffectivePaidAt(),
			Amount:        ev.Amount,
			Months:        NormalizePeriodMonths(ev.RawPeriodMonths()),
		}
	})

	if dryRun {
		res.Status = TenantResultUpdated
		return res
	}

	if err := s.applyReconciliation(ctx, tenantID, sub, acc, events, now); err != nil {
		log.Errorw("reconcile_apply_failed", "err", err)
		res.Status = TenantResultError
		res.Error = err.Error()
		return res
	}
	res.Status = TenantResultUpdated
	return res
}

// applyReconciliation writes the computed tuple atomically: one update for
// the subscription row, one for the idempotency markers, inside a single
// transaction so an abort mid-tenant never leaves a half-written state.
func (s *Service) applyReconciliation(ctx context.Context, tenantID string, sub *models.Subscription, acc *AccumulateResult, events []*models.PaymentEvent, now time.Time) error {
	status := types.SubscriptionStatusActive
	if !acc.NextBillingDate.After(now) {
		status = types.SubscriptionStatusExpired
	}
	if sub != nil && sub.Status == types.SubscriptionStatusCancelled &&
		status == types.SubscriptionStatusActive && !s.cfg.Billing.ReactivateOnPayment {
		// Reactivation policy off: dates are repaired, the user-initiated
		// cancellation stands.
		status = types.SubscriptionStatusCancelled
	}

	var before *models.Subscription
	if sub != nil {
		cp := *sub
		before = &cp
	}

	next := acc
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target := sub
		if target == nil {
			target = &models.Subscription{
				ID:       tool.GenerateUUIDV7(),
				TenantID: tenantID,
			}
		}
		target.Status = status
		target.StartDate = &next.StartDate
		target.LastBillingDate = &next.LastBillingDate
		target.NextBillingDate = &next.NextBillingDate
		target.FailedPaymentsCount = 0
		if err := tx.Save(target).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}
		sub = target

		ids := lo.Map(events, func(ev *models.PaymentEvent, _ int) string { return ev.ID })
		if err := tx.Model(&models.PaymentEvent{}).
			Where("id IN ?", ids).
			Update("processed_for", models.ProcessedForPlatformRecalc).Error; err != nil {
			return fmt.Errorf("failed to mark events processed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.writeSubscriptionLog(ctx, before, sub, types.SubscriptionChangeReasonReconcile)
	return nil
}

// Cancel transitions a tenant's platform subscription to cancelled. The next
// billing date is deliberately not cleared: access persists until it passes.
func (s *Service) Cancel(ctx context.Context, tenantID string) (*models.Subscription, error) {
	sub, err := s.GetPlatformSubscription(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("no platform subscription for tenant %s", tenantID)
	}
	if !CanTransition(sub.Status, types.SubscriptionStatusCancelled) {
		return nil, fmt.Errorf("cannot cancel subscription in status %s", sub.Status)
	}

	before := *sub
	sub.Status = types.SubscriptionStatusCancelled
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to save cancellation: %w", err)
	}
	s.writeSubscriptionLog(ctx, &before, sub, types.SubscriptionChangeReasonCancel)
	return sub, nil
}

// GetPlatformSubscription returns the tenant's platform-scope row, nil when
// none exists yet.
func (s *Service) GetPlatformSubscription(ctx context.Context, tenantID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id IS NULL AND plan_id IS NULL", tenantID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Service) listPaidPlatformEvents(ctx context.Context, tenantID string) ([]*models.PaymentEvent, error) {
	var events []*models.PaymentEvent
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND scope = ? AND status = ?",
			tenantID, types.PaymentScopePlatform, types.PaymentEventStatusPaid).
		Where("customer_id IS NULL AND plan_id IS NULL").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// writeSubscriptionLog persists a before/after audit row asynchronously;
// failures are logged, never propagated.
func (s *Service) writeSubscriptionLog(ctx context.Context, before, after *models.Subscription, reason types.SubscriptionChangeReason) {
	go func() {
		entry := &models.SubscriptionLog{
			ID:       tool.GenerateUUIDV7(),
			TenantID: after.TenantID,
			Reason:   reason,
			Before:   datatypes.NewJSONType(before),
			After:    datatypes.NewJSONType(after),
			Extra:    datatypes.JSONMap{},
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save subscription log: %v", err)
		}
	}()
}

func (s *Service) guardRailDays() int {
	if s.cfg != nil && s.cfg.Billing.GuardRailDays > 0 {
		return s.cfg.Billing.GuardRailDays
	}
	return MaxFutureDays
}
