package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/logctx"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/metrics"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/tool"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"gorm.io/datatypes"
)

type ExpiredResult struct {
	SubscriptionID string                   `json:"subscription_id"`
	TenantID       string                   `json:"tenant_id"`
	PreviousStatus types.SubscriptionStatus `json:"previous_status"`
	NewStatus      types.SubscriptionStatus `json:"new_status"`
	Success        bool                     `json:"success"`
	Error          string                   `json:"error,omitempty"`
}

// SweepExpired transitions every subscription whose next billing date has
// passed into expired. Already-expired rows are excluded by the status
// filter, which makes the sweep idempotent. Per-row failures are reported
// individually and do not halt the sweep; the returned error is non-nil only
// when the selection query itself fails.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) ([]*ExpiredResult, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("status IN ?", []types.SubscriptionStatus{
			types.SubscriptionStatusActive,
			types.SubscriptionStatusTrial,
			types.SubscriptionStatusCancelled,
		}).
		Where("next_billing_date IS NOT NULL AND next_billing_date < ?", now).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select expiring subscriptions: %w", err)
	}

	results := make([]*ExpiredResult, 0, len(subs))
	expired := 0
	for _, sub := range subs {
		res := &ExpiredResult{
			SubscriptionID: sub.ID,
			TenantID:       sub.TenantID,
			PreviousStatus: sub.Status,
			NewStatus:      types.SubscriptionStatusExpired,
		}
		if err := s.expireOne(ctx, sub); err != nil {
			res.Success = false
			res.Error = err.Error()
			logctx.FromCtx(ctx, s.log).Errorw("expiry_sweep_item_failed",
				"tenant_id", sub.TenantID, "subscription_id", sub.ID, "err", err)
		} else {
			res.Success = true
			expired++
		}
		results = append(results, res)
	}

	metrics.SubscriptionsExpired.Add(float64(expired))
	logctx.FromCtx(ctx, s.log).Infow("expiry_sweep_done", "selected", len(subs), "expired", expired)
	return results, nil
}

func (s *Service) expireOne(ctx context.Context, sub *models.Subscription) error {
	before := *sub
	sub.Status = types.SubscriptionStatusExpired
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("failed to save expiry: %w", err)
	}

	go func(b, a models.Subscription) {
		entry := &models.SubscriptionLog{
			ID:       tool.GenerateUUIDV7(),
			TenantID: a.TenantID,
			Reason:   types.SubscriptionChangeReasonExpire,
			Before:   datatypes.NewJSONType(&b),
			After:    datatypes.NewJSONType(&a),
			Extra:    datatypes.JSONMap{"previous_status": string(b.Status)},
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save subscription log: %v", err)
		}
	}(before, *sub)
	return nil
}
