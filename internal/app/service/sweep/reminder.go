package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/platform/mail"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/logctx"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/metrics"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/tool"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"gorm.io/gorm"
)

const (
	// DefaultReminderDays is how many days before expiry the reminder fires.
	DefaultReminderDays = 3
	// DefaultResendGuardDays is the rolling window within which a reminder
	// for the same (subscription, offset) pair is not sent again.
	DefaultResendGuardDays = 2
)

type ReminderResultStatus string

const (
	ReminderSent    ReminderResultStatus = "sent"
	ReminderSkipped ReminderResultStatus = "skipped"
	ReminderFailed  ReminderResultStatus = "failed"
)

type ReminderResult struct {
	SubscriptionID string               `json:"subscription_id"`
	TenantID       string               `json:"tenant_id"`
	Status         ReminderResultStatus `json:"status"`
	Reason         string               `json:"reason,omitempty"`
	Error          string               `json:"error,omitempty"`
}

type ReminderSummary struct {
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Results    []*ReminderResult `json:"results,omitempty"`
}

// reminderCandidate pairs a subscription with its resolved notification
// target before dispatch.
type reminderCandidate struct {
	sub   *models.Subscription
	email string
	name  string
}

// reminderWindow is the one-day bucket exactly windowDays ahead of now.
// Subscriptions whose next billing date falls inside [from, to) are due a
// reminder.
func reminderWindow(now time.Time, windowDays int) (from, to time.Time) {
	from = now.AddDate(0, 0, windowDays)
	return from, from.AddDate(0, 0, 1)
}

// withinResendGuard reports whether a reminder sent at lastSent is still
// fresh enough to suppress another send.
func withinResendGuard(lastSent, now time.Time, guardDays int) bool {
	return now.Sub(lastSent) < time.Duration(guardDays)*24*time.Hour
}

// SweepReminders finds active platform subscriptions expiring in exactly
// windowDays and dispatches one reminder email per subscription,
// concurrently, collecting per-item outcomes without aborting the batch.
// Missing emails and recently reminded subscriptions are skips, not errors.
func (s *Service) SweepReminders(ctx context.Context, now time.Time) (*ReminderSummary, error) {
	windowDays := s.reminderDays()
	from, to := reminderWindow(now, windowDays)

	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ?", types.SubscriptionStatusActive).
		Where("customer_id IS NULL AND plan_id IS NULL").
		Where("next_billing_date >= ? AND next_billing_date < ?", from, to).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select reminder candidates: %w", err)
	}

	summary := &ReminderSummary{Total: len(subs)}
	var candidates []*reminderCandidate
	for _, sub := range subs {
		res := &ReminderResult{SubscriptionID: sub.ID, TenantID: sub.TenantID}

		sent, err := s.recentlyReminded(ctx, sub.ID, windowDays, now)
		if err != nil {
			res.Status = ReminderFailed
			res.Error = err.Error()
			summary.Failed++
			summary.Results = append(summary.Results, res)
			continue
		}
		if sent {
			res.Status = ReminderSkipped
			res.Reason = "already_reminded"
			summary.Skipped++
			summary.Results = append(summary.Results, res)
			continue
		}

		email, name, err := s.lookupTenantEmail(ctx, sub.TenantID)
		if err != nil {
			res.Status = ReminderFailed
			res.Error = err.Error()
			summary.Failed++
			summary.Results = append(summary.Results, res)
			continue
		}
		if email == "" {
			logctx.FromCtx(ctx, s.log).Infow("reminder_skipped_no_email", "tenant_id", sub.TenantID)
			res.Status = ReminderSkipped
			res.Reason = "no_email"
			summary.Skipped++
			summary.Results = append(summary.Results, res)
			continue
		}
		candidates = append(candidates, &reminderCandidate{sub: sub, email: email, name: name})
	}

	dispatched := s.dispatchReminders(ctx, candidates, windowDays, now)
	for _, res := range dispatched {
		if res.Status == ReminderSent {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	summary.Results = append(summary.Results, dispatched...)

	metrics.RemindersSent.Add(float64(summary.Successful))
	logctx.FromCtx(ctx, s.log).Infow("reminder_sweep_done",
		"total", summary.Total, "sent", summary.Successful,
		"failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

// dispatchReminders sends one email per candidate concurrently. A failed
// send never cancels the others; one ReminderRecord is written per
// successful dispatch.
func (s *Service) dispatchReminders(ctx context.Context, candidates []*reminderCandidate, windowDays int, now time.Time) []*ReminderResult {
	if len(candidates) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	resChan := make(chan *ReminderResult, len(candidates))

	for _, cand := range candidates {
		wg.Add(1)
		go func(c *reminderCandidate) {
			defer wg.Done()
			res := &ReminderResult{SubscriptionID: c.sub.ID, TenantID: c.sub.TenantID}

			msg := &mail.ReminderEmail{
				TenantID:        c.sub.TenantID,
				Email:           c.email,
				Name:            c.name,
				DaysRemaining:   windowDays,
				NextBillingDate: *c.sub.NextBillingDate,
			}
			if err := s.mailer.SendReminder(ctx, msg); err != nil {
				res.Status = ReminderFailed
				res.Error = err.Error()
				resChan <- res
				return
			}

			record := &models.ReminderRecord{
				ID:                   tool.GenerateUUIDV7(),
				SubscriptionID:       c.sub.ID,
				TenantID:             c.sub.TenantID,
				DaysBeforeExpiration: windowDays,
				SentAt:               now,
			}
			if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
				// The email went out; surface the bookkeeping failure so the
				// operator knows the guard window may not hold.
				res.Status = ReminderFailed
				res.Error = fmt.Sprintf("sent but failed to record: %v", err)
				resChan <- res
				return
			}
			res.Status = ReminderSent
			resChan <- res
		}(cand)
	}

	wg.Wait()
	close(resChan)

	results := make([]*ReminderResult, 0, len(candidates))
	for res := range resChan {
		results = append(results, res)
	}
	return results
}

func (s *Service) recentlyReminded(ctx context.Context, subscriptionID string, windowDays int, now time.Time) (bool, error) {
	var record models.ReminderRecord
	err := s.db.WithContext(ctx).
		Where("subscription_id = ? AND days_before_expiration = ?", subscriptionID, windowDays).
		Order("sent_at desc").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check reminder record: %w", err)
	}
	return withinResendGuard(record.SentAt, now, s.resendGuardDays()), nil
}

func (s *Service) lookupTenantEmail(ctx context.Context, tenantID string) (email, name string, err error) {
	var profile models.TenantProfile
	dbErr := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&profile).Error
	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("failed to load tenant profile: %w", dbErr)
	}
	return profile.Email, profile.Name, nil
}

func (s *Service) reminderDays() int {
	if s.cfg != nil && s.cfg.Billing.ReminderDays > 0 {
		return s.cfg.Billing.ReminderDays
	}
	return DefaultReminderDays
}

func (s *Service) resendGuardDays() int {
	if s.cfg != nil && s.cfg.Billing.ResendGuardDays > 0 {
		return s.cfg.Billing.ResendGuardDays
	}
	return DefaultResendGuardDays
}
