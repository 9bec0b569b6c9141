package sweep

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/platform/mail"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingMailer struct{}

func (failingMailer) SendReminder(_ context.Context, msg *mail.ReminderEmail) error {
	return fmt.Errorf("smtp unavailable for %s", msg.TenantID)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReminderWindow(t *testing.T) {
	now := day(2024, time.March, 1)
	from, to := reminderWindow(now, 3)
	require.Equal(t, day(2024, time.March, 4), from)
	require.Equal(t, day(2024, time.March, 5), to)
}

func TestWithinResendGuard(t *testing.T) {
	now := day(2024, time.March, 10)
	require.True(t, withinResendGuard(now.Add(-time.Hour), now, 2))
	require.True(t, withinResendGuard(now.AddDate(0, 0, -1), now, 2))
	require.False(t, withinResendGuard(now.AddDate(0, 0, -2), now, 2))
	require.False(t, withinResendGuard(now.AddDate(0, 0, -10), now, 2))
}

func TestReminderConfigDefaults(t *testing.T) {
	svc := NewService(&config.Config{}, nil, zap.NewNop().Sugar(), failingMailer{})
	require.Equal(t, DefaultReminderDays, svc.reminderDays())
	require.Equal(t, DefaultResendGuardDays, svc.resendGuardDays())

	cfg := &config.Config{}
	cfg.Billing.ReminderDays = 7
	cfg.Billing.ResendGuardDays = 5
	svc = NewService(cfg, nil, zap.NewNop().Sugar(), failingMailer{})
	require.Equal(t, 7, svc.reminderDays())
	require.Equal(t, 5, svc.resendGuardDays())
}

func TestDispatchReminders_FailuresDoNotAbortBatch(t *testing.T) {
	svc := NewService(&config.Config{}, nil, zap.NewNop().Sugar(), failingMailer{})

	next := day(2024, time.March, 4)
	candidates := []*reminderCandidate{
		{sub: &models.Subscription{ID: "sub-1", TenantID: "t-1", NextBillingDate: &next}, email: "a@example.com"},
		{sub: &models.Subscription{ID: "sub-2", TenantID: "t-2", NextBillingDate: &next}, email: "b@example.com"},
		{sub: &models.Subscription{ID: "sub-3", TenantID: "t-3", NextBillingDate: &next}, email: "c@example.com"},
	}

	results := svc.dispatchReminders(context.Background(), candidates, 3, day(2024, time.March, 1))
	require.Len(t, results, 3)

	seen := map[string]bool{}
	for _, res := range results {
		require.Equal(t, ReminderFailed, res.Status)
		require.Contains(t, res.Error, "smtp unavailable")
		seen[res.SubscriptionID] = true
	}
	require.Len(t, seen, 3)
}

func TestDispatchReminders_NoCandidates(t *testing.T) {
	svc := NewService(&config.Config{}, nil, zap.NewNop().Sugar(), failingMailer{})
	require.Nil(t, svc.dispatchReminders(context.Background(), nil, 3, day(2024, time.March, 1)))
}
