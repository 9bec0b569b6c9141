package billing

import (
	"testing"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func paidEvent(txID string, paidAt time.Time, months int) *models.PaymentEvent {
	return &models.PaymentEvent{
		ID:            "evt-" + txID,
		TenantID:      "tenant-1",
		TransactionID: txID,
		Status:        types.PaymentEventStatusPaid,
		Scope:         types.PaymentScopePlatform,
		PaidAt:        &paidAt,
		Metadata:      datatypes.NewJSONType(&models.PaymentMetadata{Months: months}),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddCalendarMonths_EndOfMonthClamp(t *testing.T) {
	// Jan 31 + 1 month lands on the last day of February, not March 2.
	got := AddCalendarMonths(date(2024, time.January, 31), 1)
	require.Equal(t, date(2024, time.February, 29), got)

	got = AddCalendarMonths(date(2023, time.January, 31), 1)
	require.Equal(t, date(2023, time.February, 28), got)

	got = AddCalendarMonths(date(2024, time.March, 31), 1)
	require.Equal(t, date(2024, time.April, 30), got)
}

func TestAddCalendarMonths_PlainAndYearRollover(t *testing.T) {
	require.Equal(t, date(2024, time.April, 1), AddCalendarMonths(date(2024, time.March, 1), 1))
	require.Equal(t, date(2025, time.January, 15), AddCalendarMonths(date(2024, time.July, 15), 6))
	require.Equal(t, date(2025, time.March, 10), AddCalendarMonths(date(2024, time.March, 10), 12))
}

func TestAddCalendarMonths_PreservesClock(t *testing.T) {
	in := time.Date(2024, time.May, 14, 13, 45, 30, 0, time.UTC)
	got := AddCalendarMonths(in, 1)
	require.Equal(t, time.Date(2024, time.June, 14, 13, 45, 30, 0, time.UTC), got)
}

func TestNormalizePeriodMonths(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{1, 1}, {6, 6}, {12, 12},
		{0, 1}, {2, 1}, {3, 1},
		{4, 6}, {7, 6}, {9, 6},
		{10, 12}, {11, 12}, {13, 12}, {24, 12},
		{-1, 1},
	}
	for _, c := range cases {
		require.Equal(t, c.want, NormalizePeriodMonths(c.in), "in=%d", c.in)
	}
}

func TestAccumulate_SingleMonthly(t *testing.T) {
	now := date(2024, time.March, 15)
	res, err := Accumulate([]*models.PaymentEvent{
		paidEvent("tx-1", date(2024, time.March, 1), 1),
	}, now)
	require.NoError(t, err)
	require.Equal(t, date(2024, time.April, 1), res.NextBillingDate)
	require.Equal(t, 1, res.TotalMonths)
	require.Equal(t, date(2024, time.March, 1), res.StartDate)
	require.Equal(t, date(2024, time.March, 1), res.LastBillingDate)
	require.False(t, res.Clamped)
}

func TestAccumulate_StackingBeforeCursor(t *testing.T) {
	// Second payment arrives while coverage is still running, so it extends
	// the cursor instead of restarting from its own date.
	now := date(2024, time.February, 1)
	res, err := Accumulate([]*models.PaymentEvent{
		paidEvent("tx-1", date(2024, time.January, 1), 1),
		paidEvent("tx-2", date(2024, time.January, 15), 1),
	}, now)
	require.NoError(t, err)
	require.Equal(t, date(2024, time.March, 1), res.NextBillingDate)
	require.Equal(t, 2, res.TotalMonths)
}

func TestAccumulate_RestartAfterLapse(t *testing.T) {
	// Coverage lapsed on Feb 1; the March payment restarts from its own date,
	// the lapsed weeks are not recovered.
	now := date(2024, time.March, 20)
	res, err := Accumulate([]*models.PaymentEvent{
		paidEvent("tx-1", date(2024, time.January, 1), 1),
		paidEvent("tx-2", date(2024, time.March, 10), 1),
	}, now)
	require.NoError(t, err)
	require.Equal(t, date(2024, time.April, 10), res.NextBillingDate)
	require.Equal(t, date(2024, time.January, 1), res.StartDate)
	require.Equal(t, date(2024, time.March, 10), res.LastBillingDate)
}

func TestAccumulate_PaymentExactlyOnCursorRestarts(t *testing.T) {
	now := date(2024, time.February, 15)
	res, err := Accumulate([]*models.PaymentEvent{
		paidEvent("tx-1", date(2024, time.January, 1), 1),
		paidEvent("tx-2", date(2024, time.February, 1), 1),
	}, now)
	require.NoError(t, err)
	require.Equal(t, date(2024, time.March, 1), res.NextBillingDate)
}

func TestAccumulate_GuardRailClamp(t *testing.T) {
	now := date(2024, time.January, 1)
	res, err := Accumulate([]*models.PaymentEvent{
		paidEvent("tx-1", date(2024, time.January, 1), 12),
		paidEvent("tx-2", date(2024, time.January, 2), 12),
	}, now)
	require.NoError(t, err)
	require.True(t, res.Clamped)
	require.Equal(t, now.AddDate(0, 0, MaxFutureDays), res.NextBillingDate)
	require.Equal(t, 24, res.TotalMonths)
}

func TestAccumulate_MixedPeriodsNormalized(t *testing.T) {
	// Legacy charge with months=7 normalizes to semiannual.
	now := date(2024, time.January, 20)
	res, err := Accumulate([]*models.PaymentEvent{
		paidEvent("tx-1", date(2024, time.January, 10), 7),
	}, now)
	require.NoError(t, err)
	require.Equal(t, date(2024, time.July, 10), res.NextBillingDate)
	require.Equal(t, 6, res.TotalMonths)
}

func TestAccumulate_EmptyInput(t *testing.T) {
	_, err := Accumulate(nil, date(2024, time.January, 1))
	require.Error(t, err)
}

func TestAccumulate_Deterministic(t *testing.T) {
	now := date(2024, time.June, 1)
	events := []*models.PaymentEvent{
		paidEvent("tx-1", date(2024, time.January, 31), 1),
		paidEvent("tx-2", date(2024, time.February, 20), 1),
		paidEvent("tx-3", date(2024, time.April, 5), 6),
	}
	first, err := Accumulate(events, now)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Accumulate(events, now)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSortByEffectivePaidAt(t *testing.T) {
	e1 := paidEvent("tx-1", date(2024, time.March, 1), 1)
	e2 := paidEvent("tx-2", date(2024, time.January, 1), 1)
	// no paid_at: falls back to created_at
	e3 := &models.PaymentEvent{
		TransactionID: "tx-3",
		CreatedAt:     date(2024, time.February, 1),
		Metadata:      datatypes.NewJSONType(&models.PaymentMetadata{Months: 1}),
	}

	events := []*models.PaymentEvent{e1, e2, e3}
	SortByEffectivePaidAt(events)
	require.Equal(t, []string{"tx-2", "tx-3", "tx-1"},
		[]string{events[0].TransactionID, events[1].TransactionID, events[2].TransactionID})
}
