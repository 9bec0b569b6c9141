package billing

import (
	"fmt"
	"slices"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"
)

// MaxFutureDays caps how far into the future an accumulation may push the
// next billing date. Anything past now + 400 days is treated as drift from a
// historical bug and clamped, never surfaced as an error.
const MaxFutureDays = 400

// AccumulateResult is the billing state derived from a tenant's deduplicated,
// chronologically sorted paid events.
type AccumulateResult struct {
	NextBillingDate time.Time `json:"next_billing_date"`
	TotalMonths     int       `json:"total_months"`
	StartDate       time.Time `json:"start_date"`
	LastBillingDate time.Time `json:"last_billing_date"`
	// Clamped is true when the guard-rail capped the computed date.
	Clamped bool `json:"clamped,omitempty"`
}

// NormalizePeriodMonths maps whatever the gateway sent onto the three
// canonical period lengths. Legacy charges carry malformed month counts;
// values at most 3 mean monthly, up to 9 semiannual, beyond that annual.
func NormalizePeriodMonths(m int) int {
	switch m {
	case types.PeriodMonthly, types.PeriodSemiannual, types.PeriodAnnual:
		return m
	}
	switch {
	case m <= 3:
		return types.PeriodMonthly
	case m <= 9:
		return types.PeriodSemiannual
	default:
		return types.PeriodAnnual
	}
}

// AddCalendarMonths advances t by whole calendar months, clamping to the last
// day of the target month. Jan 31 + 1 month is Feb 28 (29 in leap years),
// matching "same day next month" billing semantics. time.Time.AddDate would
// normalize into March instead.
func AddCalendarMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	m += time.Month(months)
	// time.Date normalizes month overflow (month 14 -> Feb next year), so
	// probing day 1 of the target month is safe before clamping the day.
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// SortByEffectivePaidAt sorts events ascending by paid time (CreatedAt when
// the gateway has not confirmed). Webhooks arrive out of order, so every
// reconciliation re-sorts instead of trusting ledger insertion order.
func SortByEffectivePaidAt(events []*models.PaymentEvent) {
	slices.SortStableFunc(events, func(a, b *models.PaymentEvent) int {
		return a.EffectivePaidAt().Compare(b.EffectivePaidAt())
	})
}

// Accumulate simulates sequential period extensions over deduplicated events
// sorted ascending by effective paid time, and returns the derived billing
// state. A payment made before the running cursor stacks onto it (renewed
// ahead); a payment made after the cursor restarts the period from the
// payment date, lapsed time is not recovered. now is used only by the
// guard-rail clamp.
func Accumulate(events []*models.PaymentEvent, now time.Time) (*AccumulateResult, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("accumulate: no payment events")
	}

	res := &AccumulateResult{
		StartDate:       events[0].EffectivePaidAt(),
		LastBillingDate: events[len(events)-1].EffectivePaidAt(),
	}

	var cursor time.Time
	for i, ev := range events {
		months := NormalizePeriodMonths(ev.RawPeriodMonths())
		paidAt := ev.EffectivePaidAt()
		if i == 0 || !paidAt.Before(cursor) {
			cursor = AddCalendarMonths(paidAt, months)
		} else {
			cursor = AddCalendarMonths(cursor, months)
		}
		res.TotalMonths += months
	}

	if limit := now.AddDate(0, 0, MaxFutureDays); cursor.After(limit) {
		cursor = limit
		res.Clamped = true
	}
	res.NextBillingDate = cursor
	return res, nil
}
