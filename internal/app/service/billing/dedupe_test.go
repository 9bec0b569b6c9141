package billing

import (
	"testing"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"

	"github.com/stretchr/testify/require"
)

func TestDedupe_KeepsFirstOccurrence(t *testing.T) {
	early := paidEvent("tx-1", date(2024, time.January, 1), 1)
	late := paidEvent("tx-1", date(2024, time.February, 1), 6)
	other := paidEvent("tx-2", date(2024, time.January, 5), 1)

	out := Dedupe([]*models.PaymentEvent{early, late, other})
	require.Len(t, out, 2)
	require.Same(t, early, out[0])
	require.Same(t, other, out[1])
}

func TestDedupe_SkipsMalformed(t *testing.T) {
	ok := paidEvent("tx-1", date(2024, time.January, 1), 1)
	blank := paidEvent("", date(2024, time.January, 2), 1)

	out := Dedupe([]*models.PaymentEvent{nil, blank, ok})
	require.Len(t, out, 1)
	require.Same(t, ok, out[0])
}

func TestDedupe_Idempotent(t *testing.T) {
	events := []*models.PaymentEvent{
		paidEvent("tx-1", date(2024, time.January, 1), 1),
		paidEvent("tx-2", date(2024, time.January, 2), 1),
		paidEvent("tx-1", date(2024, time.January, 3), 1),
	}
	once := Dedupe(events)
	twice := Dedupe(once)
	require.Equal(t, once, twice)
}

func TestDedupe_Empty(t *testing.T) {
	require.Empty(t, Dedupe(nil))
	require.Empty(t, Dedupe([]*models.PaymentEvent{}))
}
