package billing

import (
	"testing"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"github.com/stretchr/testify/require"
)

func TestCanTransition_AllowedEdges(t *testing.T) {
	allowed := []Transition{
		{types.SubscriptionStatusTrial, types.SubscriptionStatusActive},
		{types.SubscriptionStatusTrial, types.SubscriptionStatusCancelled},
		{types.SubscriptionStatusTrial, types.SubscriptionStatusExpired},
		{types.SubscriptionStatusActive, types.SubscriptionStatusCancelled},
		{types.SubscriptionStatusActive, types.SubscriptionStatusExpired},
		{types.SubscriptionStatusCancelled, types.SubscriptionStatusActive},
		{types.SubscriptionStatusCancelled, types.SubscriptionStatusExpired},
		{types.SubscriptionStatusExpired, types.SubscriptionStatusActive},
	}
	for _, tr := range allowed {
		require.True(t, CanTransition(tr.From, tr.To), "%s -> %s", tr.From, tr.To)
	}
}

func TestCanTransition_ForbiddenEdges(t *testing.T) {
	forbidden := []Transition{
		{types.SubscriptionStatusActive, types.SubscriptionStatusTrial},
		{types.SubscriptionStatusExpired, types.SubscriptionStatusTrial},
		{types.SubscriptionStatusExpired, types.SubscriptionStatusCancelled},
		{types.SubscriptionStatusCancelled, types.SubscriptionStatusTrial},
	}
	for _, tr := range forbidden {
		require.False(t, CanTransition(tr.From, tr.To), "%s -> %s", tr.From, tr.To)
	}
}

func TestCanTransition_SameStatusAlwaysAllowed(t *testing.T) {
	statuses := []types.SubscriptionStatus{
		types.SubscriptionStatusTrial,
		types.SubscriptionStatusActive,
		types.SubscriptionStatusCancelled,
		types.SubscriptionStatusExpired,
	}
	for _, s := range statuses {
		require.True(t, CanTransition(s, s), "%s", s)
	}
}

func TestValidTransitionsFrom(t *testing.T) {
	got := ValidTransitionsFrom(types.SubscriptionStatusTrial)
	require.Equal(t, []types.SubscriptionStatus{
		types.SubscriptionStatusActive,
		types.SubscriptionStatusCancelled,
		types.SubscriptionStatusExpired,
	}, got)

	require.Equal(t, []types.SubscriptionStatus{types.SubscriptionStatusActive},
		ValidTransitionsFrom(types.SubscriptionStatusExpired))
}
