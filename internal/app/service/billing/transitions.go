package billing

import (
	"slices"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"
)

// Transition is one directed edge of the subscription lifecycle.
type Transition struct {
	From types.SubscriptionStatus
	To   types.SubscriptionStatus
}

// validTransitions enumerates the allowed lifecycle edges. Expired is
// terminal only until a new qualifying payment reactivates the row in place;
// a fresh payment never creates a second platform-scope row.
var validTransitions = map[Transition]bool{
	{types.SubscriptionStatusTrial, types.SubscriptionStatusActive}:        true, // first platform payment
	{types.SubscriptionStatusTrial, types.SubscriptionStatusCancelled}:     true, // user cancelled during trial
	{types.SubscriptionStatusTrial, types.SubscriptionStatusExpired}:       true, // trial lapsed unpaid
	{types.SubscriptionStatusActive, types.SubscriptionStatusCancelled}:    true, // user cancelled, access kept until billing date
	{types.SubscriptionStatusActive, types.SubscriptionStatusExpired}:      true, // billing date passed
	{types.SubscriptionStatusCancelled, types.SubscriptionStatusActive}:    true, // re-paid before lapse
	{types.SubscriptionStatusCancelled, types.SubscriptionStatusExpired}:   true, // access window closed
	{types.SubscriptionStatusExpired, types.SubscriptionStatusActive}:      true, // re-subscription
}

// CanTransition reports whether the lifecycle allows moving between the two
// statuses. Same-status writes are not transitions and are always allowed.
func CanTransition(from, to types.SubscriptionStatus) bool {
	if from == to {
		return true
	}
	return validTransitions[Transition{from, to}]
}

// ValidTransitionsFrom returns the reachable statuses from a given status,
// sorted for deterministic callers.
func ValidTransitionsFrom(from types.SubscriptionStatus) []types.SubscriptionStatus {
	targets := make([]types.SubscriptionStatus, 0)
	for t := range validTransitions {
		if t.From == from {
			targets = append(targets, t.To)
		}
	}
	slices.Sort(targets)
	return targets
}
