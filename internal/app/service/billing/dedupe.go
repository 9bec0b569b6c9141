package billing

import "github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"

// Dedupe collapses a raw event feed to one event per gateway transaction id,
// keeping the first occurrence in input order. Webhook retries and replays
// produce duplicate rows in the ledger; a transaction id denotes exactly one
// logical payment. Events with an empty transaction id are malformed and
// dropped rather than failing the batch.
func Dedupe(events []*models.PaymentEvent) []*models.PaymentEvent {
	seen := make(map[string]struct{}, len(events))
	out := make([]*models.PaymentEvent, 0, len(events))
	for _, ev := range events {
		if ev == nil || ev.TransactionID == "" {
			continue
		}
		if _, ok := seen[ev.TransactionID]; ok {
			continue
		}
		seen[ev.TransactionID] = struct{}{}
		out = append(out, ev)
	}
	return out
}
