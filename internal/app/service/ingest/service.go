package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/billing"
	notificationlog "github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/notification_log"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/config"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/logctx"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/tool"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookPayload is the gateway's charge-notification body. Metadata is
// loosely typed on the wire; it is validated into PaymentMetadata here, at
// the ingestion boundary.
type WebhookPayload struct {
	TransactionID string             `json:"transaction_id" binding:"required"`
	TenantID      string             `json:"tenant_id" binding:"required"`
	Status        string             `json:"status" binding:"required"`
	Scope         string             `json:"scope"`
	Amount        decimal.Decimal    `json:"amount"`
	Currency      string             `json:"currency"`
	CustomerID    *string            `json:"customer_id"`
	PlanID        *string            `json:"plan_id"`
	PaidAt        *time.Time         `json:"paid_at"`
	Metadata      map[string]any     `json:"metadata"`
}

type Service struct {
	cfg      *config.Config
	db       *gorm.DB
	log      *zap.SugaredLogger
	notifSvc *notificationlog.Service
	billing  billing.Manager
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, notifSvc *notificationlog.Service, mgr billing.Manager) *Service {
	return &Service{cfg: cfg, db: db, log: log, notifSvc: notifSvc, billing: mgr}
}

// HandleWebhook upserts the ledger row for a gateway notification and, for
// confirmed platform-scope payments, reconciles the tenant's subscription.
// Replayed deliveries update the same row keyed by transaction id; the
// reconciler's deduplication covers replays that raced past this upsert.
func (s *Service) HandleWebhook(ctx context.Context, traceID string, payload *WebhookPayload) (event *models.PaymentEvent, resErr error) {
	if payload.TransactionID == "" || payload.TenantID == "" {
		return nil, fmt.Errorf("missing transaction_id or tenant_id")
	}

	dataBytes, _ := json.Marshal(payload)
	s.notifSvc.Save(ctx, &models.PaymentNotificationLog{
		TenantID:      lo.ToPtr(payload.TenantID),
		TraceID:       traceID,
		TransactionID: payload.TransactionID,
		ReceivedAt:    time.Now(),
		Data:          datatypes.JSON(dataBytes),
		Status:        models.PaymentNotificationLogStatusReceived,
	})

	defer func() {
		resMap := map[string]any{"event": event}
		status := models.PaymentNotificationLogStatusHandled
		if resErr != nil {
			resMap["error"] = resErr.Error()
			status = models.PaymentNotificationLogStatusHandleFailed
		}
		resBytes, _ := json.Marshal(resMap)
		s.notifSvc.Save(ctx, &models.PaymentNotificationLog{
			TenantID:      lo.ToPtr(payload.TenantID),
			TraceID:       traceID,
			TransactionID: payload.TransactionID,
			ReceivedAt:    time.Now(),
			Data:          datatypes.JSON(dataBytes),
			Result:        func() *datatypes.JSON { j := datatypes.JSON(resBytes); return &j }(),
			Status:        status,
		})
	}()

	event, resErr = s.upsertEvent(ctx, payload)
	if resErr != nil {
		return nil, fmt.Errorf("failed to upsert payment event: %w", resErr)
	}

	if event.Status == types.PaymentEventStatusPaid && event.IsPlatformScope() {
		if _, err := s.billing.Reconcile(ctx, &billing.ReconcileOptions{TenantID: event.TenantID}); err != nil {
			resErr = fmt.Errorf("failed to reconcile after payment: %w", err)
			return event, resErr
		}
	}
	logctx.FromCtx(ctx, s.log).Infow("webhook_handled",
		"tenant_id", payload.TenantID, "transaction_id", payload.TransactionID, "status", payload.Status)
	return event, nil
}

func (s *Service) upsertEvent(ctx context.Context, payload *WebhookPayload) (*models.PaymentEvent, error) {
	event := payloadToEvent(payload)

	var original models.PaymentEvent
	err := s.db.WithContext(ctx).
		Where("transaction_id = ? AND tenant_id = ?", payload.TransactionID, payload.TenantID).
		Order("created_at asc").
		First(&original).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load original event: %w", err)
	}

	if err == nil && original.ID != "" {
		event.ID = original.ID
		event.CreatedAt = original.CreatedAt
		// The recalc marker survives replays; a replay does not force a
		// second consumption of the same payment.
		event.ProcessedFor = original.ProcessedFor
	} else {
		event.ID = tool.GenerateUUIDV7()
	}

	if err := s.db.WithContext(ctx).Save(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func payloadToEvent(payload *WebhookPayload) *models.PaymentEvent {
	scope := types.PaymentScope(payload.Scope)
	if scope == "" {
		scope = types.PaymentScopePlatform
	}
	currency := payload.Currency
	if currency == "" {
		currency = types.CurrencyBRL
	}

	meta := &models.PaymentMetadata{}
	if payload.Metadata != nil {
		if months, ok := payload.Metadata["months"]; ok {
			switch v := months.(type) {
			case float64:
				meta.Months = int(v)
			case string:
				// legacy charges carry months as a string
				var parsed int
				if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil {
					meta.Months = parsed
				}
			}
		}
		if userID, ok := payload.Metadata["user_id"].(string); ok {
			meta.UserID = userID
		}
		if planName, ok := payload.Metadata["plan_name"].(string); ok {
			meta.PlanName = planName
		}
	}

	return &models.PaymentEvent{
		TenantID:      payload.TenantID,
		TransactionID: payload.TransactionID,
		Status:        types.PaymentEventStatus(payload.Status),
		Scope:         scope,
		Amount:        payload.Amount,
		Currency:      currency,
		CustomerID:    payload.CustomerID,
		PlanID:        payload.PlanID,
		PaidAt:        payload.PaidAt,
		Metadata:      datatypes.NewJSONType(meta),
	}
}
