package handlers

import (
	"net/http"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/ingest"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/logctx"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary      Payment gateway webhook
// @Description  Ingests a charge notification from the payment gateway and reconciles the tenant's subscription for confirmed platform payments.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body ingest.WebhookPayload true "Gateway charge notification"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/webhooks/payment [post]
func ApiPaymentWebhook(svc *ingest.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload ingest.WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		traceID := c.GetString("traceID")
		logctx.FromGin(c, log).Infow("webhook_payment_received",
			"tenant_id", payload.TenantID, "transaction_id", payload.TransactionID)

		if _, err := svc.HandleWebhook(c.Request.Context(), traceID, &payload); err != nil {
			logctx.FromGin(c, log).Errorw("webhook_payment_handle_error", "err", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, svc *ingest.Service, log *zap.SugaredLogger) {
	r.POST("/payment", ApiPaymentWebhook(svc, log))
}
