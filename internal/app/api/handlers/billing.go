package handlers

import (
	"net/http"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/billing"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/sweep"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/logctx"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SweepExpiredResponse is the wire shape of the expiry sweep endpoint.
type SweepExpiredResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Results []*sweep.ExpiredResult `json:"results"`
}

// SweepRemindersResponse is the wire shape of the reminder sweep endpoint.
type SweepRemindersResponse struct {
	Success    bool `json:"success"`
	Total      int  `json:"total"`
	Successful int  `json:"successful"`
	Failed     int  `json:"failed"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// @Summary      Reconcile subscriptions
// @Description  Recomputes billing state from the payment ledger, for one tenant or as an opportunistic repair scan.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Param        request body billing.ReconcileOptions true "Reconcile options"
// @Success      200  {object}  billing.ReconciliationReport
// @Failure      500  {object}  handlers.errorResponse
// @Router       /api/v1/billing/reconcile [post]
func ApiReconcile(mgr billing.Manager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var opts billing.ReconcileOptions
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&opts); err != nil {
				c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
		}
		report, err := mgr.Reconcile(c.Request.Context(), &opts)
		if err != nil {
			// only the initial selection can fail here; per-tenant errors
			// are inside the report
			logctx.FromGin(c, log).Errorw("reconcile_failed", "err", err)
			c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// @Summary      Sweep expired subscriptions
// @Description  Transitions subscriptions whose next billing date has passed into expired.
// @Tags         Billing
// @Produce      json
// @Success      200  {object}  handlers.SweepExpiredResponse
// @Failure      500  {object}  handlers.errorResponse
// @Router       /api/v1/billing/sweep_expired [post]
func ApiSweepExpired(sweeper sweep.Sweeper, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := sweeper.SweepExpired(c.Request.Context(), time.Now())
		if err != nil {
			logctx.FromGin(c, log).Errorw("sweep_expired_failed", "err", err)
			c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		if results == nil {
			results = []*sweep.ExpiredResult{}
		}
		c.JSON(http.StatusOK, SweepExpiredResponse{
			Success: true,
			Message: "expiry sweep completed",
			Results: results,
		})
	}
}

// @Summary      Sweep expiry reminders
// @Description  Sends reminder emails to tenants whose subscription expires in exactly the configured number of days.
// @Tags         Billing
// @Produce      json
// @Success      200  {object}  handlers.SweepRemindersResponse
// @Failure      500  {object}  handlers.errorResponse
// @Router       /api/v1/billing/sweep_reminders [post]
func ApiSweepReminders(sweeper sweep.Sweeper, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := sweeper.SweepReminders(c.Request.Context(), time.Now())
		if err != nil {
			logctx.FromGin(c, log).Errorw("sweep_reminders_failed", "err", err)
			c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, SweepRemindersResponse{
			Success:    true,
			Total:      summary.Total,
			Successful: summary.Successful,
			Failed:     summary.Failed,
		})
	}
}

// @Summary      Cancel subscription
// @Description  Cancels a tenant's platform subscription; access is retained until the next billing date passes.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/billing/cancel [post]
func ApiCancelSubscription(mgr billing.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TenantID string `json:"tenant_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		sub, err := mgr.Cancel(c.Request.Context(), req.TenantID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub.Info(time.Now())))
	}
}

// @Summary      Get subscription
// @Description  Returns the tenant's platform subscription state.
// @Tags         Billing
// @Produce      json
// @Param        tenant_id query string true "Tenant ID"
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/billing/subscription [get]
func ApiGetSubscription(mgr billing.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.Query("tenant_id")
		if tenantID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing tenant_id"))
			return
		}
		sub, err := mgr.GetPlatformSubscription(c.Request.Context(), tenantID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		if sub == nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, "no platform subscription"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub.Info(time.Now())))
	}
}

func RegisterBillingRoutes(r gin.IRouter, mgr billing.Manager, sweeper sweep.Sweeper, log *zap.SugaredLogger) {
	r.POST("/reconcile", ApiReconcile(mgr, log))
	r.POST("/sweep_expired", ApiSweepExpired(sweeper, log))
	r.POST("/sweep_reminders", ApiSweepReminders(sweeper, log))
	r.POST("/cancel", ApiCancelSubscription(mgr))
	r.GET("/subscription", ApiGetSubscription(mgr))
}
