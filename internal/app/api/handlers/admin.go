package handlers

import (
	"net/http"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/statistics"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/response"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListPaymentEventsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type PaymentEventItem struct {
	ID            string                   `json:"id"`
	TenantID      string                   `json:"tenant_id"`
	TransactionID string                   `json:"transaction_id"`
	Status        types.PaymentEventStatus `json:"status"`
	Scope         types.PaymentScope       `json:"scope"`
	Amount        decimal.Decimal          `json:"amount"`
	Currency      string                   `json:"currency"`
	PaidAt        *time.Time               `json:"paid_at"`
	Months        int                      `json:"months"`
	ProcessedFor  *string                  `json:"processed_for"`
	CreatedAt     time.Time                `json:"created_at"`
}

// filtersWhere wraps a list of filters to a single clause.Expression
type filtersWhere struct{ filters []*types.CommonFilter }

func (w filtersWhere) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, f := range w.filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		f.Build(builder)
	}
}

func toPaymentEventItem(m *models.PaymentEvent) *PaymentEventItem {
	return &PaymentEventItem{
		ID:            m.ID,
		TenantID:      m.TenantID,
		TransactionID: m.TransactionID,
		Status:        m.Status,
		Scope:         m.Scope,
		Amount:        m.Amount,
		Currency:      m.Currency,
		PaidAt:        m.PaidAt,
		Months:        m.RawPeriodMonths(),
		ProcessedFor:  m.ProcessedFor,
		CreatedAt:     m.CreatedAt,
	}
}

type ListPaymentEventsResponse struct {
	Items []*PaymentEventItem `json:"items"`
	Total int64               `json:"total"`
}

// @Summary      List Payment Events (Admin)
// @Description  Retrieves a paginated and filterable list of payment ledger events.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListPaymentEventsRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListPaymentEvents
// @Router       /api/v1/admin/list_payment_events [post]
func ApiListPaymentEvents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListPaymentEventsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.Size <= 0 || req.Size > 200 {
			req.Size = 50
		}
		sortBy := req.SortBy
		if sortBy == "" {
			sortBy = "created_at"
		}
		order := clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}

		var total int64
		base := db.WithContext(c.Request.Context()).Model(&models.PaymentEvent{}).
			Where(clause.Where{Exprs: []clause.Expression{filtersWhere{filters: req.Filters}}})
		if err := base.Count(&total).Error; err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		var events []*models.PaymentEvent
		if err := base.Order(order).Offset(req.From).Limit(req.Size).Find(&events).Error; err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		items := lo.Map(events, func(ev *models.PaymentEvent, _ int) *PaymentEventItem { return toPaymentEventItem(ev) })
		c.JSON(http.StatusOK, response.OKT(&ListPaymentEventsResponse{Items: items, Total: total}))
	}
}

// @Summary      Get Billing Statistics (Admin)
// @Description  Retrieves billing statistics for the dashboard.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.BillingStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespBillingStatistic
// @Router       /api/v1/admin/get_billing_statistic [post]
func ApiGetBillingStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.BillingStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetBillingStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, db *gorm.DB, stats *statistics.Service) {
	r.POST("/list_payment_events", ApiListPaymentEvents(db))
	r.POST("/get_billing_statistic", ApiGetBillingStatistic(stats))
}
