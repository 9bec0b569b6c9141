package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/billing"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/sweep"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/models"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubManager struct {
	lastOpts *billing.ReconcileOptions
	report   *billing.ReconciliationReport
	sub      *models.Subscription
	err      error
}

func (m *stubManager) Reconcile(_ context.Context, opts *billing.ReconcileOptions) (*billing.ReconciliationReport, error) {
	m.lastOpts = opts
	return m.report, m.err
}

func (m *stubManager) Cancel(_ context.Context, _ string) (*models.Subscription, error) {
	return m.sub, m.err
}

func (m *stubManager) GetPlatformSubscription(_ context.Context, _ string) (*models.Subscription, error) {
	return m.sub, m.err
}

type stubSweeper struct {
	expired []*sweep.ExpiredResult
	summary *sweep.ReminderSummary
	err     error
}

func (s *stubSweeper) SweepExpired(_ context.Context, _ time.Time) ([]*sweep.ExpiredResult, error) {
	return s.expired, s.err
}

func (s *stubSweeper) SweepReminders(_ context.Context, _ time.Time) (*sweep.ReminderSummary, error) {
	return s.summary, s.err
}

func newBillingRouter(mgr billing.Manager, sweeper sweep.Sweeper) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterBillingRoutes(r.Group("/api/v1/billing"), mgr, sweeper, zap.NewNop().Sugar())
	return r
}

func TestApiReconcile_PassesOptions(t *testing.T) {
	mgr := &stubManager{report: &billing.ReconciliationReport{TotalChecked: 1, Updated: 1, DryRun: true}}
	r := newBillingRouter(mgr, &stubSweeper{})

	body := `{"tenant_id":"t-1","dry_run":true}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/reconcile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mgr.lastOpts)
	require.Equal(t, "t-1", mgr.lastOpts.TenantID)
	require.True(t, mgr.lastOpts.DryRun)

	var report billing.ReconciliationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.True(t, report.DryRun)
	require.Equal(t, 1, report.Updated)
}

func TestApiReconcile_EmptyBodyIsScan(t *testing.T) {
	mgr := &stubManager{report: &billing.ReconciliationReport{}}
	r := newBillingRouter(mgr, &stubSweeper{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/reconcile", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mgr.lastOpts)
	require.Empty(t, mgr.lastOpts.TenantID)
}

func TestApiReconcile_SelectionError(t *testing.T) {
	mgr := &stubManager{err: fmt.Errorf("db gone")}
	r := newBillingRouter(mgr, &stubSweeper{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/reconcile", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "db gone")
}

func TestApiReconcile_BadJSON(t *testing.T) {
	r := newBillingRouter(&stubManager{}, &stubSweeper{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/reconcile", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApiSweepExpired(t *testing.T) {
	sweeper := &stubSweeper{expired: []*sweep.ExpiredResult{
		{SubscriptionID: "sub-1", TenantID: "t-1", Success: true},
	}}
	r := newBillingRouter(&stubManager{}, sweeper)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/sweep_expired", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp SweepExpiredResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	require.Equal(t, "sub-1", resp.Results[0].SubscriptionID)
}

func TestApiSweepExpired_EmptyResultsNotNull(t *testing.T) {
	r := newBillingRouter(&stubManager{}, &stubSweeper{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/sweep_expired", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"results":[]`)
}

func TestApiSweepReminders(t *testing.T) {
	sweeper := &stubSweeper{summary: &sweep.ReminderSummary{Total: 3, Successful: 2, Failed: 1}}
	r := newBillingRouter(&stubManager{}, sweeper)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/sweep_reminders", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp SweepRemindersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 3, resp.Total)
	require.Equal(t, 2, resp.Successful)
	require.Equal(t, 1, resp.Failed)
}

func TestApiCancelSubscription(t *testing.T) {
	next := time.Now().AddDate(0, 1, 0)
	mgr := &stubManager{sub: &models.Subscription{
		ID:              "sub-1",
		TenantID:        "t-1",
		Status:          types.SubscriptionStatusCancelled,
		NextBillingDate: &next,
	}}
	r := newBillingRouter(mgr, &stubSweeper{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/cancel", strings.NewReader(`{"tenant_id":"t-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp RespSubscription
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.EqualValues(t, 0, resp.Code)
	require.NotNil(t, resp.Data)
	require.Equal(t, types.SubscriptionStatusCancelled, resp.Data.Status)
}

func TestApiCancelSubscription_MissingTenant(t *testing.T) {
	r := newBillingRouter(&stubManager{}, &stubSweeper{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/cancel", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"code":40000`)
}

func TestApiGetSubscription_NotFound(t *testing.T) {
	r := newBillingRouter(&stubManager{}, &stubSweeper{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/subscription?tenant_id=t-404", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"code":40400`)
}
