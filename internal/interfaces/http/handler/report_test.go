package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finsight/backend/internal/application/report"
	"github.com/finsight/backend/internal/interfaces/http/dto"
)

type fakeReportService struct {
	err error

	lastAgingOpts  report.AgingOptions
	lastPeriodOpts report.PeriodOptions
	payablesCalled bool
}

func (f *fakeReportService) AgedReceivables(ctx context.Context, tenantID uuid.UUID, opts report.AgingOptions) (*report.AgingReport, error) {
	f.lastAgingOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &report.AgingReport{AsOf: opts.AsOf, DocumentCount: 2, Total: decimal.NewFromInt(1500)}, nil
}

func (f *fakeReportService) AgedPayables(ctx context.Context, tenantID uuid.UUID, opts report.AgingOptions) (*report.AgingReport, error) {
	f.payablesCalled = true
	if f.err != nil {
		return nil, f.err
	}
	return &report.AgingReport{AsOf: opts.AsOf}, nil
}

func (f *fakeReportService) CashflowSummary(ctx context.Context, tenantID uuid.UUID, opts report.CashflowOptions) (*report.CashflowSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &report.CashflowSummary{AsOf: opts.AsOf}, nil
}

func (f *fakeReportService) RevenueStreams(ctx context.Context, tenantID uuid.UUID, opts report.PeriodOptions) (*report.RevenueStreamReport, error) {
	f.lastPeriodOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &report.RevenueStreamReport{}, nil
}

func (f *fakeReportService) Margins(ctx context.Context, tenantID uuid.UUID, opts report.PeriodOptions) (*report.MarginReport, error) {
	f.lastPeriodOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &report.MarginReport{}, nil
}

func (f *fakeReportService) Inventory(ctx context.Context, tenantID uuid.UUID, opts report.InventoryOptions) (*report.InventoryReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &report.InventoryReport{}, nil
}

func (f *fakeReportService) OverdueContacts(ctx context.Context, tenantID uuid.UUID, opts report.AgingOptions) (*report.OverdueReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &report.OverdueReport{AsOf: opts.AsOf}, nil
}

var _ ReportService = (*fakeReportService)(nil)

func newReportRouter(service ReportService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewReportHandler(service, zap.NewNop()).RegisterProtectedRoutes(router.Group("/api/v1"))
	return router
}

func getReport(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAgingRequiresTenantID(t *testing.T) {
	router := newReportRouter(&fakeReportService{})

	assert.Equal(t, http.StatusBadRequest, getReport(router, "/api/v1/reports/aging").Code)
	assert.Equal(t, http.StatusBadRequest, getReport(router, "/api/v1/reports/aging?tenantId=nope").Code)
}

func TestAgingDefaultsToReceivables(t *testing.T) {
	service := &fakeReportService{}
	router := newReportRouter(service)

	rec := getReport(router, "/api/v1/reports/aging?tenantId="+uuid.New().String())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, service.payablesCalled)
}

func TestAgingPayablesSide(t *testing.T) {
	service := &fakeReportService{}
	router := newReportRouter(service)

	rec := getReport(router, "/api/v1/reports/aging?tenantId="+uuid.New().String()+"&side=payables")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, service.payablesCalled)
}

func TestAgingRejectsUnknownSide(t *testing.T) {
	router := newReportRouter(&fakeReportService{})

	rec := getReport(router, "/api/v1/reports/aging?tenantId="+uuid.New().String()+"&side=both")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgingParsesAsOfAndCategory(t *testing.T) {
	service := &fakeReportService{}
	router := newReportRouter(service)
	asOf := "2024-06-01T00:00:00Z"

	rec := getReport(router, "/api/v1/reports/aging?tenantId="+uuid.New().String()+
		"&asOf="+asOf+"&category=wholesale")

	require.Equal(t, http.StatusOK, rec.Code)
	want, _ := time.Parse(time.RFC3339, asOf)
	assert.True(t, service.lastAgingOpts.AsOf.Equal(want))
	assert.Equal(t, "wholesale", service.lastAgingOpts.ContactCategory)
}

func TestAgingRejectsMalformedAsOf(t *testing.T) {
	router := newReportRouter(&fakeReportService{})

	rec := getReport(router, "/api/v1/reports/aging?tenantId="+uuid.New().String()+"&asOf=yesterday")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevenueStreamsParsesPeriodAndStreams(t *testing.T) {
	service := &fakeReportService{}
	router := newReportRouter(service)

	rec := getReport(router, "/api/v1/reports/revenue-streams?tenantId="+uuid.New().String()+
		"&periodStart=2024-01-01T00:00:00Z&periodEnd=2024-04-01T00:00:00Z&streams=tours,dr-dish")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"tours", "dr-dish"}, service.lastPeriodOpts.Streams)
	assert.Equal(t, 2024, service.lastPeriodOpts.PeriodStart.Year())
}

func TestRevenueStreamsRequiresPeriod(t *testing.T) {
	router := newReportRouter(&fakeReportService{})

	rec := getReport(router, "/api/v1/reports/revenue-streams?tenantId="+uuid.New().String())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportAggregationErrorMapsToUnprocessable(t *testing.T) {
	service := &fakeReportService{err: report.ErrAggregationInput}
	router := newReportRouter(service)

	rec := getReport(router, "/api/v1/reports/aging?tenantId="+uuid.New().String())

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeReportInput, resp.Error.Code)
}

func TestReportFetchErrorMapsToInternal(t *testing.T) {
	service := &fakeReportService{err: report.ErrReportDataFetch}
	router := newReportRouter(service)

	rec := getReport(router, "/api/v1/reports/cashflow?tenantId="+uuid.New().String())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestInventoryAndOverdueRoutesRespond(t *testing.T) {
	router := newReportRouter(&fakeReportService{})
	tenant := uuid.New().String()

	assert.Equal(t, http.StatusOK, getReport(router, "/api/v1/reports/inventory?tenantId="+tenant+"&trailingDays=90").Code)
	assert.Equal(t, http.StatusOK, getReport(router, "/api/v1/reports/overdue?tenantId="+tenant).Code)
	assert.Equal(t, http.StatusOK, getReport(router, "/api/v1/reports/margins?tenantId="+tenant+
		"&periodStart=2024-01-01T00:00:00Z&periodEnd=2024-04-01T00:00:00Z").Code)
}
