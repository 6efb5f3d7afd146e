package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finsight/backend/internal/application/report"
	"github.com/finsight/backend/internal/interfaces/http/dto"
)

// ReportService computes financial reports from synchronized rows
type ReportService interface {
	AgedReceivables(ctx context.Context, tenantID uuid.UUID, opts report.AgingOptions) (*report.AgingReport, error)
	AgedPayables(ctx context.Context, tenantID uuid.UUID, opts report.AgingOptions) (*report.AgingReport, error)
	CashflowSummary(ctx context.Context, tenantID uuid.UUID, opts report.CashflowOptions) (*report.CashflowSummary, error)
	RevenueStreams(ctx context.Context, tenantID uuid.UUID, opts report.PeriodOptions) (*report.RevenueStreamReport, error)
	Margins(ctx context.Context, tenantID uuid.UUID, opts report.PeriodOptions) (*report.MarginReport, error)
	Inventory(ctx context.Context, tenantID uuid.UUID, opts report.InventoryOptions) (*report.InventoryReport, error)
	OverdueContacts(ctx context.Context, tenantID uuid.UUID, opts report.AgingOptions) (*report.OverdueReport, error)
}

var _ ReportService = (*report.ReportService)(nil)

// ReportHandler exposes the financial report read surface
type ReportHandler struct {
	BaseHandler
	service ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a report handler
func NewReportHandler(service ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.Named("report_handler"),
	}
}

// RegisterProtectedRoutes registers JWT-guarded report routes
func (h *ReportHandler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/aging", h.Aging)
		reports.GET("/cashflow", h.Cashflow)
		reports.GET("/revenue-streams", h.RevenueStreams)
		reports.GET("/margins", h.Margins)
		reports.GET("/inventory", h.Inventory)
		reports.GET("/overdue", h.Overdue)
	}
}

// Aging returns the aged receivables or payables report. The side query
// parameter selects receivables (default) or payables.
func (h *ReportHandler) Aging(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	opts := report.AgingOptions{
		AsOf:            asOf,
		ContactCategory: c.Query("category"),
	}

	var (
		result *report.AgingReport
		err    error
	)
	switch side := c.DefaultQuery("side", "receivables"); side {
	case "receivables":
		result, err = h.service.AgedReceivables(c.Request.Context(), tenantID, opts)
	case "payables":
		result, err = h.service.AgedPayables(c.Request.Context(), tenantID, opts)
	default:
		h.BadRequest(c, "side must be receivables or payables")
		return
	}
	h.respond(c, result, err)
}

// Cashflow returns AR/AP totals, DSO, DPO and the cash conversion cycle
func (h *ReportHandler) Cashflow(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	trailingDays, _ := strconv.Atoi(c.Query("trailingDays"))
	includeInventory := c.Query("includeInventory") == "true"

	result, err := h.service.CashflowSummary(c.Request.Context(), tenantID, report.CashflowOptions{
		AsOf:             asOf,
		TrailingDays:     trailingDays,
		IncludeInventory: includeInventory,
	})
	h.respond(c, result, err)
}

// RevenueStreams returns the period-over-period revenue comparison
func (h *ReportHandler) RevenueStreams(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	opts, ok := h.periodOptions(c)
	if !ok {
		return
	}
	result, err := h.service.RevenueStreams(c.Request.Context(), tenantID, opts)
	h.respond(c, result, err)
}

// Margins returns the per-stream gross margin analysis
func (h *ReportHandler) Margins(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	opts, ok := h.periodOptions(c)
	if !ok {
		return
	}
	result, err := h.service.Margins(c.Request.Context(), tenantID, opts)
	h.respond(c, result, err)
}

// Inventory returns tracked-item value, turnover and reorder alerts
func (h *ReportHandler) Inventory(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	trailingDays, _ := strconv.Atoi(c.Query("trailingDays"))

	result, err := h.service.Inventory(c.Request.Context(), tenantID, report.InventoryOptions{
		AsOf:         asOf,
		TrailingDays: trailingDays,
	})
	h.respond(c, result, err)
}

// Overdue returns counterparties with at least one overdue document
func (h *ReportHandler) Overdue(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	result, err := h.service.OverdueContacts(c.Request.Context(), tenantID, report.AgingOptions{
		AsOf:            asOf,
		ContactCategory: c.Query("category"),
	})
	h.respond(c, result, err)
}

func (h *ReportHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := uuid.Parse(c.Query("tenantId"))
	if err != nil {
		h.BadRequest(c, "tenantId must be a valid UUID")
		return uuid.Nil, false
	}
	return tenantID, true
}

func (h *ReportHandler) asOf(c *gin.Context) (time.Time, bool) {
	raw := c.Query("asOf")
	if raw == "" {
		return time.Time{}, true
	}
	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.BadRequest(c, "asOf must be RFC3339")
		return time.Time{}, false
	}
	return asOf, true
}

func (h *ReportHandler) periodOptions(c *gin.Context) (report.PeriodOptions, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("periodStart"))
	if err != nil {
		h.BadRequest(c, "periodStart must be RFC3339")
		return report.PeriodOptions{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("periodEnd"))
	if err != nil {
		h.BadRequest(c, "periodEnd must be RFC3339")
		return report.PeriodOptions{}, false
	}
	opts := report.PeriodOptions{PeriodStart: start, PeriodEnd: end}
	if streams := c.Query("streams"); streams != "" {
		opts.Streams = strings.Split(streams, ",")
	}
	return opts, true
}

func (h *ReportHandler) respond(c *gin.Context, result any, err error) {
	if err != nil {
		switch {
		case errors.Is(err, report.ErrAggregationInput):
			h.ErrorWithCode(c, dto.ErrCodeReportInput, err.Error())
		case errors.Is(err, report.ErrReportDataFetch):
			h.logger.Error("report data fetch failed", zap.Error(err))
			h.Internal(c, "report data fetch failed")
		default:
			h.logger.Error("report computation failed", zap.Error(err))
			h.Internal(c, "report computation failed")
		}
		return
	}
	h.Success(c, result)
}
