package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finsight/backend/internal/domain/ledger"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
)

// ---------------------------------------------------------------------------
// Accounting API client
// ---------------------------------------------------------------------------

// endpointFor maps entity types to API paths. Receivable invoices and payable
// bills are both served by the Invoices endpoint, split by a where filter.
var endpointFor = map[ledger.EntityType]string{
	ledger.EntityAccounts:         "/Accounts",
	ledger.EntityContacts:         "/Contacts",
	ledger.EntityItems:            "/Items",
	ledger.EntityInvoices:         "/Invoices",
	ledger.EntityBills:            "/Invoices",
	ledger.EntityPayments:         "/Payments",
	ledger.EntityCreditNotes:      "/CreditNotes",
	ledger.EntityBankTransactions: "/BankTransactions",
	ledger.EntityManualJournals:   "/ManualJournals",
}

// pagedEntities supports the page query parameter. Accounts and Items always
// return the full collection in one response.
var pagedEntities = map[ledger.EntityType]bool{
	ledger.EntityContacts:         true,
	ledger.EntityInvoices:         true,
	ledger.EntityBills:            true,
	ledger.EntityPayments:         true,
	ledger.EntityCreditNotes:      true,
	ledger.EntityBankTransactions: true,
	ledger.EntityManualJournals:   true,
}

// Page is one fetched page of records already transformed to domain rows.
type Page struct {
	Batch *ledger.Batch
	// HasMore is a heuristic: a full page means another fetch is worthwhile
	HasMore bool
}

// Client fetches accounting records page by page. Every request is gated by
// the per-tenant limiter before it leaves the process.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *TenantLimiter
	logger     *zap.Logger
}

// NewClient creates an accounting API client
func NewClient(cfg Config, limiter *TenantLimiter, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if limiter == nil {
		limiter = NewTenantLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    limiter,
		logger:     logger.Named("xero_client"),
	}, nil
}

// PageSize returns the configured page size
func (c *Client) PageSize() int {
	return c.config.PageSize
}

// FetchPage retrieves one page of records modified at or after modifiedSince,
// ordered by UpdatedDateUTC ascending. Page numbers start at 1.
func (c *Client) FetchPage(ctx context.Context, accessToken, tenantID string,
	entity ledger.EntityType, modifiedSince time.Time, page int) (*Page, error) {

	path, ok := endpointFor[entity]
	if !ok {
		return nil, fmt.Errorf("%w: unknown entity type %q", syncdomain.ErrNonRetryableFetch, entity)
	}
	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed tenant id %q", syncdomain.ErrNonRetryableFetch, tenantID)
	}

	if err := c.limiter.Acquire(ctx, tenantID); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("order", "UpdatedDateUTC ASC")
	if pagedEntities[entity] {
		q.Set("page", strconv.Itoa(page))
		q.Set("pagesize", strconv.Itoa(c.config.PageSize))
	}
	switch entity {
	case ledger.EntityInvoices:
		q.Set("where", `Type=="ACCREC"`)
	case ledger.EntityBills:
		q.Set("where", `Type=="ACCPAY"`)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.APIBaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Xero-Tenant-Id", tenantID)
	req.Header.Set("Accept", "application/json")
	if !modifiedSince.IsZero() {
		// Inclusive lower bound; boundary records re-fetched after a resume
		// are absorbed by keyed upserts downstream
		req.Header.Set("If-Modified-Since", modifiedSince.UTC().Format(http.TimeFormat))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", syncdomain.ErrTransientFetch, err)
	}

	c.logger.Debug("fetched page",
		zap.String("tenant_id", tenantID),
		zap.String("entity_type", entity.String()),
		zap.Int("page", page),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if err := c.classifyStatus(resp, body); err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotModified {
		return &Page{Batch: ledger.NewBatch(entity), HasMore: false}, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding %s response: %v",
			syncdomain.ErrNonRetryableFetch, entity, err)
	}

	batch := transformEnvelope(tenantUUID, entity, &env)
	hasMore := pagedEntities[entity] && batch.Count() >= c.config.PageSize
	return &Page{Batch: batch, HasMore: hasMore}, nil
}

// classifyStatus maps HTTP failures onto the retry taxonomy
func (c *Client) classifyStatus(resp *http.Response, body []byte) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotModified:
		// Nothing changed since the watermark; treated as an empty page
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &RateLimitError{RetryAfter: retryAfter}
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusRequestTimeout:
		return fmt.Errorf("%w: status %d", syncdomain.ErrTransientFetch, resp.StatusCode)
	default:
		var apiErr apiErrorResponse
		detail := ""
		if json.Unmarshal(body, &apiErr) == nil {
			if apiErr.Detail != "" {
				detail = ": " + apiErr.Detail
			} else if apiErr.Message != "" {
				detail = ": " + apiErr.Message
			}
		}
		return fmt.Errorf("%w: status %d%s", syncdomain.ErrNonRetryableFetch, resp.StatusCode, detail)
	}
}

// RateLimitError carries the provider's requested backoff
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// Unwrap makes errors.Is(err, sync.ErrRateLimitExceeded) hold
func (e *RateLimitError) Unwrap() error {
	return syncdomain.ErrRateLimitExceeded
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 60 * time.Second
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 60 * time.Second
}
