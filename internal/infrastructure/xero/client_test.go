package xero

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finsight/backend/internal/domain/ledger"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
)

const testTenantID = "9b9ba9e5-1c5e-4c8f-b9b4-0a2b4f0f9d6c"

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/callback",
		APIBaseURL:   server.URL,
		PageSize:     2,
	}
	client, err := NewClient(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	return client, server
}

func TestFetchPageInvoices(t *testing.T) {
	var gotReq *http.Request
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"Invoices": [
				{
					"InvoiceID": "e4d32523-4801-4fd5-a5a1-4c6b24e3a87e",
					"InvoiceNumber": "INV-001",
					"Type": "ACCREC",
					"Contact": {"ContactID": "c8d5c9f1-2f57-4a28-9a40-dc2f43f3e9e1", "Name": "Acme"},
					"Status": "AUTHORISED",
					"LineItems": [
						{
							"LineItemID": "7b3f2e36-61e7-4b0a-9f66-d7dbd1a64a0e",
							"Description": "Widgets",
							"Quantity": 3,
							"UnitAmount": 10.50,
							"ItemCode": "WIDGET",
							"AccountCode": "200",
							"TaxAmount": 3.15,
							"LineAmount": 31.50
						}
					],
					"SubTotal": 31.50,
					"TotalTax": 3.15,
					"Total": 34.65,
					"AmountDue": 34.65,
					"AmountPaid": 0,
					"CurrencyCode": "NZD",
					"Date": "/Date(1686780000000+0000)/",
					"DueDate": "/Date(1689372000000+0000)/",
					"UpdatedDateUTC": "/Date(1686790000000+0000)/"
				}
			]
		}`)
	}))

	since := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	page, err := client.FetchPage(context.Background(), "access-token", testTenantID,
		ledger.EntityInvoices, since, 1)
	require.NoError(t, err)

	require.NotNil(t, gotReq)
	assert.Equal(t, "Bearer access-token", gotReq.Header.Get("Authorization"))
	assert.Equal(t, testTenantID, gotReq.Header.Get("Xero-Tenant-Id"))
	assert.Equal(t, since.Format(http.TimeFormat), gotReq.Header.Get("If-Modified-Since"))
	assert.Equal(t, "UpdatedDateUTC ASC", gotReq.URL.Query().Get("order"))
	assert.Equal(t, "1", gotReq.URL.Query().Get("page"))
	assert.Equal(t, `Type=="ACCREC"`, gotReq.URL.Query().Get("where"))

	require.Len(t, page.Batch.Invoices, 1)
	inv := page.Batch.Invoices[0]
	assert.Equal(t, "INV-001", inv.InvoiceNumber)
	assert.Equal(t, ledger.DocumentTypeReceivable, inv.DocumentType)
	assert.Equal(t, "Acme", inv.ContactName)
	assert.Equal(t, "34.65", inv.AmountDue.String())
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "WIDGET", inv.Lines[0].RevenueStream)

	// One record against a page size of two: nothing more to fetch
	assert.False(t, page.HasMore)
}

func TestFetchPageFullPageHasMore(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Contacts": [
			{"ContactID": "c8d5c9f1-2f57-4a28-9a40-dc2f43f3e9e1", "Name": "A", "IsCustomer": true},
			{"ContactID": "a1f5c9f1-2f57-4a28-9a40-dc2f43f3e9e2", "Name": "B", "IsSupplier": true}
		]}`)
	}))

	page, err := client.FetchPage(context.Background(), "tok", testTenantID,
		ledger.EntityContacts, time.Time{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Batch.Count())
	assert.True(t, page.HasMore)
	assert.Equal(t, ledger.ContactCategoryCustomer, page.Batch.Contacts[0].Category)
	assert.Equal(t, ledger.ContactCategorySupplier, page.Batch.Contacts[1].Category)
}

func TestFetchPageUnpagedEntityIgnoresPaging(t *testing.T) {
	var gotReq *http.Request
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		fmt.Fprint(w, `{"Accounts": [
			{"AccountID": "5f917a8f-6f1a-4b5e-9c5e-2d1f3a4b5c6d", "Code": "310", "Type": "DIRECTCOSTS", "Class": "EXPENSE"},
			{"AccountID": "6f917a8f-6f1a-4b5e-9c5e-2d1f3a4b5c6e", "Code": "200", "Type": "SALES", "Class": "REVENUE"}
		]}`)
	}))

	page, err := client.FetchPage(context.Background(), "tok", testTenantID,
		ledger.EntityAccounts, time.Time{}, 1)
	require.NoError(t, err)
	assert.Empty(t, gotReq.URL.Query().Get("page"))
	assert.False(t, page.HasMore)
	assert.True(t, page.Batch.Accounts[0].IsCOGS())
}

func TestFetchPageNotModified(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))

	page, err := client.FetchPage(context.Background(), "tok", testTenantID,
		ledger.EntityInvoices, time.Now(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Batch.Count())
	assert.False(t, page.HasMore)
}

func TestFetchPageErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, map[string]string{"Retry-After": "30"}, syncdomain.ErrRateLimitExceeded},
		{"server error", http.StatusInternalServerError, nil, syncdomain.ErrTransientFetch},
		{"bad gateway", http.StatusBadGateway, nil, syncdomain.ErrTransientFetch},
		{"forbidden", http.StatusForbidden, nil, syncdomain.ErrNonRetryableFetch},
		{"bad request", http.StatusBadRequest, nil, syncdomain.ErrNonRetryableFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))

			_, err := client.FetchPage(context.Background(), "tok", testTenantID,
				ledger.EntityInvoices, time.Time{}, 1)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchPageRateLimitCarriesRetryAfter(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.FetchPage(context.Background(), "tok", testTenantID,
		ledger.EntityPayments, time.Time{}, 1)
	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, 17*time.Second, rle.RetryAfter)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Equal(t, 60*time.Second, parseRetryAfter(""))
	assert.Equal(t, 60*time.Second, parseRetryAfter("garbage"))
}

func TestFetchPageMalformedTenant(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := client.FetchPage(context.Background(), "tok", "not-a-uuid",
		ledger.EntityInvoices, time.Time{}, 1)
	assert.ErrorIs(t, err, syncdomain.ErrNonRetryableFetch)
}

func TestTransformDropsMalformedIDs(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Contacts": [
			{"ContactID": "not-a-uuid", "Name": "Broken"},
			{"ContactID": "c8d5c9f1-2f57-4a28-9a40-dc2f43f3e9e1", "Name": "Fine"}
		]}`)
	}))

	page, err := client.FetchPage(context.Background(), "tok", testTenantID,
		ledger.EntityContacts, time.Time{}, 1)
	require.NoError(t, err)
	require.Len(t, page.Batch.Contacts, 1)
	assert.Equal(t, "Fine", page.Batch.Contacts[0].Name)
}
