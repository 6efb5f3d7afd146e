package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finsight/backend/internal/domain/connect"
	"github.com/finsight/backend/internal/domain/ledger"
	"github.com/finsight/backend/internal/domain/shared"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
	"github.com/finsight/backend/internal/infrastructure/xero"
)

// ---------------------------------------------------------------------------
// Test fakes
// ---------------------------------------------------------------------------

type fetchCall struct {
	entity ledger.EntityType
	since  time.Time
	page   int
}

// fakePageSource serves scripted responses per (entity, page)
type fakePageSource struct {
	calls     []fetchCall
	responses map[string][]pageResponse // keyed by entity; indexed by attempt order
	served    map[string]int
}

type pageResponse struct {
	page *xero.Page
	err  error
}

func newFakePageSource() *fakePageSource {
	return &fakePageSource{
		responses: make(map[string][]pageResponse),
		served:    make(map[string]int),
	}
}

func (s *fakePageSource) script(entity ledger.EntityType, responses ...pageResponse) {
	s.responses[string(entity)] = responses
}

func (s *fakePageSource) FetchPage(_ context.Context, _, _ string,
	entity ledger.EntityType, since time.Time, page int) (*xero.Page, error) {
	s.calls = append(s.calls, fetchCall{entity: entity, since: since, page: page})
	key := string(entity)
	idx := s.served[key]
	queue := s.responses[key]
	if idx >= len(queue) {
		return &xero.Page{Batch: ledger.NewBatch(entity)}, nil
	}
	s.served[key] = idx + 1
	return queue[idx].page, queue[idx].err
}

// stubLedgerStore records upserted batches; unused Repository methods panic
type stubLedgerStore struct {
	ledger.Repository
	upserts   []*ledger.Batch
	upsertErr error
}

func (s *stubLedgerStore) UpsertBatch(_ context.Context, _ uuid.UUID, batch *ledger.Batch) (int, error) {
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	s.upserts = append(s.upserts, batch)
	return batch.Count(), nil
}

// memCheckpointRepo is an in-memory sync.CheckpointRepository honoring the
// never-regress contract
type memCheckpointRepo struct {
	rows    map[string]*syncdomain.Checkpoint
	saveErr error
}

func newMemCheckpointRepo() *memCheckpointRepo {
	return &memCheckpointRepo{rows: make(map[string]*syncdomain.Checkpoint)}
}

func cpKey(tenantID uuid.UUID, entity ledger.EntityType) string {
	return tenantID.String() + "/" + string(entity)
}

func (r *memCheckpointRepo) Find(_ context.Context, tenantID uuid.UUID, entity ledger.EntityType) (*syncdomain.Checkpoint, error) {
	cp, ok := r.rows[cpKey(tenantID, entity)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *cp
	return &copied, nil
}

func (r *memCheckpointRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID) ([]syncdomain.Checkpoint, error) {
	var out []syncdomain.Checkpoint
	for _, cp := range r.rows {
		if cp.TenantID == tenantID {
			out = append(out, *cp)
		}
	}
	return out, nil
}

func (r *memCheckpointRepo) Save(_ context.Context, cp *syncdomain.Checkpoint) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	key := cpKey(cp.TenantID, cp.EntityType)
	copied := *cp
	if existing, ok := r.rows[key]; ok && existing.LastUpdatedUTC.After(copied.LastUpdatedUTC) {
		copied.LastUpdatedUTC = existing.LastUpdatedUTC
	}
	r.rows[key] = &copied
	return nil
}

func testConnection() *connect.Connection {
	return connect.NewConnection(uuid.New(), "Demo Company", uuid.New(), connect.TokenSet{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}, "openid")
}

func invoicePage(updated time.Time, count int, hasMore bool) *xero.Page {
	batch := ledger.NewBatch(ledger.EntityInvoices)
	for i := 0; i < count; i++ {
		batch.Invoices = append(batch.Invoices, ledger.Invoice{
			TenantID:       uuid.New(),
			InvoiceID:      uuid.New(),
			DocumentType:   ledger.DocumentTypeReceivable,
			Status:         ledger.InvoiceStatusAuthorised,
			UpdatedDateUTC: updated.Add(time.Duration(i) * time.Second),
		})
	}
	return &xero.Page{Batch: batch, HasMore: hasMore}
}

func newTestFetcher(source PageSource, store ledger.Repository, checkpoints syncdomain.CheckpointRepository) *EntityFetcher {
	f := NewEntityFetcher(source, store, checkpoints, 3, zap.NewNop())
	f.sleep = func(context.Context, time.Duration) error { return nil }
	return f
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSyncEntityMultiPage(t *testing.T) {
	source := newFakePageSource()
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	source.script(ledger.EntityInvoices,
		pageResponse{page: invoicePage(base, 2, true)},
		pageResponse{page: invoicePage(base.Add(time.Hour), 2, true)},
		pageResponse{page: invoicePage(base.Add(2*time.Hour), 1, false)},
	)

	store := &stubLedgerStore{}
	checkpoints := newMemCheckpointRepo()
	fetcher := newTestFetcher(source, store, checkpoints)
	conn := testConnection()

	records, err := fetcher.SyncEntity(context.Background(), conn, ledger.EntityInvoices)
	require.NoError(t, err)
	assert.Equal(t, 5, records)
	assert.Len(t, store.upserts, 3)

	// Pages requested sequentially from 1
	assert.Equal(t, []int{1, 2, 3}, []int{source.calls[0].page, source.calls[1].page, source.calls[2].page})

	cp, err := checkpoints.Find(context.Background(), conn.TenantID, ledger.EntityInvoices)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.CheckpointStatusCompleted, cp.Status)
	assert.Equal(t, int64(5), cp.RecordsProcessed)
	assert.False(t, cp.HasMoreRecords)
	// Watermark is the greatest record timestamp seen
	assert.True(t, cp.LastUpdatedUTC.After(base.Add(2*time.Hour).Add(-time.Second)))
}

func TestSyncEntityResumesFromWatermark(t *testing.T) {
	source := newFakePageSource()
	watermark := time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC)

	checkpoints := newMemCheckpointRepo()
	conn := testConnection()
	existing := syncdomain.NewCheckpoint(conn.TenantID, ledger.EntityContacts)
	existing.Advance(watermark, 100, false)
	existing.Complete()
	require.NoError(t, checkpoints.Save(context.Background(), existing))

	fetcher := newTestFetcher(source, &stubLedgerStore{}, checkpoints)
	_, err := fetcher.SyncEntity(context.Background(), conn, ledger.EntityContacts)
	require.NoError(t, err)

	// The stored watermark is the inclusive modified-since bound
	require.NotEmpty(t, source.calls)
	assert.True(t, source.calls[0].since.Equal(watermark))

	cp, err := checkpoints.Find(context.Background(), conn.TenantID, ledger.EntityContacts)
	require.NoError(t, err)
	// Lifetime count accumulates across runs
	assert.Equal(t, int64(100), cp.RecordsProcessed)
}

func TestSyncEntityRetriesTransientFailure(t *testing.T) {
	source := newFakePageSource()
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	source.script(ledger.EntityInvoices,
		pageResponse{err: fmt.Errorf("%w: status 503", syncdomain.ErrTransientFetch)},
		pageResponse{err: fmt.Errorf("%w: status 503", syncdomain.ErrTransientFetch)},
		pageResponse{page: invoicePage(base, 1, false)},
	)

	checkpoints := newMemCheckpointRepo()
	fetcher := newTestFetcher(source, &stubLedgerStore{}, checkpoints)
	conn := testConnection()

	records, err := fetcher.SyncEntity(context.Background(), conn, ledger.EntityInvoices)
	require.NoError(t, err)
	assert.Equal(t, 1, records)
	assert.Len(t, source.calls, 3)
}

func TestSyncEntityExhaustsRetries(t *testing.T) {
	source := newFakePageSource()
	transient := fmt.Errorf("%w: status 502", syncdomain.ErrTransientFetch)
	source.script(ledger.EntityInvoices,
		pageResponse{err: transient},
		pageResponse{err: transient},
		pageResponse{err: transient},
	)

	checkpoints := newMemCheckpointRepo()
	fetcher := newTestFetcher(source, &stubLedgerStore{}, checkpoints)
	conn := testConnection()

	_, err := fetcher.SyncEntity(context.Background(), conn, ledger.EntityInvoices)
	assert.ErrorIs(t, err, syncdomain.ErrTransientFetch)
	assert.Len(t, source.calls, 3) // maxAttempts

	cp, findErr := checkpoints.Find(context.Background(), conn.TenantID, ledger.EntityInvoices)
	require.NoError(t, findErr)
	assert.Equal(t, syncdomain.CheckpointStatusFailed, cp.Status)
	assert.NotEmpty(t, cp.LastError)
	assert.True(t, cp.LastUpdatedUTC.IsZero())
}

func TestSyncEntityNonRetryableAbortsImmediately(t *testing.T) {
	source := newFakePageSource()
	source.script(ledger.EntityInvoices,
		pageResponse{err: fmt.Errorf("%w: status 400", syncdomain.ErrNonRetryableFetch)},
	)

	fetcher := newTestFetcher(source, &stubLedgerStore{}, newMemCheckpointRepo())

	_, err := fetcher.SyncEntity(context.Background(), testConnection(), ledger.EntityInvoices)
	assert.ErrorIs(t, err, syncdomain.ErrNonRetryableFetch)
	assert.Len(t, source.calls, 1)
}

func TestSyncEntityHonorsRateLimitBackoff(t *testing.T) {
	source := newFakePageSource()
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	source.script(ledger.EntityInvoices,
		pageResponse{err: &xero.RateLimitError{RetryAfter: 42 * time.Second}},
		pageResponse{page: invoicePage(base, 1, false)},
	)

	var slept []time.Duration
	fetcher := NewEntityFetcher(source, &stubLedgerStore{}, newMemCheckpointRepo(), 3, zap.NewNop())
	fetcher.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := fetcher.SyncEntity(context.Background(), testConnection(), ledger.EntityInvoices)
	require.NoError(t, err)
	require.Len(t, slept, 1)
	assert.Equal(t, 42*time.Second, slept[0])
}

func TestSyncEntityUpsertFailureDoesNotAdvanceWatermark(t *testing.T) {
	source := newFakePageSource()
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	source.script(ledger.EntityInvoices,
		pageResponse{page: invoicePage(base, 2, false)},
	)

	store := &stubLedgerStore{upsertErr: errors.New("write failed")}
	checkpoints := newMemCheckpointRepo()
	fetcher := newTestFetcher(source, store, checkpoints)
	conn := testConnection()

	_, err := fetcher.SyncEntity(context.Background(), conn, ledger.EntityInvoices)
	require.Error(t, err)

	cp, findErr := checkpoints.Find(context.Background(), conn.TenantID, ledger.EntityInvoices)
	require.NoError(t, findErr)
	assert.Equal(t, syncdomain.CheckpointStatusFailed, cp.Status)
	assert.True(t, cp.LastUpdatedUTC.IsZero())
}

func TestBackoffDelayCapped(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(1))
	assert.Equal(t, 2*time.Second, backoffDelay(2))
	assert.Equal(t, 4*time.Second, backoffDelay(3))
	assert.Equal(t, retryMaxDelay, backoffDelay(10))
}
