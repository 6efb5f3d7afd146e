package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finsight/backend/internal/domain/connect"
	"github.com/finsight/backend/internal/domain/ledger"
	"github.com/finsight/backend/internal/domain/shared"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
	"github.com/finsight/backend/internal/infrastructure/xero"
)

const (
	retryBaseDelay = time.Second
	retryMaxDelay  = 30 * time.Second
)

// PageSource is the provider surface the fetcher drives
type PageSource interface {
	FetchPage(ctx context.Context, accessToken, tenantID string,
		entity ledger.EntityType, modifiedSince time.Time, page int) (*xero.Page, error)
}

var _ PageSource = (*xero.Client)(nil)

// EntityFetcher runs the incremental page loop for one entity type: fetch a
// page, upsert it, then advance the checkpoint. Data always lands before the
// checkpoint moves, so a crash between the two re-fetches rather than skips.
type EntityFetcher struct {
	source      PageSource
	store       ledger.Repository
	checkpoints syncdomain.CheckpointRepository
	maxAttempts int
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewEntityFetcher creates an entity fetcher
func NewEntityFetcher(
	source PageSource,
	store ledger.Repository,
	checkpoints syncdomain.CheckpointRepository,
	maxAttempts int,
	logger *zap.Logger,
) *EntityFetcher {
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	return &EntityFetcher{
		source:      source,
		store:       store,
		checkpoints: checkpoints,
		maxAttempts: maxAttempts,
		logger:      logger.Named("entity_fetcher"),
		sleep:       sleepCtx,
	}
}

// SyncEntity synchronizes one entity type for one tenant and returns the
// number of records processed. The checkpoint's watermark is reused as the
// inclusive modified-since bound, so boundary records are re-fetched and
// absorbed by the keyed upserts.
func (f *EntityFetcher) SyncEntity(ctx context.Context, conn *connect.Connection, entity ledger.EntityType) (int, error) {
	checkpoint, err := f.checkpoints.Find(ctx, conn.TenantID, entity)
	if errors.Is(err, shared.ErrNotFound) {
		checkpoint = syncdomain.NewCheckpoint(conn.TenantID, entity)
	} else if err != nil {
		return 0, fmt.Errorf("%w: %v", syncdomain.ErrCheckpointPersist, err)
	}

	checkpoint.Begin()
	if err := f.checkpoints.Save(ctx, checkpoint); err != nil {
		return 0, fmt.Errorf("%w: %v", syncdomain.ErrCheckpointPersist, err)
	}

	since := checkpoint.LastUpdatedUTC
	processed := 0
	for page := 1; ; page++ {
		fetched, err := f.fetchWithRetry(ctx, conn, entity, since, page)
		if err != nil {
			f.failCheckpoint(ctx, checkpoint, err)
			return processed, err
		}

		count, err := f.store.UpsertBatch(ctx, conn.TenantID, fetched.Batch)
		if err != nil {
			f.failCheckpoint(ctx, checkpoint, err)
			return processed, err
		}
		processed += count

		checkpoint.Advance(fetched.Batch.MaxUpdatedUTC(), count, fetched.HasMore)
		if err := f.checkpoints.Save(ctx, checkpoint); err != nil {
			// Data is durable; the next run re-fetches from the old watermark
			wrapped := fmt.Errorf("%w: %v", syncdomain.ErrCheckpointPersist, err)
			f.failCheckpoint(ctx, checkpoint, wrapped)
			return processed, wrapped
		}

		f.logger.Debug("page processed",
			zap.String("tenant_id", conn.TenantID.String()),
			zap.String("entity_type", entity.String()),
			zap.Int("page", page),
			zap.Int("records", count),
			zap.Bool("has_more", fetched.HasMore))

		if !fetched.HasMore {
			break
		}
	}

	checkpoint.Complete()
	if err := f.checkpoints.Save(ctx, checkpoint); err != nil {
		return processed, fmt.Errorf("%w: %v", syncdomain.ErrCheckpointPersist, err)
	}
	return processed, nil
}

// fetchWithRetry retries transient failures with exponential backoff and
// honors provider-requested backoff on rate limiting. Non-retryable errors
// and context cancellation abort immediately.
func (f *EntityFetcher) fetchWithRetry(ctx context.Context, conn *connect.Connection,
	entity ledger.EntityType, since time.Time, page int) (*xero.Page, error) {

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		fetched, err := f.source.FetchPage(ctx, conn.AccessToken, conn.TenantID.String(), entity, since, page)
		if err == nil {
			return fetched, nil
		}
		lastErr = err

		var delay time.Duration
		var rle *xero.RateLimitError
		switch {
		case errors.As(err, &rle):
			delay = rle.RetryAfter
		case errors.Is(err, syncdomain.ErrTransientFetch):
			delay = backoffDelay(attempt)
		default:
			return nil, err
		}

		if attempt == f.maxAttempts {
			break
		}
		f.logger.Warn("fetch failed, retrying",
			zap.String("tenant_id", conn.TenantID.String()),
			zap.String("entity_type", entity.String()),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *EntityFetcher) failCheckpoint(ctx context.Context, checkpoint *syncdomain.Checkpoint, cause error) {
	checkpoint.Fail(cause.Error())
	if err := f.checkpoints.Save(ctx, checkpoint); err != nil {
		f.logger.Error("failed to persist checkpoint failure",
			zap.String("tenant_id", checkpoint.TenantID.String()),
			zap.String("entity_type", checkpoint.EntityType.String()),
			zap.Error(err))
	}
}

// backoffDelay is 1s, 2s, 4s, ... capped at retryMaxDelay
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay << (attempt - 1)
	if delay > retryMaxDelay {
		return retryMaxDelay
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
