package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appconnect "github.com/finsight/backend/internal/application/connect"
	"github.com/finsight/backend/internal/domain/connect"
	"github.com/finsight/backend/internal/domain/ledger"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
	"github.com/finsight/backend/internal/infrastructure/telemetry"
)

// TokenSource resolves a usable connection for a tenant
type TokenSource interface {
	GetValidConnection(ctx context.Context, tenantID uuid.UUID) (*connect.Connection, error)
	ActiveConnections(ctx context.Context) ([]connect.Connection, error)
}

var _ TokenSource = (*appconnect.TokenManager)(nil)

// BatchSummary is the outcome of one run across every active tenant
type BatchSummary struct {
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Sessions  []*syncdomain.Session `json:"sessions"`
}

// AllSucceeded reports whether every tenant session completed cleanly
func (s *BatchSummary) AllSucceeded() bool {
	return s.Failed == 0
}

// Orchestrator drives sync sessions: one tenant at a time, entity types in
// dependency order, failures isolated per entity type.
type Orchestrator struct {
	tokens         TokenSource
	fetcher        *EntityFetcher
	sessions       syncdomain.SessionRepository
	metrics        *telemetry.SyncMetrics
	sessionTimeout time.Duration
	logger         *zap.Logger
}

// NewOrchestrator creates a sync orchestrator
func NewOrchestrator(
	tokens TokenSource,
	fetcher *EntityFetcher,
	sessions syncdomain.SessionRepository,
	metrics *telemetry.SyncMetrics,
	sessionTimeout time.Duration,
	logger *zap.Logger,
) *Orchestrator {
	if sessionTimeout <= 0 {
		sessionTimeout = 15 * time.Minute
	}
	return &Orchestrator{
		tokens:         tokens,
		fetcher:        fetcher,
		sessions:       sessions,
		metrics:        metrics,
		sessionTimeout: sessionTimeout,
		logger:         logger.Named("sync_orchestrator"),
	}
}

// SyncTenant runs one session for one tenant. A token failure fails the whole
// session without attempting any entity; an entity failure is recorded and
// the remaining entity types still run. The returned session is always
// finalized and persisted.
func (o *Orchestrator) SyncTenant(ctx context.Context, tenantID uuid.UUID, trigger syncdomain.TriggerKind) (*syncdomain.Session, error) {
	conn, err := o.tokens.GetValidConnection(ctx, tenantID)
	if err != nil {
		session := syncdomain.NewSession(tenantID, "", trigger)
		session.FailAll(fmt.Errorf("resolving tenant credentials: %w", err))
		o.finish(ctx, session)
		return session, nil
	}

	session := syncdomain.NewSession(tenantID, conn.TenantName, trigger)
	o.logger.Info("sync session started",
		zap.String("tenant_id", tenantID.String()),
		zap.String("tenant_name", conn.TenantName),
		zap.String("trigger", string(trigger)))

	sessionCtx, cancel := context.WithTimeout(ctx, o.sessionTimeout)
	defer cancel()

	for _, entity := range ledger.SyncOrder() {
		start := time.Now()
		records, err := o.fetcher.SyncEntity(sessionCtx, conn, entity)
		result := syncdomain.EntityResult{
			EntityType:       entity,
			RecordsProcessed: records,
			Duration:         time.Since(start),
		}
		if err != nil {
			if sessionCtx.Err() != nil {
				// Out of session budget; completed entities keep their
				// progress, the rest resume next run
				result.Error = syncdomain.ErrSessionTimeout.Error()
				session.Record(result)
				o.logger.Warn("sync session timed out",
					zap.String("tenant_id", tenantID.String()),
					zap.String("entity_type", entity.String()))
				break
			}
			result.Error = err.Error()
			o.metrics.RecordEntityFailure(ctx, conn.TenantName, entity.String())
			o.logger.Warn("entity sync failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("entity_type", entity.String()),
				zap.Error(err))
		}
		session.Record(result)
	}

	o.finish(ctx, session)
	o.logger.Info("sync session finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Bool("success", session.Success),
		zap.Int("total_records", session.TotalRecords),
		zap.Duration("duration", session.Duration()))
	return session, nil
}

// SyncAll runs a session for every active tenant sequentially. One tenant's
// failure never stops the others.
func (o *Orchestrator) SyncAll(ctx context.Context, trigger syncdomain.TriggerKind) (*BatchSummary, error) {
	connections, err := o.tokens.ActiveConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active connections: %w", err)
	}

	summary := &BatchSummary{Total: len(connections)}
	for i := range connections {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		session, err := o.SyncTenant(ctx, connections[i].TenantID, trigger)
		if err != nil {
			return summary, err
		}
		summary.Sessions = append(summary.Sessions, session)
		if session.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary, nil
}

func (o *Orchestrator) finish(ctx context.Context, session *syncdomain.Session) {
	if session.CompletedAt.IsZero() {
		session.Finalize()
	}
	o.metrics.RecordSession(ctx, session.TenantName, session.Success,
		session.TotalRecords, session.Duration())
	if err := o.sessions.Save(ctx, session); err != nil {
		o.logger.Error("failed to persist sync session",
			zap.String("tenant_id", session.TenantID.String()),
			zap.Error(err))
	}
}

// RecentSessions exposes session history for the HTTP surface
func (o *Orchestrator) RecentSessions(ctx context.Context, tenantID uuid.UUID, limit int) ([]syncdomain.Session, error) {
	sessions, err := o.sessions.FindRecent(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// IsCredentialError reports whether a session failure stems from the tenant's
// connection rather than from data fetching
func IsCredentialError(err error) bool {
	return errors.Is(err, connect.ErrConnectionNotFound) ||
		errors.Is(err, connect.ErrTokenRefreshFailed) ||
		errors.Is(err, connect.ErrConnectionInactive)
}
