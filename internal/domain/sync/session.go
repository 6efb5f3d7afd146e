package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/finsight/backend/internal/domain/ledger"
)

// TriggerKind says how a sync session was initiated
type TriggerKind string

const (
	TriggerManual    TriggerKind = "MANUAL"
	TriggerScheduled TriggerKind = "SCHEDULED"
)

// EntityResult records the outcome of one entity type within a session
type EntityResult struct {
	EntityType       ledger.EntityType `json:"entityType"`
	RecordsProcessed int               `json:"recordsProcessed"`
	Duration         time.Duration     `json:"duration"`
	Error            string            `json:"error,omitempty"`
}

// Failed reports whether this entity recorded a fatal error
func (r EntityResult) Failed() bool {
	return r.Error != ""
}

// Session is one orchestration run for one tenant. Sessions are append-only:
// once finalized they are never mutated, serving audit and reporting only.
type Session struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenantId"`
	TenantName  string         `json:"tenantName"`
	Trigger     TriggerKind    `json:"trigger"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt time.Time      `json:"completedAt"`
	Results     []EntityResult `json:"results"`
	// TotalRecords is the sum of records processed across entity types
	TotalRecords int `json:"totalRecords"`
	// Success is true iff no entity recorded a fatal error
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// NewSession starts a session for one tenant
func NewSession(tenantID uuid.UUID, tenantName string, trigger TriggerKind) *Session {
	return &Session{
		ID:         uuid.New(),
		TenantID:   tenantID,
		TenantName: tenantName,
		Trigger:    trigger,
		StartedAt:  time.Now(),
	}
}

// Record appends one entity outcome and accumulates totals
func (s *Session) Record(result EntityResult) {
	s.Results = append(s.Results, result)
	s.TotalRecords += result.RecordsProcessed
	if result.Failed() {
		s.Errors = append(s.Errors, string(result.EntityType)+": "+result.Error)
	}
}

// FailAll finalizes a session that could not attempt any entity, e.g. when
// the tenant's token could not be resolved
func (s *Session) FailAll(err error) {
	s.Errors = append(s.Errors, err.Error())
	s.Success = false
	s.CompletedAt = time.Now()
}

// Finalize computes the overall outcome once every entity has been attempted
func (s *Session) Finalize() {
	s.Success = len(s.Errors) == 0
	s.CompletedAt = time.Now()
}

// Duration returns the total session runtime
func (s *Session) Duration() time.Duration {
	return s.CompletedAt.Sub(s.StartedAt)
}
