package dto

import (
	"time"

	appsync "github.com/finsight/backend/internal/application/sync"
)

// TenantSyncResult is one tenant's outcome within a batch sync run
type TenantSyncResult struct {
	TenantID          string   `json:"tenantId"`
	TenantName        string   `json:"tenantName"`
	Success           bool     `json:"success"`
	RecordsProcessed  int      `json:"recordsProcessed"`
	EntitiesProcessed int      `json:"entitiesProcessed"`
	Duration          string   `json:"duration"`
	Errors            []string `json:"errors"`
}

// SyncRunResponse is the JSON summary returned by the sync trigger endpoint
type SyncRunResponse struct {
	Success               bool               `json:"success"`
	Timestamp             time.Time          `json:"timestamp"`
	TenantsProcessed      int                `json:"tenantsProcessed"`
	TotalRecordsProcessed int                `json:"totalRecordsProcessed"`
	TotalErrors           int                `json:"totalErrors"`
	OverallSuccessRate    float64            `json:"overallSuccessRate"`
	Results               []TenantSyncResult `json:"results"`
}

// NewSyncRunResponse flattens a batch summary into the trigger response body
func NewSyncRunResponse(summary *appsync.BatchSummary) SyncRunResponse {
	resp := SyncRunResponse{
		Success:   summary.AllSucceeded(),
		Timestamp: time.Now().UTC(),
		Results:   make([]TenantSyncResult, 0, len(summary.Sessions)),
	}
	for _, session := range summary.Sessions {
		errs := session.Errors
		if errs == nil {
			errs = []string{}
		}
		resp.Results = append(resp.Results, TenantSyncResult{
			TenantID:          session.TenantID.String(),
			TenantName:        session.TenantName,
			Success:           session.Success,
			RecordsProcessed:  session.TotalRecords,
			EntitiesProcessed: len(session.Results),
			Duration:          session.Duration().String(),
			Errors:            errs,
		})
		resp.TenantsProcessed++
		resp.TotalRecordsProcessed += session.TotalRecords
		resp.TotalErrors += len(session.Errors)
	}
	if resp.TenantsProcessed > 0 {
		resp.OverallSuccessRate = float64(summary.Succeeded) / float64(resp.TenantsProcessed)
	}
	return resp
}
