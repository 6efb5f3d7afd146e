package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/finsight/backend/internal/application/sync"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
	"github.com/finsight/backend/internal/interfaces/http/dto"
)

// SyncService drives batch syncs and exposes session history
type SyncService interface {
	SyncAll(ctx context.Context, trigger syncdomain.TriggerKind) (*appsync.BatchSummary, error)
	SyncTenant(ctx context.Context, tenantID uuid.UUID, trigger syncdomain.TriggerKind) (*syncdomain.Session, error)
	RecentSessions(ctx context.Context, tenantID uuid.UUID, limit int) ([]syncdomain.Session, error)
}

var _ SyncService = (*appsync.Orchestrator)(nil)

// SyncHandler exposes the scheduled sync trigger and session history
type SyncHandler struct {
	BaseHandler
	service       SyncService
	triggerSecret string
	maintenance   func() bool
	logger        *zap.Logger
}

// NewSyncHandler creates a sync handler. The maintenance hook reports whether
// the service currently runs in maintenance mode.
func NewSyncHandler(service SyncService, triggerSecret string, maintenance func() bool, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		service:       service,
		triggerSecret: triggerSecret,
		maintenance:   maintenance,
		logger:        logger.Named("sync_handler"),
	}
}

// RegisterRoutes registers sync routes on the API group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/run", h.Run)
	}
}

// RegisterProtectedRoutes registers JWT-guarded sync routes
func (h *SyncHandler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.GET("/sessions", h.Sessions)
	}
}

// Run triggers a batch sync across every active tenant. Authenticated by a
// bearer secret rather than a user token since the caller is the external
// scheduler. Returns 200 on full success, 207 on partial failure, 401 on a
// bad secret and 503 in maintenance mode.
func (h *SyncHandler) Run(c *gin.Context) {
	if h.maintenance != nil && h.maintenance() {
		h.ServiceUnavailable(c, "service is in maintenance mode")
		return
	}
	if !h.authorizeTrigger(c) {
		h.Unauthorized(c, "missing or invalid trigger secret")
		return
	}

	summary, err := h.service.SyncAll(c.Request.Context(), syncdomain.TriggerScheduled)
	if err != nil {
		h.logger.Error("batch sync failed", zap.Error(err))
		h.Internal(c, "sync run failed")
		return
	}

	resp := dto.NewSyncRunResponse(summary)
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusMultiStatus
	}
	c.JSON(status, resp)
}

// Sessions returns recent sync session history for a tenant
func (h *SyncHandler) Sessions(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Query("tenantId"))
	if err != nil {
		h.BadRequest(c, "tenantId must be a valid UUID")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	sessions, err := h.service.RecentSessions(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.logger.Error("listing sync sessions failed",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
		h.Internal(c, "failed to list sync sessions")
		return
	}
	h.Success(c, sessions)
}

func (h *SyncHandler) authorizeTrigger(c *gin.Context) bool {
	if h.triggerSecret == "" {
		return false
	}
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	presented := strings.TrimPrefix(header, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.triggerSecret)) == 1
}
