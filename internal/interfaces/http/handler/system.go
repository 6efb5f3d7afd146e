package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/finsight/backend/internal/interfaces/http/dto"
)

// SystemHandler serves health and readiness probes
type SystemHandler struct {
	BaseHandler
	db        *gorm.DB
	redis     *redis.Client
	version   string
	startTime time.Time
}

// NewSystemHandler creates a system handler. The redis client may be nil
// when caching is disabled; readiness then checks the database only.
func NewSystemHandler(db *gorm.DB, redisClient *redis.Client, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		redis:     redisClient,
		version:   version,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers the probe routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ready", h.Ready)
}

// HealthResponse reports process liveness
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health reports that the process is alive
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// ReadyResponse reports dependency reachability
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
}

// Ready reports whether the database and cache answer pings
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Database: "ok"}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		resp.Database = "unreachable"
		healthy = false
	}
	if h.redis != nil {
		resp.Cache = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			resp.Cache = "unreachable"
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeMaintenance, "dependencies unreachable"))
		return
	}
	h.Success(c, resp)
}
