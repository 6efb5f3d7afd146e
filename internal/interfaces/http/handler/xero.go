package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appconnect "github.com/finsight/backend/internal/application/connect"
	"github.com/finsight/backend/internal/domain/connect"
	"github.com/finsight/backend/internal/interfaces/http/dto"
)

// stateCookieName carries the OAuth state between the authorize redirect and
// the callback, as a transport-level check on top of the server-side store
const stateCookieName = "xero_oauth_state"

// ConnectService manages the lifecycle of Xero connections
type ConnectService interface {
	GenerateAuthorizationURL(ctx context.Context, userID uuid.UUID) (string, string, error)
	CompleteAuthorization(ctx context.Context, state, code string) ([]connect.Connection, error)
	Revoke(ctx context.Context, tenantID, requestedBy uuid.UUID, isAdmin bool) (*appconnect.RevokeResult, error)
	ActiveConnections(ctx context.Context) ([]connect.Connection, error)
}

var _ ConnectService = (*appconnect.TokenManager)(nil)

// ConnectionResponse is the API view of one tenant connection
type ConnectionResponse struct {
	TenantID   string    `json:"tenantId"`
	TenantName string    `json:"tenantName"`
	Active     bool      `json:"active"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedBy  string    `json:"createdBy"`
}

// DisconnectRequest names the tenant connection to revoke
type DisconnectRequest struct {
	TenantID string `json:"tenantId" binding:"required,uuid"`
}

// XeroHandler exposes the OAuth connect flow and connection management
type XeroHandler struct {
	BaseHandler
	service     ConnectService
	settingsURL string
	stateTTL    time.Duration
	secureOnly  bool
	logger      *zap.Logger
}

// NewXeroHandler creates a Xero connection handler. settingsURL is where the
// callback redirects the browser; secureOnly marks the state cookie Secure.
func NewXeroHandler(service ConnectService, settingsURL string, stateTTL time.Duration, secureOnly bool, logger *zap.Logger) *XeroHandler {
	if stateTTL <= 0 {
		stateTTL = connect.DefaultStateTTL
	}
	return &XeroHandler{
		service:     service,
		settingsURL: settingsURL,
		stateTTL:    stateTTL,
		secureOnly:  secureOnly,
		logger:      logger.Named("xero_handler"),
	}
}

// RegisterRoutes registers the public callback route
func (h *XeroHandler) RegisterRoutes(rg *gin.RouterGroup) {
	xero := rg.Group("/xero")
	{
		xero.GET("/callback", h.Callback)
	}
}

// RegisterProtectedRoutes registers JWT-guarded connection management routes
func (h *XeroHandler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	xero := rg.Group("/xero")
	{
		xero.GET("/connect", h.Connect)
		xero.POST("/disconnect", h.Disconnect)
		xero.GET("/connections", h.Connections)
	}
}

// Connect starts the OAuth authorization flow: persists a pending transaction,
// sets the short-lived state cookie and redirects to the Xero consent page
func (h *XeroHandler) Connect(c *gin.Context) {
	userID, ok := getCallerID(c)
	if !ok {
		h.Unauthorized(c, "authentication required")
		return
	}

	authURL, state, err := h.service.GenerateAuthorizationURL(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("starting authorization failed", zap.Error(err))
		h.Internal(c, "failed to start authorization")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, int(h.stateTTL.Seconds()), "/", "", h.secureOnly, true)
	c.Redirect(http.StatusFound, authURL)
}

// Callback completes the OAuth flow. The state cookie is always cleared; the
// browser is redirected to the settings page with success or error params.
func (h *XeroHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	cookieState, cookieErr := c.Cookie(stateCookieName)

	// clear the cookie regardless of outcome
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, "", -1, "/", "", h.secureOnly, true)

	if errMsg := c.Query("error"); errMsg != "" {
		h.redirectSettingsError(c, dto.ErrCodeTokenExchange, "authorization was declined")
		return
	}
	if state == "" || code == "" {
		h.redirectSettingsError(c, dto.ErrCodeBadRequest, "missing code or state parameter")
		return
	}
	if cookieErr != nil || cookieState != state {
		h.logger.Warn("oauth callback state cookie mismatch")
		h.redirectSettingsError(c, dto.ErrCodeOAuthState, "authorization state could not be verified")
		return
	}

	connections, err := h.service.CompleteAuthorization(c.Request.Context(), state, code)
	if err != nil {
		switch {
		case errors.Is(err, connect.ErrInvalidOAuthState):
			h.redirectSettingsError(c, dto.ErrCodeOAuthState, "authorization state is invalid or expired")
		case errors.Is(err, connect.ErrTokenExchangeFailed):
			h.redirectSettingsError(c, dto.ErrCodeTokenExchange, "exchanging the authorization code failed")
		default:
			h.logger.Error("completing authorization failed", zap.Error(err))
			h.redirectSettingsError(c, dto.ErrCodeInternal, "connecting to Xero failed")
		}
		return
	}

	params := url.Values{}
	params.Set("xero", "connected")
	params.Set("tenants", strconv.Itoa(len(connections)))
	c.Redirect(http.StatusFound, h.settingsURL+"?"+params.Encode())
}

// Disconnect revokes a tenant connection. Only the connection owner or an
// admin may disconnect.
func (h *XeroHandler) Disconnect(c *gin.Context) {
	userID, ok := getCallerID(c)
	if !ok {
		h.Unauthorized(c, "authentication required")
		return
	}

	var req DisconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "tenantId must be a valid UUID")
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		h.BadRequest(c, "tenantId must be a valid UUID")
		return
	}

	claims := getCallerClaims(c)
	result, err := h.service.Revoke(c.Request.Context(), tenantID, userID, claims != nil && claims.IsAdmin())
	if err != nil {
		switch {
		case errors.Is(err, connect.ErrConnectionNotFound):
			h.ErrorWithCode(c, dto.ErrCodeConnectionNotFound, "no connection exists for this tenant")
		case errors.Is(err, connect.ErrNotConnectionOwner):
			h.Forbidden(c, "only the connection owner or an admin may disconnect")
		default:
			h.logger.Error("disconnect failed",
				zap.String("tenant_id", tenantID.String()), zap.Error(err))
			h.Internal(c, "disconnect failed")
		}
		return
	}
	h.Success(c, result)
}

// Connections lists active tenant connections
func (h *XeroHandler) Connections(c *gin.Context) {
	connections, err := h.service.ActiveConnections(c.Request.Context())
	if err != nil {
		h.logger.Error("listing connections failed", zap.Error(err))
		h.Internal(c, "failed to list connections")
		return
	}

	out := make([]ConnectionResponse, 0, len(connections))
	for i := range connections {
		conn := &connections[i]
		out = append(out, ConnectionResponse{
			TenantID:   conn.TenantID.String(),
			TenantName: conn.TenantName,
			Active:     conn.IsActive,
			ExpiresAt:  conn.ExpiresAt,
			CreatedBy:  conn.CreatedBy.String(),
		})
	}
	h.Success(c, out)
}

func (h *XeroHandler) redirectSettingsError(c *gin.Context, code, message string) {
	params := url.Values{}
	params.Set("xero", "error")
	params.Set("code", code)
	params.Set("message", message)
	c.Redirect(http.StatusFound, h.settingsURL+"?"+params.Encode())
}
