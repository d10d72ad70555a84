package system

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/hassbridge-go/internal/api"
	"github.com/strefethen/hassbridge-go/internal/hass"
)

// RegisterRoutes wires system routes to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/system/info", api.Handler(getSystemInfo(service)))
	router.Method(http.MethodGet, "/v1/session", api.Handler(getSession(service)))
}

// getSystemInfo handles GET /v1/system/info
func getSystemInfo(service *Service) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		return api.SingleResponse(w, r, http.StatusOK, "info", formatSystemInfo(service.GetSystemInfo()))
	}
}

// getSession handles GET /v1/session
func getSession(service *Service) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		return api.SingleResponse(w, r, http.StatusOK, "session", formatSession(service.GetSession()))
	}
}

func formatSystemInfo(info *SystemInfo) map[string]any {
	result := map[string]any{
		"bridge_version": info.BridgeVersion,
		"endpoint":       info.Endpoint,
		"uptime_seconds": info.Uptime,
		"memory_mb":      info.MemoryUsageMB,
		"goroutines":     info.Goroutines,
		"connected":      info.Connected,
		"players_total":  info.PlayersTotal,
	}
	if info.HAVersion != "" {
		result["ha_version"] = info.HAVersion
	} else {
		result["ha_version"] = nil
	}
	return result
}

func formatSession(status hass.Status) map[string]any {
	result := map[string]any{
		"connected":        status.Connected,
		"sessions_started": status.SessionsStarted,
		"failures":         status.Failures,
		"pending_requests": status.PendingRequests,
		"session_id":       nil,
		"ha_version":       nil,
		"connected_at":     nil,
		"last_error":       nil,
		"last_error_at":    nil,
	}
	if status.SessionID != "" {
		result["session_id"] = status.SessionID
	}
	if status.HAVersion != "" {
		result["ha_version"] = status.HAVersion
	}
	if status.ConnectedAt != nil {
		result["connected_at"] = status.ConnectedAt.UTC().Format(time.RFC3339)
	}
	if status.LastError != "" {
		result["last_error"] = status.LastError
	}
	if status.LastErrorAt != nil {
		result["last_error_at"] = status.LastErrorAt.UTC().Format(time.RFC3339)
	}
	return result
}
