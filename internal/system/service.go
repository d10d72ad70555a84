package system

import (
	"runtime"
	"time"

	"github.com/strefethen/hassbridge-go/internal/hass"
)

// Version is the bridge version, set at build time or defaulted.
var Version = "1.0.0"

// SessionProvider reports the hub connection state.
type SessionProvider interface {
	Status() hass.Status
}

// PlayerCounter reports how many players have been published.
type PlayerCounter interface {
	Len() int
}

// Service provides process and connection information.
type Service struct {
	endpoint  string
	sessions  SessionProvider
	players   PlayerCounter
	startTime time.Time
}

// NewService creates a new system service.
func NewService(endpoint string, sessions SessionProvider, players PlayerCounter) *Service {
	return &Service{
		endpoint:  endpoint,
		sessions:  sessions,
		players:   players,
		startTime: time.Now(),
	}
}

// SystemInfo holds system information.
type SystemInfo struct {
	BridgeVersion string  `json:"bridge_version"`
	HAVersion     string  `json:"ha_version,omitempty"`
	Endpoint      string  `json:"endpoint"`
	Uptime        int64   `json:"uptime_seconds"`
	MemoryUsageMB float64 `json:"memory_mb"`
	Goroutines    int     `json:"goroutines"`
	Connected     bool    `json:"connected"`
	PlayersTotal  int     `json:"players_total"`
}

// GetSystemInfo returns current system information.
func (s *Service) GetSystemInfo() *SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	info := &SystemInfo{
		BridgeVersion: Version,
		Endpoint:      s.endpoint,
		Uptime:        int64(time.Since(s.startTime).Seconds()),
		MemoryUsageMB: float64(memStats.Alloc) / 1024 / 1024,
		Goroutines:    runtime.NumGoroutine(),
	}

	if s.sessions != nil {
		status := s.sessions.Status()
		info.Connected = status.Connected
		info.HAVersion = status.HAVersion
	}
	if s.players != nil {
		info.PlayersTotal = s.players.Len()
	}
	return info
}

// GetSession returns the hub connection state.
func (s *Service) GetSession() hass.Status {
	if s.sessions == nil {
		return hass.Status{}
	}
	return s.sessions.Status()
}
