package bridge

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/strefethen/hassbridge-go/internal/config"
	"github.com/strefethen/hassbridge-go/internal/hass"
	"github.com/strefethen/hassbridge-go/internal/logging"
	"github.com/strefethen/hassbridge-go/internal/players"
	"github.com/strefethen/hassbridge-go/internal/server"
	"github.com/strefethen/hassbridge-go/internal/system"
)

// Bridge wires the hub client, the player registry and the exporter together.
type Bridge struct {
	client   *hass.Client
	registry *players.Registry
	exporter players.Exporter
	system   *system.Service
	status   *server.Server
	log      zerolog.Logger
}

// New builds a bridge from a validated configuration.
func New(cfg config.Config, dialer hass.Dialer, exporter players.Exporter, log zerolog.Logger) *Bridge {
	endpoint := cfg.WebSocketURL()

	client := hass.NewClient(hass.Options{
		Endpoint:       endpoint,
		Token:          cfg.Token,
		RetryDelay:     cfg.RetryDelay,
		ResyncSchedule: cfg.ResyncSchedule,
	}, dialer, logging.Component(log, "hass_client"))

	registry := players.NewRegistry(client, exporter, players.Options{
		BaseURL:  cfg.HTTPBase(),
		Identity: cfg.Identity,
	}, logging.Component(log, "registry"))

	b := &Bridge{
		client:   client,
		registry: registry,
		exporter: exporter,
		system:   system.NewService(endpoint, client, registry),
		log:      log,
	}

	if cfg.StatusAddr != "" {
		statusLog := logging.Component(log, "status")
		b.status = server.New(cfg.StatusAddr, server.NewHandler(registry, b.system, statusLog), statusLog)
	}
	return b
}

// Registry returns the player registry.
func (b *Bridge) Registry() *players.Registry { return b.registry }

// Client returns the hub client.
func (b *Bridge) Client() *hass.Client { return b.client }

// Run operates the bridge until ctx is cancelled. Published players are
// released on return. A failing status API is logged and does not stop the
// hub client.
func (b *Bridge) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return b.client.Run(ctx, b.registry)
	})
	if b.status != nil {
		group.Go(func() error {
			if err := b.status.Run(ctx); err != nil {
				b.log.Error().Err(err).Msg("Status API unavailable, continuing without it")
			}
			return nil
		})
	}

	err := group.Wait()

	if closer, ok := b.exporter.(io.Closer); ok {
		if closeErr := closer.Close(); closeErr != nil {
			b.log.Warn().Err(closeErr).Msg("Failed to release published players")
		}
	}
	b.log.Info().Int("players", b.registry.Len()).Msg("Bridge stopped")
	return err
}
