package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/strefethen/hassbridge-go/internal/auth"
	"github.com/strefethen/hassbridge-go/internal/bridge"
	"github.com/strefethen/hassbridge-go/internal/config"
	"github.com/strefethen/hassbridge-go/internal/hass"
	"github.com/strefethen/hassbridge-go/internal/logging"
	"github.com/strefethen/hassbridge-go/internal/mpris"
	"github.com/strefethen/hassbridge-go/internal/system"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hassbridge",
		Short: "Expose Home Assistant media players as MPRIS players",
		Long: `Connect to a Home Assistant instance over its websocket API and publish
every playing media_player entity on the D-Bus session bus as an MPRIS
player. The connection is re-established after any failure.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log := logging.New(os.Stderr, cfg.Debug)
			checkToken(log, cfg.Token, time.Now())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			exporter := mpris.NewExporter(logging.Component(log, "mpris"))
			b := bridge.New(cfg, hass.NewWebSocketDialer(), exporter, log)

			log.Info().
				Str("endpoint", cfg.WebSocketURL()).
				Str("version", system.Version).
				Msg("Starting bridge")
			return b.Run(ctx)
		},
	}

	cmd.Flags().String("config", "", "Path to a YAML configuration file")
	cmd.Flags().String("endpoint", "", "Home Assistant base URL, e.g. http://homeassistant.local:8123")
	cmd.Flags().String("token", "", "Long-lived access token")
	cmd.Flags().String("status-addr", "", "Listen address for the local status API")
	cmd.Flags().BoolP("debug", "d", false, "Enable debug logging")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bridge version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), system.Version)
		},
	}
}

// loadConfig reads the file and environment, then applies any flags that were
// set explicitly on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	fs := cmd.Flags()
	path, _ := fs.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if fs.Changed("endpoint") {
		cfg.Endpoint, _ = fs.GetString("endpoint")
	}
	if fs.Changed("token") {
		cfg.Token, _ = fs.GetString("token")
	}
	if fs.Changed("status-addr") {
		cfg.StatusAddr, _ = fs.GetString("status-addr")
	}
	if fs.Changed("debug") {
		cfg.Debug, _ = fs.GetBool("debug")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// checkToken warns about expired or soon to expire access tokens. Tokens that
// are not JWTs are passed to the hub as they are.
func checkToken(log zerolog.Logger, token string, now time.Time) {
	info, err := auth.InspectToken(token)
	if errors.Is(err, auth.ErrTokenNotJWT) {
		log.Debug().Msg("Access token is not a JWT, skipping expiry check")
		return
	}

	switch {
	case info.Expired(now):
		log.Warn().Time("expires_at", *info.ExpiresAt).Msg("Access token has expired")
	case info.ExpiresWithin(now, auth.ExpiryWarningWindow):
		log.Warn().Time("expires_at", *info.ExpiresAt).Msg("Access token expires soon")
	}
}
