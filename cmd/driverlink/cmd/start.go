package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gowrishetty09/driverlink/internal/config"
	"github.com/gowrishetty09/driverlink/internal/hub"
	"github.com/gowrishetty09/driverlink/internal/protocol"
	"github.com/gowrishetty09/driverlink/internal/realtime"
	"github.com/gowrishetty09/driverlink/internal/status"
	"github.com/gowrishetty09/driverlink/internal/transport"
)

var (
	driverID   string
	token      string
	endpoint   string
	statusAddr string
)

// startCmd represents the start command.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Connect to the dispatch backend and stay connected",
	Long: `Start the realtime link: authenticate against the dispatch backend,
hold the session open with heartbeats, and reconnect with backoff when
the network drops.

A local read-only status endpoint reports the connection state, queue
depth and active ride subscriptions for other processes on the device.

Example:
  driverlink start --driver-id d-1042 --token $DISPATCH_TOKEN
  driverlink start --endpoint wss://dispatch.example.com/ws`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&driverID, "driver-id", "", "driver identifier (required)")
	startCmd.Flags().StringVar(&token, "token", "", "bearer token for the transport handshake (required)")
	startCmd.Flags().StringVar(&endpoint, "endpoint", "", "dispatch backend WebSocket URL")
	startCmd.Flags().StringVar(&statusAddr, "status-addr", "", "address for the local status endpoint")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with flags
	if endpoint != "" {
		cfg.Backend.Endpoint = endpoint
	}
	if statusAddr != "" {
		cfg.Status.Addr = statusAddr
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg)

	log.Info().
		Str("version", version).
		Str("endpoint", cfg.Backend.Endpoint).
		Str("driver_id", driverID).
		Msg("starting driverlink")

	eventHub := hub.New()
	if err := eventHub.Start(); err != nil {
		return fmt.Errorf("failed to start event hub: %w", err)
	}
	defer func() { _ = eventHub.Stop() }()

	manager := realtime.New(realtime.Config{
		Endpoint:             cfg.Backend.Endpoint,
		QueueCapacity:        cfg.Sync.QueueCapacity,
		SendTTL:              cfg.Sync.SendTTL,
		HeartbeatInterval:    cfg.Sync.HeartbeatInterval,
		HeartbeatTTL:         cfg.Sync.HeartbeatTTL,
		BatchInterval:        cfg.Sync.BatchInterval,
		BatchCapacity:        cfg.Sync.BatchCapacity,
		ReconnectBaseDelay:   cfg.Sync.ReconnectBaseDelay,
		ReconnectMaxDelay:    cfg.Sync.ReconnectMaxDelay,
		ReconnectMaxAttempts: cfg.Sync.ReconnectMaxAttempts,
	}, transport.NewWebSocketDialer(), eventHub)

	// Log inbound events so the session is observable from the terminal.
	logSub := hub.NewChannelSubscriber("terminal-log", 64)
	eventHub.Subscribe(logSub)
	go func() {
		for event := range logSub.Events() {
			log.Info().
				Str("event", string(event.Type())).
				Time("at", event.Timestamp()).
				Msg("event")
		}
	}()

	if err := manager.Connect(protocol.Credentials{DriverID: driverID, Token: token}); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer manager.Disconnect()

	var statusServer *status.Server
	if cfg.Status.Enabled {
		statusServer = status.New(cfg.Status.Addr, manager)
		statusServer.Start()
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	if statusServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = statusServer.Stop(ctx)
	}

	log.Info().Msg("driverlink stopped")
	return nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "console" || verbose {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
