package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gowrishetty09/driverlink/internal/config"
)

// configCmd displays the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printConfig(cfg)
		return nil
	},
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("Endpoint:               %s\n", cfg.Backend.Endpoint)
	fmt.Printf("Queue Capacity:         %d\n", cfg.Sync.QueueCapacity)
	fmt.Printf("Send TTL:               %s\n", cfg.Sync.SendTTL)
	fmt.Printf("Heartbeat Interval:     %s\n", cfg.Sync.HeartbeatInterval)
	fmt.Printf("Heartbeat TTL:          %s\n", cfg.Sync.HeartbeatTTL)
	fmt.Printf("Batch Interval:         %s\n", cfg.Sync.BatchInterval)
	fmt.Printf("Batch Capacity:         %d\n", cfg.Sync.BatchCapacity)
	fmt.Printf("Reconnect Base Delay:   %s\n", cfg.Sync.ReconnectBaseDelay)
	fmt.Printf("Reconnect Max Delay:    %s\n", cfg.Sync.ReconnectMaxDelay)
	fmt.Printf("Reconnect Max Attempts: %d\n", cfg.Sync.ReconnectMaxAttempts)
	fmt.Printf("Status Endpoint:        %s (enabled: %t)\n", cfg.Status.Addr, cfg.Status.Enabled)
	fmt.Printf("Log Level:              %s\n", cfg.Logging.Level)
	fmt.Printf("Log Format:             %s\n", cfg.Logging.Format)
}
