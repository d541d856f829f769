package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// identifyCmd represents the identify command
var identifyCmd = &cobra.Command{
	Use:   "identify [device-address]",
	Short: "Trigger the identify blink",
	Long: fmt.Sprintf(`Makes the base station blink its status LED so it can be located.

The base station wakes automatically.

Examples:
  lhbctl identify %s`, exampleDeviceAddress),
	Args: cobra.MaximumNArgs(1),
	RunE: runIdentify,
}

var (
	identifyTimeout time.Duration
	identifyVerbose bool
)

func init() {
	identifyCmd.Flags().DurationVar(&identifyTimeout, "timeout", 10*time.Second, "Operation timeout")
	identifyCmd.Flags().BoolVar(&identifyVerbose, "verbose", false, "Enable debug logging")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	address, err := resolveAddress(args, cfg)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	client := newClient(address, cfg.ConnectTimeout, logger)

	ctx, cancel := context.WithTimeout(context.Background(), identifyTimeout)
	defer cancel()

	if err := client.Identify(ctx); err != nil {
		return err
	}

	fmt.Println("Identify triggered")
	return nil
}
