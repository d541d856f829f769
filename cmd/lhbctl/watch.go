package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/lhbctl/pkg/basestation"
	"github.com/srg/lhbctl/pkg/coordinator"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [device-address]",
	Short: "Periodically refresh and print base station state",
	Long: fmt.Sprintf(`Polls the base station on a fixed interval and prints each result until
interrupted. Each refresh is a self-contained connect-read-disconnect
cycle bounded by the update timeout.

Examples:
  lhbctl watch %s
  lhbctl watch %s --interval 30s`, exampleDeviceAddress, exampleDeviceAddress),
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var (
	watchInterval time.Duration
	watchTimeout  time.Duration
	watchVerbose  bool
)

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", coordinator.DefaultUpdateInterval, "Refresh interval")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", coordinator.DefaultUpdateTimeout, "Per-refresh timeout")
	watchCmd.Flags().BoolVar(&watchVerbose, "verbose", false, "Enable debug logging")
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	interval := watchInterval
	if !cmd.Flags().Changed("interval") && cfg.UpdateInterval > 0 {
		interval = cfg.UpdateInterval
	}
	timeout := watchTimeout
	if !cmd.Flags().Changed("timeout") && cfg.UpdateTimeout > 0 {
		timeout = cfg.UpdateTimeout
	}

	client := newClient(address, cfg.ConnectTimeout, logger)
	coord := coordinator.NewCoordinator(client, &coordinator.Options{
		UpdateInterval: interval,
		UpdateTimeout:  timeout,
	}, logger)

	unsubscribe := coord.AddListener(func(state basestation.State, err error) {
		ts := time.Now().Format(time.RFC3339)
		if err != nil {
			fmt.Printf("%s  %s\n", ts, color.RedString(err.Error()))
			return
		}
		fmt.Printf("%s  power=%s channel=%d firmware=%s\n",
			ts, formatPower(state.Power), state.Channel, state.SWVersion)
	})
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
