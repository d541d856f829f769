package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/lhbctl/pkg/basestation"
)

// channelCmd represents the channel command
var channelCmd = &cobra.Command{
	Use:   "channel <1-16> [device-address]",
	Short: "Set the base station channel",
	Long: fmt.Sprintf(`Sets the base station channel (1-16).

Changing the channel wakes the base station automatically.

Examples:
  lhbctl channel 3 %s`, exampleDeviceAddress),
	Args: cobra.RangeArgs(1, 2),
	RunE: runChannel,
}

var (
	channelTimeout time.Duration
	channelVerbose bool
)

func init() {
	channelCmd.Flags().DurationVar(&channelTimeout, "timeout", 10*time.Second, "Operation timeout")
	channelCmd.Flags().BoolVar(&channelVerbose, "verbose", false, "Enable debug logging")
}

func runChannel(cmd *cobra.Command, args []string) error {
	channel, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid channel %q: must be a number between %d and %d",
			args[0], basestation.ChannelMin, basestation.ChannelMax)
	}

	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	address, err := resolveAddress(args[1:], cfg)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	client := newClient(address, cfg.ConnectTimeout, logger)

	ctx, cancel := context.WithTimeout(context.Background(), channelTimeout)
	defer cancel()

	if err := client.SetChannel(ctx, channel); err != nil {
		return err
	}

	fmt.Printf("Channel set to %d\n", channel)
	return nil
}
