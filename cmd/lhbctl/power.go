package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/lhbctl/pkg/basestation"
)

// powerCmd represents the power command
var powerCmd = &cobra.Command{
	Use:   "power <on|off|state-name> [device-address]",
	Short: "Set base station power state",
	Long: fmt.Sprintf(`Sets the base station power state.

"on" wakes the base station, "off" puts it to sleep. A raw state name
(sleeping, awake, standby) may be given instead.

Examples:
  lhbctl power on %s
  lhbctl power off %s
  lhbctl power standby %s`, exampleDeviceAddress, exampleDeviceAddress, exampleDeviceAddress),
	Args: cobra.RangeArgs(1, 2),
	RunE: runPower,
}

var (
	powerTimeout time.Duration
	powerVerbose bool
)

func init() {
	powerCmd.Flags().DurationVar(&powerTimeout, "timeout", 10*time.Second, "Operation timeout")
	powerCmd.Flags().BoolVar(&powerVerbose, "verbose", false, "Enable debug logging")
}

// parsePowerArg maps the command argument to a power state.
func parsePowerArg(arg string) (basestation.PowerState, error) {
	switch arg {
	case "on":
		return basestation.PowerAwake, nil
	case "off":
		return basestation.PowerSleeping, nil
	default:
		return basestation.ParsePowerState(arg)
	}
}

func runPower(cmd *cobra.Command, args []string) error {
	power, err := parsePowerArg(args[0])
	if err != nil {
		return err
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

	ctx, cancel := context.WithTimeout(context.Background(), powerTimeout)
	defer cancel()

	if err := client.SetPowerState(ctx, power); err != nil {
		return err
	}

	fmt.Printf("Power state set to %s\n", power)
	return nil
}
