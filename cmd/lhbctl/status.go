package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/lhbctl/pkg/basestation"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status [device-address]",
	Short: "Read base station identity and state",
	Long: fmt.Sprintf(`Connects to a base station, reads its identity and current state, and
disconnects.

Examples:
  lhbctl status %s
  lhbctl status %s --format json`, exampleDeviceAddress, exampleDeviceAddress),
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var (
	statusFormat  string
	statusTimeout time.Duration
	statusVerbose bool
)

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "table", "Output format (table, json)")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 10*time.Second, "Operation timeout")
	statusCmd.Flags().BoolVar(&statusVerbose, "verbose", false, "Enable debug logging")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusFormat != "table" && statusFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", statusFormat)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	state, err := client.Update(ctx)
	if err != nil {
		return err
	}

	if statusFormat == "json" {
		out := map[string]any{
			"address":       client.Address(),
			"name":          client.Name(),
			"manufacturer":  client.Manufacturer(),
			"model":         client.Model(),
			"model_id":      client.ModelID(),
			"serial_number": client.SerialNumber(),
			"state":         state,
			"is_on":         client.IsOn(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printStatus(client, state)
	return nil
}

func printStatus(client *basestation.Client, state basestation.State) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", client.Name())
	fmt.Fprintf(w, "Address:\t%s\n", client.Address())
	fmt.Fprintf(w, "Manufacturer:\t%s\n", client.Manufacturer())
	fmt.Fprintf(w, "Model:\t%s (%s)\n", client.Model(), client.ModelID())
	fmt.Fprintf(w, "Serial number:\t%s\n", client.SerialNumber())
	fmt.Fprintf(w, "Firmware:\t%s\n", state.SWVersion)
	fmt.Fprintf(w, "Power:\t%s\n", formatPower(state.Power))
	fmt.Fprintf(w, "Channel:\t%d\n", state.Channel)
	w.Flush()
}

func formatPower(p basestation.PowerState) string {
	switch p {
	case basestation.PowerStandby, basestation.PowerSleeping:
		return color.RedString(p.String())
	default:
		return color.GreenString(p.String())
	}
}
