package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/lhbctl/internal/transport/goble"
	"github.com/srg/lhbctl/scanner"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for base stations",
	Long: `Scan for Valve Index / SteamVR base stations in the vicinity.

Base stations are matched by their manufacturer identifier and the "LHB-"
name prefix; use --all to list every BLE device instead.`,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanFormat   string
	scanAll      bool
	scanVerbose  bool
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 10*time.Second, "Scan duration (0 for indefinite)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "List every BLE device, not just base stations")
	scanCmd.Flags().BoolVar(&scanVerbose, "verbose", false, "Enable debug logging")
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanFormat != "table" && scanFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", scanFormat)
	}

	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	duration := scanDuration
	if !cmd.Flags().Changed("duration") && cfg.ScanTimeout > 0 {
		duration = cfg.ScanTimeout
	}

	src, err := goble.NewScanner()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := scanner.NewScanner(src, logger)
	opts := &scanner.ScanOptions{
		Duration:        duration,
		DuplicateFilter: true,
		All:             scanAll,
	}

	devices, err := s.Scan(ctx, opts, nil)
	if err != nil {
		return err
	}

	return printDiscoveries(devices, scanFormat)
}

func printDiscoveries(devices map[string]scanner.Discovery, format string) error {
	list := make([]scanner.Discovery, 0, len(devices))
	for _, d := range devices {
		list = append(list, d)
	}
	// Strongest signal first
	sort.Slice(list, func(i, j int) bool { return list[i].RSSI > list[j].RSSI })

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Println("No base stations found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRSSI\tCONNECTABLE")
	nameColor := color.New(color.FgCyan)
	for _, d := range list {
		name := d.Name
		if name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%t\n", nameColor.Sprint(name), d.Address, d.RSSI, d.Connectable)
	}
	return w.Flush()
}
