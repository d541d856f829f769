package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lhbctl",
	Short: "SteamVR base station control tool",
	Long: `Control SteamVR / Valve Index tracking base stations over Bluetooth LE:

- Scan and discover nearby base stations
- Read identity, power state, channel, and firmware version
- Wake, sleep, and switch channels
- Trigger the identify blink
- Watch a base station with periodic state refresh

Each operation is a self-contained connect-operate-disconnect cycle, so the
radio link is never held open between commands.`,
	Version: formatVersion(version),
}

func main() {
	// Disable color when stdout is not a terminal
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		// Print user-friendly error message
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(channelCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(watchCmd)

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
