package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/lhbctl/internal/transport"
	"github.com/srg/lhbctl/internal/transport/goble"
	"github.com/srg/lhbctl/pkg/basestation"
	"github.com/srg/lhbctl/pkg/config"
)

const exampleDeviceAddress = "f2:38:b1:3f:40:aa"

// loadConfig returns the file-backed config when --config is set,
// defaults otherwise.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

// resolveAddress picks the device address from the positional argument,
// falling back to the config file.
func resolveAddress(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Address != "" {
		return cfg.Address, nil
	}
	return "", fmt.Errorf("device address required: pass it as an argument or set it in the config file")
}

// newClient builds the production client stack for one base station.
func newClient(address string, connectTimeout time.Duration, logger *logrus.Logger) *basestation.Client {
	tr := goble.NewTransport(&transport.DialOptions{
		ConnectTimeout: connectTimeout,
		DialAttempts:   basestation.RetryAttempts,
	}, logger)
	session := basestation.NewSession(tr, address, logger)
	return basestation.NewClient(session, logger)
}
