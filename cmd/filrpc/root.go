// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luxfi/filrpc"
)

// GlobalFlags are shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	Endpoint   string
	Token      string
	APIVersion string
	Timeout    time.Duration
	Retries    uint64
	Verbose    bool
}

var (
	globalFlags GlobalFlags
	cfg         Config
	logger      *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "filrpc",
	Short: "Call a Filecoin node over JSON-RPC",
	Long: `filrpc talks to a Lotus-compatible node over HTTP, WebSocket or gRPC.

The endpoint comes from --endpoint, the config file, or FULLNODE_API_INFO,
in that order.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(globalFlags.ConfigPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)

		logger, err = newLogger(globalFlags.Verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalFlags.ConfigPath, "config", "", "YAML config file")
	flags.StringVarP(&globalFlags.Endpoint, "endpoint", "e", "", "node endpoint (http://, ws://, grpc://)")
	flags.StringVar(&globalFlags.Token, "token", "", "API token")
	flags.StringVar(&globalFlags.APIVersion, "api-version", "v0", "API version used for FULLNODE_API_INFO and the default endpoint")
	flags.DurationVar(&globalFlags.Timeout, "timeout", 30*time.Second, "per-command timeout")
	flags.Uint64Var(&globalFlags.Retries, "retries", 3, "attempts for calls that fail with a network error")
	flags.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "log connection activity")

	rootCmd.AddCommand(callCmd, subscribeCmd, infoCmd)
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cmd *cobra.Command, c *Config) {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		c.Endpoint = globalFlags.Endpoint
	}
	if flags.Changed("token") {
		c.Token = globalFlags.Token
	}
	if flags.Changed("api-version") {
		c.APIVersion = globalFlags.APIVersion
	}
	if flags.Changed("timeout") {
		c.Timeout = globalFlags.Timeout
	}
	if flags.Changed("retries") {
		c.Retries = globalFlags.Retries
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	zc.Encoding = "console"
	return zc.Build()
}

// connect resolves the endpoint and returns a connected Connector along
// with a context bounded by the configured timeout.
func connect(ctx context.Context) (*filrpc.Connector, error) {
	endpoint, token, err := resolveEndpoint(cfg, os.Getenv)
	if err != nil {
		return nil, err
	}
	opts := []filrpc.Option{filrpc.WithLogger(logger)}
	if token != "" {
		opts = append(opts, filrpc.WithToken(token))
	}
	c, err := filrpc.New(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	_ = c.On(filrpc.EventDisconnected, func() {
		logger.Debug("disconnected", zap.String("endpoint", endpoint))
	})
	if err := c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", endpoint, err)
	}
	return c, nil
}
