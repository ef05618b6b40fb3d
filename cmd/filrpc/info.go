// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luxfi/filrpc"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the resolved endpoint without connecting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint, token, err := resolveEndpoint(cfg, os.Getenv)
		if err != nil {
			return err
		}
		u, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("parse endpoint: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "endpoint:   %s\n", u.Redacted())
		fmt.Fprintf(out, "transport:  %s (available: %s)\n", u.Scheme, strings.Join(filrpc.AvailableTransports(), ", "))
		fmt.Fprintf(out, "supported:  %t\n", filrpc.HasTransport(u.Scheme))
		fmt.Fprintf(out, "token:      %t\n", token != "")
		fmt.Fprintf(out, "timeout:    %s\n", cfg.Timeout)
		fmt.Fprintf(out, "retries:    %d\n", cfg.Retries)
		return nil
	},
}
