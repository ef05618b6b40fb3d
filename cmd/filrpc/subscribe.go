// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var subscribeCmd = &cobra.Command{
	Use:     "subscribe <method> [json-params]",
	Short:   "Print values from a channel-returning method until interrupted",
	Example: `  filrpc subscribe Filecoin.ChainNotify`,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(args[1:])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		c, err := connect(dialCtx)
		if err != nil {
			return err
		}
		defer c.Disconnect()

		sub, err := c.Subscribe(dialCtx, args[0], params...)
		if err != nil {
			return err
		}
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-sub.Values():
				if !ok {
					if err := sub.Err(); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				}
				if err := printJSON(cmd, v); err != nil {
					return err
				}
			}
		}
	},
}
