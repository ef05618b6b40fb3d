// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luxfi/filrpc/retry"
)

var callCmd = &cobra.Command{
	Use:   "call <method> [json-params]",
	Short: "Invoke a method and print its result",
	Example: `  filrpc call Filecoin.ChainHead
  filrpc call Filecoin.StateLookupID '["f01234", null]'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(args[1:])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Disconnect()

		var result json.RawMessage
		err = retry.Call(ctx, c, args[0], &result, params,
			retry.WithMaxAttempts(cfg.Retries),
			retry.WithNotify(func(err error, next time.Duration) {
				logger.Info("retrying call",
					zap.String("method", args[0]),
					zap.Duration("backoff", next),
					zap.Error(err),
				)
			}),
		)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

// parseParams decodes the optional positional JSON argument. A JSON array
// is spread into positional params; any other value is passed as the only
// param.
func parseParams(args []string) ([]interface{}, error) {
	if len(args) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(args[0]), &v); err != nil {
		return nil, fmt.Errorf("params must be JSON: %w", err)
	}
	if list, ok := v.([]interface{}); ok {
		return list, nil
	}
	return []interface{}{v}, nil
}

func printJSON(cmd *cobra.Command, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
