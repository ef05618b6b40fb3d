// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/luxfi/filrpc"
)

const (
	apiInfoEnv      = "FULLNODE_API_INFO"
	defaultEndpoint = "ws://127.0.0.1:1234/rpc/"
)

// Config is the on-disk CLI configuration.
type Config struct {
	Endpoint   string        `yaml:"endpoint"`
	Token      string        `yaml:"token"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
	Retries    uint64        `yaml:"retries"`
}

func defaultConfig() Config {
	return Config{
		APIVersion: "v0",
		Timeout:    30 * time.Second,
		Retries:    3,
	}
}

// loadConfig reads path over the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveEndpoint picks the endpoint and token: explicit values first,
// then the Lotus API info environment variable, then the local default.
func resolveEndpoint(cfg Config, getenv func(string) string) (endpoint, token string, err error) {
	if cfg.Endpoint != "" {
		return cfg.Endpoint, cfg.Token, nil
	}
	if info := getenv(apiInfoEnv); info != "" {
		ai := filrpc.ParseAPIInfo(info)
		endpoint, err := ai.Endpoint("ws", cfg.APIVersion)
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", apiInfoEnv, err)
		}
		token := cfg.Token
		if token == "" {
			token = ai.Token
		}
		return endpoint, token, nil
	}
	return defaultEndpoint + cfg.APIVersion, cfg.Token, nil
}
