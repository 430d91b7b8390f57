// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"fmt"
	"os"

	"github.com/ChainSafe/stategc/internal/log"
	"github.com/ChainSafe/stategc/internal/pruner/gc"
	"github.com/ChainSafe/stategc/internal/pruner/marker"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/naoina/toml"
	"github.com/urfave/cli"
)

// Config is the TOML configuration of the command.
type Config struct {
	GC       gc.Config      `toml:"gc"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// DatabaseConfig is the database configuration.
type DatabaseConfig struct {
	Backend string `toml:"backend"`
	DataDir string `toml:"datadir"`
}

// LogConfig is the logging configuration.
type LogConfig struct {
	Level  log.Level `toml:"level"`
	Caller bool      `toml:"caller"`
}

// MetricsConfig is the metrics configuration.
type MetricsConfig struct {
	// Address is the address to serve metrics on,
	// and metrics are disabled if it is empty.
	Address string `toml:"address"`
}

func defaultConfig() Config {
	gcConfig := gc.DefaultConfig()
	gcConfig.UseRecycleBin = true
	return Config{
		GC: gcConfig,
		Database: DatabaseConfig{
			Backend: backendPebble,
			DataDir: "./stategc-data",
		},
		Log: LogConfig{
			Level: log.Info,
		},
	}
}

// loadConfig returns the default configuration overridden by the
// configuration file given with --config, if any, and then by flags.
func loadConfig(ctx *cli.Context) (config Config, err error) {
	config = defaultConfig()

	path := ctx.GlobalString(ConfigFlag.Name)
	if path != "" {
		err = loadConfigFile(path, &config)
		if err != nil {
			return config, err
		}
	}

	err = applyFlags(ctx, &config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func loadConfigFile(path string, config *Config) (err error) {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening configuration file: %w", err)
	}

	err = toml.NewDecoder(file).Decode(config)
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("decoding configuration file %s: %w", path, err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("closing configuration file: %w", err)
	}
	return nil
}

// exportConfig writes the configuration as TOML to path.
func exportConfig(config Config, path string) (err error) {
	raw, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshalling configuration: %w", err)
	}

	err = os.WriteFile(path, raw, 0600)
	if err != nil {
		return fmt.Errorf("writing configuration file: %w", err)
	}
	return nil
}

func applyFlags(ctx *cli.Context, config *Config) (err error) {
	if ctx.GlobalIsSet(DataDirFlag.Name) {
		config.Database.DataDir = ctx.GlobalString(DataDirFlag.Name)
	}
	if ctx.GlobalIsSet(BackendFlag.Name) {
		config.Database.Backend = ctx.GlobalString(BackendFlag.Name)
	}
	if ctx.GlobalIsSet(LogFlag.Name) {
		config.Log.Level, err = log.ParseLevel(ctx.GlobalString(LogFlag.Name))
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
	}

	gcConfig := &config.GC
	if ctx.IsSet(DryRunFlag.Name) {
		gcConfig.DryRun = ctx.Bool(DryRunFlag.Name)
	}
	if ctx.IsSet(BatchSizeFlag.Name) {
		gcConfig.BatchSize = ctx.Int(BatchSizeFlag.Name)
	}
	if ctx.IsSet(WorkersFlag.Name) {
		gcConfig.Workers = ctx.Int(WorkersFlag.Name)
	}
	if ctx.IsSet(NoRecycleBinFlag.Name) {
		gcConfig.UseRecycleBin = !ctx.Bool(NoRecycleBinFlag.Name)
	}
	if ctx.IsSet(ForceCompactionFlag.Name) {
		gcConfig.ForceCompaction = ctx.Bool(ForceCompactionFlag.Name)
	}
	if ctx.IsSet(ForceExecutionFlag.Name) {
		gcConfig.ForceExecution = ctx.Bool(ForceExecutionFlag.Name)
	}
	if ctx.IsSet(ProtectedRootsFlag.Name) {
		gcConfig.ProtectedRootsCount = ctx.Int(ProtectedRootsFlag.Name)
	}
	if ctx.IsSet(MarkerStrategyFlag.Name) {
		gcConfig.MarkerStrategy, err = marker.ParseStrategy(ctx.String(MarkerStrategyFlag.Name))
		if err != nil {
			return fmt.Errorf("parsing marker strategy: %w", err)
		}
	}
	if ctx.IsSet(PinnedRootsFlag.Name) {
		for _, s := range ctx.StringSlice(PinnedRootsFlag.Name) {
			root, err := common.HexToHash(s)
			if err != nil {
				return fmt.Errorf("parsing pinned root: %w", err)
			}
			gcConfig.PinnedRoots = append(gcConfig.PinnedRoots, root)
		}
	}
	if ctx.IsSet(MetricsAddressFlag.Name) {
		config.Metrics.Address = ctx.String(MetricsAddressFlag.Name)
	}

	return nil
}
