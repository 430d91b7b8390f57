// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import "github.com/urfave/cli"

// Global flags
var (
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	DataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Database directory",
	}
	BackendFlag = cli.StringFlag{
		Name:  "backend",
		Usage: "Database backend: pebble, leveldb, badger or memory",
	}
	LogFlag = cli.StringFlag{
		Name:  "log",
		Usage: "Log level. Supports levels crit (silent), eror, warn, info, dbug and trce (trace)",
	}
)

// Garbage collection flags
var (
	DryRunFlag = cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Report what would be removed without writing anything",
	}
	BatchSizeFlag = cli.IntFlag{
		Name:  "batch-size",
		Usage: "Number of stale records swept per atomic batch",
	}
	WorkersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "Number of goroutines marking and sweeping nodes",
	}
	NoRecycleBinFlag = cli.BoolFlag{
		Name:  "no-recycle-bin",
		Usage: "Delete unreachable nodes instead of moving them to the recycle bin",
	}
	ForceCompactionFlag = cli.BoolFlag{
		Name:  "force-compaction",
		Usage: "Compact the database once nodes are removed",
	}
	ForceExecutionFlag = cli.BoolFlag{
		Name:  "force-execution",
		Usage: "Skip the database safety verification",
	}
	MarkerStrategyFlag = cli.StringFlag{
		Name:  "marker-strategy",
		Usage: "Reachable set strategy: auto, in-memory, bloom or persistent",
	}
	ProtectedRootsFlag = cli.IntFlag{
		Name:  "protected-roots",
		Usage: "Number of most recent state roots protected",
	}
	PinnedRootsFlag = cli.StringSliceFlag{
		Name:  "pin",
		Usage: "Additional state root hash to protect, can be repeated",
	}
	SkipConfirmFlag = cli.BoolFlag{
		Name:  "skip-confirm",
		Usage: "Disable the confirmation prompt before removing nodes",
	}
	ReportFlag = cli.StringFlag{
		Name:  "report",
		Usage: "File to write the JSON report to, instead of the standard output",
	}
	MetricsAddressFlag = cli.StringFlag{
		Name:  "metrics-address",
		Usage: "Address to serve prometheus metrics on during the round",
	}
)

// Listing flags
var (
	CutoffFlag = cli.Uint64Flag{
		Name:  "cutoff",
		Usage: "List stale records with a tx order strictly below this value",
	}
	LimitFlag = cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of entries listed",
		Value: 100,
	}
	CursorFlag = cli.StringFlag{
		Name:  "cursor",
		Usage: "Node hash to list recycle bin entries after",
	}
	OlderThanFlag = cli.DurationFlag{
		Name:  "older-than",
		Usage: "Only select entries created more than this duration ago",
	}
	NewerThanFlag = cli.DurationFlag{
		Name:  "newer-than",
		Usage: "Only select entries created less than this duration ago",
	}
	MinSizeFlag = cli.Uint64Flag{
		Name:  "min-size",
		Usage: "Only select entries with an original size of at least this many bytes",
	}
	MaxSizeFlag = cli.Uint64Flag{
		Name:  "max-size",
		Usage: "Only select entries with an original size of at most this many bytes",
	}
)

// Seed flags
var (
	WidthFlag = cli.IntFlag{
		Name:  "width",
		Usage: "Number of children of each branch of the generated tree",
		Value: 16,
	}
	UpdatesFlag = cli.IntFlag{
		Name:  "updates",
		Usage: "Number of state roots committed after the genesis",
		Value: 100,
	}
	LeavesPerUpdateFlag = cli.IntFlag{
		Name:  "leaves-per-update",
		Usage: "Maximum number of leaves rewritten by each update",
		Value: 4,
	}
	SeedFlag = cli.Int64Flag{
		Name:  "seed",
		Usage: "Seed of the random updates",
		Value: 1,
	}
)

var (
	globalFlags = []cli.Flag{
		ConfigFlag,
		DataDirFlag,
		BackendFlag,
		LogFlag,
	}

	gcFlags = []cli.Flag{
		DryRunFlag,
		BatchSizeFlag,
		WorkersFlag,
		NoRecycleBinFlag,
		ForceCompactionFlag,
		ForceExecutionFlag,
		MarkerStrategyFlag,
		ProtectedRootsFlag,
		PinnedRootsFlag,
		SkipConfirmFlag,
		ReportFlag,
		MetricsAddressFlag,
	}

	filterFlags = []cli.Flag{
		OlderThanFlag,
		NewerThanFlag,
		MinSizeFlag,
		MaxSizeFlag,
	}
)
