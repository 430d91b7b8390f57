// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ChainSafe/stategc/dot/state"
	"github.com/ChainSafe/stategc/internal/pruner/recycle"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/urfave/cli"
)

const purgeBatchSize = 1000

var recycleBinCommand = cli.Command{
	Name:  "recycle-bin",
	Usage: "Inspect and manage the nodes moved to the recycle bin",
	Subcommands: []cli.Command{
		{
			Action: recycleBinListAction,
			Name:   "list",
			Usage:  "List recycle bin entries",
			Flags:  append([]cli.Flag{LimitFlag, CursorFlag}, filterFlags...),
		},
		{
			Action:    recycleBinRestoreAction,
			Name:      "restore",
			Usage:     "Restore nodes from the recycle bin into the node store",
			ArgsUsage: "<node hash> [node hash...]",
		},
		{
			Action: recycleBinPurgeAction,
			Name:   "purge",
			Usage:  "Permanently delete recycle bin entries",
			Flags:  append([]cli.Flag{SkipConfirmFlag}, filterFlags...),
		},
		{
			Action: recycleBinStatsAction,
			Name:   "stats",
			Usage:  "Show recycle bin statistics",
		},
	},
}

// withRecycleBin opens the database and its recycle bin, and runs f with them.
func withRecycleBin(ctx *cli.Context, f func(bin *recycle.Store, nodes *state.NodeStore) error) (err error) {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	setupLogger(config.Log)

	db, err := openDatabase(config.Database)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	bin, err := recycle.NewStore(db)
	if err != nil {
		return fmt.Errorf("opening recycle bin: %w", err)
	}

	err = f(bin, state.NewNodeStore(db))
	closeErr := bin.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("closing recycle bin: %w", closeErr)
	}
	return err
}

// filterFromFlags builds a recycle bin filter from the filter flags,
// with durations relative to now.
func filterFromFlags(ctx *cli.Context, now time.Time) (filter recycle.Filter) {
	if ctx.IsSet(OlderThanFlag.Name) {
		filter.OlderThan = now.Add(-ctx.Duration(OlderThanFlag.Name))
	}
	if ctx.IsSet(NewerThanFlag.Name) {
		filter.NewerThan = now.Add(-ctx.Duration(NewerThanFlag.Name))
	}
	if ctx.IsSet(MinSizeFlag.Name) {
		filter.MinSize = ctx.Uint64(MinSizeFlag.Name)
	}
	if ctx.IsSet(MaxSizeFlag.Name) {
		filter.MaxSize = ctx.Uint64(MaxSizeFlag.Name)
	}
	return filter
}

func recycleBinListAction(ctx *cli.Context) error {
	filter := filterFromFlags(ctx, time.Now())

	var cursor *common.Hash
	if ctx.IsSet(CursorFlag.Name) {
		hash, err := common.HexToHash(ctx.String(CursorFlag.Name))
		if err != nil {
			return fmt.Errorf("parsing cursor: %w", err)
		}
		cursor = &hash
	}

	return withRecycleBin(ctx, func(bin *recycle.Store, _ *state.NodeStore) error {
		page, err := bin.ListCursor(filter, cursor, ctx.Int(LimitFlag.Name))
		if err != nil {
			return fmt.Errorf("listing recycle bin: %w", err)
		}

		w := ctx.App.Writer
		headerColour.Fprintf(w, "%-66s %-20s %s\n", "NODE HASH", "CREATED AT", "SIZE")
		for _, entry := range page.Entries {
			fmt.Fprintf(w, "%-66s %-20s %d\n", entry.Hash,
				entry.Record.CreatedAt.Format(time.RFC3339), entry.Record.OriginalSize)
		}
		if page.HasMore {
			fmt.Fprintf(w, "more entries after --cursor %s\n", page.NextCursor)
		}
		return nil
	})
}

func recycleBinRestoreAction(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("node hash argument is missing")
	}

	hashes := make([]common.Hash, ctx.NArg())
	for i, arg := range ctx.Args() {
		hash, err := common.HexToHash(arg)
		if err != nil {
			return fmt.Errorf("parsing node hash argument %d: %w", i, err)
		}
		hashes[i] = hash
	}

	return withRecycleBin(ctx, func(bin *recycle.Store, nodes *state.NodeStore) error {
		w := ctx.App.Writer
		for _, hash := range hashes {
			record, err := bin.Restore(hash, nodes)
			if err != nil {
				return fmt.Errorf("restoring node %s: %w", hash, err)
			}
			successColour.Fprintf(w, "restored node %s of %d bytes\n", hash, record.OriginalSize)
		}
		return nil
	})
}

func recycleBinPurgeAction(ctx *cli.Context) error {
	filter := filterFromFlags(ctx, time.Now())

	return withRecycleBin(ctx, func(bin *recycle.Store, _ *state.NodeStore) error {
		w := ctx.App.Writer
		if !ctx.Bool(SkipConfirmFlag.Name) {
			if !isTerminal(os.Stdin) {
				return fmt.Errorf("standard input is not a terminal: use --skip-confirm to purge")
			}
			if !confirmMessage(os.Stdin, w, "Matching recycle bin entries will be permanently deleted. "+
				"Are you sure you want to continue? (Y/n)") {
				return fmt.Errorf("purge not confirmed")
			}
		}

		deleted, err := bin.DeleteMatching(filter, purgeBatchSize)
		if err != nil {
			return fmt.Errorf("purging recycle bin: %w", err)
		}
		successColour.Fprintf(w, "purged %d recycle bin entries\n", deleted)
		return nil
	})
}

func recycleBinStatsAction(ctx *cli.Context) error {
	return withRecycleBin(ctx, func(bin *recycle.Store, _ *state.NodeStore) error {
		stats, err := bin.Stats()
		if err != nil {
			return fmt.Errorf("getting recycle bin statistics: %w", err)
		}
		fmt.Fprintln(ctx.App.Writer, stats)
		return nil
	})
}
