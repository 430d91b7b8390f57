// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/ChainSafe/stategc/internal/metrics"
	"github.com/ChainSafe/stategc/internal/pruner/gc"
	"github.com/ChainSafe/stategc/internal/pruner/safety"
	"github.com/ChainSafe/stategc/internal/pruner/stale"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
)

var ErrDatabaseUnavailable = errors.New("database is not available")

var (
	gcCommand = cli.Command{
		Action: gcAction,
		Name:   "gc",
		Usage:  "Remove the stale nodes unreachable from the protected state roots",
		Flags:  gcFlags,
	}
	verifySafetyCommand = cli.Command{
		Action: verifySafetyAction,
		Name:   "verify-safety",
		Usage:  "Verify the database directory can be garbage collected",
	}
	listStaleCommand = cli.Command{
		Action: listStaleAction,
		Name:   "list-stale",
		Usage:  "List the stale records below a tx order",
		Flags:  []cli.Flag{CutoffFlag, LimitFlag},
	}
	dumpConfigCommand = cli.Command{
		Action:    dumpConfigAction,
		Name:      "dump-config",
		Usage:     "Write the effective configuration to a TOML file",
		ArgsUsage: "<path>",
		Flags:     gcFlags,
	}
)

func gcAction(ctx *cli.Context) (err error) {
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

	var options []gc.Option
	if config.Metrics.Address != "" {
		registry := prometheus.NewRegistry()
		options = append(options, gc.WithMetrics(metrics.NewGCMetrics(registry)))
		server := metrics.NewServer(config.Metrics.Address, registry)
		err = server.Start()
		if err != nil {
			return fmt.Errorf("starting metrics server: %w", err)
		}
		defer func() {
			stopErr := server.Stop()
			if stopErr != nil {
				logger.Errorf("stopping metrics server: %s", stopErr)
			}
		}()
	}

	if !ctx.Bool(SkipConfirmFlag.Name) {
		options = append(options, gc.WithConfirm(func(protectedRoots []common.Hash, stats gc.MarkStats) bool {
			return confirmRound(ctx, protectedRoots, stats)
		}))
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := gc.New(db, config.GC, options...)
	report, err := collector.ExecuteGC(runCtx)
	if report.RoundID != uuid.Nil {
		writeErr := writeReport(ctx, report)
		if writeErr != nil {
			logger.Errorf("writing report: %s", writeErr)
		}
	}

	w := ctx.App.Writer
	if err != nil {
		failColour.Fprintf(w, "garbage collection failed: %s\n", err)
		return err
	}

	verb := "removed"
	if report.DryRun {
		verb = "would remove"
	}
	successColour.Fprintf(w, "%s %d of %d stale nodes (%d bytes) in %s\n", verb,
		report.SweepStats.DeletedCount, report.SweepStats.ScannedCount,
		report.SweepStats.BytesEstimated, report.Duration)
	return nil
}

func writeReport(ctx *cli.Context, report gc.Report) (err error) {
	path := ctx.String(ReportFlag.Name)
	if path == "" {
		return gc.WriteReport(ctx.App.Writer, report)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}

	err = gc.WriteReport(file, report)
	if err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}

const maxRootsShown = 5

func confirmRound(ctx *cli.Context, protectedRoots []common.Hash, stats gc.MarkStats) bool {
	w := ctx.App.Writer
	if !isTerminal(os.Stdin) {
		warnColour.Fprintln(w, "standard input is not a terminal: use --skip-confirm to remove nodes")
		return false
	}

	headerColour.Fprintln(w, "Garbage collection")
	fmt.Fprintf(w, "protected roots: %d\n", len(protectedRoots))
	for i, root := range protectedRoots {
		if i == maxRootsShown {
			fmt.Fprintf(w, "  ... and %d more\n", len(protectedRoots)-maxRootsShown)
			break
		}
		fmt.Fprintf(w, "  %s\n", root)
	}
	fmt.Fprintf(w, "reachable nodes: %d (%s marker)\n", stats.MarkedCount, stats.MemoryStrategy)
	if stats.EstimatedFalsePositiveRate > 0 {
		fmt.Fprintf(w, "false positive rate: %.6f\n", stats.EstimatedFalsePositiveRate)
	}
	warnColour.Fprintln(w, "Unreachable stale nodes will be removed from the database.")

	return confirmMessage(os.Stdin, w, "Are you sure you want to continue? (Y/n)")
}

func verifySafetyAction(ctx *cli.Context) (err error) {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	report, err := safety.NewVerifier(config.Database.DataDir).VerifyDatabaseAccess()
	if err != nil {
		return err
	}

	w := ctx.App.Writer
	if !report.DatabaseAvailable {
		failColour.Fprintln(w, report.Message)
		return fmt.Errorf("%w: %s", ErrDatabaseUnavailable, report.Message)
	}

	successColour.Fprintln(w, report.Message)
	return nil
}

func listStaleAction(ctx *cli.Context) (err error) {
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

	cutoff := uint64(math.MaxUint64)
	if ctx.IsSet(CutoffFlag.Name) {
		cutoff = ctx.Uint64(CutoffFlag.Name)
	}

	store := stale.NewStore(db)
	records, err := store.ListBefore(cutoff, ctx.Int(LimitFlag.Name))
	if err != nil {
		return fmt.Errorf("listing stale records: %w", err)
	}

	count, err := store.Count(cutoff)
	if err != nil {
		return fmt.Errorf("counting stale records: %w", err)
	}

	w := ctx.App.Writer
	headerColour.Fprintf(w, "%-10s %s\n", "TX ORDER", "NODE HASH")
	for _, record := range records {
		fmt.Fprintf(w, "%-10d %s\n", record.TxOrder, record.NodeHash)
	}
	fmt.Fprintf(w, "%d of %d stale records listed\n", len(records), count)
	return nil
}

func dumpConfigAction(ctx *cli.Context) (err error) {
	path := ctx.Args().First()
	if path == "" {
		return fmt.Errorf("configuration file path argument is missing")
	}

	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	return exportConfig(config, path)
}
