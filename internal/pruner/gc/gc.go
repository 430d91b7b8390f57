// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package gc runs mark and sweep garbage collection rounds over
// the state node store, removing the stale nodes no protected
// state root can reach.
package gc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ChainSafe/stategc/dot/state"
	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/log"
	"github.com/ChainSafe/stategc/internal/metrics"
	"github.com/ChainSafe/stategc/internal/pruner/marker"
	"github.com/ChainSafe/stategc/internal/pruner/reachable"
	"github.com/ChainSafe/stategc/internal/pruner/recycle"
	"github.com/ChainSafe/stategc/internal/pruner/safety"
	"github.com/ChainSafe/stategc/internal/pruner/stale"
	"github.com/ChainSafe/stategc/internal/pruner/sweep"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/google/uuid"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "gc"))

var (
	ErrSafetyViolation  = errors.New("database safety verification failed")
	ErrNoProtectedRoots = errors.New("no protected state root")
	ErrNotConfirmed     = errors.New("garbage collection not confirmed")
	ErrRoundInProgress  = errors.New("garbage collection round in progress")
)

// DefaultEstimatedNodes is the node count estimate used
// when the node store appears empty.
const DefaultEstimatedNodes = 1000000

// estimateScanLimit bounds the keys scanned to estimate the node count.
const estimateScanLimit = 1 << 26

// GarbageCollector removes the stale nodes of a state database
// which are not reachable from its protected state roots.
type GarbageCollector struct {
	config       Config
	db           database.Database
	databasePath string
	nodes        *state.NodeStore
	roots        *state.RootStore
	staleIndex   *stale.Store
	metrics      *metrics.GCMetrics
	confirm      func(protectedRoots []common.Hash, stats MarkStats) bool
	now          func() time.Time

	stateMutex sync.RWMutex
	state      State
	running    bool
}

// New returns a garbage collector for the state database db.
// The configuration is validated when a round is executed, and
// should be derived from DefaultConfig.
func New(db database.Database, config Config, options ...Option) *GarbageCollector {
	gc := &GarbageCollector{
		config:       config,
		db:           db,
		databasePath: db.Path(),
		nodes:        state.NewNodeStore(db),
		roots:        state.NewRootStore(db),
		staleIndex:   stale.NewStore(db),
		now:          time.Now,
	}

	for _, option := range options {
		option(gc)
	}

	return gc
}

// State returns the current state of the garbage collector.
func (gc *GarbageCollector) State() State {
	gc.stateMutex.RLock()
	defer gc.stateMutex.RUnlock()
	return gc.state
}

func (gc *GarbageCollector) setState(s State) {
	gc.stateMutex.Lock()
	defer gc.stateMutex.Unlock()
	logger.Debugf("state %s -> %s", gc.state, s)
	gc.state = s
}

func (gc *GarbageCollector) start() (err error) {
	gc.stateMutex.Lock()
	defer gc.stateMutex.Unlock()
	if gc.running {
		return fmt.Errorf("%w", ErrRoundInProgress)
	}
	gc.running = true
	return nil
}

func (gc *GarbageCollector) stop(err error) {
	gc.stateMutex.Lock()
	defer gc.stateMutex.Unlock()
	gc.running = false
	if err != nil {
		gc.state = Failed
	}
}

// ExecuteGC runs a garbage collection round. A round failing after some
// sweep batches were committed leaves these batches committed and returns
// the report of what was done so far along with the error. A cancelled
// round must be run again from the start.
func (gc *GarbageCollector) ExecuteGC(ctx context.Context) (report Report, err error) {
	err = gc.start()
	if err != nil {
		return report, err
	}

	report = Report{
		RoundID:   uuid.New(),
		StartedAt: gc.now().UTC(),
		DryRun:    gc.config.DryRun,
	}
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		gc.stop(err)
		gc.observeRound(report, err)
	}()

	logger.Infof("starting garbage collection round %s (dry run: %t)", report.RoundID, gc.config.DryRun)

	gc.setState(Validating)
	err = gc.config.Validate()
	if err != nil {
		return report, err
	}

	err = gc.verifySafety()
	if err != nil {
		return report, err
	}

	protected, err := gc.roots.LatestRoots(gc.config.ProtectedRootsCount)
	if err != nil {
		return report, fmt.Errorf("getting protected roots: %w", err)
	} else if len(protected) == 0 {
		return report, fmt.Errorf("%w: the root store is empty", ErrNoProtectedRoots)
	}

	report.ProtectedRoots = make([]common.Hash, 0, len(protected)+len(gc.config.PinnedRoots))
	for _, root := range protected {
		report.ProtectedRoots = append(report.ProtectedRoots, root.Hash)
	}
	report.ProtectedRoots = append(report.ProtectedRoots, gc.config.PinnedRoots...)
	// roots are ordered from the most recent so the last is the oldest.
	report.Cutoff = protected[len(protected)-1].TxOrder + 1

	gc.setState(Marking)
	reachableMarker, releaseMarker, err := gc.newMarker()
	if err != nil {
		return report, fmt.Errorf("creating marker: %w", err)
	}
	defer releaseMarker()

	report.MarkStats, err = gc.mark(ctx, reachableMarker, report.ProtectedRoots)
	if err != nil {
		return report, fmt.Errorf("marking reachable nodes: %w", err)
	}
	logger.Infof("marked %d reachable nodes in %s using the %s marker",
		report.MarkStats.MarkedCount, report.MarkStats.Duration, report.MarkStats.MemoryStrategy)

	if !gc.config.DryRun && gc.confirm != nil &&
		!gc.confirm(report.ProtectedRoots, report.MarkStats) {
		return report, fmt.Errorf("%w", ErrNotConfirmed)
	}

	gc.setState(Sweeping)
	err = gc.sweep(ctx, reachableMarker, report.Cutoff, &report.SweepStats)
	if err != nil {
		return report, fmt.Errorf("sweeping stale nodes: %w", err)
	}
	logger.Infof("swept stale nodes below tx order %d: %s", report.Cutoff, report.SweepStats)

	if gc.config.ForceCompaction && !gc.config.DryRun {
		gc.setState(Compacting)
		compactionStart := time.Now()
		err = gc.db.Compact()
		if err != nil {
			return report, fmt.Errorf("compacting database: %w", err)
		}
		report.Compacted = true
		gc.observePhase("compact", time.Since(compactionStart))
	}

	gc.setState(Done)
	logger.Info(report.String())
	return report, nil
}

func (gc *GarbageCollector) verifySafety() (err error) {
	if gc.config.ForceExecution {
		logger.Warn("database safety verification skipped")
		return nil
	}

	verification, err := safety.NewVerifier(gc.databasePath).VerifyDatabaseAccess()
	if err != nil {
		return fmt.Errorf("verifying database access: %w", err)
	}

	if verification.DatabaseAvailable {
		logger.Debug(verification.Message)
		return nil
	}

	if gc.config.DryRun {
		logger.Warnf("proceeding with dry run: %s", verification.Message)
		return nil
	}

	return fmt.Errorf("%w: %s", ErrSafetyViolation, verification.Message)
}

// newMarker returns the marker of the round and the function releasing it.
// A dry run never writes to the collected database, so a persistent marker
// is then backed by a scratch database.
func (gc *GarbageCollector) newMarker() (m marker.Marker, release func(), err error) {
	settings := gc.config.markerSettings(0)
	if settings.Strategy != marker.InMemory {
		settings.EstimatedNodes = gc.estimateNodes()
	}
	if settings.Strategy == marker.Auto {
		settings.Strategy = marker.SelectStrategy(settings.EstimatedNodes, settings.MemoryLimit)
		logger.Infof("selected %s marker for an estimated %d nodes and a memory limit of %d bytes",
			settings.Strategy, settings.EstimatedNodes, settings.MemoryLimit)
	}

	if gc.config.DryRun && settings.Strategy == marker.Persistent {
		scratch, closeScratch, scratchErr := openScratchDatabase()
		if scratchErr != nil {
			return nil, nil, scratchErr
		}
		m, err = marker.New(scratch, settings)
		if err != nil {
			closeScratch()
			return nil, nil, err
		}
		return m, closeScratch, nil
	}

	m, err = marker.New(gc.db, settings)
	if err != nil {
		return nil, nil, err
	}
	release = func() {
		resetErr := m.Reset()
		if resetErr != nil {
			logger.Warnf("resetting %s marker: %s", m.Strategy(), resetErr)
		}
	}
	return m, release, nil
}

// openScratchDatabase opens a pebble database in a new temporary
// directory, removed with the database by closeDB.
func openScratchDatabase() (db database.Database, closeDB func(), err error) {
	dir, err := os.MkdirTemp("", "stategc-marker-")
	if err != nil {
		return nil, nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	db, err = database.NewPebble(dir, false)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil, fmt.Errorf("opening scratch database: %w", err)
	}
	logger.Debugf("scratch database opened at %s", dir)

	closeDB = func() {
		closeErr := db.Close()
		if closeErr != nil {
			logger.Warnf("closing scratch database: %s", closeErr)
		}
		removeErr := os.RemoveAll(dir)
		if removeErr != nil {
			logger.Warnf("removing scratch directory: %s", removeErr)
		}
	}
	return db, closeDB, nil
}

// estimateNodes counts the nodes of the store, up to a limit.
func (gc *GarbageCollector) estimateNodes() (estimate uint64) {
	estimate = gc.nodes.CountNodes(estimateScanLimit)
	if estimate == 0 {
		estimate = DefaultEstimatedNodes
	}
	logger.Debugf("estimated %d nodes", estimate)
	return estimate
}

func (gc *GarbageCollector) mark(ctx context.Context, reachableMarker marker.Marker,
	roots []common.Hash) (stats MarkStats, err error) {
	start := time.Now()

	builder := reachable.NewBuilder(gc.nodes, reachableMarker)
	stats.ScannedCount, err = builder.Build(ctx, roots, gc.config.Workers)
	if err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	stats.MarkedCount = reachableMarker.MarkedCount()
	stats.MemoryStrategy = reachableMarker.Strategy()
	estimator, ok := reachableMarker.(marker.FalsePositiveEstimator)
	if ok {
		stats.EstimatedFalsePositiveRate = estimator.EstimatedFalsePositiveRate()
	}

	gc.observePhase("mark", stats.Duration)
	if gc.metrics != nil {
		gc.metrics.ObserveMark(stats.MarkedCount, stats.EstimatedFalsePositiveRate)
	}
	return stats, nil
}

// sweep sweeps the stale records below cutoff batch by batch, adding the
// statistics of each committed batch to total.
func (gc *GarbageCollector) sweep(ctx context.Context, reachableMarker marker.Marker,
	cutoff uint64, total *sweep.Stats) (err error) {
	start := time.Now()
	defer func() {
		gc.observePhase("sweep", time.Since(start))
	}()

	var recycleBin sweep.RecycleBin
	if gc.config.UseRecycleBin {
		bin, openErr := recycle.NewStore(gc.db)
		if openErr != nil {
			return fmt.Errorf("opening recycle bin: %w", openErr)
		}
		defer func() {
			closeErr := bin.Close()
			if err == nil && closeErr != nil {
				err = fmt.Errorf("closing recycle bin: %w", closeErr)
			}
		}()
		recycleBin = bin
	}

	sweeper := sweep.New(sweep.Config{
		DryRun:        gc.config.DryRun,
		UseRecycleBin: gc.config.UseRecycleBin,
	}, gc.nodes, gc.staleIndex, recycleBin, reachableMarker)

	var cursor *stale.Record
	for batchNumber := 0; ; batchNumber++ {
		err = ctx.Err()
		if err != nil {
			return err
		}

		var records []stale.Record
		records, cursor, err = gc.staleIndex.ListBeforeFrom(cursor, cutoff, gc.config.BatchSize)
		if err != nil {
			return fmt.Errorf("listing stale records: %w", err)
		}

		if len(records) > 0 {
			stats, err := sweeper.SweepRecords(ctx, records, gc.config.Workers)
			if err != nil {
				return fmt.Errorf("sweeping batch %d: %w", batchNumber, err)
			}
			logger.Debugf("batch %d of %d stale records: %s", batchNumber, len(records), stats)
			total.Add(stats)
			if !gc.config.DryRun && gc.metrics != nil {
				gc.metrics.ObserveSweep(stats.KeptCount, stats.DeletedCount,
					stats.RecycleBinEntries, stats.BytesEstimated)
			}
		}

		if cursor == nil {
			return nil
		}
	}
}

func (gc *GarbageCollector) observePhase(phase string, duration time.Duration) {
	if gc.metrics == nil {
		return
	}
	gc.metrics.ObservePhase(phase, duration)
}

func (gc *GarbageCollector) observeRound(report Report, err error) {
	if err != nil {
		logger.Errorf("garbage collection round %s failed: %s", report.RoundID, err)
	}

	if gc.metrics == nil {
		return
	}

	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailure
	case report.DryRun:
		outcome = metrics.OutcomeDryRun
	}
	gc.metrics.ObserveRound(outcome, gc.now())
}
