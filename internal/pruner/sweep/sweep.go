// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package sweep deletes, or moves to the recycle bin, the stale nodes
// which were not marked as reachable.
package sweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/log"
	"github.com/ChainSafe/stategc/internal/pruner/marker"
	"github.com/ChainSafe/stategc/internal/pruner/stale"
	"github.com/ChainSafe/stategc/lib/common"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "sweep"))

// ErrInvariantViolation is returned when a node about to be deleted is
// found marked as reachable. Nothing of the batch is written.
var ErrInvariantViolation = errors.New("reachable node selected for deletion")

// NodeStore is the node store swept.
type NodeStore interface {
	GetNode(hash common.Hash) (encoding []byte, err error)
	DeleteNodesInBatch(batch database.Batch, hashes []common.Hash) error
	NewBatch() database.Batch
}

// StaleIndex is the stale index of the swept node store.
type StaleIndex interface {
	GetNodeRefcount(nodeHash common.Hash) (count uint32, exists bool, err error)
	DeleteStaleIndices(batch database.Batch, records []stale.Record) error
	DeleteNodeRefcounts(batch database.Batch, nodeHashes []common.Hash) error
}

// RecycleBin receives the deleted nodes when the recycle bin is used.
type RecycleBin interface {
	PutInBatch(batch database.Batch, hash common.Hash, encoding []byte) (size int, err error)
}

// Config configures a Sweeper.
type Config struct {
	// DryRun computes the statistics of a sweep without writing anything.
	DryRun bool
	// UseRecycleBin moves deleted nodes to the recycle bin.
	UseRecycleBin bool
}

// Sweeper removes unreachable stale nodes.
type Sweeper struct {
	config     Config
	nodes      NodeStore
	staleIndex StaleIndex
	recycleBin RecycleBin
	marker     marker.Marker
}

// New returns a sweeper. The recycle bin may be nil if it is not used.
func New(config Config, nodes NodeStore, staleIndex StaleIndex,
	recycleBin RecycleBin, reachable marker.Marker) *Sweeper {
	return &Sweeper{
		config:     config,
		nodes:      nodes,
		staleIndex: staleIndex,
		recycleBin: recycleBin,
		marker:     reachable,
	}
}

type verdict uint8

const (
	keep verdict = iota
	remove
	// gone is for a node already missing from the node store.
	gone
)

type candidate struct {
	hash     common.Hash
	verdict  verdict
	encoding []byte
}

// Sweep removes the candidates which are neither marked nor referenced,
// using workers goroutines to decide which nodes to remove.
func (s *Sweeper) Sweep(ctx context.Context, candidates []common.Hash, workers int) (
	stats Stats, err error) {
	return s.sweep(ctx, candidates, nil, workers)
}

// SweepRecords sweeps the nodes of the given stale records, and removes
// the records of the nodes removed within the same batch.
func (s *Sweeper) SweepRecords(ctx context.Context, records []stale.Record, workers int) (
	stats Stats, err error) {
	unique := make(map[common.Hash]struct{}, len(records))
	for _, record := range records {
		unique[record.NodeHash] = struct{}{}
	}
	candidates := maps.Keys(unique)
	sort.Slice(candidates, func(i, j int) bool {
		return bytes.Compare(candidates[i][:], candidates[j][:]) < 0
	})
	return s.sweep(ctx, candidates, records, workers)
}

func (s *Sweeper) sweep(ctx context.Context, candidates []common.Hash,
	records []stale.Record, workers int) (stats Stats, err error) {
	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
	}()

	if len(candidates) == 0 {
		return stats, nil
	}

	judged, err := s.judge(ctx, candidates, workers)
	if err != nil {
		return stats, fmt.Errorf("selecting nodes to remove: %w", err)
	}

	var removed, vanished []common.Hash
	stats.ScannedCount = uint64(len(judged))
	for _, c := range judged {
		switch c.verdict {
		case keep:
			stats.KeptCount++
		case remove:
			removed = append(removed, c.hash)
			stats.DeletedCount++
			stats.BytesEstimated += uint64(len(c.encoding))
			if s.config.UseRecycleBin {
				stats.RecycleBinEntries++
			}
		case gone:
			vanished = append(vanished, c.hash)
		}
	}

	err = s.verify(removed)
	if err != nil {
		return stats, err
	}

	if s.config.DryRun {
		logger.Debugf("dry run: would remove %d of %d nodes for %d bytes",
			stats.DeletedCount, stats.ScannedCount, stats.BytesEstimated)
		return stats, nil
	}

	err = s.commit(judged, removed, vanished, records)
	if err != nil {
		return stats, err
	}

	if len(vanished) > 0 {
		logger.Debugf("%d stale nodes were already removed", len(vanished))
	}
	return stats, nil
}

// judge decides the verdict of every candidate, in the candidates order.
func (s *Sweeper) judge(ctx context.Context, candidates []common.Hash, workers int) (
	judged []candidate, err error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	judged = make([]candidate, len(candidates))
	group, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		group.Go(func() error {
			for i := w; i < len(candidates); i += workers {
				err := ctx.Err()
				if err != nil {
					return err
				}

				judged[i], err = s.judgeOne(candidates[i])
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		return nil, err
	}
	return judged, nil
}

func (s *Sweeper) judgeOne(hash common.Hash) (c candidate, err error) {
	c.hash = hash

	marked, err := s.marker.IsMarked(hash)
	if err != nil {
		return c, fmt.Errorf("checking marker for node %s: %w", hash, err)
	} else if marked {
		return c, nil
	}

	count, _, err := s.staleIndex.GetNodeRefcount(hash)
	if err != nil {
		return c, fmt.Errorf("getting refcount: %w", err)
	} else if count > 0 {
		logger.Tracef("keeping unmarked node %s with a refcount of %d", hash, count)
		return c, nil
	}

	c.encoding, err = s.nodes.GetNode(hash)
	if errors.Is(err, database.ErrNotFound) {
		c.verdict = gone
		return c, nil
	} else if err != nil {
		return c, fmt.Errorf("getting node: %w", err)
	}

	c.verdict = remove
	return c, nil
}

// verify checks again that none of the nodes to remove is marked.
func (s *Sweeper) verify(removed []common.Hash) error {
	for _, hash := range removed {
		marked, err := s.marker.IsMarked(hash)
		if err != nil {
			return fmt.Errorf("checking marker for node %s: %w", hash, err)
		}
		if marked {
			return fmt.Errorf("%w: node %s", ErrInvariantViolation, hash)
		}
	}
	return nil
}

// commit writes the removals in a single batch.
func (s *Sweeper) commit(judged []candidate, removed, vanished []common.Hash,
	records []stale.Record) (err error) {
	if len(removed) == 0 && len(vanished) == 0 {
		return nil
	}

	batch := s.nodes.NewBatch()
	defer batch.Close()

	if s.config.UseRecycleBin {
		for _, c := range judged {
			if c.verdict != remove {
				continue
			}
			_, err = s.recycleBin.PutInBatch(batch, c.hash, c.encoding)
			if err != nil {
				return fmt.Errorf("moving node to recycle bin: %w", err)
			}
		}
	}

	err = s.nodes.DeleteNodesInBatch(batch, removed)
	if err != nil {
		return fmt.Errorf("deleting nodes: %w", err)
	}

	err = s.staleIndex.DeleteNodeRefcounts(batch, removed)
	if err != nil {
		return fmt.Errorf("deleting refcounts: %w", err)
	}

	staleRecords := recordsOf(records, removed, vanished)
	if len(staleRecords) > 0 {
		err = s.staleIndex.DeleteStaleIndices(batch, staleRecords)
		if err != nil {
			return fmt.Errorf("deleting stale records: %w", err)
		}
	}

	err = batch.Flush()
	if err != nil {
		return fmt.Errorf("flushing sweep batch: %w", err)
	}
	return nil
}

// recordsOf returns the records of the removed and vanished nodes.
func recordsOf(records []stale.Record, removed, vanished []common.Hash) (selected []stale.Record) {
	if len(records) == 0 {
		return nil
	}

	hashes := make(map[common.Hash]struct{}, len(removed)+len(vanished))
	for _, hash := range removed {
		hashes[hash] = struct{}{}
	}
	for _, hash := range vanished {
		hashes[hash] = struct{}{}
	}

	for _, record := range records {
		if _, ok := hashes[record.NodeHash]; ok {
			selected = append(selected, record)
		}
	}
	return selected
}
