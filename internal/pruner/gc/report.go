// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package gc

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ChainSafe/stategc/internal/pruner/marker"
	"github.com/ChainSafe/stategc/internal/pruner/sweep"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/google/uuid"
)

// MarkStats are the statistics of a mark phase.
type MarkStats struct {
	MarkedCount    uint64          `json:"marked_count"`
	ScannedCount   uint64          `json:"scanned_count"`
	MemoryStrategy marker.Strategy `json:"memory_strategy"`
	// EstimatedFalsePositiveRate is the probability an unreachable node was
	// kept because the marker reported it marked. It is zero for exact markers.
	EstimatedFalsePositiveRate float64       `json:"estimated_false_positive_rate"`
	Duration                   time.Duration `json:"duration"`
}

// Report is the outcome of a garbage collection round.
type Report struct {
	RoundID   uuid.UUID `json:"round_id"`
	StartedAt time.Time `json:"started_at"`
	DryRun    bool      `json:"dry_run"`
	// ProtectedRoots are the roots marked, latest committed roots first
	// followed by the pinned roots.
	ProtectedRoots []common.Hash `json:"protected_roots"`
	// Cutoff is the tx order below which stale records were swept.
	Cutoff     uint64        `json:"cutoff"`
	MarkStats  MarkStats     `json:"mark_stats"`
	SweepStats sweep.Stats   `json:"sweep_stats"`
	Compacted  bool          `json:"compacted"`
	Duration   time.Duration `json:"duration"`
}

func (r Report) String() string {
	return fmt.Sprintf("round %s: %d protected roots, cutoff %d, marked %d nodes (%s), swept: %s",
		r.RoundID, len(r.ProtectedRoots), r.Cutoff, r.MarkStats.MarkedCount,
		r.MarkStats.MemoryStrategy, r.SweepStats)
}

// WriteReport writes the report as indented JSON to w.
func WriteReport(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
