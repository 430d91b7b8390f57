// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package gc

import (
	"time"

	"github.com/ChainSafe/stategc/internal/metrics"
	"github.com/ChainSafe/stategc/lib/common"
)

// Option sets an optional field of the garbage collector.
type Option func(gc *GarbageCollector)

// WithMetrics sets the metrics observed after each round.
func WithMetrics(m *metrics.GCMetrics) Option {
	return func(gc *GarbageCollector) {
		gc.metrics = m
	}
}

// WithDatabasePath sets the database directory verified before a round,
// which defaults to the path of the database.
func WithDatabasePath(path string) Option {
	return func(gc *GarbageCollector) {
		gc.databasePath = path
	}
}

// WithConfirm sets a function called with the mark statistics before any
// node is removed. Returning false aborts the round with ErrNotConfirmed.
// It is not called for dry runs.
func WithConfirm(confirm func(protectedRoots []common.Hash, stats MarkStats) bool) Option {
	return func(gc *GarbageCollector) {
		gc.confirm = confirm
	}
}

func withClock(now func() time.Time) Option {
	return func(gc *GarbageCollector) {
		gc.now = now
	}
}
