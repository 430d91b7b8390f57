// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package gc

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/ChainSafe/stategc/internal/pruner/marker"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/go-playground/validator/v10"
)

var ErrConfiguration = errors.New("configuration is not valid")

// Default values of DefaultConfig.
const (
	DefaultBatchSize               = 10000
	DefaultProtectedRootsCount     = 1
	DefaultTargetFalsePositiveRate = 0.01
	DefaultMemoryLimit             = 1 << 30
)

var validate = validator.New()

// Config configures a garbage collection round.
type Config struct {
	// DryRun computes what would be removed without writing anything.
	DryRun bool `toml:"dry-run"`
	// BatchSize is the number of stale records swept per atomic batch.
	BatchSize int `toml:"batch-size" validate:"min=1,max=10000000"`
	// Workers is the number of goroutines used to mark and sweep.
	Workers int `toml:"workers" validate:"min=1,max=1024"`
	// UseRecycleBin moves removed nodes to the recycle bin
	// instead of deleting them.
	UseRecycleBin   bool `toml:"use-recycle-bin"`
	ForceCompaction bool `toml:"force-compaction"`
	// ForceExecution skips the database safety verification.
	ForceExecution bool            `toml:"force-execution"`
	MarkerStrategy marker.Strategy `toml:"marker-strategy" validate:"lte=3"`
	// ProtectedRootsCount is the number of most recent state roots
	// whose nodes are never removed.
	ProtectedRootsCount int `toml:"protected-roots-count" validate:"min=1"`
	// PinnedRoots are additional state roots protected.
	PinnedRoots []common.Hash `toml:"pinned-roots" validate:"dive,required"`
	// MemoryLimit is the memory in bytes the Auto marker strategy may use.
	MemoryLimit             uint64  `toml:"memory-limit" validate:"min=1"`
	TargetFalsePositiveRate float64 `toml:"target-false-positive-rate" validate:"gt=0,lt=1"`
	// BloomBits and BloomHashFunctions override the bloom filter sizing
	// derived from the node count estimate and TargetFalsePositiveRate.
	BloomBits          uint64 `toml:"bloom-bits"`
	BloomHashFunctions uint64 `toml:"bloom-hash-functions" validate:"max=16"`
}

// DefaultConfig returns the default configuration. A zero field of a
// Config is never replaced by its default, and Validate rejects it.
func DefaultConfig() Config {
	return Config{
		BatchSize:               DefaultBatchSize,
		Workers:                 runtime.NumCPU(),
		ProtectedRootsCount:     DefaultProtectedRootsCount,
		MemoryLimit:             DefaultMemoryLimit,
		TargetFalsePositiveRate: DefaultTargetFalsePositiveRate,
	}
}

// Validate returns an error wrapping ErrConfiguration if the
// configuration is not valid. It does no I/O.
func (c Config) Validate() (err error) {
	err = validate.Struct(c)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConfiguration, err)
	}

	if (c.BloomBits == 0) != (c.BloomHashFunctions == 0) {
		return fmt.Errorf("%w: bloom bits %d and bloom hash functions %d must be both set or both unset",
			ErrConfiguration, c.BloomBits, c.BloomHashFunctions)
	}

	return nil
}

func (c Config) markerSettings(estimatedNodes uint64) marker.Settings {
	return marker.Settings{
		Strategy:           c.MarkerStrategy,
		EstimatedNodes:     estimatedNodes,
		MemoryLimit:        c.MemoryLimit,
		BloomBits:          c.BloomBits,
		BloomHashFunctions: c.BloomHashFunctions,
		FalsePositiveRate:  c.TargetFalsePositiveRate,
	}
}
