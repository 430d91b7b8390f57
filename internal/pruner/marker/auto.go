// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package marker

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/pruner/bloom"
)

var ErrNoDatabase = errors.New("persistent marker requires a database")

// InMemoryBytesPerNode is the estimated memory used by the in memory
// marker for each marked hash: the hash itself and the map overhead.
const InMemoryBytesPerNode = 80

// SelectStrategy returns InMemory if estimatedNodes marked hashes fit
// in memoryLimit bytes, and Persistent otherwise.
func SelectStrategy(estimatedNodes, memoryLimit uint64) Strategy {
	if memoryLimit/InMemoryBytesPerNode >= estimatedNodes {
		return InMemory
	}
	return Persistent
}

// Settings are the parameters used to create a marker.
type Settings struct {
	Strategy       Strategy
	EstimatedNodes uint64
	MemoryLimit    uint64
	// BloomBits and BloomHashFunctions override the bloom filter
	// sizing derived from EstimatedNodes and FalsePositiveRate
	// when both are not zero.
	BloomBits          uint64
	BloomHashFunctions uint64
	FalsePositiveRate  float64
}

func (s Settings) bloomSize() (bits, hashFunctions uint64, err error) {
	if s.BloomBits != 0 && s.BloomHashFunctions != 0 {
		return s.BloomBits, s.BloomHashFunctions, nil
	}
	return bloom.OptimalSize(s.EstimatedNodes, s.FalsePositiveRate)
}

// New creates a marker for the given settings, resolving the Auto strategy
// with SelectStrategy. The database is only used by the Persistent strategy.
func New(db database.Database, settings Settings) (marker Marker, err error) {
	strategy := settings.Strategy
	if strategy == Auto {
		strategy = SelectStrategy(settings.EstimatedNodes, settings.MemoryLimit)
		logger.Infof("selected %s marker for an estimated %d nodes and a memory limit of %d bytes",
			strategy, settings.EstimatedNodes, settings.MemoryLimit)
	}

	switch strategy {
	case InMemory:
		return NewMemory(), nil
	case Bloom, Persistent:
		bits, hashFunctions, err := settings.bloomSize()
		if err != nil {
			return nil, fmt.Errorf("sizing bloom filter: %w", err)
		}
		if strategy == Bloom {
			return NewBloom(bits, hashFunctions)
		}
		if db == nil {
			return nil, fmt.Errorf("%w", ErrNoDatabase)
		}
		return NewPersistent(db, bits, hashFunctions)
	default:
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotValid, strategy)
	}
}
