// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package marker

import (
	"fmt"

	"github.com/ChainSafe/stategc/internal/pruner/bloom"
	"github.com/ChainSafe/stategc/lib/common"
)

var (
	_ Marker                 = (*BloomMarker)(nil)
	_ FalsePositiveEstimator = (*BloomMarker)(nil)
)

// BloomMarker marks hashes in a bloom filter. A false positive makes an
// unreachable node look reachable, so it is kept: the marker can only err
// on the safe side.
type BloomMarker struct {
	filter *bloom.Filter
}

// NewBloom returns a bloom marker of bits bits and hashFunctions hash functions.
func NewBloom(bits, hashFunctions uint64) (*BloomMarker, error) {
	filter, err := bloom.New(bits, hashFunctions)
	if err != nil {
		return nil, fmt.Errorf("creating bloom filter: %w", err)
	}
	logger.Debugf("bloom marker of %d bits with %d hash functions", filter.Bits(), filter.HashFunctions())
	return &BloomMarker{filter: filter}, nil
}

// Mark always returns true since a hash found in the filter may be a
// false positive, and skipping it would skip its whole subtree.
func (m *BloomMarker) Mark(hash common.Hash) (newlyMarked bool, err error) {
	m.filter.Insert(hash)
	return true, nil
}

func (m *BloomMarker) IsMarked(hash common.Hash) (marked bool, err error) {
	return m.filter.Contains(hash), nil
}

// MarkedCount returns the number of Mark calls since the last reset.
func (m *BloomMarker) MarkedCount() uint64 {
	return m.filter.Count()
}

func (m *BloomMarker) Reset() error {
	return m.filter.Clear()
}

func (*BloomMarker) Strategy() Strategy { return Bloom }

func (m *BloomMarker) EstimatedFalsePositiveRate() float64 {
	return m.filter.EstimatedFalsePositiveRate()
}

// Bits returns the size of the underlying filter in bits.
func (m *BloomMarker) Bits() uint64 { return m.filter.Bits() }

// HashFunctions returns the number of hash functions of the underlying filter.
func (m *BloomMarker) HashFunctions() uint64 { return m.filter.HashFunctions() }
