// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package bloom implements a concurrent safe bloom filter of node hashes.
package bloom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ChainSafe/stategc/lib/common"
	bloomfilter "github.com/holiman/bloomfilter/v2"
)

const (
	// MinBits is the smallest filter size returned by OptimalSize.
	MinBits uint64 = 1024
	// MaxHashFunctions is the largest number of hash functions
	// returned by OptimalSize.
	MaxHashFunctions uint64 = 16
)

var (
	ErrZeroBits           = errors.New("bloom filter must have at least one bit")
	ErrZeroHashFunctions  = errors.New("bloom filter must have at least one hash function")
	ErrFalsePositiveRange = errors.New("false positive rate must be strictly between 0 and 1")
)

// hasher feeds a node hash to the filter. Node hashes are uniformly
// distributed so their first 8 bytes are used as is.
type hasher []byte

func (h hasher) Write(p []byte) (n int, err error) { panic("not implemented") }
func (h hasher) Sum(b []byte) []byte               { panic("not implemented") }
func (h hasher) Reset()                            { panic("not implemented") }
func (h hasher) BlockSize() int                    { panic("not implemented") }
func (h hasher) Size() int                         { return 8 }
func (h hasher) Sum64() uint64                     { return binary.BigEndian.Uint64(h) }

// Filter is a bloom filter of node hashes. It is safe for concurrent use.
type Filter struct {
	mutex  sync.RWMutex
	filter *bloomfilter.Filter
	bits   uint64
	hashes uint64
	count  uint64
}

// New creates a bloom filter of bits bits using hashFunctions hash functions.
func New(bits, hashFunctions uint64) (*Filter, error) {
	switch {
	case bits == 0:
		return nil, fmt.Errorf("%w", ErrZeroBits)
	case hashFunctions == 0:
		return nil, fmt.Errorf("%w", ErrZeroHashFunctions)
	}

	filter, err := bloomfilter.New(bits, hashFunctions)
	if err != nil {
		return nil, fmt.Errorf("creating bloom filter: %w", err)
	}

	return &Filter{
		filter: filter,
		bits:   filter.M(),
		hashes: filter.K(),
	}, nil
}

// NewOptimal creates a bloom filter sized for the expected number of
// elements and target false positive rate, see OptimalSize.
func NewOptimal(expectedElements uint64, falsePositiveRate float64) (*Filter, error) {
	bits, hashFunctions, err := OptimalSize(expectedElements, falsePositiveRate)
	if err != nil {
		return nil, err
	}
	return New(bits, hashFunctions)
}

// OptimalSize returns the number of bits and hash functions of a filter
// holding expectedElements elements with the given false positive rate.
// The number of bits is at least MinBits and rounded up to a power of two,
// the number of hash functions is clamped between 1 and MaxHashFunctions.
func OptimalSize(expectedElements uint64, falsePositiveRate float64) (
	bits, hashFunctions uint64, err error) {
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 || math.IsNaN(falsePositiveRate) {
		return 0, 0, fmt.Errorf("%w: %g", ErrFalsePositiveRange, falsePositiveRate)
	}

	ln2 := math.Ln2
	bitsPerElement := -math.Log(falsePositiveRate) / (ln2 * ln2)
	rawBits := math.Ceil(float64(expectedElements) * bitsPerElement)

	bits = MinBits
	for float64(bits) < rawBits && bits < 1<<63 {
		bits <<= 1
	}

	k := math.Ceil(-math.Log(falsePositiveRate) / ln2)
	switch {
	case k < 1:
		hashFunctions = 1
	case k > float64(MaxHashFunctions):
		hashFunctions = MaxHashFunctions
	default:
		hashFunctions = uint64(k)
	}

	return bits, hashFunctions, nil
}

// Insert adds the hash to the filter.
func (f *Filter) Insert(hash common.Hash) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.filter.Add(hasher(hash[:]))
	atomic.AddUint64(&f.count, 1)
}

// Contains returns true if the hash may have been inserted,
// and false if it was definitely not inserted.
func (f *Filter) Contains(hash common.Hash) bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.filter.Contains(hasher(hash[:]))
}

// Clear removes every element from the filter.
func (f *Filter) Clear() (err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	filter, err := bloomfilter.New(f.bits, f.hashes)
	if err != nil {
		return fmt.Errorf("recreating bloom filter: %w", err)
	}
	f.filter = filter
	atomic.StoreUint64(&f.count, 0)
	return nil
}

// Bits returns the size of the filter in bits.
func (f *Filter) Bits() uint64 { return f.bits }

// HashFunctions returns the number of hash functions of the filter.
func (f *Filter) HashFunctions() uint64 { return f.hashes }

// Count returns the number of insertions, duplicates included.
func (f *Filter) Count() uint64 { return atomic.LoadUint64(&f.count) }

// EstimatedFalsePositiveRate returns (1 - e^(-kn/m))^k for the current
// number of insertions n. It is 0 for an empty filter and at most 1.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return EstimateFalsePositiveRate(f.bits, f.hashes, f.Count())
}

// EstimateFalsePositiveRate returns the false positive rate of a filter of
// the given bits and hash functions holding the given number of elements.
func EstimateFalsePositiveRate(bits, hashFunctions, elements uint64) float64 {
	if elements == 0 || bits == 0 {
		return 0
	}
	k, n, m := float64(hashFunctions), float64(elements), float64(bits)
	rate := math.Pow(1-math.Exp(-k*n/m), k)
	return math.Min(rate, 1)
}

// MarshalBinary encodes the filter bits and parameters.
func (f *Filter) MarshalBinary() (data []byte, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	encoded, err := f.filter.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshalling bloom filter: %w", err)
	}

	data = make([]byte, 8, 8+len(encoded))
	binary.BigEndian.PutUint64(data, atomic.LoadUint64(&f.count))
	return append(data, encoded...), nil
}

// UnmarshalBinary decodes a filter encoded with MarshalBinary.
func (f *Filter) UnmarshalBinary(data []byte) (err error) {
	if len(data) < 8 {
		return fmt.Errorf("bloom filter encoding too short: %d bytes", len(data))
	}

	filter := new(bloomfilter.Filter)
	err = filter.UnmarshalBinary(data[8:])
	if err != nil {
		return fmt.Errorf("unmarshalling bloom filter: %w", err)
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.filter = filter
	f.bits = filter.M()
	f.hashes = filter.K()
	atomic.StoreUint64(&f.count, binary.BigEndian.Uint64(data[:8]))
	return nil
}
