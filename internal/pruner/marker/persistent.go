// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package marker

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/pruner/bloom"
	"github.com/ChainSafe/stategc/lib/common"
)

const resetBatchSize = 10000

var (
	_ Marker                 = (*PersistentMarker)(nil)
	_ FalsePositiveEstimator = (*PersistentMarker)(nil)
)

// PersistentMarker is an exact set of hashes stored in a database table,
// fronted by a bloom filter so most lookups of unmarked hashes do not
// reach the database.
type PersistentMarker struct {
	table  database.Table
	filter *bloom.Filter
	// locks serialise the check and write of a hash, indexed by its first byte.
	locks [256]sync.Mutex
	count uint64
}

// NewPersistent returns a marker storing marked hashes in the reachable
// seen table of db. Any hash left in the table by a previous, interrupted
// round is removed first.
func NewPersistent(db database.Database, bits, hashFunctions uint64) (
	marker *PersistentMarker, err error) {
	filter, err := bloom.New(bits, hashFunctions)
	if err != nil {
		return nil, fmt.Errorf("creating bloom filter: %w", err)
	}

	marker = &PersistentMarker{
		table:  database.NewTable(db, common.ReachableSeenPrefix),
		filter: filter,
	}

	err = marker.clearTable()
	if err != nil {
		return nil, fmt.Errorf("clearing leftover reachable set: %w", err)
	}
	return marker, nil
}

func (m *PersistentMarker) Mark(hash common.Hash) (newlyMarked bool, err error) {
	lock := &m.locks[hash[0]]
	lock.Lock()
	defer lock.Unlock()

	if m.filter.Contains(hash) {
		has, err := m.table.Has(hash.ToBytes())
		if err != nil {
			return false, fmt.Errorf("checking reachable node %s: %w", hash, err)
		}
		if has {
			return false, nil
		}
	}

	err = m.table.Put(hash.ToBytes(), nil)
	if err != nil {
		return false, fmt.Errorf("putting reachable node %s: %w", hash, err)
	}
	m.filter.Insert(hash)
	atomic.AddUint64(&m.count, 1)
	return true, nil
}

func (m *PersistentMarker) IsMarked(hash common.Hash) (marked bool, err error) {
	if !m.filter.Contains(hash) {
		return false, nil
	}

	marked, err = m.table.Has(hash.ToBytes())
	if err != nil {
		return false, fmt.Errorf("checking reachable node %s: %w", hash, err)
	}
	return marked, nil
}

func (m *PersistentMarker) MarkedCount() uint64 {
	return atomic.LoadUint64(&m.count)
}

// Reset removes every hash from the table and the bloom filter.
// It must not be called concurrently with Mark.
func (m *PersistentMarker) Reset() (err error) {
	err = m.clearTable()
	if err != nil {
		return fmt.Errorf("clearing reachable set: %w", err)
	}

	err = m.filter.Clear()
	if err != nil {
		return err
	}
	atomic.StoreUint64(&m.count, 0)
	return nil
}

func (*PersistentMarker) Strategy() Strategy { return Persistent }

// EstimatedFalsePositiveRate returns the false positive rate of the bloom
// filter in front of the table. Lookups remain exact.
func (m *PersistentMarker) EstimatedFalsePositiveRate() float64 {
	return m.filter.EstimatedFalsePositiveRate()
}

func (m *PersistentMarker) clearTable() (err error) {
	iter := m.table.NewIterator()
	defer iter.Release()

	batch := m.table.NewBatch()
	defer batch.Close()

	pending := 0
	for valid := iter.First(); valid; valid = iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		err = batch.Del(key)
		if err != nil {
			return fmt.Errorf("deleting reachable entry: %w", err)
		}

		pending++
		if pending < resetBatchSize {
			continue
		}

		err = batch.Flush()
		if err != nil {
			return fmt.Errorf("flushing batch: %w", err)
		}
		batch.Reset()
		pending = 0
	}

	if pending == 0 {
		return nil
	}

	err = batch.Flush()
	if err != nil {
		return fmt.Errorf("flushing batch: %w", err)
	}
	return nil
}
