// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package stale implements the stale index: the records of state nodes
// superseded at a given transaction order, and the node reference counts.
package stale

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/log"
	"github.com/ChainSafe/stategc/lib/common"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "stale"))

var ErrMalformedKey = errors.New("malformed stale index key")

const recordKeyLength = 8 + common.HashLength

// Record is a stale index entry: the node NodeHash was superseded
// by the commit at TxOrder.
type Record struct {
	TxOrder  uint64
	NodeHash common.Hash
}

func (r Record) String() string {
	return fmt.Sprintf("%d/%s", r.TxOrder, r.NodeHash.Short())
}

// key returns the big endian encoded tx order followed by the node hash,
// so records are iterated by ascending tx order then node hash.
func (r Record) key() []byte {
	key := make([]byte, recordKeyLength)
	binary.BigEndian.PutUint64(key[:8], r.TxOrder)
	copy(key[8:], r.NodeHash[:])
	return key
}

func recordFromKey(key []byte) (r Record, err error) {
	if len(key) != recordKeyLength {
		return r, fmt.Errorf("%w: %d bytes instead of %d", ErrMalformedKey, len(key), recordKeyLength)
	}
	r.TxOrder = binary.BigEndian.Uint64(key[:8])
	r.NodeHash = common.NewHash(key[8:])
	return r, nil
}

// Store is the stale index and node reference count store.
// It is safe for concurrent use.
type Store struct {
	db        database.Database
	stale     database.Table
	refcounts database.Table
	// refcountMutex serialises reference count read-modify-writes.
	refcountMutex sync.Mutex
}

// NewStore returns a stale index store using tables of the given database.
func NewStore(db database.Database) *Store {
	return &Store{
		db:        db,
		stale:     database.NewTable(db, common.StaleIndexPrefix),
		refcounts: database.NewTable(db, common.RefcountPrefix),
	}
}

// WriteStaleIndices records nodeHashes as stale at txOrder and decrements
// their reference count, all within a single atomic batch.
func (s *Store) WriteStaleIndices(txOrder uint64, nodeHashes []common.Hash) (err error) {
	s.refcountMutex.Lock()
	defer s.refcountMutex.Unlock()

	batch := s.db.NewBatch()
	defer batch.Close()
	staleBatch := s.stale.BatchFrom(batch)
	refcountBatch := s.refcounts.BatchFrom(batch)

	pending := make(map[common.Hash]refcountEntry, len(nodeHashes))
	for _, nodeHash := range nodeHashes {
		record := Record{TxOrder: txOrder, NodeHash: nodeHash}
		err = staleBatch.Put(record.key(), nil)
		if err != nil {
			return fmt.Errorf("putting stale record %s in batch: %w", record, err)
		}

		entry, ok := pending[nodeHash]
		if !ok {
			entry.count, entry.exists, err = s.getRefcount(nodeHash)
			if err != nil {
				return fmt.Errorf("getting refcount: %w", err)
			}
		}
		entry = decrement(nodeHash, entry)
		pending[nodeHash] = entry
	}

	for nodeHash, entry := range pending {
		err = entry.write(refcountBatch, nodeHash)
		if err != nil {
			return fmt.Errorf("writing refcount of node %s: %w", nodeHash, err)
		}
	}

	err = batch.Flush()
	if err != nil {
		return fmt.Errorf("flushing stale indices batch: %w", err)
	}
	return nil
}

// ListBefore returns at most limit stale records with a tx order strictly
// below cutoff, ordered by tx order then node hash.
func (s *Store) ListBefore(cutoff uint64, limit int) (records []Record, err error) {
	records, _, err = s.ListBeforeFrom(nil, cutoff, limit)
	return records, err
}

// ListBeforeFrom is like ListBefore but starts at the record cursor (inclusive)
// if it is not nil. It returns the cursor to use for the next page, which is
// nil once every record below cutoff has been listed.
func (s *Store) ListBeforeFrom(cursor *Record, cutoff uint64, limit int) (
	records []Record, next *Record, err error) {
	if limit <= 0 {
		return nil, cursor, nil
	}

	iter := s.stale.NewIterator()
	defer iter.Release()

	var valid bool
	if cursor == nil {
		valid = iter.First()
	} else {
		valid = iter.SeekGE(cursor.key())
	}

	for ; valid; valid = iter.Next() {
		record, err := recordFromKey(iter.Key())
		if err != nil {
			return nil, nil, err
		}

		if record.TxOrder >= cutoff {
			// records are sorted by tx order so nothing else qualifies.
			return records, nil, nil
		}

		if len(records) == limit {
			return records, &record, nil
		}
		records = append(records, record)
	}

	return records, nil, nil
}

// Has returns true if the stale record exists.
func (s *Store) Has(record Record) (bool, error) {
	return s.stale.Has(record.key())
}

// RemoveStaleIndex removes a stale record.
func (s *Store) RemoveStaleIndex(record Record) error {
	err := s.stale.Del(record.key())
	if err != nil {
		return fmt.Errorf("deleting stale record %s: %w", record, err)
	}
	return nil
}

// DeleteStaleIndices adds the removal of the given records to the batch.
func (s *Store) DeleteStaleIndices(batch database.Batch, records []Record) error {
	staleBatch := s.stale.BatchFrom(batch)
	for _, record := range records {
		err := staleBatch.Del(record.key())
		if err != nil {
			return fmt.Errorf("deleting stale record %s in batch: %w", record, err)
		}
	}
	return nil
}

// DeleteNodeRefcounts adds the removal of the reference counts
// of the given nodes to the batch.
func (s *Store) DeleteNodeRefcounts(batch database.Batch, nodeHashes []common.Hash) error {
	refcountBatch := s.refcounts.BatchFrom(batch)
	for _, nodeHash := range nodeHashes {
		err := refcountBatch.Del(nodeHash.ToBytes())
		if err != nil {
			return fmt.Errorf("deleting refcount of node %s in batch: %w", nodeHash, err)
		}
	}
	return nil
}

// Count returns the number of stale records with a tx order below cutoff.
func (s *Store) Count(cutoff uint64) (count uint64, err error) {
	iter := s.stale.NewIterator()
	defer iter.Release()

	for valid := iter.First(); valid; valid = iter.Next() {
		record, err := recordFromKey(iter.Key())
		if err != nil {
			return 0, err
		}
		if record.TxOrder >= cutoff {
			break
		}
		count++
	}
	return count, nil
}
