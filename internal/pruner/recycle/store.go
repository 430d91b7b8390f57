// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package recycle implements the recycle bin, where the garbage collector
// moves the nodes it removes so they can be inspected or restored.
package recycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/log"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/klauspost/compress/zstd"
)

// DefaultListLimit is the number of records listed when no limit is given.
const DefaultListLimit = 100

var logger = log.NewFromGlobal(log.AddContext("pkg", "recycle"))

var ErrMalformedKey = errors.New("malformed recycle bin key")

// NodeBatchPutter puts encoded nodes in a database batch.
type NodeBatchPutter interface {
	PutNodesInBatch(batch database.Batch, nodes map[common.Hash][]byte) error
}

// Store is the recycle bin. It is safe for concurrent use.
type Store struct {
	db      database.Database
	table   database.Table
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	now     func() time.Time
}

// NewStore returns a recycle bin using the recycle table of db.
func NewStore(db database.Database) (store *Store, err error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &Store{
		db:      db,
		table:   database.NewTable(db, common.RecycleBinPrefix),
		encoder: encoder,
		decoder: decoder,
		now:     time.Now,
	}, nil
}

// Close releases the compression resources of the store.
func (s *Store) Close() (err error) {
	s.decoder.Close()
	return s.encoder.Close()
}

// Put moves the node encoding to the recycle bin, and returns the record created.
func (s *Store) Put(hash common.Hash, encoding []byte) (record Record, err error) {
	record = NewRecord(encoding, s.now())
	err = s.table.Put(hash.ToBytes(), encodeRecord(record, s.encoder))
	if err != nil {
		return record, fmt.Errorf("putting record for node %s: %w", hash, err)
	}
	return record, nil
}

// PutInBatch adds the write of a record for the node encoding to batch,
// and returns the number of bytes written. The batch must come from the
// underlying database.
func (s *Store) PutInBatch(batch database.Batch, hash common.Hash, encoding []byte) (
	size int, err error) {
	value := encodeRecord(NewRecord(encoding, s.now()), s.encoder)
	err = s.table.BatchFrom(batch).Put(hash.ToBytes(), value)
	if err != nil {
		return 0, fmt.Errorf("putting record for node %s in batch: %w", hash, err)
	}
	return len(value), nil
}

// Get returns the record of the node hash. It returns a wrapped
// database.ErrNotFound if the node is not in the recycle bin.
func (s *Store) Get(hash common.Hash) (record Record, err error) {
	value, err := s.table.Get(hash.ToBytes())
	if err != nil {
		return record, fmt.Errorf("getting record for node %s: %w", hash, err)
	}

	record, err = decodeRecord(value, s.decoder)
	if err != nil {
		return record, fmt.Errorf("decoding record for node %s: %w", hash, err)
	}
	return record, nil
}

// Delete removes the record of the node hash, and returns
// false if there was no such record.
func (s *Store) Delete(hash common.Hash) (deleted bool, err error) {
	has, err := s.table.Has(hash.ToBytes())
	if err != nil {
		return false, fmt.Errorf("checking record for node %s: %w", hash, err)
	} else if !has {
		logger.Debugf("no record to delete for node %s", hash)
		return false, nil
	}

	err = s.table.Del(hash.ToBytes())
	if err != nil {
		return false, fmt.Errorf("deleting record for node %s: %w", hash, err)
	}
	return true, nil
}

// Restore writes the node of the record back using nodes, and removes
// the record, atomically. The record checksum is verified first.
func (s *Store) Restore(hash common.Hash, nodes NodeBatchPutter) (record Record, err error) {
	record, err = s.Get(hash)
	if err != nil {
		return record, err
	}

	err = record.Verify()
	if err != nil {
		return record, fmt.Errorf("verifying record for node %s: %w", hash, err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	err = nodes.PutNodesInBatch(batch, map[common.Hash][]byte{hash: record.Bytes})
	if err != nil {
		return record, fmt.Errorf("restoring node: %w", err)
	}

	err = s.table.BatchFrom(batch).Del(hash.ToBytes())
	if err != nil {
		return record, fmt.Errorf("deleting record for node %s in batch: %w", hash, err)
	}

	err = batch.Flush()
	if err != nil {
		return record, fmt.Errorf("flushing restore batch: %w", err)
	}

	logger.Infof("restored node %s of %d bytes", hash, record.OriginalSize)
	return record, nil
}

// Entry is a record together with the hash of its node.
type Entry struct {
	Hash   common.Hash `json:"hash"`
	Record Record      `json:"record"`
}

// List returns the first limit records matching the filter, in node hash
// order. A limit of zero lists at most DefaultListLimit records.
func (s *Store) List(filter Filter, limit int) (entries []Entry, err error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	page, err := s.ListCursor(filter, nil, limit)
	if err != nil {
		return nil, err
	}
	return page.Entries, nil
}

// Page is a page of entries listed by ListCursor.
type Page struct {
	Entries []Entry `json:"entries"`
	// NextCursor is the hash of the last entry of the page,
	// to give to ListCursor to list the next page.
	NextCursor *common.Hash `json:"next_cursor,omitempty"`
	HasMore    bool         `json:"has_more"`
}

// ListCursor lists at most pageSize entries matching the filter, starting
// after the cursor hash if it is not nil.
func (s *Store) ListCursor(filter Filter, cursor *common.Hash, pageSize int) (page Page, err error) {
	if pageSize <= 0 {
		return page, nil
	}

	iter := s.table.NewIterator()
	defer iter.Release()

	var valid bool
	if cursor == nil {
		valid = iter.First()
	} else {
		valid = iter.SeekGE(cursor.ToBytes())
		if valid && common.NewHash(iter.Key()) == *cursor {
			valid = iter.Next()
		}
	}

	for ; valid; valid = iter.Next() {
		hash, record, err := s.decodeEntry(iter.Key(), iter.Value())
		if err != nil {
			return page, err
		}

		if !filter.Matches(record) {
			continue
		}

		if len(page.Entries) == pageSize {
			page.HasMore = true
			break
		}
		page.Entries = append(page.Entries, Entry{Hash: hash, Record: record})
	}

	if len(page.Entries) > 0 {
		last := page.Entries[len(page.Entries)-1].Hash
		page.NextCursor = &last
	}
	return page, nil
}

func (s *Store) decodeEntry(key, value []byte) (hash common.Hash, record Record, err error) {
	if len(key) != common.HashLength {
		return hash, record, fmt.Errorf("%w: %d bytes", ErrMalformedKey, len(key))
	}
	hash = common.NewHash(key)

	record, err = decodeRecord(value, s.decoder)
	if err != nil {
		return hash, record, fmt.Errorf("decoding record for node %s: %w", hash, err)
	}
	return hash, record, nil
}

// DeleteMatching deletes every record matching the filter, flushing
// deletions every batchSize records, and returns the number deleted.
func (s *Store) DeleteMatching(filter Filter, batchSize int) (deleted uint64, err error) {
	if batchSize <= 0 {
		batchSize = DefaultListLimit
	}

	iter := s.table.NewIterator()
	defer iter.Release()

	batch := s.table.NewBatch()
	defer batch.Close()

	pending := 0
	for valid := iter.First(); valid; valid = iter.Next() {
		record, err := decodeHeader(iter.Value())
		if err != nil {
			return deleted, fmt.Errorf("decoding record: %w", err)
		}
		if !filter.Matches(record) {
			continue
		}

		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		err = batch.Del(key)
		if err != nil {
			return deleted, fmt.Errorf("deleting record in batch: %w", err)
		}
		pending++

		if pending < batchSize {
			continue
		}
		err = batch.Flush()
		if err != nil {
			return deleted, fmt.Errorf("flushing delete batch: %w", err)
		}
		batch.Reset()
		deleted += uint64(pending)
		logger.Debugf("deleted %d records from the recycle bin", deleted)
		pending = 0
	}

	if pending > 0 {
		err = batch.Flush()
		if err != nil {
			return deleted, fmt.Errorf("flushing delete batch: %w", err)
		}
		deleted += uint64(pending)
	}
	return deleted, nil
}

// DeleteOlderThan deletes every record created before cutoff.
func (s *Store) DeleteOlderThan(cutoff time.Time, batchSize int) (deleted uint64, err error) {
	return s.DeleteMatching(Filter{OlderThan: cutoff}, batchSize)
}

// Stats summarises the content of the recycle bin.
type Stats struct {
	Entries uint64 `json:"entries"`
	// StoredBytes is the size of the compressed records.
	StoredBytes uint64 `json:"stored_bytes"`
	// OriginalBytes is the size of the nodes recorded.
	OriginalBytes uint64    `json:"original_bytes"`
	Oldest        time.Time `json:"oldest,omitempty"`
	Newest        time.Time `json:"newest,omitempty"`
}

func (s Stats) String() string {
	return fmt.Sprintf("%d entries, %d bytes stored for %d bytes of nodes, oldest %s, newest %s",
		s.Entries, s.StoredBytes, s.OriginalBytes,
		s.Oldest.Format(time.RFC3339), s.Newest.Format(time.RFC3339))
}

// Stats scans the recycle bin and returns its statistics.
func (s *Store) Stats() (stats Stats, err error) {
	iter := s.table.NewIterator()
	defer iter.Release()

	for valid := iter.First(); valid; valid = iter.Next() {
		record, err := decodeHeader(iter.Value())
		if err != nil {
			return stats, fmt.Errorf("decoding record: %w", err)
		}

		stats.Entries++
		stats.StoredBytes += uint64(len(iter.Value()))
		stats.OriginalBytes += record.OriginalSize
		if stats.Oldest.IsZero() || record.CreatedAt.Before(stats.Oldest) {
			stats.Oldest = record.CreatedAt
		}
		if record.CreatedAt.After(stats.Newest) {
			stats.Newest = record.CreatedAt
		}
	}
	return stats, nil
}
