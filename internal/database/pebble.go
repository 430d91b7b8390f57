// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package database

import (
	"errors"
	"fmt"
	"os"

	"github.com/ChainSafe/stategc/internal/log"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "database"))

var _ Database = (*pebbleDB)(nil)

type pebbleDB struct {
	path string
	db   *pebble.DB
}

// NewPebble opens or creates a pebble database at path.
// If inMemory is true, nothing is written to disk.
func NewPebble(path string, inMemory bool) (*pebbleDB, error) {
	opts := &pebble.Options{}
	if inMemory {
		opts = &pebble.Options{FS: vfs.NewMem()}
	} else {
		if err := os.MkdirAll(path, os.ModePerm); err != nil {
			return nil, err
		}
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("opening pebble db: %w", err)
	}

	return &pebbleDB{path, db}, nil
}

func (p *pebbleDB) Path() string {
	return p.path
}

func (p *pebbleDB) Put(key, value []byte) error {
	err := p.db.Set(key, value, pebble.NoSync)
	if err != nil {
		return fmt.Errorf("writing 0x%x to database: %w", key, err)
	}
	return nil
}

func (p *pebbleDB) Get(key []byte) (value []byte, err error) {
	value, closer, err := p.db.Get(key)
	if err != nil {
		return nil, fmt.Errorf("getting 0x%x from database: %w", key, err)
	}

	valueCpy := make([]byte, len(value))
	copy(valueCpy, value)

	if err := closer.Close(); err != nil {
		return nil, fmt.Errorf("closing after get: %w", err)
	}

	return valueCpy, nil
}

func (p *pebbleDB) Has(key []byte) (exists bool, err error) {
	_, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	if err := closer.Close(); err != nil {
		return false, fmt.Errorf("closing after get: %w", err)
	}

	return true, nil
}

func (p *pebbleDB) Del(key []byte) error {
	err := p.db.Delete(key, pebble.NoSync)
	if err != nil {
		return fmt.Errorf("deleting 0x%x from database: %w", key, err)
	}

	return nil
}

func (p *pebbleDB) Close() error {
	return p.db.Close()
}

func (p *pebbleDB) Flush() error {
	err := p.db.Flush()
	if err != nil {
		return fmt.Errorf("flushing database: %w", err)
	}

	return nil
}

func (p *pebbleDB) NewBatch() Batch {
	return &pebbleBatch{
		batch: p.db.NewBatch(),
	}
}

func (p *pebbleDB) NewIterator() Iterator {
	return &pebbleIterator{
		p.db.NewIter(nil),
	}
}

func (p *pebbleDB) NewPrefixIterator(prefix []byte) Iterator {
	prefixIterOptions := &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: KeyUpperBound(prefix),
	}

	return &pebbleIterator{
		p.db.NewIter(prefixIterOptions),
	}
}

// Compact compacts the whole key range of the database.
func (p *pebbleDB) Compact() error {
	iter := p.db.NewIter(nil)
	var first, last []byte
	if iter.First() {
		first = append([]byte(nil), iter.Key()...)
	}
	if iter.Last() {
		last = append([]byte(nil), iter.Key()...)
	}
	if err := iter.Close(); err != nil {
		return fmt.Errorf("closing iterator: %w", err)
	}

	if first == nil {
		logger.Debug("database is empty, skipping compaction")
		return nil
	}

	// the end key is exclusive
	end := append(last, 0)
	const parallelize = true
	err := p.db.Compact(first, end, parallelize)
	if err != nil {
		return fmt.Errorf("compacting range 0x%x to 0x%x: %w", first, end, err)
	}
	return nil
}
