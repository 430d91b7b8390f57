// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package database

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var _ Database = (*levelDB)(nil)

type levelDB struct {
	path string
	db   *leveldb.DB
}

// NewLevelDB opens or creates a leveldb database at path.
// If inMemory is true, nothing is written to disk.
func NewLevelDB(path string, inMemory bool) (*levelDB, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if inMemory {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, &opt.Options{})
	}
	if err != nil {
		return nil, fmt.Errorf("opening leveldb: %w", err)
	}

	return &levelDB{path: path, db: db}, nil
}

func transformLevelDBError(key []byte, err error) error {
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return fmt.Errorf("%w: 0x%x", ErrNotFound, key)
	case errors.Is(err, leveldb.ErrClosed):
		return fmt.Errorf("%w", ErrClosed)
	}
	return err
}

func (l *levelDB) Path() string {
	return l.path
}

func (l *levelDB) Get(key []byte) ([]byte, error) {
	value, err := l.db.Get(key, nil)
	if err != nil {
		return nil, fmt.Errorf("getting 0x%x from database: %w", key, transformLevelDBError(key, err))
	}
	return value, nil
}

func (l *levelDB) Has(key []byte) (bool, error) {
	exists, err := l.db.Has(key, nil)
	if err != nil {
		return false, transformLevelDBError(key, err)
	}
	return exists, nil
}

func (l *levelDB) Put(key, value []byte) error {
	err := l.db.Put(key, value, nil)
	if err != nil {
		return fmt.Errorf("writing 0x%x to database: %w", key, transformLevelDBError(key, err))
	}
	return nil
}

func (l *levelDB) Del(key []byte) error {
	err := l.db.Delete(key, nil)
	if err != nil {
		return fmt.Errorf("deleting 0x%x from database: %w", key, transformLevelDBError(key, err))
	}
	return nil
}

// Flush is a no-op since leveldb writes go through its journal.
func (*levelDB) Flush() error {
	return nil
}

func (l *levelDB) Close() error {
	return l.db.Close()
}

func (l *levelDB) NewBatch() Batch {
	return &levelDBBatch{
		db:    l.db,
		batch: new(leveldb.Batch),
	}
}

func (l *levelDB) NewIterator() Iterator {
	return &levelDBIterator{l.db.NewIterator(nil, nil)}
}

func (l *levelDB) NewPrefixIterator(prefix []byte) Iterator {
	return &levelDBIterator{l.db.NewIterator(util.BytesPrefix(prefix), nil)}
}

func (l *levelDB) Compact() error {
	err := l.db.CompactRange(util.Range{})
	if err != nil {
		return fmt.Errorf("compacting leveldb: %w", err)
	}
	return nil
}

var _ Batch = (*levelDBBatch)(nil)

type levelDBBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelDBBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *levelDBBatch) Del(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelDBBatch) Flush() error {
	err := b.db.Write(b.batch, &opt.WriteOptions{Sync: true})
	if err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	return nil
}

func (b *levelDBBatch) ValueSize() int {
	return b.batch.Len()
}

func (b *levelDBBatch) Reset() {
	b.batch.Reset()
}

func (b *levelDBBatch) Close() error {
	b.batch.Reset()
	return nil
}

var _ Iterator = (*levelDBIterator)(nil)

type levelDBIterator struct {
	iterator.Iterator
}

func (it *levelDBIterator) SeekGE(key []byte) bool {
	return it.Seek(key)
}

func (it *levelDBIterator) Release() {
	it.Iterator.Release()
	if err := it.Error(); err != nil {
		logger.Criticalf("while releasing iterator: %s", err)
	}
}
