// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package database

import (
	"bytes"
)

type table struct {
	db     Database
	prefix []byte
}

var _ Table = (*table)(nil)

func NewTable(db Database, prefix string) Table {
	return &table{
		db:     db,
		prefix: []byte(prefix),
	}
}

func (t *table) Prefix() string {
	return string(t.prefix)
}

func (t *table) key(key []byte) []byte {
	// Do not append to t.prefix directly, its capacity may exceed its length.
	return bytes.Join([][]byte{t.prefix, key}, nil)
}

func (t *table) Get(key []byte) ([]byte, error) {
	return t.db.Get(t.key(key))
}

func (t *table) Has(key []byte) (bool, error) {
	return t.db.Has(t.key(key))
}

func (t *table) Put(key, value []byte) error {
	return t.db.Put(t.key(key), value)
}

func (t *table) Del(key []byte) error {
	return t.db.Del(t.key(key))
}

func (t *table) Flush() error {
	return t.db.Flush()
}

func (t *table) NewBatch() Batch {
	return t.BatchFrom(t.db.NewBatch())
}

func (t *table) BatchFrom(batch Batch) Batch {
	return &tableBatch{
		batch:  batch,
		prefix: t.prefix,
	}
}

func (t *table) NewIterator() Iterator {
	return &tableIterator{
		Iterator: t.db.NewPrefixIterator(t.prefix),
		prefix:   t.prefix,
	}
}

var _ Batch = (*tableBatch)(nil)

type tableBatch struct {
	batch  Batch
	prefix []byte
}

func (tb *tableBatch) Put(key, value []byte) error {
	return tb.batch.Put(bytes.Join([][]byte{tb.prefix, key}, nil), value)
}

func (tb *tableBatch) Del(key []byte) error {
	return tb.batch.Del(bytes.Join([][]byte{tb.prefix, key}, nil))
}

func (tb *tableBatch) Flush() error {
	return tb.batch.Flush()
}

func (tb *tableBatch) ValueSize() int {
	return tb.batch.ValueSize()
}

func (tb *tableBatch) Reset() {
	tb.batch.Reset()
}

func (tb *tableBatch) Close() error {
	return tb.batch.Close()
}

var _ Iterator = (*tableIterator)(nil)

// tableIterator hides the table prefix from the keys it yields.
type tableIterator struct {
	Iterator
	prefix []byte
}

func (ti *tableIterator) Key() []byte {
	return ti.Iterator.Key()[len(ti.prefix):]
}

func (ti *tableIterator) SeekGE(key []byte) bool {
	return ti.Iterator.SeekGE(bytes.Join([][]byte{ti.prefix, key}, nil))
}
