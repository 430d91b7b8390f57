// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package memory

import "github.com/ChainSafe/stategc/internal/database"

var _ database.Batch = (*batch)(nil)

type operation struct {
	key    string
	value  []byte
	delete bool
}

// batch records operations in order and applies
// them under a single database lock on flush.
type batch struct {
	db         *Database
	operations []operation
}

func newBatch(db *Database) *batch {
	return &batch{db: db}
}

func (b *batch) Put(key, value []byte) error {
	b.operations = append(b.operations, operation{
		key:   string(key),
		value: copyBytes(value),
	})
	return nil
}

func (b *batch) Del(key []byte) error {
	b.operations = append(b.operations, operation{
		key:    string(key),
		delete: true,
	})
	return nil
}

func (b *batch) Flush() error {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	b.db.panicOnClosed()

	for _, op := range b.operations {
		if op.delete {
			delete(b.db.keyValues, op.key)
			continue
		}
		b.db.keyValues[op.key] = op.value
	}
	b.operations = nil
	return nil
}

func (b *batch) ValueSize() int {
	return len(b.operations)
}

func (b *batch) Reset() {
	b.operations = nil
}

func (b *batch) Close() error {
	b.operations = nil
	return nil
}
