// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package badger

import (
	"fmt"

	"github.com/ChainSafe/stategc/internal/database"
	badger "github.com/dgraph-io/badger/v3"
)

var _ database.Batch = (*writeBatch)(nil)

type keyValue struct {
	key    []byte
	value  []byte
	delete bool
}

// writeBatch buffers writes and applies them in a single badger
// update transaction when flushed. Flushing fails with
// badger.ErrTxnTooBig if the batch exceeds the transaction limits.
type writeBatch struct {
	badgerDatabase *badger.DB
	keyValues      []keyValue
}

func newWriteBatch(badgerDatabase *badger.DB) *writeBatch {
	return &writeBatch{
		badgerDatabase: badgerDatabase,
	}
}

// Put sets a value at the given key.
func (wb *writeBatch) Put(key, value []byte) (err error) {
	wb.keyValues = append(wb.keyValues, keyValue{
		key:   copyBytes(key),
		value: copyBytes(value),
	})
	return nil
}

// Del deletes the given key from the database.
func (wb *writeBatch) Del(key []byte) (err error) {
	wb.keyValues = append(wb.keyValues, keyValue{
		key:    copyBytes(key),
		delete: true,
	})
	return nil
}

// Flush flushes the write batch to the database.
func (wb *writeBatch) Flush() (err error) {
	err = wb.badgerDatabase.Update(func(txn *badger.Txn) error {
		for _, kv := range wb.keyValues {
			var err error
			if kv.delete {
				err = txn.Delete(kv.key)
			} else {
				err = txn.Set(kv.key, kv.value)
			}
			if err != nil {
				return fmt.Errorf("applying batch operation on key 0x%x: %w", kv.key, err)
			}
		}
		return nil
	})
	if err != nil {
		return transformError(err)
	}
	wb.keyValues = nil
	return nil
}

// ValueSize returns the number of operations in the batch.
func (wb *writeBatch) ValueSize() int {
	return len(wb.keyValues)
}

// Reset drops all the buffered operations.
func (wb *writeBatch) Reset() {
	wb.keyValues = nil
}

// Close drops all the buffered operations.
func (wb *writeBatch) Close() error {
	wb.keyValues = nil
	return nil
}

func copyBytes(b []byte) (bCopy []byte) {
	bCopy = make([]byte, len(b))
	copy(bCopy, b)
	return bCopy
}
