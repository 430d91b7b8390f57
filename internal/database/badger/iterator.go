// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package badger

import (
	"github.com/ChainSafe/stategc/internal/database"
	badger "github.com/dgraph-io/badger/v3"
)

var _ database.Iterator = (*iterator)(nil)

// iterator iterates over a read only transaction snapshot.
type iterator struct {
	txn    *badger.Txn
	it     *badger.Iterator
	prefix []byte
	value  []byte
}

func newIterator(badgerDatabase *badger.DB, prefix []byte) *iterator {
	txn := badgerDatabase.NewTransaction(false)
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	return &iterator{
		txn:    txn,
		it:     txn.NewIterator(options),
		prefix: prefix,
	}
}

func (i *iterator) Valid() bool {
	return i.it.ValidForPrefix(i.prefix)
}

func (i *iterator) First() bool {
	i.value = nil
	i.it.Rewind()
	return i.Valid()
}

func (i *iterator) Next() bool {
	i.value = nil
	i.it.Next()
	return i.Valid()
}

func (i *iterator) SeekGE(key []byte) bool {
	i.value = nil
	i.it.Seek(key)
	return i.Valid()
}

func (i *iterator) Key() []byte {
	return i.it.Item().KeyCopy(nil)
}

// Value returns the value of the current item, or nil if
// it cannot be read from the value log.
func (i *iterator) Value() []byte {
	if i.value != nil {
		return i.value
	}
	value, err := i.it.Item().ValueCopy(nil)
	if err != nil {
		return nil
	}
	i.value = value
	return value
}

func (i *iterator) Release() {
	i.it.Close()
	i.txn.Discard()
}
