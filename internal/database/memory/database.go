// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package memory provides an in-memory database implementation.
package memory

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ChainSafe/stategc/internal/database"
)

var _ database.Database = (*Database)(nil)

// Database is an in-memory database implementation.
type Database struct {
	closed    bool
	keyValues map[string][]byte
	mutex     sync.RWMutex
}

// New returns a new in-memory database.
func New() *Database {
	return &Database{
		keyValues: make(map[string][]byte),
	}
}

// Path returns an empty path since nothing is stored on disk.
func (*Database) Path() string { return "" }

// Get retrieves a value from the database using the given key.
// It returns the wrapped error `database.ErrNotFound` if the key is not found.
func (db *Database) Get(key []byte) (value []byte, err error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	db.panicOnClosed()

	value, ok := db.keyValues[string(key)]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", database.ErrNotFound, key)
	}

	return copyBytes(value), nil
}

// Has returns true if the key exists in the database.
func (db *Database) Has(key []byte) (bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	db.panicOnClosed()

	_, ok := db.keyValues[string(key)]
	return ok, nil
}

// Put sets a value at the given key in the database.
// The value byte slice is deep copied to avoid any mutation surprises.
// The error returned is always nil.
func (db *Database) Put(key, value []byte) (err error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.panicOnClosed()

	db.keyValues[string(key)] = copyBytes(value)

	return nil
}

// Del deletes a the given key in the database.
// If the key is not found, no error is returned.
func (db *Database) Del(key []byte) (err error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.panicOnClosed()

	delete(db.keyValues, string(key))

	return nil
}

// Flush does nothing for the in-memory database.
func (db *Database) Flush() error { return nil }

// Compact does nothing for the in-memory database.
func (db *Database) Compact() error { return nil }

// NewBatch returns a new write batch for the database.
// It is not thread-safe to write to the batch, but flushing it is
// thread-safe for the database.
func (db *Database) NewBatch() database.Batch {
	db.panicOnClosed()
	return newBatch(db)
}

// NewIterator returns an iterator over a snapshot of all the keys.
func (db *Database) NewIterator() database.Iterator {
	return db.NewPrefixIterator(nil)
}

// NewPrefixIterator returns an iterator over a snapshot of the
// keys starting with prefix.
func (db *Database) NewPrefixIterator(prefix []byte) database.Iterator {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	db.panicOnClosed()

	keys := make([]string, 0, len(db.keyValues))
	values := make(map[string][]byte)
	for key, value := range db.keyValues {
		if !strings.HasPrefix(key, string(prefix)) {
			continue
		}
		keys = append(keys, key)
		values[key] = value
	}
	sort.Strings(keys)

	return &iterator{
		keys:   keys,
		values: values,
		index:  -1,
	}
}

// Close closes the database.
func (db *Database) Close() (err error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.closed = true
	db.keyValues = nil
	return nil
}

// KeysCount returns the number of keys in the database.
func (db *Database) KeysCount() int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return len(db.keyValues)
}

type iterator struct {
	keys   []string
	values map[string][]byte
	index  int
}

func (it *iterator) Valid() bool {
	return it.index >= 0 && it.index < len(it.keys)
}

func (it *iterator) First() bool {
	it.index = 0
	return it.Valid()
}

func (it *iterator) Next() bool {
	if it.index < len(it.keys) {
		it.index++
	}
	return it.Valid()
}

func (it *iterator) SeekGE(key []byte) bool {
	it.index = sort.Search(len(it.keys), func(i int) bool {
		return bytes.Compare([]byte(it.keys[i]), key) >= 0
	})
	return it.Valid()
}

func (it *iterator) Key() []byte {
	return []byte(it.keys[it.index])
}

func (it *iterator) Value() []byte {
	return it.values[it.keys[it.index]]
}

func (it *iterator) Release() {
	it.keys = nil
	it.values = nil
}
