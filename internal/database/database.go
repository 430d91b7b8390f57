// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package database defines the key value storage used by the state
// store and the garbage collector, and its pebble and leveldb backends.
package database

import (
	"errors"
	"io"

	"github.com/cockroachdb/pebble"
)

var (
	// ErrNotFound is returned, wrapped, when a key is not present.
	ErrNotFound = pebble.ErrNotFound
	// ErrClosed is returned, wrapped, when operating on a closed database.
	ErrClosed = errors.New("database closed")
)

type Reader interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

type Writer interface {
	Put(key, value []byte) error
	Del(key []byte) error
	Flush() error
}

// Iterator iterates over key/value pairs in ascending key order.
// Key and value slices are only valid until the next move.
// Must be released after use.
type Iterator interface {
	Valid() bool
	Next() bool
	Key() []byte
	Value() []byte
	First() bool
	Release()
	SeekGE(key []byte) bool
}

// Batch is a write-only operation. Its writes are applied
// atomically when it is flushed.
type Batch interface {
	io.Closer
	Writer

	ValueSize() int
	Reset()
}

// Database wraps all database operations. All methods are safe for concurrent use.
type Database interface {
	Reader
	Writer
	io.Closer

	Path() string
	NewBatch() Batch
	NewIterator() Iterator
	NewPrefixIterator(prefix []byte) Iterator
	// Compact triggers a full range compaction, reclaiming
	// space freed by deleted keys.
	Compact() error
}

// Table is a view on a database where all keys are prefixed.
// Keys given to and returned by a table never contain the prefix.
type Table interface {
	Reader
	Writer

	Prefix() string
	NewBatch() Batch
	// BatchFrom returns a batch writing prefixed keys into the given
	// batch, so writes to several tables can be flushed atomically.
	BatchFrom(batch Batch) Batch
	NewIterator() Iterator
}

// KeyUpperBound returns the smallest key greater than every key
// starting with prefix, or nil if there is none.
func KeyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)

	for i := len(end) - 1; i >= 0; i-- {
		end[i] = end[i] + 1
		if end[i] != 0 {
			return end[:i+1]
		}
	}

	return nil
}
