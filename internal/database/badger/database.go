// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package badger provides a database implementation using badger v3.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/stategc/internal/database"
	badger "github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/ristretto/z"
)

var _ database.Database = (*Database)(nil)

// Database is database implementation using a badger/v3 database.
type Database struct {
	path           string
	badgerDatabase *badger.DB
}

// New returns a new database based on a badger v3 database.
func New(settings Settings) (db *Database, err error) {
	settings.SetDefaults()
	err = settings.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}

	badgerOptions := badger.DefaultOptions(*settings.Path)
	badgerOptions = badgerOptions.WithLogger(nil)
	badgerOptions = badgerOptions.WithInMemory(*settings.InMemory)
	badgerDatabase, err := badger.Open(badgerOptions)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}

	return &Database{
		path:           *settings.Path,
		badgerDatabase: badgerDatabase,
	}, nil
}

// Path returns the badger directory path.
func (db *Database) Path() string {
	return db.path
}

// Get retrieves a value from the database using the given key.
// It returns the wrapped error `database.ErrNotFound` if the
// key is not found.
func (db *Database) Get(key []byte) (value []byte, err error) {
	err = db.badgerDatabase.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return fmt.Errorf("getting item from transaction: %w", err)
		}

		value, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copying value: %w", err)
		}

		return nil
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: 0x%x", database.ErrNotFound, key)
	}

	return value, transformError(err)
}

// Has returns true if the key exists in the database.
func (db *Database) Has(key []byte) (exists bool, err error) {
	err = db.badgerDatabase.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, transformError(err)
	}
}

// Put sets a value at the given key in the database.
func (db *Database) Put(key, value []byte) (err error) {
	err = db.badgerDatabase.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	return transformError(err)
}

// Del deletes the given key from the database.
// If the key is not found, no error is returned.
func (db *Database) Del(key []byte) (err error) {
	err = db.badgerDatabase.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	return transformError(err)
}

// Flush syncs the database to disk.
func (db *Database) Flush() (err error) {
	return transformError(db.badgerDatabase.Sync())
}

// NewBatch returns a new write batch for the database.
func (db *Database) NewBatch() database.Batch {
	return newWriteBatch(db.badgerDatabase)
}

// NewIterator returns an iterator over all the keys of the database.
func (db *Database) NewIterator() database.Iterator {
	return newIterator(db.badgerDatabase, nil)
}

// NewPrefixIterator returns an iterator over the keys starting with prefix.
func (db *Database) NewPrefixIterator(prefix []byte) database.Iterator {
	return newIterator(db.badgerDatabase, prefix)
}

// Compact flattens the LSM tree and garbage collects the value log
// until there is nothing left to rewrite.
func (db *Database) Compact() (err error) {
	const workers = 2
	err = db.badgerDatabase.Flatten(workers)
	if err != nil {
		return fmt.Errorf("flattening: %w", transformError(err))
	}

	const discardRatio = 0.5
	for {
		err = db.badgerDatabase.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		} else if err != nil {
			return fmt.Errorf("running value log garbage collection: %w", transformError(err))
		}
	}
}

// Stream streams data from the database to the `handle`
// function given. The `prefix` is used to filter the keys.
// Keys are handled concurrently by badger, in no particular order.
func (db *Database) Stream(ctx context.Context,
	prefix []byte,
	handle func(key, value []byte) error,
) error {
	stream := db.badgerDatabase.NewStream()

	if prefix != nil {
		stream.Prefix = make([]byte, len(prefix))
		copy(stream.Prefix, prefix)
	}

	stream.Send = func(buf *z.Buffer) (err error) {
		kvList, err := badger.BufferToKVList(buf)
		if err != nil {
			return fmt.Errorf("decoding badger proto key value: %w", err)
		}

		for _, keyValue := range kvList.Kv {
			err = handle(keyValue.Key, keyValue.Value)
			if err != nil {
				return fmt.Errorf("handling key value: %w", err)
			}
		}
		return nil
	}

	return stream.Orchestrate(ctx)
}

// Close closes the database.
func (db *Database) Close() (err error) {
	err = db.badgerDatabase.Close()
	return transformError(err)
}

// transformError transforms a badger error into a database error
// eventually, for errors defined in the parent database package.
func transformError(badgerErr error) (err error) {
	if errors.Is(badgerErr, badger.ErrDBClosed) {
		return fmt.Errorf("%w", database.ErrClosed)
	}
	return badgerErr
}
