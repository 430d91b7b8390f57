// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package gc

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ChainSafe/stategc/dot/state"
	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/stretchr/testify/require"
)

// snapshot returns every key value pair of the database.
func snapshot(t *testing.T, db database.Database) map[string]string {
	t.Helper()

	iter := db.NewIterator()
	defer iter.Release()

	pairs := make(map[string]string)
	for valid := iter.First(); valid; valid = iter.Next() {
		pairs[string(iter.Key())] = string(iter.Value())
	}
	return pairs
}

type history struct {
	roots []state.Root
	// live holds the node hashes of each root, by tx order.
	live map[uint64][]common.Hash
}

// protectedNodes returns the node hashes of the last n roots.
func (h history) protectedNodes(n int) map[common.Hash]struct{} {
	nodes := make(map[common.Hash]struct{})
	for _, root := range h.roots[len(h.roots)-n:] {
		for _, hash := range h.live[root.TxOrder] {
			nodes[hash] = struct{}{}
		}
	}
	return nodes
}

// generateHistory commits a genesis state and the given number of updates.
func generateHistory(t *testing.T, db database.Database, width, updates int) (h history) {
	t.Helper()

	generator, err := state.NewGenerator(state.NewCommitter(db), width)
	require.NoError(t, err)

	h.live = make(map[uint64][]common.Hash)
	root, err := generator.Genesis()
	require.NoError(t, err)
	h.roots = append(h.roots, root)
	h.live[root.TxOrder] = generator.LiveNodes()

	random := rand.New(rand.NewSource(int64(width)))
	for i := 0; i < updates; i++ {
		root, err = generator.Update(random, 3)
		require.NoError(t, err)
		h.roots = append(h.roots, root)
		h.live[root.TxOrder] = generator.LiveNodes()
	}

	return h
}

var errTest = errors.New("test error")

// failingDatabase fails flushing batches after a number of successful flushes.
type failingDatabase struct {
	database.Database
	flushesLeft *int
}

func (db failingDatabase) NewBatch() database.Batch {
	return failingBatch{
		Batch:       db.Database.NewBatch(),
		flushesLeft: db.flushesLeft,
	}
}

type failingBatch struct {
	database.Batch
	flushesLeft *int
}

func (b failingBatch) Flush() error {
	if *b.flushesLeft == 0 {
		return errTest
	}
	*b.flushesLeft--
	return b.Batch.Flush()
}

// countingDatabase counts the writes made to the database,
// whether directly or through batches.
type countingDatabase struct {
	database.Database
	count uint64
}

func (db *countingDatabase) writes() uint64 {
	return atomic.LoadUint64(&db.count)
}

func (db *countingDatabase) Put(key, value []byte) error {
	atomic.AddUint64(&db.count, 1)
	return db.Database.Put(key, value)
}

func (db *countingDatabase) Del(key []byte) error {
	atomic.AddUint64(&db.count, 1)
	return db.Database.Del(key)
}

func (db *countingDatabase) Compact() error {
	atomic.AddUint64(&db.count, 1)
	return db.Database.Compact()
}

func (db *countingDatabase) NewBatch() database.Batch {
	return countingBatch{
		Batch: db.Database.NewBatch(),
		count: &db.count,
	}
}

type countingBatch struct {
	database.Batch
	count *uint64
}

func (b countingBatch) Put(key, value []byte) error {
	atomic.AddUint64(b.count, 1)
	return b.Batch.Put(key, value)
}

func (b countingBatch) Del(key []byte) error {
	atomic.AddUint64(b.count, 1)
	return b.Batch.Del(key)
}
