// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package stale

import (
	"testing"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/database/memory"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewPebble(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return NewStore(db)
}

func Test_Record_key(t *testing.T) {
	t.Parallel()

	record := Record{TxOrder: 0x0102, NodeHash: common.Hash{0xaa}}
	key := record.key()
	require.Len(t, key, recordKeyLength)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 2, 0xaa}, key[:9])

	decoded, err := recordFromKey(key)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)

	_, err = recordFromKey(key[:10])
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func Test_Store_ListBefore(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.New())

	err := store.WriteStaleIndices(100, []common.Hash{{2}, {1}})
	require.NoError(t, err)
	err = store.WriteStaleIndices(200, []common.Hash{{3}})
	require.NoError(t, err)
	// out of order writes are listed in tx order
	err = store.WriteStaleIndices(5, []common.Hash{{4}})
	require.NoError(t, err)

	testCases := map[string]struct {
		cutoff   uint64
		limit    int
		expected []Record
	}{
		"cutoff_zero": {
			cutoff: 0,
			limit:  10,
		},
		"cutoff_is_exclusive": {
			cutoff: 100,
			limit:  10,
			expected: []Record{
				{TxOrder: 5, NodeHash: common.Hash{4}},
			},
		},
		"cutoff_after_first_order": {
			cutoff: 101,
			limit:  10,
			expected: []Record{
				{TxOrder: 5, NodeHash: common.Hash{4}},
				{TxOrder: 100, NodeHash: common.Hash{1}},
				{TxOrder: 100, NodeHash: common.Hash{2}},
			},
		},
		"limit": {
			cutoff: 1000,
			limit:  2,
			expected: []Record{
				{TxOrder: 5, NodeHash: common.Hash{4}},
				{TxOrder: 100, NodeHash: common.Hash{1}},
			},
		},
		"zero_limit": {
			cutoff: 1000,
			limit:  0,
		},
		"all": {
			cutoff: 1000,
			limit:  100,
			expected: []Record{
				{TxOrder: 5, NodeHash: common.Hash{4}},
				{TxOrder: 100, NodeHash: common.Hash{1}},
				{TxOrder: 100, NodeHash: common.Hash{2}},
				{TxOrder: 200, NodeHash: common.Hash{3}},
			},
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			records, err := store.ListBefore(testCase.cutoff, testCase.limit)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, records)
		})
	}
}

func Test_Store_ListBefore_monotonic(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	for txOrder := uint64(1); txOrder <= 20; txOrder++ {
		err := store.WriteStaleIndices(txOrder, []common.Hash{{byte(txOrder)}, {byte(txOrder), 1}})
		require.NoError(t, err)
	}

	var previous []Record
	for cutoff := uint64(0); cutoff <= 22; cutoff++ {
		records, err := store.ListBefore(cutoff, 1000)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(records), len(previous))
		if len(previous) > 0 {
			assert.Equal(t, previous, records[:len(previous)])
		}
		for _, record := range records {
			assert.Less(t, record.TxOrder, cutoff)
		}
		previous = records
	}
	assert.Len(t, previous, 40)
}

func Test_Store_ListBeforeFrom_paging(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	var expected []Record
	for txOrder := uint64(1); txOrder <= 7; txOrder++ {
		hash := common.Hash{byte(txOrder)}
		err := store.WriteStaleIndices(txOrder, []common.Hash{hash})
		require.NoError(t, err)
		if txOrder < 7 {
			expected = append(expected, Record{TxOrder: txOrder, NodeHash: hash})
		}
	}

	const cutoff, pageSize = 7, 4
	var (
		all    []Record
		cursor *Record
		pages  int
	)
	for {
		records, next, err := store.ListBeforeFrom(cursor, cutoff, pageSize)
		require.NoError(t, err)
		all = append(all, records...)
		pages++
		if next == nil {
			break
		}
		cursor = next
	}

	assert.Equal(t, 2, pages)
	assert.Equal(t, expected, all)
}

func Test_Store_WriteStaleIndices_decrementsRefcount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	nodeHash := common.Hash{1}
	neverCounted := common.Hash{2}

	for i := 0; i < 3; i++ {
		err := store.IncNodeRefcount(nodeHash)
		require.NoError(t, err)
	}

	err := store.WriteStaleIndices(10, []common.Hash{nodeHash, neverCounted})
	require.NoError(t, err)

	count, exists, err := store.GetNodeRefcount(nodeHash)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, uint32(2), count)

	_, exists, err = store.GetNodeRefcount(neverCounted)
	require.NoError(t, err)
	assert.False(t, exists)

	has, err := store.Has(Record{TxOrder: 10, NodeHash: neverCounted})
	require.NoError(t, err)
	assert.True(t, has)
}

func Test_Store_refcount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	nodeHash := common.Hash{1}

	count, exists, err := store.GetNodeRefcount(nodeHash)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Zero(t, count)

	// decrementing a missing entry is a no-op
	err = store.DecNodeRefcount(nodeHash)
	require.NoError(t, err)
	_, exists, err = store.GetNodeRefcount(nodeHash)
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.IncNodeRefcount(nodeHash)
	require.NoError(t, err)
	err = store.IncNodeRefcount(nodeHash)
	require.NoError(t, err)
	count, exists, err = store.GetNodeRefcount(nodeHash)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, uint32(2), count)

	err = store.DecNodeRefcount(nodeHash)
	require.NoError(t, err)
	err = store.DecNodeRefcount(nodeHash)
	require.NoError(t, err)

	// reaching zero removes the entry
	_, exists, err = store.GetNodeRefcount(nodeHash)
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.IncNodeRefcount(nodeHash)
	require.NoError(t, err)
	err = store.RemoveNodeRefcount(nodeHash)
	require.NoError(t, err)
	_, exists, err = store.GetNodeRefcount(nodeHash)
	require.NoError(t, err)
	assert.False(t, exists)
}

func Test_Store_batchDeletes(t *testing.T) {
	t.Parallel()

	db := memory.New()
	store := NewStore(db)

	records := []Record{
		{TxOrder: 1, NodeHash: common.Hash{1}},
		{TxOrder: 1, NodeHash: common.Hash{2}},
	}
	err := store.WriteStaleIndices(1, []common.Hash{{1}, {2}})
	require.NoError(t, err)
	err = store.IncNodeRefcount(common.Hash{1})
	require.NoError(t, err)

	batch := db.NewBatch()
	err = store.DeleteStaleIndices(batch, records)
	require.NoError(t, err)
	err = store.DeleteNodeRefcounts(batch, []common.Hash{{1}})
	require.NoError(t, err)

	// nothing changes until the batch is flushed
	count, err := store.Count(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	err = batch.Flush()
	require.NoError(t, err)

	count, err = store.Count(2)
	require.NoError(t, err)
	assert.Zero(t, count)
	_, exists, err := store.GetNodeRefcount(common.Hash{1})
	require.NoError(t, err)
	assert.False(t, exists)
}

func Test_Store_RemoveStaleIndex(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.New())
	record := Record{TxOrder: 3, NodeHash: common.Hash{3}}
	err := store.WriteStaleIndices(record.TxOrder, []common.Hash{record.NodeHash})
	require.NoError(t, err)

	err = store.RemoveStaleIndex(record)
	require.NoError(t, err)

	has, err := store.Has(record)
	require.NoError(t, err)
	assert.False(t, has)
}
