// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sweep

import (
	"context"
	"errors"
	"testing"

	"github.com/ChainSafe/stategc/dot/state"
	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/database/memory"
	"github.com/ChainSafe/stategc/internal/pruner/marker"
	"github.com/ChainSafe/stategc/internal/pruner/recycle"
	"github.com/ChainSafe/stategc/internal/pruner/stale"
	"github.com/ChainSafe/stategc/internal/trie/node"
	"github.com/ChainSafe/stategc/lib/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db         *memory.Database
	nodes      *state.NodeStore
	staleIndex *stale.Store
	recycleBin *recycle.Store
	marker     *marker.MemoryMarker
	// marked is reachable, referenced has a positive refcount, missing
	// is not in the node store and removed are to be removed.
	marked, referenced, missing common.Hash
	removed                     []common.Hash
	removedBytes                uint64
	records                     []stale.Record
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.New()
	f := &fixture{
		db:         db,
		nodes:      state.NewNodeStore(db),
		staleIndex: stale.NewStore(db),
		marker:     marker.NewMemory(),
		missing:    common.Hash{0xff},
	}
	var err error
	f.recycleBin, err = recycle.NewStore(db)
	require.NoError(t, err)

	encoded, hashes, err := state.EncodeNodes(
		node.NewLeaf([]byte{1}, []byte("marked")),
		node.NewLeaf([]byte{2}, []byte("referenced")),
		node.NewLeaf([]byte{3}, []byte("removed")),
		node.NewLeaf([]byte{4}, []byte("removed too")),
	)
	require.NoError(t, err)
	require.NoError(t, f.nodes.PutNodes(encoded))

	f.marked, f.referenced, f.removed = hashes[0], hashes[1], hashes[2:]
	for _, hash := range f.removed {
		f.removedBytes += uint64(len(encoded[hash]))
	}

	_, err = f.marker.Mark(f.marked)
	require.NoError(t, err)

	// the stale write decrements it down to one
	require.NoError(t, f.staleIndex.IncNodeRefcount(f.referenced))
	require.NoError(t, f.staleIndex.IncNodeRefcount(f.referenced))

	err = f.staleIndex.WriteStaleIndices(1,
		append([]common.Hash{f.marked, f.referenced, f.missing}, f.removed...))
	require.NoError(t, err)
	// a node can be superseded more than once
	err = f.staleIndex.WriteStaleIndices(2, f.removed[:1])
	require.NoError(t, err)

	f.records, err = f.staleIndex.ListBefore(3, 100)
	require.NoError(t, err)
	require.Len(t, f.records, 6)
	return f
}

func snapshot(t *testing.T, db database.Database) map[string]string {
	t.Helper()
	iter := db.NewIterator()
	defer iter.Release()
	keyValues := make(map[string]string)
	for valid := iter.First(); valid; valid = iter.Next() {
		keyValues[string(iter.Key())] = string(iter.Value())
	}
	return keyValues
}

func Test_Sweeper_SweepRecords(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		config            Config
		recycleBinEntries uint64
	}{
		"hard_delete": {},
		"recycle_bin": {
			config:            Config{UseRecycleBin: true},
			recycleBinEntries: 2,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			sweeper := New(testCase.config, f.nodes, f.staleIndex, f.recycleBin, f.marker)

			stats, err := sweeper.SweepRecords(context.Background(), f.records, 3)
			require.NoError(t, err)

			assert.Equal(t, uint64(5), stats.ScannedCount)
			assert.Equal(t, uint64(2), stats.KeptCount)
			assert.Equal(t, uint64(2), stats.DeletedCount)
			assert.Equal(t, testCase.recycleBinEntries, stats.RecycleBinEntries)
			assert.Equal(t, f.removedBytes, stats.BytesEstimated)

			for _, hash := range f.removed {
				exists, err := f.nodes.HasNode(hash)
				require.NoError(t, err)
				assert.False(t, exists)

				_, err = f.recycleBin.Get(hash)
				if testCase.config.UseRecycleBin {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, database.ErrNotFound)
				}
			}
			for _, hash := range []common.Hash{f.marked, f.referenced} {
				exists, err := f.nodes.HasNode(hash)
				require.NoError(t, err)
				assert.True(t, exists)
			}

			remaining, err := f.staleIndex.ListBefore(3, 100)
			require.NoError(t, err)
			assert.ElementsMatch(t, []stale.Record{
				{TxOrder: 1, NodeHash: f.marked},
				{TxOrder: 1, NodeHash: f.referenced},
			}, remaining)
		})
	}
}

func Test_Sweeper_DryRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	before := snapshot(t, f.db)

	sweeper := New(Config{DryRun: true, UseRecycleBin: true}, f.nodes, f.staleIndex, f.recycleBin, f.marker)
	stats, err := sweeper.SweepRecords(context.Background(), f.records, 2)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), stats.DeletedCount)
	assert.Equal(t, uint64(2), stats.RecycleBinEntries)
	assert.Equal(t, f.removedBytes, stats.BytesEstimated)
	assert.Equal(t, before, snapshot(t, f.db))
}

func Test_Sweeper_Sweep_noCandidates(t *testing.T) {
	t.Parallel()

	sweeper := New(Config{}, nil, nil, nil, marker.NewMemory())
	stats, err := sweeper.Sweep(context.Background(), nil, 4)
	require.NoError(t, err)
	stats.Duration = 0
	assert.Equal(t, Stats{}, stats)
}

func Test_Sweeper_Sweep_invariantViolation(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	hash := common.Hash{1}
	reachable := NewMockMarker(ctrl)
	reachable.EXPECT().IsMarked(hash).Return(false, nil)
	reachable.EXPECT().IsMarked(hash).Return(true, nil)
	staleIndex := NewMockStaleIndex(ctrl)
	staleIndex.EXPECT().GetNodeRefcount(hash).Return(uint32(0), false, nil)
	nodes := NewMockNodeStore(ctrl)
	nodes.EXPECT().GetNode(hash).Return([]byte{1}, nil)

	sweeper := New(Config{}, nodes, staleIndex, nil, reachable)
	_, err := sweeper.Sweep(context.Background(), []common.Hash{hash}, 1)

	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func Test_Sweeper_Sweep_errors(t *testing.T) {
	t.Parallel()

	errTest := errors.New("test error")
	hash := common.Hash{1}
	encoding := []byte{1, 2, 3}

	testCases := map[string]struct {
		config     Config
		setup      func(ctrl *gomock.Controller, nodes *MockNodeStore, staleIndex *MockStaleIndex, recycleBin *MockRecycleBin)
		errMessage string
	}{
		"refcount_error": {
			setup: func(_ *gomock.Controller, _ *MockNodeStore, staleIndex *MockStaleIndex, _ *MockRecycleBin) {
				staleIndex.EXPECT().GetNodeRefcount(hash).Return(uint32(0), false, errTest)
			},
			errMessage: "selecting nodes to remove: getting refcount: test error",
		},
		"get_node_error": {
			setup: func(_ *gomock.Controller, nodes *MockNodeStore, staleIndex *MockStaleIndex, _ *MockRecycleBin) {
				staleIndex.EXPECT().GetNodeRefcount(hash).Return(uint32(0), false, nil)
				nodes.EXPECT().GetNode(hash).Return(nil, errTest)
			},
			errMessage: "selecting nodes to remove: getting node: test error",
		},
		"recycle_bin_error": {
			config: Config{UseRecycleBin: true},
			setup: func(ctrl *gomock.Controller, nodes *MockNodeStore, staleIndex *MockStaleIndex, recycleBin *MockRecycleBin) {
				staleIndex.EXPECT().GetNodeRefcount(hash).Return(uint32(0), false, nil)
				nodes.EXPECT().GetNode(hash).Return(encoding, nil)
				batch := NewMockBatch(ctrl)
				nodes.EXPECT().NewBatch().Return(batch)
				recycleBin.EXPECT().PutInBatch(batch, hash, encoding).Return(0, errTest)
				batch.EXPECT().Close().Return(nil)
			},
			errMessage: "moving node to recycle bin: test error",
		},
		"flush_error": {
			setup: func(ctrl *gomock.Controller, nodes *MockNodeStore, staleIndex *MockStaleIndex, _ *MockRecycleBin) {
				staleIndex.EXPECT().GetNodeRefcount(hash).Return(uint32(0), false, nil)
				nodes.EXPECT().GetNode(hash).Return(encoding, nil)
				batch := NewMockBatch(ctrl)
				nodes.EXPECT().NewBatch().Return(batch)
				nodes.EXPECT().DeleteNodesInBatch(batch, []common.Hash{hash}).Return(nil)
				staleIndex.EXPECT().DeleteNodeRefcounts(batch, []common.Hash{hash}).Return(nil)
				batch.EXPECT().Flush().Return(errTest)
				batch.EXPECT().Close().Return(nil)
			},
			errMessage: "flushing sweep batch: test error",
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			nodes := NewMockNodeStore(ctrl)
			staleIndex := NewMockStaleIndex(ctrl)
			recycleBin := NewMockRecycleBin(ctrl)
			testCase.setup(ctrl, nodes, staleIndex, recycleBin)

			sweeper := New(testCase.config, nodes, staleIndex, recycleBin, marker.NewMemory())
			_, err := sweeper.Sweep(context.Background(), []common.Hash{hash}, 2)

			assert.ErrorIs(t, err, errTest)
			assert.EqualError(t, err, testCase.errMessage)
		})
	}
}

func Test_Sweeper_Sweep_cancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper := New(Config{}, f.nodes, f.staleIndex, f.recycleBin, f.marker)
	_, err := sweeper.SweepRecords(ctx, f.records, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Stats_Add(t *testing.T) {
	t.Parallel()

	stats := Stats{ScannedCount: 1, KeptCount: 2, DeletedCount: 3, RecycleBinEntries: 4, BytesEstimated: 5, Duration: 6}
	stats.Add(Stats{ScannedCount: 10, KeptCount: 20, DeletedCount: 30, RecycleBinEntries: 40, BytesEstimated: 50, Duration: 60})
	assert.Equal(t, Stats{ScannedCount: 11, KeptCount: 22, DeletedCount: 33, RecycleBinEntries: 44, BytesEstimated: 55, Duration: 66}, stats)
}
