// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"fmt"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/pruner/stale"
	"github.com/ChainSafe/stategc/internal/trie/node"
	"github.com/ChainSafe/stategc/lib/common"
)

// Committer writes the outcome of a state transition: the new nodes,
// the new state root and the stale records of superseded nodes.
type Committer struct {
	db         database.Database
	nodes      *NodeStore
	roots      *RootStore
	staleIndex *stale.Store
}

// NewCommitter returns a committer writing to db.
func NewCommitter(db database.Database) *Committer {
	return &Committer{
		db:         db,
		nodes:      NewNodeStore(db),
		roots:      NewRootStore(db),
		staleIndex: stale.NewStore(db),
	}
}

// Commit records root as the state root at txOrder. The new nodes and the
// root are written atomically, then each new node reference count is
// incremented and the superseded nodes are recorded as stale at txOrder.
func (c *Committer) Commit(txOrder uint64, root common.Hash,
	newNodes map[common.Hash][]byte, superseded []common.Hash) (err error) {
	batch := c.db.NewBatch()
	defer batch.Close()

	err = c.nodes.PutNodesInBatch(batch, newNodes)
	if err != nil {
		return fmt.Errorf("putting new nodes: %w", err)
	}

	err = c.roots.PutRootInBatch(batch, txOrder, root)
	if err != nil {
		return fmt.Errorf("putting root: %w", err)
	}

	err = batch.Flush()
	if err != nil {
		return fmt.Errorf("flushing commit batch: %w", err)
	}

	for hash := range newNodes {
		err = c.staleIndex.IncNodeRefcount(hash)
		if err != nil {
			return fmt.Errorf("incrementing refcount: %w", err)
		}
	}

	if len(superseded) > 0 {
		err = c.staleIndex.WriteStaleIndices(txOrder, superseded)
		if err != nil {
			return fmt.Errorf("writing stale indices: %w", err)
		}
	}

	logger.Debugf("committed root %s at tx order %d with %d new nodes and %d stale nodes",
		root.Short(), txOrder, len(newNodes), len(superseded))
	return nil
}

// EncodeNodes encodes the given nodes and returns them keyed by hash,
// together with their hashes in the order given.
func EncodeNodes(nodes ...*node.Node) (encoded map[common.Hash][]byte, hashes []common.Hash, err error) {
	encoded = make(map[common.Hash][]byte, len(nodes))
	hashes = make([]common.Hash, len(nodes))
	for i, n := range nodes {
		encoding, hash, err := n.EncodeAndHash()
		if err != nil {
			return nil, nil, fmt.Errorf("encoding node %d: %w", i, err)
		}
		encoded[hash] = encoding
		hashes[i] = hash
	}
	return encoded, hashes, nil
}
