// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"fmt"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/log"
	"github.com/ChainSafe/stategc/lib/common"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "state"))

// NodeStore stores encoded state nodes keyed by their hash.
type NodeStore struct {
	db    database.Database
	table database.Table
}

// NewNodeStore returns a node store using the node table of db.
func NewNodeStore(db database.Database) *NodeStore {
	return &NodeStore{
		db:    db,
		table: database.NewTable(db, common.NodePrefix),
	}
}

// GetNode returns the encoded node for the given hash.
// It returns a wrapped database.ErrNotFound if the node does not exist.
func (s *NodeStore) GetNode(hash common.Hash) (encoding []byte, err error) {
	encoding, err = s.table.Get(hash.ToBytes())
	if err != nil {
		return nil, fmt.Errorf("getting node %s: %w", hash, err)
	}
	return encoding, nil
}

// HasNode returns true if the node exists.
func (s *NodeStore) HasNode(hash common.Hash) (bool, error) {
	return s.table.Has(hash.ToBytes())
}

// PutNodes writes the given encoded nodes in a single batch.
func (s *NodeStore) PutNodes(nodes map[common.Hash][]byte) (err error) {
	batch := s.table.NewBatch()
	defer batch.Close()

	for hash, encoding := range nodes {
		err = batch.Put(hash.ToBytes(), encoding)
		if err != nil {
			return fmt.Errorf("putting node %s in batch: %w", hash, err)
		}
	}

	err = batch.Flush()
	if err != nil {
		return fmt.Errorf("flushing nodes batch: %w", err)
	}
	return nil
}

// DeleteNodes deletes the given nodes in a single batch.
func (s *NodeStore) DeleteNodes(hashes []common.Hash) (err error) {
	batch := s.table.NewBatch()
	defer batch.Close()

	err = s.DeleteNodesInBatch(batch, hashes)
	if err != nil {
		return err
	}

	err = batch.Flush()
	if err != nil {
		return fmt.Errorf("flushing nodes batch: %w", err)
	}
	return nil
}

// DeleteNodesInBatch adds the deletion of the given nodes to batch.
// The batch must come from the underlying database, not from a table.
func (s *NodeStore) DeleteNodesInBatch(batch database.Batch, hashes []common.Hash) (err error) {
	nodeBatch := s.table.BatchFrom(batch)
	for _, hash := range hashes {
		err = nodeBatch.Del(hash.ToBytes())
		if err != nil {
			return fmt.Errorf("deleting node %s in batch: %w", hash, err)
		}
	}
	return nil
}

// PutNodesInBatch adds the writes of the given encoded nodes to batch.
// The batch must come from the underlying database, not from a table.
func (s *NodeStore) PutNodesInBatch(batch database.Batch, nodes map[common.Hash][]byte) (err error) {
	nodeBatch := s.table.BatchFrom(batch)
	for hash, encoding := range nodes {
		err = nodeBatch.Put(hash.ToBytes(), encoding)
		if err != nil {
			return fmt.Errorf("putting node %s in batch: %w", hash, err)
		}
	}
	return nil
}

// CountNodes counts stored nodes, stopping once limit is reached
// if limit is not zero.
func (s *NodeStore) CountNodes(limit uint64) (count uint64) {
	iter := s.table.NewIterator()
	defer iter.Release()

	for valid := iter.First(); valid; valid = iter.Next() {
		count++
		if limit != 0 && count == limit {
			break
		}
	}
	return count
}

// NewBatch returns a batch of the underlying database, to use with
// the InBatch methods of the stores sharing that database.
func (s *NodeStore) NewBatch() database.Batch {
	return s.db.NewBatch()
}
