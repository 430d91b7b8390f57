// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/lib/common"
)

var ErrMalformedRoot = errors.New("malformed root entry")

// Root is a committed state root.
type Root struct {
	TxOrder uint64      `json:"tx_order"`
	Hash    common.Hash `json:"hash"`
}

// RootStore stores committed state roots ordered by tx order.
type RootStore struct {
	table database.Table
}

// NewRootStore returns a root store using the root table of db.
func NewRootStore(db database.Database) *RootStore {
	return &RootStore{
		table: database.NewTable(db, common.RootPrefix),
	}
}

// rootKey inverts the tx order so that iterating keys in
// ascending order yields the most recent roots first.
func rootKey(txOrder uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, ^txOrder)
	return key
}

// PutRoot records root as the state root committed at txOrder.
func (s *RootStore) PutRoot(txOrder uint64, root common.Hash) error {
	return s.putRoot(s.table, txOrder, root)
}

// PutRootInBatch adds the write of a root to batch.
func (s *RootStore) PutRootInBatch(batch database.Batch, txOrder uint64, root common.Hash) error {
	return s.putRoot(s.table.BatchFrom(batch), txOrder, root)
}

func (*RootStore) putRoot(writer database.Writer, txOrder uint64, root common.Hash) error {
	err := writer.Put(rootKey(txOrder), root.ToBytes())
	if err != nil {
		return fmt.Errorf("putting root %s at tx order %d: %w", root, txOrder, err)
	}
	return nil
}

// GetRoot returns the root committed at txOrder.
func (s *RootStore) GetRoot(txOrder uint64) (root common.Hash, err error) {
	value, err := s.table.Get(rootKey(txOrder))
	if err != nil {
		return root, fmt.Errorf("getting root at tx order %d: %w", txOrder, err)
	}
	if len(value) != common.HashLength {
		return root, fmt.Errorf("%w: value of %d bytes at tx order %d",
			ErrMalformedRoot, len(value), txOrder)
	}
	return common.NewHash(value), nil
}

// LatestRoots returns at most n roots, most recent first.
func (s *RootStore) LatestRoots(n int) (roots []Root, err error) {
	if n <= 0 {
		return nil, nil
	}

	iter := s.table.NewIterator()
	defer iter.Release()

	for valid := iter.First(); valid && len(roots) < n; valid = iter.Next() {
		key, value := iter.Key(), iter.Value()
		if len(key) != 8 || len(value) != common.HashLength {
			return nil, fmt.Errorf("%w: key of %d bytes and value of %d bytes",
				ErrMalformedRoot, len(key), len(value))
		}
		roots = append(roots, Root{
			TxOrder: ^binary.BigEndian.Uint64(key),
			Hash:    common.NewHash(value),
		})
	}

	return roots, nil
}

// Count returns the number of committed roots.
func (s *RootStore) Count() (count uint64) {
	iter := s.table.NewIterator()
	defer iter.Release()

	for valid := iter.First(); valid; valid = iter.Next() {
		count++
	}
	return count
}
