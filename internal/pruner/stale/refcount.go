// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package stale

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/lib/common"
)

var ErrMalformedRefcount = errors.New("malformed refcount value")

type refcountEntry struct {
	count  uint32
	exists bool
}

// decrement decrements the entry, saturating at zero. A missing entry
// is left missing since nothing ever referenced the node.
func decrement(nodeHash common.Hash, entry refcountEntry) refcountEntry {
	if !entry.exists {
		logger.Warnf("decrementing refcount of node %s without refcount entry, skipping", nodeHash)
		return entry
	}
	if entry.count > 0 {
		entry.count--
	}
	return entry
}

// write writes the entry to the writer, removing it if its count is zero.
func (e refcountEntry) write(writer database.Writer, nodeHash common.Hash) error {
	if !e.exists {
		return nil
	}
	if e.count == 0 {
		return writer.Del(nodeHash.ToBytes())
	}
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, e.count)
	return writer.Put(nodeHash.ToBytes(), value)
}

func (s *Store) getRefcount(nodeHash common.Hash) (count uint32, exists bool, err error) {
	value, err := s.refcounts.Get(nodeHash.ToBytes())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("getting refcount of node %s: %w", nodeHash, err)
	}

	if len(value) != 4 {
		return 0, false, fmt.Errorf("%w: %d bytes for node %s", ErrMalformedRefcount, len(value), nodeHash)
	}
	return binary.BigEndian.Uint32(value), true, nil
}

// IncNodeRefcount increments the reference count of the node,
// creating it with a count of one if it does not exist.
func (s *Store) IncNodeRefcount(nodeHash common.Hash) error {
	s.refcountMutex.Lock()
	defer s.refcountMutex.Unlock()

	count, _, err := s.getRefcount(nodeHash)
	if err != nil {
		return err
	}

	entry := refcountEntry{count: count + 1, exists: true}
	err = entry.write(s.refcounts, nodeHash)
	if err != nil {
		return fmt.Errorf("writing refcount of node %s: %w", nodeHash, err)
	}
	return nil
}

// DecNodeRefcount decrements the reference count of the node.
// The entry is removed once its count reaches zero, and a missing
// entry is logged and left untouched.
func (s *Store) DecNodeRefcount(nodeHash common.Hash) error {
	s.refcountMutex.Lock()
	defer s.refcountMutex.Unlock()

	var entry refcountEntry
	var err error
	entry.count, entry.exists, err = s.getRefcount(nodeHash)
	if err != nil {
		return err
	}

	entry = decrement(nodeHash, entry)
	err = entry.write(s.refcounts, nodeHash)
	if err != nil {
		return fmt.Errorf("writing refcount of node %s: %w", nodeHash, err)
	}
	return nil
}

// GetNodeRefcount returns the reference count of the node, and
// whether an entry exists for it. A missing entry counts as zero.
func (s *Store) GetNodeRefcount(nodeHash common.Hash) (count uint32, exists bool, err error) {
	return s.getRefcount(nodeHash)
}

// RemoveNodeRefcount removes the reference count entry of the node.
func (s *Store) RemoveNodeRefcount(nodeHash common.Hash) error {
	s.refcountMutex.Lock()
	defer s.refcountMutex.Unlock()

	err := s.refcounts.Del(nodeHash.ToBytes())
	if err != nil {
		return fmt.Errorf("deleting refcount of node %s: %w", nodeHash, err)
	}
	return nil
}
