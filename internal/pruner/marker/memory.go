// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package marker

import (
	"sync"

	"github.com/ChainSafe/stategc/lib/common"
)

var _ Marker = (*MemoryMarker)(nil)

// MemoryMarker is an exact set of hashes held in memory.
type MemoryMarker struct {
	mutex  sync.RWMutex
	marked map[common.Hash]struct{}
}

// NewMemory returns an empty in memory marker.
func NewMemory() *MemoryMarker {
	return &MemoryMarker{
		marked: make(map[common.Hash]struct{}),
	}
}

func (m *MemoryMarker) Mark(hash common.Hash) (newlyMarked bool, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.marked[hash]; ok {
		return false, nil
	}
	m.marked[hash] = struct{}{}
	return true, nil
}

func (m *MemoryMarker) IsMarked(hash common.Hash) (marked bool, err error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, marked = m.marked[hash]
	return marked, nil
}

func (m *MemoryMarker) MarkedCount() uint64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return uint64(len(m.marked))
}

func (m *MemoryMarker) Reset() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.marked = make(map[common.Hash]struct{})
	return nil
}

func (*MemoryMarker) Strategy() Strategy { return InMemory }
