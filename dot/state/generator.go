// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"

	"github.com/ChainSafe/stategc/internal/trie/node"
	"github.com/ChainSafe/stategc/lib/common"
)

var (
	ErrWidthOutOfRange = errors.New("width out of range")
	ErrNoGenesis       = errors.New("genesis not committed")
)

// Generator produces a history of state roots over a two levels tree of
// width branches holding width leaves each. Every update rewrites a few
// leaves, their parent branches and the root, sharing all the unchanged
// subtrees with the previous root, and records the replaced nodes as stale.
// It is used to seed development databases and in tests.
type Generator struct {
	committer *Committer
	width     int
	txOrder   uint64
	// values[b][l] is the value of leaf l of branch b.
	values   [][][]byte
	leaves   [][]common.Hash
	branches []common.Hash
	root     common.Hash
}

// NewGenerator returns a generator committing with committer.
func NewGenerator(committer *Committer, width int) (*Generator, error) {
	if width < 1 || width > node.ChildrenCapacity {
		return nil, fmt.Errorf("%w: %d must be between 1 and %d",
			ErrWidthOutOfRange, width, node.ChildrenCapacity)
	}
	return &Generator{
		committer: committer,
		width:     width,
	}, nil
}

// Root returns the latest root generated.
func (g *Generator) Root() Root {
	return Root{TxOrder: g.txOrder, Hash: g.root}
}

// Genesis commits the initial tree at tx order 0.
func (g *Generator) Genesis() (root Root, err error) {
	g.values = make([][][]byte, g.width)
	g.leaves = make([][]common.Hash, g.width)
	g.branches = make([]common.Hash, g.width)

	newNodes := make(map[common.Hash][]byte)
	for b := 0; b < g.width; b++ {
		g.values[b] = make([][]byte, g.width)
		g.leaves[b] = make([]common.Hash, g.width)
		for l := 0; l < g.width; l++ {
			g.values[b][l] = leafValue(0, b, l)
			g.leaves[b][l], err = g.encodeLeaf(newNodes, b, l)
			if err != nil {
				return root, err
			}
		}
		g.branches[b], err = g.encodeBranch(newNodes, b)
		if err != nil {
			return root, err
		}
	}

	g.root, err = g.encodeRoot(newNodes)
	if err != nil {
		return root, err
	}

	err = g.committer.Commit(g.txOrder, g.root, newNodes, nil)
	if err != nil {
		return root, fmt.Errorf("committing genesis: %w", err)
	}
	return g.Root(), nil
}

// Update rewrites up to updates random leaves and commits the
// resulting root at the next tx order.
func (g *Generator) Update(random *rand.Rand, updates int) (root Root, err error) {
	if g.values == nil {
		return root, fmt.Errorf("%w", ErrNoGenesis)
	}

	g.txOrder++
	newNodes := make(map[common.Hash][]byte)
	var superseded []common.Hash
	touchedBranches := make(map[int]struct{})
	touchedLeaves := make(map[[2]int]struct{})

	for i := 0; i < updates; i++ {
		b, l := random.Intn(g.width), random.Intn(g.width)
		if _, ok := touchedLeaves[[2]int{b, l}]; ok {
			continue
		}
		touchedLeaves[[2]int{b, l}] = struct{}{}

		superseded = append(superseded, g.leaves[b][l])
		g.values[b][l] = leafValue(g.txOrder, b, l)
		g.leaves[b][l], err = g.encodeLeaf(newNodes, b, l)
		if err != nil {
			return root, err
		}
		touchedBranches[b] = struct{}{}
	}

	for b := range touchedBranches {
		superseded = append(superseded, g.branches[b])
		g.branches[b], err = g.encodeBranch(newNodes, b)
		if err != nil {
			return root, err
		}
	}

	if len(touchedBranches) > 0 {
		superseded = append(superseded, g.root)
		g.root, err = g.encodeRoot(newNodes)
		if err != nil {
			return root, err
		}
	}

	err = g.committer.Commit(g.txOrder, g.root, newNodes, superseded)
	if err != nil {
		return root, fmt.Errorf("committing tx order %d: %w", g.txOrder, err)
	}
	return g.Root(), nil
}

// LiveNodes returns the hashes of every node of the latest root.
func (g *Generator) LiveNodes() (hashes []common.Hash) {
	hashes = append(hashes, g.root)
	for b := range g.branches {
		hashes = append(hashes, g.branches[b])
		hashes = append(hashes, g.leaves[b]...)
	}
	return hashes
}

func leafValue(txOrder uint64, b, l int) []byte {
	value := make([]byte, 10)
	binary.BigEndian.PutUint64(value, txOrder)
	value[8], value[9] = byte(b), byte(l)
	return value
}

func (g *Generator) encodeLeaf(newNodes map[common.Hash][]byte, b, l int) (common.Hash, error) {
	return addNode(newNodes, node.NewLeaf([]byte{byte(b), byte(l)}, g.values[b][l]))
}

func (g *Generator) encodeBranch(newNodes map[common.Hash][]byte, b int) (common.Hash, error) {
	return addNode(newNodes, node.NewBranch([]byte{byte(b)}, g.leaves[b]...))
}

func (g *Generator) encodeRoot(newNodes map[common.Hash][]byte) (common.Hash, error) {
	return addNode(newNodes, node.NewBranch(nil, g.branches...))
}

func addNode(newNodes map[common.Hash][]byte, n *node.Node) (common.Hash, error) {
	encoding, hash, err := n.EncodeAndHash()
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding %s: %w", n.Kind, err)
	}
	newNodes[hash] = encoding
	return hash, nil
}
