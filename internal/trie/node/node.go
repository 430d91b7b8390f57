// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package node implements the state tree node format. Nodes are
// immutable and content addressed: a node is stored under the blake2b
// hash of its encoding, and branches reference children by hash.
package node

import (
	"fmt"

	"github.com/ChainSafe/stategc/lib/common"
)

// Kind is the kind of a node.
type Kind uint8

const (
	// Leaf is a node holding a key value pair, and optionally the
	// root of a nested tree (for example a table owned by the leaf).
	Leaf Kind = iota + 1
	// Branch is an internal node referencing up to 16 children.
	Branch
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Branch:
		return "branch"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ChildrenCapacity is the maximum number of children of a branch.
const ChildrenCapacity = 16

// Node is a decoded state tree node.
type Node struct {
	Kind Kind
	// Key is the key of a leaf, or the partial key of a branch.
	Key   []byte
	Value []byte
	// Children holds the hashes of the children of a branch, indexed
	// by nibble. Absent children are the empty hash.
	Children []common.Hash
	// ChildRoot is the root hash of a tree nested under a leaf,
	// or the empty hash if there is none.
	ChildRoot common.Hash
}

// NewLeaf returns a leaf node.
func NewLeaf(key, value []byte) *Node {
	return &Node{
		Kind:  Leaf,
		Key:   key,
		Value: value,
	}
}

// NewBranch returns a branch node with the given children
// placed at consecutive indexes.
func NewBranch(key []byte, children ...common.Hash) *Node {
	if len(children) > ChildrenCapacity {
		panic(fmt.Sprintf("branch cannot have %d children", len(children)))
	}
	n := &Node{
		Kind:     Branch,
		Key:      key,
		Children: make([]common.Hash, ChildrenCapacity),
	}
	copy(n.Children, children)
	return n
}

// ChildHashes returns the hashes of the nodes directly referenced
// by the node: the non empty children of a branch, or the nested
// tree root of a leaf.
func (n *Node) ChildHashes() (hashes []common.Hash) {
	switch n.Kind {
	case Branch:
		for _, child := range n.Children {
			if child.IsEmpty() {
				continue
			}
			hashes = append(hashes, child)
		}
	case Leaf:
		if !n.ChildRoot.IsEmpty() {
			hashes = append(hashes, n.ChildRoot)
		}
	}
	return hashes
}

func (n *Node) String() string {
	return fmt.Sprintf("%s key=0x%x value=0x%x children=%d",
		n.Kind, n.Key, n.Value, len(n.ChildHashes()))
}
