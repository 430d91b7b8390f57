// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package node

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/stategc/lib/common"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	ErrUnknownNodeType  = errors.New("unknown node type")
	ErrDecodeNode       = errors.New("cannot decode node")
	ErrChildrenCount    = errors.New("wrong number of children")
	ErrLeafWithChildren = errors.New("leaf node has children")
)

// encodedNode is the rlp layout of a node.
type encodedNode struct {
	Kind      uint8
	Key       []byte
	Value     []byte
	Children  []common.Hash
	ChildRoot common.Hash
}

// Encode returns the encoding of the node.
func (n *Node) Encode() (encoding []byte, err error) {
	switch n.Kind {
	case Leaf:
		if len(n.Children) > 0 {
			return nil, fmt.Errorf("%w", ErrLeafWithChildren)
		}
	case Branch:
		if len(n.Children) != ChildrenCapacity {
			return nil, fmt.Errorf("%w: %d", ErrChildrenCount, len(n.Children))
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownNodeType, n.Kind)
	}

	encoding, err = rlp.EncodeToBytes(encodedNode{
		Kind:      uint8(n.Kind),
		Key:       n.Key,
		Value:     n.Value,
		Children:  n.Children,
		ChildRoot: n.ChildRoot,
	})
	if err != nil {
		return nil, fmt.Errorf("rlp encoding node: %w", err)
	}
	return encoding, nil
}

// EncodeAndHash returns the encoding of the node and its hash.
func (n *Node) EncodeAndHash() (encoding []byte, hash common.Hash, err error) {
	encoding, err = n.Encode()
	if err != nil {
		return nil, common.Hash{}, err
	}
	return encoding, common.Blake2bHash(encoding), nil
}

// Decode decodes a node from its encoding.
func Decode(encoding []byte) (n *Node, err error) {
	var decoded encodedNode
	err = rlp.DecodeBytes(encoding, &decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecodeNode, err)
	}

	n = &Node{
		Kind:      Kind(decoded.Kind),
		Key:       decoded.Key,
		Value:     decoded.Value,
		ChildRoot: decoded.ChildRoot,
	}

	switch n.Kind {
	case Leaf:
		if len(decoded.Children) > 0 {
			return nil, fmt.Errorf("%w", ErrLeafWithChildren)
		}
	case Branch:
		if len(decoded.Children) != ChildrenCapacity {
			return nil, fmt.Errorf("%w: %d", ErrChildrenCount, len(decoded.Children))
		}
		n.Children = decoded.Children
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownNodeType, decoded.Kind)
	}

	return n, nil
}

// ChildHashesFromEncoding decodes an encoded node and returns the
// hashes of the nodes it references.
func ChildHashesFromEncoding(encoding []byte) (hashes []common.Hash, err error) {
	n, err := Decode(encoding)
	if err != nil {
		return nil, err
	}
	return n.ChildHashes(), nil
}
