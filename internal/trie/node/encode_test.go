// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package node

import (
	"testing"

	"github.com/ChainSafe/stategc/lib/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Node_EncodeDecode(t *testing.T) {
	t.Parallel()

	withChildRoot := NewLeaf([]byte{1}, []byte{2})
	withChildRoot.ChildRoot = common.Hash{9}

	testCases := map[string]struct {
		node        *Node
		childHashes []common.Hash
	}{
		"leaf": {
			node: NewLeaf([]byte{1, 2}, []byte{3, 4}),
		},
		"leaf_with_nested_root": {
			node:        withChildRoot,
			childHashes: []common.Hash{{9}},
		},
		"branch": {
			node:        NewBranch([]byte{1}, common.Hash{1}, common.Hash{}, common.Hash{2}),
			childHashes: []common.Hash{{1}, {2}},
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			encoding, hash, err := testCase.node.EncodeAndHash()
			require.NoError(t, err)
			assert.Equal(t, common.Blake2bHash(encoding), hash)

			decoded, err := Decode(encoding)
			require.NoError(t, err)
			assert.Equal(t, testCase.node.Kind, decoded.Kind)
			assert.Equal(t, testCase.node.Key, decoded.Key)
			assert.Equal(t, testCase.node.Value, decoded.Value)
			assert.Equal(t, testCase.childHashes, decoded.ChildHashes())

			childHashes, err := ChildHashesFromEncoding(encoding)
			require.NoError(t, err)
			assert.Equal(t, testCase.childHashes, childHashes)
		})
	}
}

func Test_Node_Encode_errors(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		node       *Node
		errWrapped error
	}{
		"unknown_kind": {
			node:       &Node{Kind: 7},
			errWrapped: ErrUnknownNodeType,
		},
		"leaf_with_children": {
			node:       &Node{Kind: Leaf, Children: []common.Hash{{1}}},
			errWrapped: ErrLeafWithChildren,
		},
		"branch_missing_children": {
			node:       &Node{Kind: Branch, Children: []common.Hash{{1}}},
			errWrapped: ErrChildrenCount,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := testCase.node.Encode()
			assert.ErrorIs(t, err, testCase.errWrapped)
		})
	}
}

func Test_Decode_garbage(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte{0xff, 0x01})
	assert.ErrorIs(t, err, ErrDecodeNode)
}

func Test_NewBranch_tooManyChildren(t *testing.T) {
	t.Parallel()

	children := make([]common.Hash, ChildrenCapacity+1)
	assert.Panics(t, func() {
		NewBranch(nil, children...)
	})
}
