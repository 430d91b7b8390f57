// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package reachable marks every state node reachable from a set of roots.
package reachable

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/log"
	"github.com/ChainSafe/stategc/internal/pruner/marker"
	"github.com/ChainSafe/stategc/internal/trie/node"
	"github.com/ChainSafe/stategc/lib/common"
	"golang.org/x/sync/errgroup"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "reachable"))

// NodeGetter gets encoded nodes by hash.
type NodeGetter interface {
	GetNode(hash common.Hash) (encoding []byte, err error)
}

// Builder traces the node graph from roots, marking every node visited.
type Builder struct {
	nodes  NodeGetter
	marker marker.Marker
}

// NewBuilder returns a builder reading nodes from nodes and
// recording them in marker.
func NewBuilder(nodes NodeGetter, marker marker.Marker) *Builder {
	return &Builder{
		nodes:  nodes,
		marker: marker,
	}
}

type counters struct {
	scanned uint64
	missing uint64
}

// Build marks every node reachable from roots using the given number of
// workers, and returns the number of nodes newly marked. The frontier is
// traversed level by level: each level is split between the workers and
// their discovered children are merged to form the next level.
// A node missing from the store is marked and counted, but has no children.
func (b *Builder) Build(ctx context.Context, roots []common.Hash, workers int) (
	scanned uint64, err error) {
	if len(roots) == 0 {
		return 0, nil
	}
	if workers < 1 {
		workers = 1
	}

	start := time.Now()
	var c counters
	frontier := roots
	depth := 0
	for len(frontier) > 0 {
		frontier, err = b.traverseLevel(ctx, frontier, workers, &c)
		if err != nil {
			return c.scanned, fmt.Errorf("at depth %d: %w", depth, err)
		}
		depth++
	}

	if c.missing > 0 {
		logger.Warnf("%d reachable nodes are missing from the node store", c.missing)
	}
	logger.Debugf("marked %d nodes up to depth %d in %s", c.scanned, depth, time.Since(start))
	return c.scanned, nil
}

func (b *Builder) traverseLevel(ctx context.Context, frontier []common.Hash,
	workers int, c *counters) (next []common.Hash, err error) {
	if workers > len(frontier) {
		workers = len(frontier)
	}

	children := make([][]common.Hash, workers)
	group, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		group.Go(func() error {
			for i := w; i < len(frontier); i += workers {
				err := ctx.Err()
				if err != nil {
					return err
				}

				hashes, err := b.visit(frontier[i], c)
				if err != nil {
					return err
				}
				children[w] = append(children[w], hashes...)
			}
			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		return nil, err
	}

	for _, hashes := range children {
		next = append(next, hashes...)
	}
	return next, nil
}

// visit marks the node and returns its children if it was not marked before.
func (b *Builder) visit(hash common.Hash, c *counters) (children []common.Hash, err error) {
	newlyMarked, err := b.marker.Mark(hash)
	if err != nil {
		return nil, fmt.Errorf("marking node %s: %w", hash, err)
	}
	if !newlyMarked {
		return nil, nil
	}
	atomic.AddUint64(&c.scanned, 1)

	encoding, err := b.nodes.GetNode(hash)
	if errors.Is(err, database.ErrNotFound) {
		atomic.AddUint64(&c.missing, 1)
		logger.Debugf("reachable node %s not found in node store", hash)
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("getting node: %w", err)
	}

	children, err = node.ChildHashesFromEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("decoding node %s: %w", hash, err)
	}
	return children, nil
}
