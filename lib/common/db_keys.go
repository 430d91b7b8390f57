// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

// Table prefixes used in the state database.
const (
	// NodePrefix is the table holding encoded state nodes keyed by their hash.
	NodePrefix = "node_"
	// RootPrefix is the table holding committed state roots keyed by inverted tx order.
	RootPrefix = "root_"
	// StaleIndexPrefix is the table holding (tx order, node hash) stale records.
	StaleIndexPrefix = "stale_"
	// RefcountPrefix is the table holding node reference counts.
	RefcountPrefix = "refc_"
	// RecycleBinPrefix is the table holding swept nodes kept for recovery.
	RecycleBinPrefix = "recycle_"
	// ReachableSeenPrefix is the table used by the persistent marker.
	ReachableSeenPrefix = "reach_seen_"
)
