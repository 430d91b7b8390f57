// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sweep

import (
	"fmt"
	"time"
)

// Stats are the statistics of one or more sweeps.
type Stats struct {
	ScannedCount      uint64        `json:"scanned_count"`
	KeptCount         uint64        `json:"kept_count"`
	DeletedCount      uint64        `json:"deleted_count"`
	RecycleBinEntries uint64        `json:"recycle_bin_entries"`
	BytesEstimated    uint64        `json:"bytes_estimated"`
	Duration          time.Duration `json:"duration"`
}

// Add adds the other statistics to the statistics.
func (s *Stats) Add(other Stats) {
	s.ScannedCount += other.ScannedCount
	s.KeptCount += other.KeptCount
	s.DeletedCount += other.DeletedCount
	s.RecycleBinEntries += other.RecycleBinEntries
	s.BytesEstimated += other.BytesEstimated
	s.Duration += other.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned %d, kept %d, deleted %d, recycled %d, %d bytes in %s",
		s.ScannedCount, s.KeptCount, s.DeletedCount,
		s.RecycleBinEntries, s.BytesEstimated, s.Duration)
}
