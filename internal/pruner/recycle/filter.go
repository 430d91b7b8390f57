// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package recycle

import "time"

// Filter selects records. Zero fields are ignored.
type Filter struct {
	// OlderThan matches records created strictly before it.
	OlderThan time.Time
	// NewerThan matches records created strictly after it.
	NewerThan time.Time
	// MinSize matches records of an original size of at least MinSize bytes.
	MinSize uint64
	// MaxSize matches records of an original size of at most MaxSize bytes.
	MaxSize uint64
}

// Matches returns true if the record matches every set field of the filter.
func (f Filter) Matches(record Record) bool {
	switch {
	case !f.OlderThan.IsZero() && !record.CreatedAt.Before(f.OlderThan):
		return false
	case !f.NewerThan.IsZero() && !record.CreatedAt.After(f.NewerThan):
		return false
	case f.MinSize != 0 && record.OriginalSize < f.MinSize:
		return false
	case f.MaxSize != 0 && record.OriginalSize > f.MaxSize:
		return false
	}
	return true
}
