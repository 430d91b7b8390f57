// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package gc

import "fmt"

// State is the phase a garbage collector is in.
type State uint8

const (
	Idle State = iota
	Validating
	Marking
	Sweeping
	Compacting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Marking:
		return "marking"
	case Sweeping:
		return "sweeping"
	case Compacting:
		return "compacting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}
