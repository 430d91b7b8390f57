// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package marker implements the sets of node hashes found reachable
// during the mark phase of a garbage collection round.
package marker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ChainSafe/stategc/internal/log"
	"github.com/ChainSafe/stategc/lib/common"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "marker"))

// Marker records node hashes found reachable.
// Implementations are safe for concurrent use.
type Marker interface {
	// Mark marks the hash and returns true if it was not marked before.
	Mark(hash common.Hash) (newlyMarked bool, err error)
	IsMarked(hash common.Hash) (marked bool, err error)
	MarkedCount() uint64
	// Reset unmarks every hash.
	Reset() error
	Strategy() Strategy
}

// FalsePositiveEstimator is implemented by markers which may
// report a hash as marked when it was not.
type FalsePositiveEstimator interface {
	EstimatedFalsePositiveRate() float64
}

// Strategy is the kind of marker used.
type Strategy uint8

const (
	// Auto selects InMemory or Persistent, see SelectStrategy.
	Auto Strategy = iota
	InMemory
	Bloom
	Persistent
)

var ErrStrategyNotValid = errors.New("marker strategy is not valid")

func (s Strategy) String() string {
	switch s {
	case InMemory:
		return "in-memory"
	case Bloom:
		return "bloom"
	case Persistent:
		return "persistent"
	case Auto:
		return "auto"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() (text []byte, err error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStrategy(string(text))
	return err
}

// ParseStrategy parses a strategy from its string representation.
// Matching is case insensitive and accepts a few aliases.
func ParseStrategy(s string) (strategy Strategy, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in-memory", "inmemory", "memory":
		return InMemory, nil
	case "bloom":
		return Bloom, nil
	case "persistent", "disk":
		return Persistent, nil
	case "auto", "":
		return Auto, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrStrategyNotValid, s)
	}
}
