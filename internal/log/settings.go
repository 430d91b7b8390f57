// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"io"
	"os"
)

type settings struct {
	writer  io.Writer
	level   *Level
	caller  *bool
	colour  *bool
	context []contextKeyValues
}

type contextKeyValues struct {
	key    string
	values []string
}

func newSettings(options []Option) (s settings) {
	for _, option := range options {
		option(&s)
	}
	return s
}

// mergeWith sets unset fields of s using the fields of other.
// Context key values of other are prepended to the ones of s.
func (s *settings) mergeWith(other settings) {
	if s.writer == nil {
		s.writer = other.writer
	}

	if s.level == nil && other.level != nil {
		level := *other.level
		s.level = &level
	}

	if s.caller == nil && other.caller != nil {
		caller := *other.caller
		s.caller = &caller
	}

	if s.colour == nil && other.colour != nil {
		colour := *other.colour
		s.colour = &colour
	}

	if len(other.context) > 0 {
		context := make([]contextKeyValues, 0, len(other.context)+len(s.context))
		for _, kv := range other.context {
			context = append(context, contextKeyValues{
				key:    kv.key,
				values: append([]string(nil), kv.values...),
			})
		}
		s.context = append(context, s.context...)
	}
}

// overrideWith sets every field of s that is set in other.
func (s *settings) overrideWith(other settings) {
	if other.writer != nil {
		s.writer = other.writer
	}

	if other.level != nil {
		level := *other.level
		s.level = &level
	}

	if other.caller != nil {
		caller := *other.caller
		s.caller = &caller
	}

	if other.colour != nil {
		colour := *other.colour
		s.colour = &colour
	}

	for _, kv := range other.context {
		for _, value := range kv.values {
			AddContext(kv.key, value)(s)
		}
	}
}

func (s *settings) setDefaults() {
	if s.writer == nil {
		s.writer = os.Stdout
	}

	if s.level == nil {
		level := Info
		s.level = &level
	}

	if s.caller == nil {
		caller := false
		s.caller = &caller
	}

	if s.colour == nil {
		colour := false
		s.colour = &colour
	}
}
