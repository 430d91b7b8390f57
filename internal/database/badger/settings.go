// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package badger

import (
	"errors"
	"fmt"
	"path/filepath"
)

var ErrPathEmpty = errors.New("path is empty")

// Settings is the database settings.
type Settings struct {
	// Path is the database directory path to use.
	// It must be set unless InMemory is true.
	Path *string
	// InMemory is whether to use an in-memory database.
	// It defaults to false.
	InMemory *bool
}

// SetDefaults sets the default values on the settings.
func (s *Settings) SetDefaults() {
	if s.Path == nil {
		s.Path = new(string)
	}

	if s.InMemory == nil {
		s.InMemory = new(bool)
	}
}

// Validate validates the settings.
func (s Settings) Validate() (err error) {
	if *s.InMemory {
		return nil
	}

	if *s.Path == "" {
		return fmt.Errorf("%w", ErrPathEmpty)
	}

	_, err = filepath.Abs(*s.Path)
	if err != nil {
		return fmt.Errorf("changing path to absolute path: %w", err)
	}

	return nil
}
