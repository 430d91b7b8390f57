// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ChainSafe/stategc/internal/database"
	"github.com/ChainSafe/stategc/internal/database/badger"
	"github.com/ChainSafe/stategc/internal/database/memory"
)

const (
	backendPebble  = "pebble"
	backendLevelDB = "leveldb"
	backendBadger  = "badger"
	backendMemory  = "memory"
)

var ErrBackendNotValid = errors.New("database backend is not valid")

// openDatabase opens the database described by config.
// The memory backend is only useful for testing.
func openDatabase(config DatabaseConfig) (db database.Database, err error) {
	switch strings.ToLower(config.Backend) {
	case backendPebble, "":
		db, err = database.NewPebble(config.DataDir, false)
	case backendLevelDB:
		db, err = database.NewLevelDB(config.DataDir, false)
	case backendBadger:
		inMemory := false
		db, err = badger.New(badger.Settings{
			Path:     &config.DataDir,
			InMemory: &inMemory,
		})
	case backendMemory:
		db = memory.New()
	default:
		return nil, fmt.Errorf("%w: %q", ErrBackendNotValid, config.Backend)
	}

	if err != nil {
		return nil, fmt.Errorf("opening %s database at %s: %w", config.Backend, config.DataDir, err)
	}
	logger.Debugf("opened %s database at %s", config.Backend, config.DataDir)
	return db, nil
}

func closeDatabase(db database.Database) {
	err := db.Close()
	if err != nil {
		logger.Errorf("closing database: %s", err)
	}
}
