// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package safety checks a database directory before garbage collecting it.
package safety

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LockFileName is the name of the lock file the storage engines
// create in their database directory.
const LockFileName = "LOCK"

// Report is the result of a database access verification.
type Report struct {
	DatabaseAvailable bool   `json:"database_available"`
	Message           string `json:"message"`
}

// Verifier verifies the database directory at a path.
// It is read only and safe for concurrent use.
type Verifier struct {
	path string
}

// NewVerifier returns a verifier for the database directory at path.
func NewVerifier(path string) *Verifier {
	return &Verifier{path: path}
}

// VerifyDatabaseAccess reports the database as available only if its
// directory contains the engine lock file, meaning the engine opened it
// and this process holds it. An error is returned only if the
// filesystem cannot be queried.
func (v *Verifier) VerifyDatabaseAccess() (report Report, err error) {
	info, err := os.Stat(v.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Report{
			Message: fmt.Sprintf("database path %s does not exist", v.path),
		}, nil
	} else if err != nil {
		return report, fmt.Errorf("getting information on database path: %w", err)
	}

	if !info.IsDir() {
		return Report{
			Message: fmt.Sprintf("database path %s is not a directory", v.path),
		}, nil
	}

	lockPath := filepath.Join(v.path, LockFileName)
	lockInfo, err := os.Stat(lockPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Report{
			Message: fmt.Sprintf("database lock file %s not found: "+
				"the database is in use elsewhere or improperly initialised", lockPath),
		}, nil
	} else if err != nil {
		return report, fmt.Errorf("getting information on lock file: %w", err)
	}

	if lockInfo.IsDir() {
		return Report{
			Message: fmt.Sprintf("database lock file %s is a directory", lockPath),
		}, nil
	}

	return Report{
		DatabaseAvailable: true,
		Message:           fmt.Sprintf("database lock file %s verified", lockPath),
	}, nil
}
