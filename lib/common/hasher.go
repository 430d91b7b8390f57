// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"github.com/OneOfOne/xxhash"
	"golang.org/x/crypto/blake2b"
)

// Blake2bHash returns the 256-bit blake2b hash of the input data
func Blake2bHash(in []byte) Hash {
	return blake2b.Sum256(in)
}

// Twox64 returns the 64-bit xxhash checksum of the input data.
func Twox64(in []byte) uint64 {
	return xxhash.Checksum64(in)
}
