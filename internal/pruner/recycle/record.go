// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package recycle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ChainSafe/stategc/lib/common"
)

const (
	recordVersion    byte = 1
	recordHeaderSize      = 1 + 8 + 8 + 8
)

var (
	ErrRecordVersion    = errors.New("recycle record version not supported")
	ErrRecordTooShort   = errors.New("recycle record too short")
	ErrChecksumMismatch = errors.New("recycle record checksum mismatch")
)

// Record is a node removed by the garbage collector and kept for recovery.
type Record struct {
	// Bytes is the encoded node as it was in the node store.
	Bytes []byte `json:"-"`
	// CreatedAt is when the node was moved to the recycle bin,
	// with a one second precision.
	CreatedAt    time.Time `json:"created_at"`
	OriginalSize uint64    `json:"original_size"`
	// Checksum is the xxhash64 of Bytes.
	Checksum uint64 `json:"checksum"`
}

// NewRecord returns a record for the node encoding created at createdAt.
func NewRecord(encoding []byte, createdAt time.Time) Record {
	return Record{
		Bytes:        encoding,
		CreatedAt:    time.Unix(createdAt.Unix(), 0).UTC(),
		OriginalSize: uint64(len(encoding)),
		Checksum:     common.Twox64(encoding),
	}
}

// Verify returns an error if the record bytes do not match its checksum.
func (r Record) Verify() error {
	checksum := common.Twox64(r.Bytes)
	if checksum != r.Checksum {
		return fmt.Errorf("%w: expected 0x%016x and got 0x%016x",
			ErrChecksumMismatch, r.Checksum, checksum)
	}
	return nil
}

type compressor interface {
	EncodeAll(src, dst []byte) []byte
}

type decompressor interface {
	DecodeAll(input, dst []byte) ([]byte, error)
}

// encodeRecord encodes the record as its version, its creation unix time,
// its original size and its checksum, followed by its compressed bytes.
func encodeRecord(record Record, encoder compressor) (value []byte) {
	value = make([]byte, recordHeaderSize, recordHeaderSize+len(record.Bytes))
	value[0] = recordVersion
	binary.BigEndian.PutUint64(value[1:9], uint64(record.CreatedAt.Unix()))
	binary.BigEndian.PutUint64(value[9:17], record.OriginalSize)
	binary.BigEndian.PutUint64(value[17:25], record.Checksum)
	return encoder.EncodeAll(record.Bytes, value)
}

// decodeHeader decodes every record field except its bytes.
func decodeHeader(value []byte) (record Record, err error) {
	if len(value) < recordHeaderSize {
		return record, fmt.Errorf("%w: %d bytes", ErrRecordTooShort, len(value))
	}
	if value[0] != recordVersion {
		return record, fmt.Errorf("%w: %d", ErrRecordVersion, value[0])
	}

	record.CreatedAt = time.Unix(int64(binary.BigEndian.Uint64(value[1:9])), 0).UTC()
	record.OriginalSize = binary.BigEndian.Uint64(value[9:17])
	record.Checksum = binary.BigEndian.Uint64(value[17:25])
	return record, nil
}

func decodeRecord(value []byte, decoder decompressor) (record Record, err error) {
	record, err = decodeHeader(value)
	if err != nil {
		return record, err
	}

	record.Bytes, err = decoder.DecodeAll(value[recordHeaderSize:], nil)
	if err != nil {
		return record, fmt.Errorf("decompressing record bytes: %w", err)
	}
	return record, nil
}
