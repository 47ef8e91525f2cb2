// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package poolcache is the cold on-disk pool cache (spec §4.4): a
// fixed-size snapshot file plus an append-only journal, kept current by a
// dedicated writer goroutine, and a discovery de-dup layer for RPC-backed
// pool lookups.
package poolcache

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const fileMagic uint32 = 0x504C4348 // "PLCH"
const fileVersion uint8 = 1

// FileHeaderSize is the fixed size, in bytes, of the snapshot file header.
const FileHeaderSize = 32

// FileHeader is the fixed-size header at the start of a snapshot file
// (spec §4.4: "magic, version, chain_id, pool_count, created_at, integrity
// checksum").
type FileHeader struct {
	Magic     uint32
	Version   uint8
	ChainID   uint64
	PoolCount uint32
	CreatedAt uint64
	Checksum  uint32 // CRC32-IEEE of the pool-record region that follows
}

// AsBytes packs h into FileHeaderSize bytes, little-endian.
func (h FileHeader) AsBytes() []byte {
	b := make([]byte, FileHeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	b[4] = h.Version
	binary.LittleEndian.PutUint64(b[5:13], h.ChainID)
	binary.LittleEndian.PutUint32(b[13:17], h.PoolCount)
	binary.LittleEndian.PutUint64(b[17:25], h.CreatedAt)
	binary.LittleEndian.PutUint32(b[25:29], h.Checksum)
	return b
}

// FileHeaderFromBytes unpacks a header from its first FileHeaderSize bytes.
func FileHeaderFromBytes(b []byte) (FileHeader, error) {
	if len(b) < FileHeaderSize {
		return FileHeader{}, fmt.Errorf("poolcache: header too small: need %d, got %d", FileHeaderSize, len(b))
	}
	return FileHeader{
		Magic:     binary.LittleEndian.Uint32(b[0:4]),
		Version:   b[4],
		ChainID:   binary.LittleEndian.Uint64(b[5:13]),
		PoolCount: binary.LittleEndian.Uint32(b[13:17]),
		CreatedAt: binary.LittleEndian.Uint64(b[17:25]),
		Checksum:  binary.LittleEndian.Uint32(b[25:29]),
	}, nil
}

// Validate reports whether the header looks like a well-formed cache file
// (spec §4.4: "On header-invalid, treat as empty cache and log a warning;
// never crash" — this is the check the load path uses to make that call).
func (h FileHeader) Validate() error {
	if h.Magic != fileMagic {
		return fmt.Errorf("poolcache: bad magic %#x", h.Magic)
	}
	if h.Version != fileVersion {
		return fmt.Errorf("poolcache: unsupported version %d", h.Version)
	}
	return nil
}

// PoolType enumerates the cached pool's AMM variant, mirroring
// CachePoolType in the original's TLV schema.
type PoolType uint8

const (
	PoolTypeUnknown PoolType = iota
	PoolTypeUniswapV2
	PoolTypeUniswapV3
	PoolTypeSushiSwapV2
	PoolTypeQuickSwapV3
	PoolTypeCurveV2
	PoolTypeBalancerV2
)

// RecordSize is the fixed, packed, zero-copy size of one PoolRecord.
const RecordSize = 20 + 20 + 20 + 1 + 1 + 1 + 1 /*pad*/ + 4 + 2 + 2 /*pad*/ + 8 + 8

// PoolRecord is one fixed-size entry in the snapshot file, and the payload
// carried by every journal entry.
type PoolRecord struct {
	PoolAddr       [20]byte
	Token0Addr     [20]byte
	Token1Addr     [20]byte
	Token0Decimals uint8
	Token1Decimals uint8
	PoolType       PoolType
	FeeTier        uint32
	Venue          uint16
	DiscoveredAt   uint64
	LastSeen       uint64
}

// AsBytes packs r into RecordSize bytes, little-endian, with explicit
// padding so the layout is stable across Go versions (spec §4.4: "padded
// to a stable size").
func (r PoolRecord) AsBytes() []byte {
	b := make([]byte, RecordSize)
	off := 0
	copy(b[off:off+20], r.PoolAddr[:])
	off += 20
	copy(b[off:off+20], r.Token0Addr[:])
	off += 20
	copy(b[off:off+20], r.Token1Addr[:])
	off += 20
	b[off] = r.Token0Decimals
	off++
	b[off] = r.Token1Decimals
	off++
	b[off] = byte(r.PoolType)
	off++
	off++ // pad
	binary.LittleEndian.PutUint32(b[off:off+4], r.FeeTier)
	off += 4
	binary.LittleEndian.PutUint16(b[off:off+2], r.Venue)
	off += 2
	off += 2 // pad
	binary.LittleEndian.PutUint64(b[off:off+8], r.DiscoveredAt)
	off += 8
	binary.LittleEndian.PutUint64(b[off:off+8], r.LastSeen)
	return b
}

// PoolRecordFromBytes unpacks a PoolRecord from its first RecordSize bytes.
func PoolRecordFromBytes(b []byte) (PoolRecord, error) {
	if len(b) < RecordSize {
		return PoolRecord{}, fmt.Errorf("poolcache: record too small: need %d, got %d", RecordSize, len(b))
	}
	var r PoolRecord
	off := 0
	copy(r.PoolAddr[:], b[off:off+20])
	off += 20
	copy(r.Token0Addr[:], b[off:off+20])
	off += 20
	copy(r.Token1Addr[:], b[off:off+20])
	off += 20
	r.Token0Decimals = b[off]
	off++
	r.Token1Decimals = b[off]
	off++
	r.PoolType = PoolType(b[off])
	off++
	off++ // pad
	r.FeeTier = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	r.Venue = binary.LittleEndian.Uint16(b[off : off+2])
	off += 2
	off += 2 // pad
	r.DiscoveredAt = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	r.LastSeen = binary.LittleEndian.Uint64(b[off : off+8])
	return r, nil
}

// checksumRecords computes the CRC32-IEEE checksum a FileHeader should
// carry for a given ordered set of packed records.
func checksumRecords(records [][]byte) uint32 {
	crc := crc32.NewIEEE()
	for _, r := range records {
		_, _ = crc.Write(r)
	}
	return crc.Sum32()
}
