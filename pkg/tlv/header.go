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

// Package tlv implements the Protocol V2 wire format: a fixed 32-byte
// message header followed by one or more Type-Length-Value extensions.
// Encoding and decoding never panic; malformed input comes back as a
// typed error so callers at every hop (relay, consumer, tests) can log
// and drop instead of crashing.
package tlv

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Magic is the fixed little-endian sentinel at offset 0 of every message.
const Magic uint32 = 0xDEADBEEF

// HeaderSize is the fixed size in bytes of the Protocol V2 header.
const HeaderSize = 32

// Domain partitions TLV types into routing/checksum classes.
type Domain uint8

const (
	DomainMarketData Domain = 1
	DomainSignal     Domain = 2
	DomainExecution  Domain = 3
	DomainSystem     Domain = 4
)

func (d Domain) String() string {
	switch d {
	case DomainMarketData:
		return "MarketData"
	case DomainSignal:
		return "Signal"
	case DomainExecution:
		return "Execution"
	case DomainSystem:
		return "System"
	default:
		return fmt.Sprintf("Domain(%d)", uint8(d))
	}
}

// RequiresChecksum reports whether messages in this domain must carry and
// validate a CRC32 checksum over the payload. MarketData and Signal skip
// the check on the hot path; Execution and System enforce it.
func (d Domain) RequiresChecksum() bool {
	return d == DomainExecution || d == DomainSystem
}

// Header is the decoded form of the fixed 32-byte Protocol V2 header.
type Header struct {
	Magic       uint32
	RelayDomain Domain
	Source      uint8
	Version     uint8
	Flags       uint8
	Sequence    uint64
	TimestampNs uint64
	PayloadSize uint32
	Checksum    uint32
}

// Errors returned by the codec. Callers type-switch or errors.Is against
// these; none of them is fatal to the caller's process.
var (
	ErrMessageTooSmall  = fmt.Errorf("tlv: message too small")
	ErrInvalidMagic     = fmt.Errorf("tlv: invalid magic")
	ErrChecksumMismatch = fmt.Errorf("tlv: checksum mismatch")
	ErrReservedType     = fmt.Errorf("tlv: reserved type")
	ErrSizeConstraint   = fmt.Errorf("tlv: size constraint violation")
	ErrTruncatedTlv     = fmt.Errorf("tlv: truncated tlv")
)

// MessageTooSmallError carries the needed vs. available byte counts (I2).
type MessageTooSmallError struct {
	Need, Got int
}

func (e *MessageTooSmallError) Error() string {
	return fmt.Sprintf("%v: need %d, got %d", ErrMessageTooSmall, e.Need, e.Got)
}
func (e *MessageTooSmallError) Unwrap() error { return ErrMessageTooSmall }

// InvalidMagicError carries the magic value actually observed (I1).
type InvalidMagicError struct{ Got uint32 }

func (e *InvalidMagicError) Error() string {
	return fmt.Sprintf("%v: got 0x%08X", ErrInvalidMagic, e.Got)
}
func (e *InvalidMagicError) Unwrap() error { return ErrInvalidMagic }

// BuildMessage serializes the header and payload into a single buffer,
// computing the CRC32 checksum over body iff domain requires it (0 otherwise).
//
// body is copied as-is and must already hold the encoded TLV(s); the header
// itself carries no type field. BuildTlvMessage chooses the TLV form.
func BuildMessage(domain Domain, source uint8, sequence uint64, timestampNs uint64, body []byte) []byte {
	buf := make([]byte, HeaderSize+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	buf[4] = uint8(domain)
	buf[5] = source
	buf[6] = 2 // protocol version
	buf[7] = 0 // flags
	binary.LittleEndian.PutUint64(buf[8:16], sequence)
	binary.LittleEndian.PutUint64(buf[16:24], timestampNs)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(body)))
	var checksum uint32
	if domain.RequiresChecksum() {
		checksum = crc32.ChecksumIEEE(body)
	}
	binary.LittleEndian.PutUint32(buf[28:32], checksum)
	copy(buf[32:], body)
	return buf
}

// BuildTlvMessage encodes a single TLV (type, value) as the message body and
// wraps it with BuildMessage, choosing standard vs. extended TLV form based
// on len(value).
func BuildTlvMessage(domain Domain, source uint8, sequence uint64, timestampNs uint64, typ uint8, value []byte) ([]byte, error) {
	body, err := EncodeTlv(typ, value)
	if err != nil {
		return nil, err
	}
	return BuildMessage(domain, source, sequence, timestampNs, body), nil
}

// ParseHeader validates and decodes the 32-byte header, including the CRC32
// checksum when the domain requires one (I3).
func ParseHeader(b []byte) (Header, error) {
	h, err := parseHeaderCommon(b)
	if err != nil {
		return Header{}, err
	}
	if h.RelayDomain.RequiresChecksum() {
		if int(h.PayloadSize) > len(b)-HeaderSize {
			return Header{}, &MessageTooSmallError{Need: HeaderSize + int(h.PayloadSize), Got: len(b)}
		}
		payload := b[HeaderSize : HeaderSize+int(h.PayloadSize)]
		if crc32.ChecksumIEEE(payload) != h.Checksum {
			return Header{}, ErrChecksumMismatch
		}
	}
	return h, nil
}

// ParseHeaderFast decodes the header without CRC validation, regardless of
// domain. Used on the MarketData/Signal hot path where checksums are never
// enforced (callers must not use this for Execution/System messages).
func ParseHeaderFast(b []byte) (Header, error) {
	return parseHeaderCommon(b)
}

func parseHeaderCommon(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, &MessageTooSmallError{Need: HeaderSize, Got: len(b)}
	}
	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != Magic {
		return Header{}, &InvalidMagicError{Got: magic}
	}
	h := Header{
		Magic:       magic,
		RelayDomain: Domain(b[4]),
		Source:      b[5],
		Version:     b[6],
		Flags:       b[7],
		Sequence:    binary.LittleEndian.Uint64(b[8:16]),
		TimestampNs: binary.LittleEndian.Uint64(b[16:24]),
		PayloadSize: binary.LittleEndian.Uint32(b[24:28]),
		Checksum:    binary.LittleEndian.Uint32(b[28:32]),
	}
	// I2: the full message (header + payload) must fit in the buffer we were given.
	if HeaderSize+int(h.PayloadSize) > len(b) {
		return Header{}, &MessageTooSmallError{Need: HeaderSize + int(h.PayloadSize), Got: len(b)}
	}
	return h, nil
}

// TotalLen returns 32 + PayloadSize, the full on-wire length of the message
// this header describes.
func (h Header) TotalLen() int { return HeaderSize + int(h.PayloadSize) }
