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

package tlv

import (
	"encoding/binary"
	"fmt"
)

// ExtendedMarker is the type byte that introduces the extended TLV form.
const ExtendedMarker uint8 = 255

// Form distinguishes standard (1-byte length) from extended (2-byte length)
// TLV encoding.
type Form uint8

const (
	FormStandard Form = iota
	FormExtended
)

// TlvView is a zero-copy view onto one TLV record inside a message payload.
// Value aliases the original buffer; callers must not retain it past the
// buffer's lifetime if the buffer is reused.
type TlvView struct {
	Form  Form
	Type  uint8 // for FormExtended, this is the embedded_type
	Value []byte
	// Offset is the byte offset of this TLV within the payload it was parsed from.
	Offset int
}

// TruncatedTlvError reports a TLV header or value that runs past the end of
// the available payload (I4).
type TruncatedTlvError struct {
	Offset, Need, Have int
}

func (e *TruncatedTlvError) Error() string {
	return fmt.Sprintf("%v at offset %d: need %d bytes, have %d", ErrTruncatedTlv, e.Offset, e.Need, e.Have)
}
func (e *TruncatedTlvError) Unwrap() error { return ErrTruncatedTlv }

// EncodeTlv wraps value in standard form when it fits in 255 bytes, or
// extended form otherwise.
func EncodeTlv(typ uint8, value []byte) ([]byte, error) {
	if len(value) <= 255 {
		out := make([]byte, 2+len(value))
		out[0] = typ
		out[1] = uint8(len(value))
		copy(out[2:], value)
		return out, nil
	}
	if len(value) > 65535 {
		return nil, fmt.Errorf("%w: extended TLV value too large (%d > 65535)", ErrSizeConstraint, len(value))
	}
	out := make([]byte, 5+len(value))
	out[0] = ExtendedMarker
	out[1] = 0 // reserved
	out[2] = typ
	binary.LittleEndian.PutUint16(out[3:5], uint16(len(value)))
	copy(out[5:], value)
	return out, nil
}

// Walk parses every TLV in payload left-to-right, invoking visit for each.
// It stops and returns a *TruncatedTlvError if a TLV header or value would
// run past the end of payload. visit returning a non-nil error stops the
// walk and that error is returned unchanged.
func Walk(payload []byte, visit func(TlvView) error) error {
	offset := 0
	for offset < len(payload) {
		if offset+2 > len(payload) {
			return &TruncatedTlvError{Offset: offset, Need: 2, Have: len(payload) - offset}
		}
		typ := payload[offset]
		if typ == ExtendedMarker {
			if offset+5 > len(payload) {
				return &TruncatedTlvError{Offset: offset, Need: 5, Have: len(payload) - offset}
			}
			embeddedType := payload[offset+2]
			embeddedLen := int(binary.LittleEndian.Uint16(payload[offset+3 : offset+5]))
			need := 5 + embeddedLen
			if offset+need > len(payload) {
				return &TruncatedTlvError{Offset: offset, Need: need, Have: len(payload) - offset}
			}
			v := TlvView{
				Form:   FormExtended,
				Type:   embeddedType,
				Value:  payload[offset+5 : offset+5+embeddedLen],
				Offset: offset,
			}
			if err := visit(v); err != nil {
				return err
			}
			offset += need
			continue
		}
		length := int(payload[offset+1])
		need := 2 + length
		if offset+need > len(payload) {
			return &TruncatedTlvError{Offset: offset, Need: need, Have: len(payload) - offset}
		}
		v := TlvView{
			Form:   FormStandard,
			Type:   typ,
			Value:  payload[offset+2 : offset+2+length],
			Offset: offset,
		}
		if err := visit(v); err != nil {
			return err
		}
		offset += need
	}
	return nil
}

// ParseTlvExtensions walks payload and collects every TLV into a slice. It is
// the non-streaming convenience form of Walk for callers that want the whole
// list at once (most tests, and any handler that needs random access).
func ParseTlvExtensions(payload []byte) ([]TlvView, error) {
	var out []TlvView
	err := Walk(payload, func(v TlvView) error {
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
