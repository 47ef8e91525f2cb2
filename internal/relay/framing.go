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

// Package relay implements the domain-sharded message fan-out fabric: a
// relay accepts bidirectional local-socket connections and forwards every
// complete Protocol V2 message from any peer to every other connected peer.
// It is a best-effort multicaster, not a broker with durable queues — a
// slow consumer only backpressures its own connection (spec §4.2).
package relay

import (
	"bytes"
	"log"

	"protov2/pkg/tlv"
)

// maxResyncWindow bounds how much garbage a connection's buffer may
// accumulate before being dropped outright, per spec §4.2 step 6.
const maxResyncWindow = 16 * 1024

// magicLE is the on-wire little-endian byte encoding of tlv.Magic, used to
// scan forward for the next candidate header start during resync.
var magicLE = []byte{0xEF, 0xBE, 0xAD, 0xDE}

// Framer recovers message boundaries from a byte stream using the
// self-describing 32-byte header, per spec §4.2.
type Framer struct {
	buf []byte

	ResyncSkipped      int
	GarbageDropped     int
	ChecksumMismatches int
}

// NewFramer returns an empty Framer.
func NewFramer() *Framer { return &Framer{} }

// Feed appends data to the internal buffer and extracts every complete,
// checksum-valid message now available. Incomplete trailing bytes remain
// buffered for the next Feed call. Messages that fail their domain's
// checksum policy are dropped (counted, not returned) rather than
// propagated — a broken producer must not poison other peers.
func (f *Framer) Feed(data []byte) [][]byte {
	f.buf = append(f.buf, data...)
	var frames [][]byte

	for {
		if len(f.buf) < tlv.HeaderSize {
			break
		}
		idx := bytes.Index(f.buf, magicLE)
		if idx < 0 {
			// No candidate header anywhere in the buffer. Keep the magic-length
			// tail (a partial magic sequence may yet complete) and drop the rest,
			// bounded by maxResyncWindow so a garbage stream can't grow forever.
			if len(f.buf) > maxResyncWindow {
				f.GarbageDropped += len(f.buf)
				f.buf = f.buf[:0]
			} else if len(f.buf) > len(magicLE)-1 {
				keep := len(magicLE) - 1
				f.ResyncSkipped += len(f.buf) - keep
				f.buf = f.buf[len(f.buf)-keep:]
			}
			break
		}
		if idx > 0 {
			f.ResyncSkipped += idx
			f.buf = f.buf[idx:]
		}
		if len(f.buf) < tlv.HeaderSize {
			break
		}
		hdr, err := tlv.ParseHeaderFast(f.buf)
		if err != nil {
			// Header fields are readable but the declared payload isn't fully
			// buffered yet (I2) — wait for more bytes.
			if len(f.buf) > maxResyncWindow {
				f.GarbageDropped += len(f.buf)
				f.buf = f.buf[:0]
			}
			break
		}
		total := hdr.TotalLen()
		frame := make([]byte, total)
		copy(frame, f.buf[:total])
		f.buf = f.buf[total:]

		if _, err := tlv.ParseHeader(frame); err != nil {
			// Checksum mismatch on a domain that enforces it (I3). Drop just
			// this frame; the connection and its peers are unaffected.
			f.ChecksumMismatches++
			log.Printf("relay: dropping frame: domain=%s source=%d seq=%d: %v",
				hdr.RelayDomain, hdr.Source, hdr.Sequence, err)
			continue
		}
		frames = append(frames, frame)
	}
	return frames
}
