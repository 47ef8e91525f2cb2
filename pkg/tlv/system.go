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

// Heartbeat is the zero-copy view of a TypeHeartbeat TLV value. Wire size:
// 24 bytes. System-domain TLVs are checksummed (I3).
type Heartbeat struct {
	Source      uint8
	UptimeSec   uint64
	TimestampNs uint64
}

func (h *Heartbeat) AsBytes() []byte {
	b := make([]byte, 24)
	b[0] = h.Source
	binary.LittleEndian.PutUint64(b[8:16], h.UptimeSec)
	binary.LittleEndian.PutUint64(b[16:24], h.TimestampNs)
	return b
}

func HeartbeatFromBytes(b []byte) (*Heartbeat, error) {
	if len(b) != 24 {
		return nil, fmt.Errorf("%w: Heartbeat needs 24 bytes, got %d", ErrSizeConstraint, len(b))
	}
	return &Heartbeat{
		Source:      b[0],
		UptimeSec:   binary.LittleEndian.Uint64(b[8:16]),
		TimestampNs: binary.LittleEndian.Uint64(b[16:24]),
	}, nil
}
