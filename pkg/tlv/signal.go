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

// SignalIdentity correlates a downstream Signal-domain TLV back to the
// strategy instance and signal id that produced it. Wire size: 24 bytes.
type SignalIdentity struct {
	SignalID    uint64
	StrategyID  uint32
	TimestampNs uint64
}

func (s *SignalIdentity) AsBytes() []byte {
	b := make([]byte, 24)
	binary.LittleEndian.PutUint64(b[0:8], s.SignalID)
	binary.LittleEndian.PutUint32(b[8:12], s.StrategyID)
	binary.LittleEndian.PutUint64(b[16:24], s.TimestampNs)
	return b
}

func SignalIdentityFromBytes(b []byte) (*SignalIdentity, error) {
	if len(b) != 24 {
		return nil, fmt.Errorf("%w: SignalIdentity needs 24 bytes, got %d", ErrSizeConstraint, len(b))
	}
	return &SignalIdentity{
		SignalID:    binary.LittleEndian.Uint64(b[0:8]),
		StrategyID:  binary.LittleEndian.Uint32(b[8:12]),
		TimestampNs: binary.LittleEndian.Uint64(b[16:24]),
	}, nil
}

// Economics carries the expected-profit/gas-cost/confidence triple a
// strategy attaches to a signal. Quantities are fixed-point, scaled by the
// domain-defined factor (see poolstate for the scale used on-chain amounts).
// Wire size: 24 bytes.
type Economics struct {
	ExpectedProfitQ int64
	GasCostQ        int64
	ConfidenceBps   uint16 // 0-10000
}

func (e *Economics) AsBytes() []byte {
	b := make([]byte, 24)
	binary.LittleEndian.PutUint64(b[0:8], uint64(e.ExpectedProfitQ))
	binary.LittleEndian.PutUint64(b[8:16], uint64(e.GasCostQ))
	binary.LittleEndian.PutUint16(b[16:18], e.ConfidenceBps)
	return b
}

func EconomicsFromBytes(b []byte) (*Economics, error) {
	if len(b) != 24 {
		return nil, fmt.Errorf("%w: Economics needs 24 bytes, got %d", ErrSizeConstraint, len(b))
	}
	return &Economics{
		ExpectedProfitQ: int64(binary.LittleEndian.Uint64(b[0:8])),
		GasCostQ:        int64(binary.LittleEndian.Uint64(b[8:16])),
		ConfidenceBps:   binary.LittleEndian.Uint16(b[16:18]),
	}, nil
}

// ArbitrageSignal identifies a two-pool arbitrage opportunity. Wire size: 88
// bytes.
type ArbitrageSignal struct {
	SignalID        uint64
	PoolA           [20]byte
	PoolB           [20]byte
	TokenIn         [20]byte
	ExpectedProfitQ int64
	TimestampNs     uint64
}

func (a *ArbitrageSignal) AsBytes() []byte {
	b := make([]byte, 88)
	binary.LittleEndian.PutUint64(b[0:8], a.SignalID)
	copy(b[8:28], a.PoolA[:])
	copy(b[28:48], a.PoolB[:])
	copy(b[48:68], a.TokenIn[:])
	binary.LittleEndian.PutUint64(b[68:76], uint64(a.ExpectedProfitQ))
	binary.LittleEndian.PutUint64(b[76:84], a.TimestampNs)
	return b
}

func ArbitrageSignalFromBytes(b []byte) (*ArbitrageSignal, error) {
	if len(b) != 88 {
		return nil, fmt.Errorf("%w: ArbitrageSignal needs 88 bytes, got %d", ErrSizeConstraint, len(b))
	}
	a := &ArbitrageSignal{SignalID: binary.LittleEndian.Uint64(b[0:8])}
	copy(a.PoolA[:], b[8:28])
	copy(a.PoolB[:], b[28:48])
	copy(a.TokenIn[:], b[48:68])
	a.ExpectedProfitQ = int64(binary.LittleEndian.Uint64(b[68:76]))
	a.TimestampNs = binary.LittleEndian.Uint64(b[76:84])
	return a, nil
}
