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

// Package poolstate is the concurrent pool-state manager (spec §4.3): a
// single map from pool address to live pool state, kept current by applying
// sequenced Sync/Swap/Mint/Burn/State events, with secondary indices for
// token and token-pair lookups used by downstream arbitrage detectors.
package poolstate

import "math/big"

// Addr is a 20-byte chain address (pool or token). Never truncated to a
// narrower identity anywhere in this package.
type Addr [20]byte

// Less reports whether a sorts before b in byte order, used for the
// lock-acquisition order required when a caller holds two pool locks at
// once (spec §4.3 "Lock order for multi-pool operations").
func (a Addr) Less(b Addr) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Protocol tags which AMM variant produced a pool's state.
type Protocol uint8

const (
	ProtocolUnknown Protocol = iota
	ProtocolV2
	ProtocolV3
)

func (p Protocol) String() string {
	switch p {
	case ProtocolV2:
		return "v2"
	case ProtocolV3:
		return "v3"
	default:
		return "unknown"
	}
}

// ReserveScale is the 1e8 fixed-point factor for V2 reserve quantities
// (spec §4.3: "decimals scaled by the domain-defined factor"), matching the
// 1e8 scale used by the original pool-state manager. Nothing in this
// package divides by it: PoolState keeps the raw on-wire reserve integers.
var ReserveScale = big.NewInt(100_000_000)

// PoolState is the complete, point-in-time state of a single pool. It is
// always accessed through a poolHandle's RWMutex; callers never see a
// pointer into the live map, only a copy produced by Manager.GetPool.
type PoolState struct {
	PoolAddr   Addr
	Token0Addr Addr
	Token1Addr Addr
	Protocol   Protocol
	FeeTier    uint32

	// V2 fields. Nil when the pool has never seen a Sync event.
	Reserve0 *big.Int
	Reserve1 *big.Int

	// V3 fields. Nil when the pool has never seen a V3 Swap event.
	SqrtPriceX96 *big.Int
	Tick         int32
	Liquidity    *big.Int

	LastUpdateNs uint64
	LastBlock    uint64
	Initialized  bool
}

// clone returns a deep copy safe to hand to a caller outside the per-pool
// lock (big.Int is not safe to mutate-in-place across goroutines).
func (p PoolState) clone() PoolState {
	out := p
	out.Reserve0 = cloneBigInt(p.Reserve0)
	out.Reserve1 = cloneBigInt(p.Reserve1)
	out.SqrtPriceX96 = cloneBigInt(p.SqrtPriceX96)
	out.Liquidity = cloneBigInt(p.Liquidity)
	return out
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// IsReady reports whether the pool has enough data to price, per protocol.
func (p PoolState) IsReady() bool {
	switch p.Protocol {
	case ProtocolV2:
		return p.Reserve0 != nil && p.Reserve1 != nil
	case ProtocolV3:
		return p.SqrtPriceX96 != nil && p.Liquidity != nil
	default:
		return false
	}
}

func sortPair(a, b Addr) (Addr, Addr) {
	if a.Less(b) {
		return a, b
	}
	return b, a
}
