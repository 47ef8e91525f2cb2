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

package poolstate

import (
	"fmt"
	"math/big"
)

// Event is the PoolEvent union dispatched by ApplyEvent: Sync, Swap, Mint,
// Burn, or State. Each concrete type below implements it.
type Event interface {
	poolAddr() Addr
}

// SyncEvent is a V2 full-reserves update. Applying one upserts the pool,
// populating its indices the first time it's seen.
type SyncEvent struct {
	PoolAddr    Addr
	Token0Addr  Addr
	Token1Addr  Addr
	FeeTier     uint32
	Reserve0    *big.Int
	Reserve1    *big.Int
	TimestampNs uint64
	Block       uint64
}

func (e SyncEvent) poolAddr() Addr { return e.PoolAddr }

// SwapEvent carries V3 post-swap state. A swap with a nil or zero
// SqrtPriceX96 is a V2 swap and, per spec §4.3, never mutates reserves on
// its own — those come from the Sync event that follows.
type SwapEvent struct {
	PoolAddr     Addr
	SqrtPriceX96 *big.Int
	Tick         int32
	Liquidity    *big.Int
	TimestampNs  uint64
	Block        uint64
}

func (e SwapEvent) poolAddr() Addr { return e.PoolAddr }

func (e SwapEvent) isV3() bool {
	return e.SqrtPriceX96 != nil && e.SqrtPriceX96.Sign() > 0
}

// MintEvent adds liquidity to an existing pool.
type MintEvent struct {
	PoolAddr       Addr
	LiquidityDelta *big.Int
	TimestampNs    uint64
}

func (e MintEvent) poolAddr() Addr { return e.PoolAddr }

// BurnEvent removes liquidity from an existing pool, saturating at zero.
type BurnEvent struct {
	PoolAddr       Addr
	LiquidityDelta *big.Int
	TimestampNs    uint64
}

func (e BurnEvent) poolAddr() Addr { return e.PoolAddr }

// StateEvent is a full-state upsert. Reserved for out-of-band resync; not
// on the hot path (spec §4.3).
type StateEvent struct {
	PoolAddr Addr
	Full     PoolState
}

func (e StateEvent) poolAddr() Addr { return e.PoolAddr }

// ApplyEvent dispatches ev to its type-specific handler.
func (m *Manager) ApplyEvent(ev Event) error {
	switch e := ev.(type) {
	case SyncEvent:
		m.handleSync(e)
	case SwapEvent:
		m.handleSwap(e)
	case MintEvent:
		m.handleMint(e)
	case BurnEvent:
		m.handleBurn(e)
	case StateEvent:
		m.handleState(e)
	default:
		return fmt.Errorf("poolstate: unknown event type %T", ev)
	}
	return nil
}

func (m *Manager) handleSync(e SyncEvent) {
	h, created := m.getOrCreatePool(e.PoolAddr)
	if created {
		m.indexNewPool(e.PoolAddr, e.Token0Addr, e.Token1Addr)
		m.recordNewPool(ProtocolV2)
	}

	h.mu.Lock()
	wasInitialized := h.state.Initialized
	h.state.Token0Addr = e.Token0Addr
	h.state.Token1Addr = e.Token1Addr
	h.state.Protocol = ProtocolV2
	h.state.FeeTier = e.FeeTier
	h.state.Reserve0 = e.Reserve0
	h.state.Reserve1 = e.Reserve1
	h.state.LastUpdateNs = e.TimestampNs
	h.state.LastBlock = e.Block
	h.state.Initialized = true
	h.mu.Unlock()

	if !wasInitialized {
		m.recordInitialized()
	}
	m.recordEvent(e.TimestampNs)
}

func (m *Manager) handleSwap(e SwapEvent) {
	if !e.isV3() {
		// V2 swap: reserves arrive via the following Sync, nothing to do
		// here but account for the event.
		m.recordEvent(e.TimestampNs)
		return
	}

	h, created := m.getOrCreatePool(e.PoolAddr)
	if created {
		// A V3 swap can be the first time we ever see a pool; the token
		// addresses aren't carried on the swap itself in this wire format,
		// so indices are populated once a Sync/State event supplies them.
		m.recordNewPool(ProtocolV3)
	}

	h.mu.Lock()
	wasInitialized := h.state.Initialized
	h.state.Protocol = ProtocolV3
	h.state.SqrtPriceX96 = e.SqrtPriceX96
	h.state.Tick = e.Tick
	h.state.Liquidity = e.Liquidity
	h.state.LastUpdateNs = e.TimestampNs
	h.state.LastBlock = e.Block
	h.state.Initialized = true
	h.mu.Unlock()

	if !wasInitialized {
		m.recordInitialized()
	}
	m.recordEvent(e.TimestampNs)
}

func (m *Manager) handleMint(e MintEvent) {
	if actual, ok := m.pools.Load(e.PoolAddr); ok {
		h := actual.(*poolHandle)
		h.mu.Lock()
		if h.state.Liquidity != nil {
			h.state.Liquidity = new(big.Int).Add(h.state.Liquidity, e.LiquidityDelta)
		}
		h.state.LastUpdateNs = e.TimestampNs
		h.mu.Unlock()
	}
	m.recordEvent(e.TimestampNs)
}

func (m *Manager) handleBurn(e BurnEvent) {
	if actual, ok := m.pools.Load(e.PoolAddr); ok {
		h := actual.(*poolHandle)
		h.mu.Lock()
		if h.state.Liquidity != nil {
			next := new(big.Int).Sub(h.state.Liquidity, e.LiquidityDelta)
			if next.Sign() < 0 {
				next = big.NewInt(0)
			}
			h.state.Liquidity = next
		}
		h.state.LastUpdateNs = e.TimestampNs
		h.mu.Unlock()
	}
	m.recordEvent(e.TimestampNs)
}

func (m *Manager) handleState(e StateEvent) {
	h, created := m.getOrCreatePool(e.PoolAddr)
	if created {
		m.indexNewPool(e.PoolAddr, e.Full.Token0Addr, e.Full.Token1Addr)
		m.recordNewPool(e.Full.Protocol)
	}
	h.mu.Lock()
	wasInitialized := h.state.Initialized
	h.state = e.Full
	h.state.PoolAddr = e.PoolAddr
	h.mu.Unlock()
	if !wasInitialized && e.Full.Initialized {
		m.recordInitialized()
	}
	m.recordEvent(e.Full.LastUpdateNs)
}

func (m *Manager) indexNewPool(pool, token0, token1 Addr) {
	m.tokenIndex.add(token0, pool)
	m.tokenIndex.add(token1, pool)
	lo, hi := sortPair(token0, token1)
	m.pairIndex.add(pairKey{lo, hi}, pool)
}
