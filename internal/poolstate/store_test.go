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
	"math/big"
	"testing"
	"time"
)

func addr(b byte) Addr {
	var a Addr
	a[len(a)-1] = b
	return a
}

func TestSyncCreatesPoolAndIndices(t *testing.T) {
	m := NewManager(nil)
	pool := addr(1)
	token0, token1 := addr(10), addr(20)

	err := m.ApplyEvent(SyncEvent{
		PoolAddr: pool, Token0Addr: token0, Token1Addr: token1,
		FeeTier: 30, Reserve0: big.NewInt(1000), Reserve1: big.NewInt(2000),
		TimestampNs: 1234567890, Block: 100,
	})
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	got, ok := m.GetPool(pool)
	if !ok {
		t.Fatalf("pool not found after sync")
	}
	if got.Reserve0.Cmp(big.NewInt(1000)) != 0 || got.Reserve1.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("unexpected reserves: %v %v", got.Reserve0, got.Reserve1)
	}
	if !got.Initialized || got.Protocol != ProtocolV2 {
		t.Fatalf("pool should be initialized V2, got %+v", got)
	}

	if pools := m.FindPoolsWithToken(token0); len(pools) != 1 || pools[0].PoolAddr != pool {
		t.Fatalf("token index lookup failed: %+v", pools)
	}
	if pools := m.FindPoolsForTokenPair(token1, token0); len(pools) != 1 {
		t.Fatalf("pair index lookup (reversed args) failed: %+v", pools)
	}
}

func TestV2SwapAloneDoesNotMutateReserves(t *testing.T) {
	m := NewManager(nil)
	pool := addr(1)
	_ = m.ApplyEvent(SyncEvent{
		PoolAddr: pool, Token0Addr: addr(10), Token1Addr: addr(20),
		Reserve0: big.NewInt(100), Reserve1: big.NewInt(200), TimestampNs: 1,
	})

	_ = m.ApplyEvent(SwapEvent{PoolAddr: pool, SqrtPriceX96: nil, TimestampNs: 2})

	got, _ := m.GetPool(pool)
	if got.Reserve0.Cmp(big.NewInt(100)) != 0 || got.Reserve1.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("V2 swap must not mutate reserves, got %v %v", got.Reserve0, got.Reserve1)
	}
}

func TestV3SwapUpsertsAsV3(t *testing.T) {
	m := NewManager(nil)
	pool := addr(5)

	err := m.ApplyEvent(SwapEvent{
		PoolAddr: pool, SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Tick: -1200, Liquidity: big.NewInt(5_000_000), TimestampNs: 42,
	})
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	got, ok := m.GetPool(pool)
	if !ok {
		t.Fatalf("V3 swap should create the pool")
	}
	if got.Protocol != ProtocolV3 || got.Tick != -1200 {
		t.Fatalf("unexpected V3 state: %+v", got)
	}
}

func TestMintAddsBurnSaturatesAtZero(t *testing.T) {
	m := NewManager(nil)
	pool := addr(7)
	_ = m.ApplyEvent(SwapEvent{PoolAddr: pool, SqrtPriceX96: big.NewInt(1), Liquidity: big.NewInt(100), TimestampNs: 1})

	_ = m.ApplyEvent(MintEvent{PoolAddr: pool, LiquidityDelta: big.NewInt(50), TimestampNs: 2})
	got, _ := m.GetPool(pool)
	if got.Liquidity.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("mint should add liquidity, got %v", got.Liquidity)
	}

	_ = m.ApplyEvent(BurnEvent{PoolAddr: pool, LiquidityDelta: big.NewInt(1000), TimestampNs: 3})
	got, _ = m.GetPool(pool)
	if got.Liquidity.Sign() != 0 {
		t.Fatalf("burn should saturate at zero, got %v", got.Liquidity)
	}
}

// TestSequenceGapClassification reproduces spec §8 scenario 4 exactly:
// feed sequences 1, 2, 5 and expect a SequenceGap{expected:3, actual:5},
// with the gap callback invoked and seq=5's event not applied.
func TestSequenceGapClassification(t *testing.T) {
	var gotGap GapInfo
	var gapCalls int
	m := NewManager(func(g GapInfo) {
		gapCalls++
		gotGap = g
	})

	pool := addr(9)
	mk := func(n int64) SyncEvent {
		return SyncEvent{PoolAddr: pool, Token0Addr: addr(1), Token1Addr: addr(2),
			Reserve0: big.NewInt(n), Reserve1: big.NewInt(n), TimestampNs: uint64(n)}
	}

	if err := m.ApplySequenced(1, 1, mk(1)); err != nil {
		t.Fatalf("seq 1: %v", err)
	}
	if err := m.ApplySequenced(1, 2, mk(2)); err != nil {
		t.Fatalf("seq 2: %v", err)
	}

	err := m.ApplySequenced(1, 5, mk(5))
	var gapErr *SequenceGapError
	if err == nil {
		t.Fatalf("expected a SequenceGapError")
	}
	if !asSequenceGapError(err, &gapErr) {
		t.Fatalf("expected *SequenceGapError, got %T", err)
	}
	if gapErr.Expected != 3 || gapErr.Actual != 5 {
		t.Fatalf("expected SequenceGap{3,5}, got %+v", gapErr)
	}
	if gapCalls != 1 || gotGap.Expected != 3 || gotGap.Actual != 5 || gotGap.Severity != GapSmall {
		t.Fatalf("gap handler not invoked with expected values: calls=%d info=%+v", gapCalls, gotGap)
	}

	got, _ := m.GetPool(pool)
	if got.Reserve0.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("seq=5's event must not be applied; reserve0 should still reflect seq=2, got %v", got.Reserve0)
	}
	if m.LastSequence(1) != 2 {
		t.Fatalf("last sequence should remain 2 after a rejected gap, got %d", m.LastSequence(1))
	}
}

func asSequenceGapError(err error, out **SequenceGapError) bool {
	ge, ok := err.(*SequenceGapError)
	if ok {
		*out = ge
	}
	return ok
}

func TestLargeGapMarksAllPoolsUninitialized(t *testing.T) {
	m := NewManager(func(GapInfo) {})
	pool := addr(3)
	_ = m.ApplySequenced(1, 1, SyncEvent{PoolAddr: pool, Token0Addr: addr(1), Token1Addr: addr(2),
		Reserve0: big.NewInt(1), Reserve1: big.NewInt(1)})

	err := m.ApplySequenced(1, 100, SyncEvent{PoolAddr: pool, Reserve0: big.NewInt(9), Reserve1: big.NewInt(9)})
	if err == nil {
		t.Fatalf("expected gap error")
	}

	got, _ := m.GetPool(pool)
	if got.Initialized {
		t.Fatalf("a >50 gap must mark existing pools uninitialized")
	}
}

func TestStalePools(t *testing.T) {
	m := NewManager(nil)
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	fresh, old := addr(1), addr(2)

	_ = m.ApplyEvent(SyncEvent{PoolAddr: fresh, Reserve0: big.NewInt(1), Reserve1: big.NewInt(1),
		TimestampNs: uint64(now.Add(-time.Second).UnixNano())})
	_ = m.ApplyEvent(SyncEvent{PoolAddr: old, Reserve0: big.NewInt(1), Reserve1: big.NewInt(1),
		TimestampNs: uint64(now.Add(-time.Hour).UnixNano())})

	stale := m.StalePools(time.Minute, now)
	if len(stale) != 1 || stale[0] != old {
		t.Fatalf("expected only the hour-old pool to be stale, got %v", stale)
	}
}
