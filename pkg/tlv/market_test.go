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
	"math/big"
	"testing"
)

func TestPoolSwapRoundTrip(t *testing.T) {
	s := &PoolSwap{
		PoolAddr:      [20]byte{1, 2, 3},
		TokenInIsZero: true,
		AmountIn:      Uint128FromBig(big.NewInt(1_000_000)),
		AmountOut:     Uint128FromBig(big.NewInt(2_000_000)),
		SqrtPriceX96:  Uint128{Lo: 123456789, Hi: 0},
		Liquidity:     Uint128{Lo: 42, Hi: 7},
		Tick:          -1200,
		TimestampNs:   1234,
	}
	got, err := PoolSwapFromBytes(s.AsBytes())
	if err != nil {
		t.Fatalf("PoolSwapFromBytes: %v", err)
	}
	if *got != *s {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, s)
	}
	if got.Liquidity.Big().Cmp(s.Liquidity.Big()) != 0 {
		t.Fatalf("big.Int conversion mismatch")
	}
}

func TestPoolSyncRoundTrip(t *testing.T) {
	s := &PoolSync{
		PoolAddr:    [20]byte{9},
		Token0Addr:  [20]byte{1},
		Token1Addr:  [20]byte{2},
		Reserve0:    Uint128FromBig(big.NewInt(10_000_000_000)),
		Reserve1:    Uint128FromBig(big.NewInt(5_000_000_000)),
		FeeTier:     3000,
		Protocol:    2,
		TimestampNs: 99,
		Block:       12345,
	}
	got, err := PoolSyncFromBytes(s.AsBytes())
	if err != nil {
		t.Fatalf("PoolSyncFromBytes: %v", err)
	}
	if *got != *s {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, s)
	}
}

func TestPoolMintBurnRoundTrip(t *testing.T) {
	m := &PoolMintOrBurn{
		PoolAddr:       [20]byte{5},
		LiquidityDelta: Uint128{Lo: 500},
		Amount0:        Uint128{Lo: 100},
		Amount1:        Uint128{Lo: 200},
		TimestampNs:    55,
	}
	got, err := PoolMintOrBurnFromBytes(m.AsBytes())
	if err != nil {
		t.Fatalf("PoolMintOrBurnFromBytes: %v", err)
	}
	if *got != *m {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, m)
	}
}

func TestPoolTickRoundTrip(t *testing.T) {
	tk := &PoolTick{
		PoolAddr:     [20]byte{3},
		Tick:         887272,
		Liquidity:    Uint128{Lo: 1},
		SqrtPriceX96: Uint128{Lo: 2, Hi: 3},
		TimestampNs:  1,
	}
	got, err := PoolTickFromBytes(tk.AsBytes())
	if err != nil {
		t.Fatalf("PoolTickFromBytes: %v", err)
	}
	if *got != *tk {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, tk)
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	q := &Quote{BidPrice: 100, AskPrice: 101, BidSize: 10, AskSize: 20}
	got, err := QuoteFromBytes(q.AsBytes())
	if err != nil {
		t.Fatalf("QuoteFromBytes: %v", err)
	}
	if *got != *q {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, q)
	}
}

func TestOrderRequestAndFillRoundTrip(t *testing.T) {
	o := &OrderRequest{OrderID: 1, PoolAddr: [20]byte{1}, Side: OrderSideSell, Amount: Uint128{Lo: 7}, MaxSlippageBps: 50, TimestampNs: 9}
	gotO, err := OrderRequestFromBytes(o.AsBytes())
	if err != nil {
		t.Fatalf("OrderRequestFromBytes: %v", err)
	}
	if *gotO != *o {
		t.Fatalf("OrderRequest round trip mismatch")
	}

	f := &Fill{OrderID: 1, FillID: 2, PoolAddr: [20]byte{2}, Amount: Uint128{Lo: 1}, Price: Uint128{Lo: 2}, TimestampNs: 3}
	gotF, err := FillFromBytes(f.AsBytes())
	if err != nil {
		t.Fatalf("FillFromBytes: %v", err)
	}
	if *gotF != *f {
		t.Fatalf("Fill round trip mismatch")
	}
}

func TestHeartbeatRoundTrip(t *testing.T) {
	h := &Heartbeat{Source: 4, UptimeSec: 100, TimestampNs: 200}
	got, err := HeartbeatFromBytes(h.AsBytes())
	if err != nil {
		t.Fatalf("HeartbeatFromBytes: %v", err)
	}
	if *got != *h {
		t.Fatalf("round trip mismatch")
	}
}

func TestArbitrageSignalAndEconomicsRoundTrip(t *testing.T) {
	a := &ArbitrageSignal{SignalID: 1, PoolA: [20]byte{1}, PoolB: [20]byte{2}, TokenIn: [20]byte{3}, ExpectedProfitQ: 500, TimestampNs: 1}
	gotA, err := ArbitrageSignalFromBytes(a.AsBytes())
	if err != nil {
		t.Fatalf("ArbitrageSignalFromBytes: %v", err)
	}
	if *gotA != *a {
		t.Fatalf("ArbitrageSignal round trip mismatch")
	}

	e := &Economics{ExpectedProfitQ: 100, GasCostQ: 10, ConfidenceBps: 9000}
	gotE, err := EconomicsFromBytes(e.AsBytes())
	if err != nil {
		t.Fatalf("EconomicsFromBytes: %v", err)
	}
	if *gotE != *e {
		t.Fatalf("Economics round trip mismatch")
	}
}
