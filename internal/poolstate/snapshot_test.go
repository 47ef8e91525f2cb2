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
	"bytes"
	"math/big"
	"testing"
)

// TestSnapshotRestoreBijection reproduces spec §7's invariant:
// snapshot(restore(snapshot(s))) == snapshot(s).
func TestSnapshotRestoreBijection(t *testing.T) {
	m := NewManager(nil)
	_ = m.ApplyEvent(SyncEvent{
		PoolAddr: addr(1), Token0Addr: addr(10), Token1Addr: addr(20),
		FeeTier: 30, Reserve0: big.NewInt(123456789), Reserve1: big.NewInt(987654321),
		TimestampNs: 111, Block: 5,
	})
	_ = m.ApplyEvent(SwapEvent{
		PoolAddr: addr(2), SqrtPriceX96: big.NewInt(79228162514264337),
		Tick: -500, Liquidity: big.NewInt(42), TimestampNs: 222,
	})

	snap1 := m.Snapshot()
	if len(snap1) == 0 {
		t.Fatalf("snapshot should not be empty")
	}

	restored := NewManager(nil)
	if err := restored.Restore(snap1); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	snap2 := restored.Snapshot()

	if !bytes.Equal(snap1, snap2) {
		t.Fatalf("snapshot(restore(snapshot(s))) != snapshot(s)")
	}

	p1, ok := restored.GetPool(addr(1))
	if !ok || p1.Reserve0.Cmp(big.NewInt(123456789)) != 0 {
		t.Fatalf("restored pool 1 reserves mismatch: %+v", p1)
	}
	p2, ok := restored.GetPool(addr(2))
	if !ok || p2.Protocol != ProtocolV3 || p2.Tick != -500 {
		t.Fatalf("restored pool 2 mismatch: %+v", p2)
	}

	if pools := restored.FindPoolsForTokenPair(addr(10), addr(20)); len(pools) != 1 {
		t.Fatalf("restore should rebuild indices, got %d pools", len(pools))
	}
}

func TestRestoreRejectsBadMagic(t *testing.T) {
	m := NewManager(nil)
	if err := m.Restore([]byte{0, 1, 2, 3}); err == nil {
		t.Fatalf("expected an error for a malformed snapshot")
	}
}
