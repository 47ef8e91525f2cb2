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
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
)

const snapshotMagic uint32 = 0x504F4F4C // "POOL"
const snapshotVersion uint8 = 1

// Snapshot serializes every pool's full state into a deterministic byte
// slice, suitable for cold-restart warm-up (spec §4.3 "snapshot()/restore()"
// and §7 "snapshot(restore(snapshot(s))) == snapshot(s)"). Pools are written
// in ascending address order so two snapshots of equal state always produce
// identical bytes.
func (m *Manager) Snapshot() []byte {
	type entry struct {
		addr  Addr
		state PoolState
	}
	var entries []entry
	m.pools.Range(func(_, value any) bool {
		h := value.(*poolHandle)
		entries = append(entries, entry{addr: h.state.PoolAddr, state: h.get()})
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].addr.Less(entries[j].addr) })

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, snapshotMagic)
	buf.WriteByte(snapshotVersion)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(entries)))

	for _, e := range entries {
		buf.Write(e.state.PoolAddr[:])
		buf.Write(e.state.Token0Addr[:])
		buf.Write(e.state.Token1Addr[:])
		buf.WriteByte(byte(e.state.Protocol))
		_ = binary.Write(&buf, binary.LittleEndian, e.state.FeeTier)
		putBigInt(&buf, e.state.Reserve0)
		putBigInt(&buf, e.state.Reserve1)
		putBigInt(&buf, e.state.SqrtPriceX96)
		_ = binary.Write(&buf, binary.LittleEndian, e.state.Tick)
		putBigInt(&buf, e.state.Liquidity)
		_ = binary.Write(&buf, binary.LittleEndian, e.state.LastUpdateNs)
		_ = binary.Write(&buf, binary.LittleEndian, e.state.LastBlock)
		if e.state.Initialized {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}

	// Stats trailer so a restored manager reports the same aggregates.
	_ = binary.Write(&buf, binary.LittleEndian, uint32(m.Stats().TotalPools))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(m.Stats().V2Pools))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(m.Stats().V3Pools))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(m.Stats().InitializedPools))
	_ = binary.Write(&buf, binary.LittleEndian, m.Stats().TotalEvents)
	_ = binary.Write(&buf, binary.LittleEndian, m.Stats().LastUpdateNs)

	return buf.Bytes()
}

// Restore replaces the manager's entire pool set and indices with the
// contents of a snapshot produced by Snapshot. It does not touch the
// sequence tracker or gap handler.
func (m *Manager) Restore(snapshot []byte) error {
	r := &cursor{b: snapshot}

	magic, err := r.u32()
	if err != nil {
		return fmt.Errorf("poolstate: restore: %w", err)
	}
	if magic != snapshotMagic {
		return fmt.Errorf("poolstate: restore: bad magic %#x", magic)
	}
	version, err := r.u8()
	if err != nil {
		return fmt.Errorf("poolstate: restore: %w", err)
	}
	if version != snapshotVersion {
		return fmt.Errorf("poolstate: restore: unsupported version %d", version)
	}
	count, err := r.u32()
	if err != nil {
		return fmt.Errorf("poolstate: restore: %w", err)
	}

	m.pools.Range(func(key, _ any) bool {
		m.pools.Delete(key)
		return true
	})
	m.tokenIndex.clear()
	m.pairIndex.clear()

	var totalPools, v2Pools, v3Pools, initPools int
	var totalEvents, lastUpdateNs uint64

	for i := uint32(0); i < count; i++ {
		var st PoolState
		var err error
		if st.PoolAddr, err = r.addr(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		if st.Token0Addr, err = r.addr(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		if st.Token1Addr, err = r.addr(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		protoByte, err := r.u8()
		if err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		st.Protocol = Protocol(protoByte)
		if st.FeeTier, err = r.u32(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		if st.Reserve0, err = r.bigInt(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		if st.Reserve1, err = r.bigInt(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		if st.SqrtPriceX96, err = r.bigInt(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		tick, err := r.i32()
		if err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		st.Tick = tick
		if st.Liquidity, err = r.bigInt(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		if st.LastUpdateNs, err = r.u64(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		if st.LastBlock, err = r.u64(); err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		initByte, err := r.u8()
		if err != nil {
			return fmt.Errorf("poolstate: restore: pool %d: %w", i, err)
		}
		st.Initialized = initByte == 1

		m.pools.Store(st.PoolAddr, &poolHandle{state: st})
		m.indexNewPool(st.PoolAddr, st.Token0Addr, st.Token1Addr)

		totalPools++
		switch st.Protocol {
		case ProtocolV2:
			v2Pools++
		case ProtocolV3:
			v3Pools++
		}
		if st.Initialized {
			initPools++
		}
	}

	if v, err := r.u32(); err == nil {
		totalPools = int(v)
	}
	if v, err := r.u32(); err == nil {
		v2Pools = int(v)
	}
	if v, err := r.u32(); err == nil {
		v3Pools = int(v)
	}
	if v, err := r.u32(); err == nil {
		initPools = int(v)
	}
	if v, err := r.u64(); err == nil {
		totalEvents = v
	}
	if v, err := r.u64(); err == nil {
		lastUpdateNs = v
	}

	m.statsMu.Lock()
	m.stats = ManagerStats{
		TotalPools:       totalPools,
		V2Pools:          v2Pools,
		V3Pools:          v3Pools,
		InitializedPools: initPools,
		TotalEvents:      totalEvents,
		LastUpdateNs:     lastUpdateNs,
	}
	m.statsMu.Unlock()

	return nil
}

func putBigInt(buf *bytes.Buffer, v *big.Int) {
	if v == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	if v.Sign() < 0 {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	b := v.Bytes()
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(b)))
	buf.Write(b)
}

// cursor is a minimal forward-only reader over a byte slice, used instead
// of bytes.Reader so every field access reports which pool index failed.
type cursor struct {
	b []byte
	i int
}

func (c *cursor) need(n int) error {
	if c.i+n > len(c.b) {
		return fmt.Errorf("truncated snapshot: need %d bytes at offset %d, have %d", n, c.i, len(c.b)-c.i)
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.b[c.i]
	c.i++
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.b[c.i:])
	c.i += 4
	return v, nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}

func (c *cursor) u64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.b[c.i:])
	c.i += 8
	return v, nil
}

func (c *cursor) addr() (Addr, error) {
	var a Addr
	if err := c.need(len(a)); err != nil {
		return a, err
	}
	copy(a[:], c.b[c.i:])
	c.i += len(a)
	return a, nil
}

func (c *cursor) bigInt() (*big.Int, error) {
	present, err := c.u8()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	negByte, err := c.u8()
	if err != nil {
		return nil, err
	}
	n, err := c.u32()
	if err != nil {
		return nil, err
	}
	if err := c.need(int(n)); err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(c.b[c.i : c.i+int(n)])
	c.i += int(n)
	if negByte == 1 {
		v.Neg(v)
	}
	return v, nil
}
