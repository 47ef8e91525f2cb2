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

// Venue identifies the originating exchange/DEX of a MarketData event.
type Venue uint16

const (
	VenueUnknown Venue = 0
	VenueBinance Venue = 100
)

// Side indicates the aggressor side of a Trade.
type Side uint8

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

// Trade is the zero-copy view of a TypeTrade TLV value. Wire size: 40 bytes.
type Trade struct {
	AssetID     uint32
	Price       int64
	Volume      uint64
	Side        Side
	TimestampNs uint64
	VenueID     Venue
}

// AsBytes encodes t into the fixed 40-byte wire layout.
func (t *Trade) AsBytes() []byte {
	b := make([]byte, 40)
	binary.LittleEndian.PutUint32(b[0:4], t.AssetID)
	binary.LittleEndian.PutUint64(b[4:12], uint64(t.Price))
	binary.LittleEndian.PutUint64(b[12:20], t.Volume)
	b[20] = uint8(t.Side)
	// b[21:24] padding
	binary.LittleEndian.PutUint64(b[24:32], t.TimestampNs)
	binary.LittleEndian.PutUint16(b[32:34], uint16(t.VenueID))
	// b[34:40] padding
	return b
}

// TradeFromBytes decodes a Trade from its fixed 40-byte wire layout.
func TradeFromBytes(b []byte) (*Trade, error) {
	if len(b) != 40 {
		return nil, fmt.Errorf("%w: Trade needs 40 bytes, got %d", ErrSizeConstraint, len(b))
	}
	return &Trade{
		AssetID:     binary.LittleEndian.Uint32(b[0:4]),
		Price:       int64(binary.LittleEndian.Uint64(b[4:12])),
		Volume:      binary.LittleEndian.Uint64(b[12:20]),
		Side:        Side(b[20]),
		TimestampNs: binary.LittleEndian.Uint64(b[24:32]),
		VenueID:     Venue(binary.LittleEndian.Uint16(b[32:34])),
	}, nil
}

// Quote is the zero-copy view of a TypeQuote TLV value. Wire size: 32 bytes.
type Quote struct {
	BidPrice int64
	AskPrice int64
	BidSize  uint64
	AskSize  uint64
}

func (q *Quote) AsBytes() []byte {
	b := make([]byte, 32)
	binary.LittleEndian.PutUint64(b[0:8], uint64(q.BidPrice))
	binary.LittleEndian.PutUint64(b[8:16], uint64(q.AskPrice))
	binary.LittleEndian.PutUint64(b[16:24], q.BidSize)
	binary.LittleEndian.PutUint64(b[24:32], q.AskSize)
	return b
}

func QuoteFromBytes(b []byte) (*Quote, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: Quote needs 32 bytes, got %d", ErrSizeConstraint, len(b))
	}
	return &Quote{
		BidPrice: int64(binary.LittleEndian.Uint64(b[0:8])),
		AskPrice: int64(binary.LittleEndian.Uint64(b[8:16])),
		BidSize:  binary.LittleEndian.Uint64(b[16:24]),
		AskSize:  binary.LittleEndian.Uint64(b[24:32]),
	}, nil
}

// OrderBookLevelCap is the fixed inline capacity per side; levels beyond this
// are truncated (with a warning at the call site) rather than rejected.
const OrderBookLevelCap = 50

// orderBookLevelSize is the wire size of one price/size/order-count level.
const orderBookLevelSize = 24

// OrderBookLevel is one price level: price, size, and order count at that level.
type OrderBookLevel struct {
	Price      int64
	Size       uint64
	OrderCount uint64
}

// OrderBook is the zero-copy view of a TypeOrderBook TLV value. Bids and
// Asks are slices; NewOrderBook caps each side at OrderBookLevelCap and
// TruncatedLevels counts any input levels it dropped. OrderBookFromBytes
// takes the level counts from the wire and does not apply the cap.
type OrderBook struct {
	AssetID         uint32
	TimestampNs     uint64
	Bids            []OrderBookLevel // len <= OrderBookLevelCap
	Asks            []OrderBookLevel // len <= OrderBookLevelCap
	TruncatedLevels int
}

// NewOrderBook builds an OrderBook, truncating bids/asks to OrderBookLevelCap
// each and recording how many levels were dropped.
func NewOrderBook(assetID uint32, timestampNs uint64, bids, asks []OrderBookLevel) *OrderBook {
	ob := &OrderBook{AssetID: assetID, TimestampNs: timestampNs}
	if len(bids) > OrderBookLevelCap {
		ob.TruncatedLevels += len(bids) - OrderBookLevelCap
		bids = bids[:OrderBookLevelCap]
	}
	if len(asks) > OrderBookLevelCap {
		ob.TruncatedLevels += len(asks) - OrderBookLevelCap
		asks = asks[:OrderBookLevelCap]
	}
	ob.Bids = bids
	ob.Asks = asks
	return ob
}

// AsBytes encodes the order book as: asset_id(4) timestamp_ns(8) bid_count(1)
// ask_count(1) pad(2) then bid levels then ask levels, 24 bytes each.
func (ob *OrderBook) AsBytes() []byte {
	n := 16 + len(ob.Bids)*orderBookLevelSize + len(ob.Asks)*orderBookLevelSize
	b := make([]byte, n)
	binary.LittleEndian.PutUint32(b[0:4], ob.AssetID)
	binary.LittleEndian.PutUint64(b[4:12], ob.TimestampNs)
	b[12] = uint8(len(ob.Bids))
	b[13] = uint8(len(ob.Asks))
	off := 16
	for _, lvl := range ob.Bids {
		putLevel(b[off:off+orderBookLevelSize], lvl)
		off += orderBookLevelSize
	}
	for _, lvl := range ob.Asks {
		putLevel(b[off:off+orderBookLevelSize], lvl)
		off += orderBookLevelSize
	}
	return b
}

func putLevel(b []byte, lvl OrderBookLevel) {
	binary.LittleEndian.PutUint64(b[0:8], uint64(lvl.Price))
	binary.LittleEndian.PutUint64(b[8:16], lvl.Size)
	binary.LittleEndian.PutUint64(b[16:24], lvl.OrderCount)
}

func getLevel(b []byte) OrderBookLevel {
	return OrderBookLevel{
		Price:      int64(binary.LittleEndian.Uint64(b[0:8])),
		Size:       binary.LittleEndian.Uint64(b[8:16]),
		OrderCount: binary.LittleEndian.Uint64(b[16:24]),
	}
}

// OrderBookFromBytes decodes an OrderBook, validating the header and the
// bid/ask counts against the buffer length.
func OrderBookFromBytes(b []byte) (*OrderBook, error) {
	if len(b) < 16 {
		return nil, &TruncatedTlvError{Offset: 0, Need: 16, Have: len(b)}
	}
	ob := &OrderBook{
		AssetID:     binary.LittleEndian.Uint32(b[0:4]),
		TimestampNs: binary.LittleEndian.Uint64(b[4:12]),
	}
	bidCount := int(b[12])
	askCount := int(b[13])
	need := 16 + (bidCount+askCount)*orderBookLevelSize
	if need > len(b) {
		return nil, &TruncatedTlvError{Offset: 16, Need: need - 16, Have: len(b) - 16}
	}
	off := 16
	ob.Bids = make([]OrderBookLevel, bidCount)
	for i := 0; i < bidCount; i++ {
		ob.Bids[i] = getLevel(b[off : off+orderBookLevelSize])
		off += orderBookLevelSize
	}
	ob.Asks = make([]OrderBookLevel, askCount)
	for i := 0; i < askCount; i++ {
		ob.Asks[i] = getLevel(b[off : off+orderBookLevelSize])
		off += orderBookLevelSize
	}
	return ob, nil
}

// PoolSwap is the zero-copy view of a TypePoolSwap TLV value. Wire size: 104
// bytes. SqrtPriceX96 is zero for V2 swaps (reserves are recomputed from the
// subsequent PoolSync, not from the swap itself — spec §4.3).
type PoolSwap struct {
	PoolAddr      [20]byte
	TokenInIsZero bool
	AmountIn      Uint128
	AmountOut     Uint128
	SqrtPriceX96  Uint128
	Liquidity     Uint128
	Tick          int32
	TimestampNs   uint64
}

func (s *PoolSwap) AsBytes() []byte {
	b := make([]byte, 104)
	copy(b[0:20], s.PoolAddr[:])
	if s.TokenInIsZero {
		b[20] = 1
	}
	PutUint128LE(b[24:40], s.AmountIn)
	PutUint128LE(b[40:56], s.AmountOut)
	PutUint128LE(b[56:72], s.SqrtPriceX96)
	PutUint128LE(b[72:88], s.Liquidity)
	binary.LittleEndian.PutUint32(b[88:92], uint32(s.Tick))
	binary.LittleEndian.PutUint64(b[92:100], s.TimestampNs)
	return b
}

func PoolSwapFromBytes(b []byte) (*PoolSwap, error) {
	if len(b) != 104 {
		return nil, fmt.Errorf("%w: PoolSwap needs 104 bytes, got %d", ErrSizeConstraint, len(b))
	}
	s := &PoolSwap{TokenInIsZero: b[20] != 0}
	copy(s.PoolAddr[:], b[0:20])
	s.AmountIn = GetUint128LE(b[24:40])
	s.AmountOut = GetUint128LE(b[40:56])
	s.SqrtPriceX96 = GetUint128LE(b[56:72])
	s.Liquidity = GetUint128LE(b[72:88])
	s.Tick = int32(binary.LittleEndian.Uint32(b[88:92]))
	s.TimestampNs = binary.LittleEndian.Uint64(b[92:100])
	return s, nil
}

// PoolSync is the zero-copy view of a TypePoolSync TLV value (V2 full
// reserves). Wire size: 120 bytes.
type PoolSync struct {
	PoolAddr    [20]byte
	Token0Addr  [20]byte
	Token1Addr  [20]byte
	Reserve0    Uint128
	Reserve1    Uint128
	FeeTier     uint32
	Protocol    uint8
	TimestampNs uint64
	Block       uint64
}

func (s *PoolSync) AsBytes() []byte {
	b := make([]byte, 120)
	copy(b[0:20], s.PoolAddr[:])
	copy(b[20:40], s.Token0Addr[:])
	copy(b[40:60], s.Token1Addr[:])
	PutUint128LE(b[60:76], s.Reserve0)
	PutUint128LE(b[76:92], s.Reserve1)
	binary.LittleEndian.PutUint32(b[92:96], s.FeeTier)
	b[96] = s.Protocol
	binary.LittleEndian.PutUint64(b[100:108], s.TimestampNs)
	binary.LittleEndian.PutUint64(b[108:116], s.Block)
	return b
}

func PoolSyncFromBytes(b []byte) (*PoolSync, error) {
	if len(b) != 120 {
		return nil, fmt.Errorf("%w: PoolSync needs 120 bytes, got %d", ErrSizeConstraint, len(b))
	}
	s := &PoolSync{Protocol: b[96]}
	copy(s.PoolAddr[:], b[0:20])
	copy(s.Token0Addr[:], b[20:40])
	copy(s.Token1Addr[:], b[40:60])
	s.Reserve0 = GetUint128LE(b[60:76])
	s.Reserve1 = GetUint128LE(b[76:92])
	s.FeeTier = binary.LittleEndian.Uint32(b[92:96])
	s.TimestampNs = binary.LittleEndian.Uint64(b[100:108])
	s.Block = binary.LittleEndian.Uint64(b[108:116])
	return s, nil
}

// PoolMintOrBurn is the zero-copy view shared by TypePoolMint and
// TypePoolBurn TLV values. Wire size: 80 bytes.
type PoolMintOrBurn struct {
	PoolAddr       [20]byte
	LiquidityDelta Uint128
	Amount0        Uint128
	Amount1        Uint128
	TimestampNs    uint64
}

func (m *PoolMintOrBurn) AsBytes() []byte {
	b := make([]byte, 80)
	copy(b[0:20], m.PoolAddr[:])
	PutUint128LE(b[20:36], m.LiquidityDelta)
	PutUint128LE(b[36:52], m.Amount0)
	PutUint128LE(b[52:68], m.Amount1)
	binary.LittleEndian.PutUint64(b[68:76], m.TimestampNs)
	return b
}

func PoolMintOrBurnFromBytes(b []byte) (*PoolMintOrBurn, error) {
	if len(b) != 80 {
		return nil, fmt.Errorf("%w: PoolMint/PoolBurn needs 80 bytes, got %d", ErrSizeConstraint, len(b))
	}
	m := &PoolMintOrBurn{}
	copy(m.PoolAddr[:], b[0:20])
	m.LiquidityDelta = GetUint128LE(b[20:36])
	m.Amount0 = GetUint128LE(b[36:52])
	m.Amount1 = GetUint128LE(b[52:68])
	m.TimestampNs = binary.LittleEndian.Uint64(b[68:76])
	return m, nil
}

// PoolTick is the zero-copy view of a TypePoolTick TLV value. Wire size: 64 bytes.
type PoolTick struct {
	PoolAddr     [20]byte
	Tick         int32
	Liquidity    Uint128
	SqrtPriceX96 Uint128
	TimestampNs  uint64
}

func (t *PoolTick) AsBytes() []byte {
	b := make([]byte, 64)
	copy(b[0:20], t.PoolAddr[:])
	binary.LittleEndian.PutUint32(b[20:24], uint32(t.Tick))
	PutUint128LE(b[24:40], t.Liquidity)
	PutUint128LE(b[40:56], t.SqrtPriceX96)
	binary.LittleEndian.PutUint64(b[56:64], t.TimestampNs)
	return b
}

func PoolTickFromBytes(b []byte) (*PoolTick, error) {
	if len(b) != 64 {
		return nil, fmt.Errorf("%w: PoolTick needs 64 bytes, got %d", ErrSizeConstraint, len(b))
	}
	t := &PoolTick{Tick: int32(binary.LittleEndian.Uint32(b[20:24]))}
	copy(t.PoolAddr[:], b[0:20])
	t.Liquidity = GetUint128LE(b[24:40])
	t.SqrtPriceX96 = GetUint128LE(b[40:56])
	t.TimestampNs = binary.LittleEndian.Uint64(b[56:64])
	return t, nil
}
