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

// OrderSide indicates the direction of an OrderRequest.
type OrderSide uint8

const (
	OrderSideBuy  OrderSide = 0
	OrderSideSell OrderSide = 1
)

// OrderRequest is the zero-copy view of a TypeOrderRequest TLV value. Wire
// size: 64 bytes. Execution-domain TLVs are checksummed (I3).
type OrderRequest struct {
	OrderID        uint64
	PoolAddr       [20]byte
	Side           OrderSide
	Amount         Uint128
	MaxSlippageBps uint16
	TimestampNs    uint64
}

func (o *OrderRequest) AsBytes() []byte {
	b := make([]byte, 64)
	binary.LittleEndian.PutUint64(b[0:8], o.OrderID)
	copy(b[8:28], o.PoolAddr[:])
	b[28] = uint8(o.Side)
	PutUint128LE(b[32:48], o.Amount)
	binary.LittleEndian.PutUint16(b[48:50], o.MaxSlippageBps)
	binary.LittleEndian.PutUint64(b[56:64], o.TimestampNs)
	return b
}

func OrderRequestFromBytes(b []byte) (*OrderRequest, error) {
	if len(b) != 64 {
		return nil, fmt.Errorf("%w: OrderRequest needs 64 bytes, got %d", ErrSizeConstraint, len(b))
	}
	o := &OrderRequest{OrderID: binary.LittleEndian.Uint64(b[0:8]), Side: OrderSide(b[28])}
	copy(o.PoolAddr[:], b[8:28])
	o.Amount = GetUint128LE(b[32:48])
	o.MaxSlippageBps = binary.LittleEndian.Uint16(b[48:50])
	o.TimestampNs = binary.LittleEndian.Uint64(b[56:64])
	return o, nil
}

// Fill is the zero-copy view of a TypeFill TLV value. Wire size: 80 bytes.
type Fill struct {
	OrderID     uint64
	FillID      uint64
	PoolAddr    [20]byte
	Amount      Uint128
	Price       Uint128
	TimestampNs uint64
}

func (f *Fill) AsBytes() []byte {
	b := make([]byte, 80)
	binary.LittleEndian.PutUint64(b[0:8], f.OrderID)
	binary.LittleEndian.PutUint64(b[8:16], f.FillID)
	copy(b[16:36], f.PoolAddr[:])
	PutUint128LE(b[36:52], f.Amount)
	PutUint128LE(b[52:68], f.Price)
	binary.LittleEndian.PutUint64(b[68:76], f.TimestampNs)
	return b
}

func FillFromBytes(b []byte) (*Fill, error) {
	if len(b) != 80 {
		return nil, fmt.Errorf("%w: Fill needs 80 bytes, got %d", ErrSizeConstraint, len(b))
	}
	f := &Fill{
		OrderID: binary.LittleEndian.Uint64(b[0:8]),
		FillID:  binary.LittleEndian.Uint64(b[8:16]),
	}
	copy(f.PoolAddr[:], b[16:36])
	f.Amount = GetUint128LE(b[36:52])
	f.Price = GetUint128LE(b[52:68])
	f.TimestampNs = binary.LittleEndian.Uint64(b[68:76])
	return f, nil
}
