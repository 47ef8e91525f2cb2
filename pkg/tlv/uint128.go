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
	"math/big"
)

// Uint128 is a wire-format 128-bit unsigned integer (sqrt_price_x96,
// liquidity, reserves). Go has no native u128; we carry it as two u64 limbs
// and convert to/from math/big.Int for arithmetic at the pool-state layer.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// PutUint128LE encodes v little-endian into b[0:16].
func PutUint128LE(b []byte, v Uint128) {
	binary.LittleEndian.PutUint64(b[0:8], v.Lo)
	binary.LittleEndian.PutUint64(b[8:16], v.Hi)
}

// GetUint128LE decodes a little-endian 128-bit value from b[0:16].
func GetUint128LE(b []byte) Uint128 {
	return Uint128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// Big converts to a *big.Int for arithmetic.
func (v Uint128) Big() *big.Int {
	out := new(big.Int).SetUint64(v.Hi)
	out.Lsh(out, 64)
	out.Or(out, new(big.Int).SetUint64(v.Lo))
	return out
}

// IsZero reports whether both limbs are zero.
func (v Uint128) IsZero() bool { return v.Lo == 0 && v.Hi == 0 }

// Uint128FromBig converts a non-negative *big.Int back into a Uint128,
// truncating silently above 2^128 (callers that care should check BitLen).
func Uint128FromBig(b *big.Int) Uint128 {
	if b == nil || b.Sign() < 0 {
		return Uint128{}
	}
	mask := new(big.Int).SetUint64(^uint64(0))
	lo := new(big.Int).And(b, mask).Uint64()
	hi := new(big.Int).Rsh(b, 64)
	hi.And(hi, mask)
	return Uint128{Lo: lo, Hi: hi.Uint64()}
}
