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

package relay

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	rendezvous "github.com/dgryski/go-rendezvous"
)

// ShardRouter picks which of a domain's N relay-shard processes owns a given
// producer source using rendezvous (highest random weight) hashing: adding
// or removing a shard only reshuffles the keys that mapped to that shard,
// instead of the wholesale reshuffle a modulo scheme would cause.
//
// A single relay process is sufficient for most deployments (spec §4.2 does
// not require sharding); ShardRouter exists for domains horizontally split
// across multiple relay processes under heavy MarketData fan-out.
type ShardRouter struct {
	mu     sync.RWMutex
	r      *rendezvous.Rendezvous
	shards []string
}

// NewShardRouter builds a router over the given shard identifiers (e.g.
// socket paths or process ids), using xxhash for the HRW scoring function.
func NewShardRouter(shards []string) *ShardRouter {
	cp := append([]string(nil), shards...)
	return &ShardRouter{
		r:      rendezvous.New(cp, xxhash.Sum64String),
		shards: cp,
	}
}

// ShardFor returns the shard identifier responsible for source.
func (s *ShardRouter) ShardFor(source uint8) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r.Lookup(strconv.Itoa(int(source)))
}

// AddShard adds a new shard to the rendezvous set.
func (s *ShardRouter) AddShard(shard string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Add(shard)
	s.shards = append(s.shards, shard)
}

// RemoveShard removes shard from the rendezvous set.
func (s *ShardRouter) RemoveShard(shard string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Remove(shard)
	for i, sh := range s.shards {
		if sh == shard {
			s.shards = append(s.shards[:i], s.shards[i+1:]...)
			break
		}
	}
}

// Shards returns a snapshot of the current shard set.
func (s *ShardRouter) Shards() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.shards...)
}
