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

package connpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeConn struct {
	healthy atomic.Bool
	closed  atomic.Bool
}

func newFakeConn() *fakeConn {
	c := &fakeConn{}
	c.healthy.Store(true)
	return c
}

func (c *fakeConn) Close() error  { c.closed.Store(true); return nil }
func (c *fakeConn) Healthy() bool { return c.healthy.Load() }

func countingFactory(t *testing.T) (Factory, *atomic.Int64) {
	t.Helper()
	var n atomic.Int64
	return func(ctx context.Context, key string) (Conn, error) {
		n.Add(1)
		return newFakeConn(), nil
	}, &n
}

func TestGetCreatesThenReuses(t *testing.T) {
	factory, created := countingFactory(t)
	p := New(Config{MaxTotal: 4, MaxPerEndpoint: 4}, factory, nil)
	defer p.Close()

	l1, err := p.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	l1.Release()

	l2, err := p.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	l2.Release()

	if created.Load() != 1 {
		t.Fatalf("expected exactly 1 connection created, got %d", created.Load())
	}
}

func TestGetRespectsPerEndpointLimit(t *testing.T) {
	// Total capacity is generous, but the endpoint's own limit is 1: a
	// second concurrent Get for the same key must wait rather than create
	// a new connection, and times out since the first is never released.
	factory, created := countingFactory(t)
	p := New(Config{MaxTotal: 10, MaxPerEndpoint: 1, MaxWaitTime: 50 * time.Millisecond}, factory, nil)
	defer p.Close()

	l1, err := p.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer l1.Release()

	if _, err := p.Get(context.Background(), "a"); err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if created.Load() != 1 {
		t.Fatalf("expected only 1 connection ever created, got %d", created.Load())
	}
}

func TestGetTimesOutWhenTotalExhausted(t *testing.T) {
	factory, _ := countingFactory(t)
	p := New(Config{MaxTotal: 1, MaxPerEndpoint: 10, MaxWaitTime: 50 * time.Millisecond}, factory, nil)
	defer p.Close()

	l1, err := p.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer l1.Release()

	if _, err := p.Get(context.Background(), "b"); err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestReleaseWakesSameKeyWaiter(t *testing.T) {
	// With both total and per-endpoint capacity at 1, a second Get for the
	// same key must wait for the first lease to be released, then reuse
	// that same connection rather than creating a new one.
	factory, created := countingFactory(t)
	p := New(Config{MaxTotal: 1, MaxPerEndpoint: 1, MaxWaitTime: 2 * time.Second}, factory, nil)
	defer p.Close()

	l1, err := p.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var gotErr error
	var l2 *Lease
	go func() {
		defer wg.Done()
		l2, gotErr = p.Get(context.Background(), "a")
	}()

	time.Sleep(20 * time.Millisecond)
	l1.Release()
	wg.Wait()

	if gotErr != nil {
		t.Fatalf("expected the waiter to succeed after release, got %v", gotErr)
	}
	if created.Load() != 1 {
		t.Fatalf("expected the waiter to reuse the released connection, created=%d", created.Load())
	}
	l2.Release()
}

func TestUnhealthyIdleConnectionIsNotReused(t *testing.T) {
	var handed *fakeConn
	factory := func(ctx context.Context, key string) (Conn, error) {
		handed = newFakeConn()
		return handed, nil
	}
	p := New(Config{MaxTotal: 4, MaxPerEndpoint: 4}, factory, nil)
	defer p.Close()

	l1, _ := p.Get(context.Background(), "a")
	l1.Release()
	stale := handed
	stale.healthy.Store(false)

	l2, err := p.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if l2.Conn == stale {
		t.Fatalf("expected an unhealthy idle connection to be discarded, not reused")
	}
	if !stale.closed.Load() {
		t.Fatalf("expected the unhealthy connection to be closed when evicted")
	}
}

func TestStatsReflectsActiveAndIdle(t *testing.T) {
	factory, _ := countingFactory(t)
	p := New(Config{MaxTotal: 4, MaxPerEndpoint: 4}, factory, nil)
	defer p.Close()

	l1, _ := p.Get(context.Background(), "a")
	stats := p.Stats()
	if stats.TotalConnections != 1 || stats.ActiveConnections != 1 || stats.IdleConnections != 0 {
		t.Fatalf("unexpected stats while checked out: %+v", stats)
	}
	l1.Release()

	stats = p.Stats()
	if stats.ActiveConnections != 0 || stats.IdleConnections != 1 {
		t.Fatalf("unexpected stats after release: %+v", stats)
	}
}

func TestCleanupIdleEvictsPastTimeout(t *testing.T) {
	factory, _ := countingFactory(t)
	p := New(Config{MaxTotal: 4, MaxPerEndpoint: 4, IdleTimeout: 10 * time.Millisecond}, factory, nil)
	defer p.Close()

	l1, _ := p.Get(context.Background(), "a")
	l1.Release()
	time.Sleep(25 * time.Millisecond)

	p.cleanupIdle()
	if stats := p.Stats(); stats.TotalConnections != 0 {
		t.Fatalf("expected idle connection to be evicted, stats: %+v", stats)
	}
}

func TestCleanupAbandonedReclaimsStaleLease(t *testing.T) {
	factory, _ := countingFactory(t)
	p := New(Config{MaxTotal: 1, MaxPerEndpoint: 4, AbandonedAfter: 10 * time.Millisecond, MaxWaitTime: time.Second}, factory, nil)
	defer p.Close()

	_, err := p.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	p.cleanupAbandoned()

	if stats := p.Stats(); stats.ActiveConnections != 0 {
		t.Fatalf("expected abandoned lease to be reclaimed, stats: %+v", stats)
	}
}
