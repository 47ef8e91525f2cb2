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

package actor

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingBehavior struct {
	BaseBehavior
	mu       sync.Mutex
	handled  []Message
	starts   int32
	stops    int32
	onError  func(err error) Directive
	handleFn func(msg Message) error
}

func (b *recordingBehavior) OnStart(ctx context.Context) error {
	atomic.AddInt32(&b.starts, 1)
	return nil
}

func (b *recordingBehavior) OnStop(ctx context.Context) error {
	atomic.AddInt32(&b.stops, 1)
	return nil
}

func (b *recordingBehavior) Handle(ctx context.Context, msg Message) error {
	b.mu.Lock()
	b.handled = append(b.handled, msg)
	b.mu.Unlock()
	if b.handleFn != nil {
		return b.handleFn(msg)
	}
	return nil
}

func (b *recordingBehavior) OnError(ctx context.Context, err error) Directive {
	if b.onError != nil {
		return b.onError(err)
	}
	return Restart
}

func (b *recordingBehavior) seen() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.handled...)
}

func waitForCount(t *testing.T, get func() int, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if get() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for count >= %d, got %d", want, get())
}

func TestSpawnRunsOnStartThenHandlesMessages(t *testing.T) {
	sys := NewSystem(nil, nil, nil)
	b := &recordingBehavior{}
	ref, err := sys.Spawn(context.Background(), "a1", b, NewRootSupervision(), 4)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if err := ref.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitForCount(t, func() int { return len(b.seen()) }, 1)

	if ref.TransportKind() != TransportLocal {
		t.Fatalf("expected local transport, got %v", ref.TransportKind())
	}
	if atomic.LoadInt32(&b.starts) != 1 {
		t.Fatalf("expected OnStart called once, got %d", b.starts)
	}

	if err := sys.Stop(context.Background(), "a1"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if atomic.LoadInt32(&b.stops) != 1 {
		t.Fatalf("expected OnStop called once, got %d", b.stops)
	}
}

func TestStopUnknownActorReturnsError(t *testing.T) {
	sys := NewSystem(nil, nil, nil)
	if err := sys.Stop(context.Background(), "missing"); !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}
}

func TestHighPriorityMessageHandledBeforeQueuedNormal(t *testing.T) {
	sys := NewSystem(nil, nil, nil)
	gate := make(chan struct{})

	b := &recordingBehavior{}
	b.handleFn = func(msg Message) error {
		if msg == "block" {
			<-gate
		}
		return nil
	}

	ref, err := sys.Spawn(context.Background(), "blocker", b, NewRootSupervision(), 4)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	// The first message parks the actor on gate so both later sends are
	// queued before either is processed, letting the lane bias matter.
	if err := ref.Send(context.Background(), "block"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitForCount(t, func() int { return len(b.seen()) }, 1)

	if err := ref.SendPriority(context.Background(), "normal", Normal); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := ref.SendPriority(context.Background(), "high", High); err != nil {
		t.Fatalf("SendPriority: %v", err)
	}
	close(gate)

	waitForCount(t, func() int { return len(b.seen()) }, 3)
	seen := b.seen()
	if len(seen) != 3 || seen[1] != "high" || seen[2] != "normal" {
		t.Fatalf("expected [block high normal], got %v", seen)
	}
	_ = sys.Stop(context.Background(), "blocker")
}

func TestRestartBudgetExceededStopsTheActor(t *testing.T) {
	sys := NewSystem(nil, nil, nil)
	b := &recordingBehavior{}
	b.handleFn = func(msg Message) error { return errors.New("boom") }
	b.onError = func(err error) Directive { return Restart }

	sup := NewChildSupervision("root", 2, time.Minute)
	ref, err := sys.Spawn(context.Background(), "flaky", b, sup, 4)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	for i := 0; i < 5; i++ {
		_ = ref.Send(context.Background(), i)
	}

	// 2 successful restarts (OnStop+OnStart each) plus the final OnStop once
	// the budget is exhausted adds up to 3 total OnStop calls.
	waitForCount(t, func() int { return int(atomic.LoadInt32(&b.stops)) }, 3)
	if atomic.LoadInt32(&b.starts) != 3 {
		t.Fatalf("expected exactly 3 starts (initial + 2 restarts), got %d", b.starts)
	}
}

func TestShutdownStopsAllActors(t *testing.T) {
	sys := NewSystem(nil, nil, nil)
	var behaviors []*recordingBehavior
	for i := 0; i < 3; i++ {
		b := &recordingBehavior{}
		behaviors = append(behaviors, b)
		if _, err := sys.Spawn(context.Background(), ActorID(string(rune('a'+i))), b, NewRootSupervision(), 4); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	if err := sys.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	for i, b := range behaviors {
		if atomic.LoadInt32(&b.stops) != 1 {
			t.Fatalf("actor %d: expected OnStop called once, got %d", i, b.stops)
		}
	}
	if len(sys.List()) != 0 {
		t.Fatalf("expected no actors left after shutdown, got %d", len(sys.List()))
	}
}

func TestBundleResolvesUnixTransportWithFallback(t *testing.T) {
	sys := NewSystem(NewMetrics(nil, "test"), func(ctx context.Context, addr string) (net.Conn, TransportKind, error) {
		return nil, TransportUnixSocket, errors.New("dial failed")
	}, nil)
	sys.AddBundle(&Bundle{
		Name:        "same-node",
		Deployment:  DeploymentSameNode,
		SocketPaths: map[ActorID]string{"peer": "/tmp/peer.sock"},
	})

	b := &recordingBehavior{}
	ref, err := sys.Spawn(context.Background(), "peer", b, NewRootSupervision(), 4)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if ref.TransportKind() != TransportLocal {
		t.Fatalf("expected fallback to local transport on dial failure, got %v", ref.TransportKind())
	}
}
