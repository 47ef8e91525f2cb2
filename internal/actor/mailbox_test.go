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
	"testing"
	"time"
)

func TestMailboxDrainsHighPriorityFirst(t *testing.T) {
	mb := NewMailbox(8)
	ctx := context.Background()

	if err := mb.SendPriority(ctx, "normal-1", Normal); err != nil {
		t.Fatalf("send normal: %v", err)
	}
	if err := mb.SendPriority(ctx, "high-1", High); err != nil {
		t.Fatalf("send high: %v", err)
	}

	msg, p, ok := mb.Recv(ctx)
	if !ok || msg != "high-1" || p != High {
		t.Fatalf("expected high-1/High first, got %v/%v/%v", msg, p, ok)
	}

	msg, p, ok = mb.Recv(ctx)
	if !ok || msg != "normal-1" || p != Normal {
		t.Fatalf("expected normal-1/Normal second, got %v/%v/%v", msg, p, ok)
	}
}

func TestMailboxNormalLaneNeverBlocksOnSend(t *testing.T) {
	mb := NewMailbox(1)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		if err := mb.Send("x"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	count := 0
	for {
		rctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		_, _, ok := mb.Recv(rctx)
		cancel()
		if !ok {
			break
		}
		count++
	}
	if count != 1000 {
		t.Fatalf("expected to drain 1000 messages, got %d", count)
	}
}

func TestMailboxCloseDrainsThenStops(t *testing.T) {
	mb := NewMailbox(4)
	ctx := context.Background()

	if err := mb.Send("pending"); err != nil {
		t.Fatalf("send: %v", err)
	}
	mb.Close()

	msg, _, ok := mb.Recv(ctx)
	if !ok || msg != "pending" {
		t.Fatalf("expected to drain the pending message, got %v/%v", msg, ok)
	}

	_, _, ok = mb.Recv(ctx)
	if ok {
		t.Fatalf("expected Recv to report done after drain")
	}
}

func TestMailboxSendRacesClose(t *testing.T) {
	mb := NewMailbox(4)

	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for {
			_, _, ok := mb.Recv(context.Background())
			if !ok {
				return
			}
		}
	}()

	sendDone := make(chan struct{})
	go func() {
		defer close(sendDone)
		for i := 0; i < 500; i++ {
			sctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			_ = mb.SendPriority(sctx, i, High)
			cancel()
			_ = mb.Send(i)
		}
	}()

	time.Sleep(time.Millisecond)
	mb.Close()

	<-sendDone
	<-drainDone

	if err := mb.SendPriority(context.Background(), "late", High); err != ErrMailboxClosed {
		t.Fatalf("expected ErrMailboxClosed for high-priority send after close, got %v", err)
	}
	if err := mb.Send("late"); err != ErrMailboxClosed {
		t.Fatalf("expected ErrMailboxClosed for normal send after close, got %v", err)
	}
}

func TestMailboxRecvRespectsContextCancellation(t *testing.T) {
	mb := NewMailbox(4)
	cctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, ok := mb.Recv(cctx)
	if ok {
		t.Fatalf("expected Recv to return immediately on a cancelled context")
	}
}
