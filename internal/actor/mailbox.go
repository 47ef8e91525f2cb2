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
	"sync"
)

// Priority selects which mailbox lane a message is enqueued on.
type Priority int

const (
	Normal Priority = iota
	High
)

// Mailbox is a two-lane queue: a bounded high-priority channel and an
// unbounded normal-priority channel, grounded on the original runtime's
// Mailbox/MailboxReceiver split (spec §4.7 "Mailbox"). Go has no unbounded
// channel primitive, so the normal lane is backed by a growable slice
// behind a condition-style wakeup channel rather than mpsc::unbounded.
type Mailbox struct {
	high chan Message

	normalCh  chan struct{}
	normalBuf *normalQueue

	mu     sync.RWMutex
	closed bool
}

// NewMailbox builds a Mailbox whose high-priority lane holds at most
// highCapacity messages; a High SendPriority on a full lane then waits on
// its context. The normal lane, used by Send, has no bound.
func NewMailbox(highCapacity int) *Mailbox {
	return &Mailbox{
		high:      make(chan Message, highCapacity),
		normalCh:  make(chan struct{}, 1),
		normalBuf: newNormalQueue(),
	}
}

// Send enqueues msg on the normal-priority lane. It never blocks: the
// normal lane is unbounded, matching the original's mpsc::unbounded_channel
// (spec §4.7).
func (m *Mailbox) Send(msg Message) error {
	return m.SendPriority(context.Background(), msg, Normal)
}

// SendPriority enqueues msg on the given lane. High-priority sends try a
// non-blocking enqueue first and fall back to blocking on ctx so a full
// high-priority lane applies backpressure instead of silently dropping.
// Once the mailbox is closed it returns ErrMailboxClosed instead of
// touching the channel, so a Send racing a concurrent Close never panics
// with "send on closed channel".
func (m *Mailbox) SendPriority(ctx context.Context, msg Message, p Priority) error {
	if p == High {
		m.mu.RLock()
		defer m.mu.RUnlock()
		if m.closed {
			return ErrMailboxClosed
		}
		select {
		case m.high <- msg:
			return nil
		default:
		}
		select {
		case m.high <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrMailboxClosed
	}
	m.normalBuf.push(msg)
	select {
	case m.normalCh <- struct{}{}:
	default:
	}
	return nil
}

// Close marks the mailbox as done accepting new sends; in-flight Sends
// that already passed the closed check still land, but any Send/SendPriority
// starting afterward returns ErrMailboxClosed rather than racing the
// channel close. Recv still drains whatever was already enqueued before
// reporting ok=false. Safe to call more than once.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.high)
}

// Recv returns the next message and the lane it arrived on, draining the
// high-priority lane first (biased select, spec §4.7). It returns
// ok=false once both lanes are empty and the mailbox has been closed.
func (m *Mailbox) Recv(ctx context.Context) (msg Message, p Priority, ok bool) {
	for {
		select {
		case msg, ok = <-m.high:
			if ok {
				return msg, High, true
			}
			// high lane closed: drain whatever remains on normal, then stop.
			if v, has := m.normalBuf.pop(); has {
				return v, Normal, true
			}
			return nil, Normal, false
		default:
		}

		if v, has := m.normalBuf.pop(); has {
			return v, Normal, true
		}

		select {
		case msg, ok = <-m.high:
			if !ok {
				if v, has := m.normalBuf.pop(); has {
					return v, Normal, true
				}
				return nil, Normal, false
			}
			return msg, High, true
		case <-m.normalCh:
			continue
		case <-ctx.Done():
			return nil, Normal, false
		}
	}
}

// normalQueue is a tiny mutex-guarded FIFO standing in for an unbounded
// channel; Go has no unbounded-channel primitive, so the normal lane is a
// plain slice behind a mutex instead.
type normalQueue struct {
	mu    sync.Mutex
	items []Message
}

func newNormalQueue() *normalQueue {
	return &normalQueue{}
}

func (q *normalQueue) push(msg Message) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
}

func (q *normalQueue) pop() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	v := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return v, true
}
