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
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ActorID identifies an actor within a System.
type ActorID string

// Status is an actor's lifecycle state.
type Status int

const (
	StatusStarting Status = iota
	StatusRunning
	StatusStopping
	StatusStopped
	StatusFailed
)

// DeploymentMode is how a bundle places its actors, matching the
// original's BundleConfiguration::DeploymentMode (spec §4.7 "Transport
// selection").
type DeploymentMode int

const (
	// DeploymentSharedMemory keeps actors in the same process, wired
	// together by direct mailbox sends.
	DeploymentSharedMemory DeploymentMode = iota
	// DeploymentSameNode reaches peer actors over a Unix domain socket.
	DeploymentSameNode
	// DeploymentDistributed reaches peer actors over a TCP connection.
	DeploymentDistributed
)

// Bundle groups actor ids under one deployment mode and the addresses
// needed to reach them when that mode isn't shared memory.
type Bundle struct {
	Name          string
	Deployment    DeploymentMode
	SocketPaths   map[ActorID]string // DeploymentSameNode
	NodeAddresses map[ActorID]string // DeploymentDistributed
}

func (b *Bundle) contains(id ActorID) bool {
	if _, ok := b.SocketPaths[id]; ok {
		return true
	}
	_, ok := b.NodeAddresses[id]
	return ok
}

// Handle describes a running actor for introspection.
type Handle struct {
	ID        ActorID
	Status    Status
	Transport TransportKind
	StartedAt time.Time
}

type actorEntry struct {
	id      ActorID
	mailbox *Mailbox
	status  atomic.Int32
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

func (e *actorEntry) setStatus(s Status) { e.status.Store(int32(s)) }
func (e *actorEntry) getStatus() Status  { return Status(e.status.Load()) }

// System is the minimal actor runtime: it owns actor mailboxes, runs their
// supervised message loops, and resolves transports for references into
// the system (spec §4.7), grounded on the original's ActorSystem.
type System struct {
	mu      sync.Mutex
	actors  map[ActorID]*actorEntry
	bundles map[string]*Bundle
	metrics *Metrics
	dial    Dialer
	encode  Encoder
}

// NewSystem builds an empty System. dial and encode may be nil if no
// actor is ever placed in a SameNode or Distributed bundle.
func NewSystem(m *Metrics, dial Dialer, encode Encoder) *System {
	return &System{
		actors:  make(map[ActorID]*actorEntry),
		bundles: make(map[string]*Bundle),
		metrics: m,
		dial:    dial,
		encode:  encode,
	}
}

// AddBundle registers a deployment bundle used to resolve transports for
// actors spawned afterward.
func (s *System) AddBundle(b *Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[b.Name] = b
}

// ActorRef is a location-transparent reference returned by Spawn.
type ActorRef struct {
	id        ActorID
	transport Transport
}

func (r *ActorRef) ID() ActorID { return r.id }

func (r *ActorRef) TransportKind() TransportKind { return r.transport.Kind() }

// Send enqueues msg at normal priority.
func (r *ActorRef) Send(ctx context.Context, msg Message) error {
	return r.transport.Send(ctx, msg, Normal)
}

// SendPriority enqueues msg on the given lane (spec §4.7 "Mailbox").
func (r *ActorRef) SendPriority(ctx context.Context, msg Message, p Priority) error {
	return r.transport.Send(ctx, msg, p)
}

// Spawn starts behavior's message loop under sup's restart budget and
// returns a reference to it. highPriorityCapacity sizes the bounded lane;
// the original defaults to 1000.
func (s *System) Spawn(ctx context.Context, id ActorID, behavior Behavior, sup *SupervisionContext, highPriorityCapacity int) (*ActorRef, error) {
	mb := NewMailbox(highPriorityCapacity)
	transport := s.resolveTransport(id, mb)

	runCtx, cancel := context.WithCancel(ctx)
	entry := &actorEntry{
		id:      id,
		mailbox: mb,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	entry.setStatus(StatusStarting)

	s.mu.Lock()
	s.actors[id] = entry
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ActorsSpawned.Inc()
	}

	task := &runner{
		id:       id,
		behavior: behavior,
		mailbox:  mb,
		sup:      sup,
		metrics:  s.metrics,
		entry:    entry,
	}
	go task.run(runCtx)

	return &ActorRef{id: id, transport: transport}, nil
}

// resolveTransport picks Local/SameNode/Distributed for id per the
// bundle that names it, falling back to local on a dial failure just as
// the original does (spec §4.7, §9).
func (s *System) resolveTransport(id ActorID, mb *Mailbox) Transport {
	s.mu.Lock()
	var bundle *Bundle
	for _, b := range s.bundles {
		if b.contains(id) {
			bundle = b
			break
		}
	}
	s.mu.Unlock()

	local := NewLocalTransport(mb)
	if bundle == nil {
		s.recordTransport(TransportLocal)
		return local
	}

	switch bundle.Deployment {
	case DeploymentSameNode:
		path, ok := bundle.SocketPaths[id]
		if !ok || s.dial == nil {
			s.recordTransport(TransportLocal)
			return local
		}
		conn, kind, err := s.dial(context.Background(), path)
		if err != nil {
			s.recordTransport(TransportLocal)
			return local
		}
		s.recordTransport(kind)
		return NewSocketTransport(kind, conn, s.encode)
	case DeploymentDistributed:
		addr, ok := bundle.NodeAddresses[id]
		if !ok || s.dial == nil {
			s.recordTransport(TransportLocal)
			return local
		}
		conn, kind, err := s.dial(context.Background(), addr)
		if err != nil {
			s.recordTransport(TransportLocal)
			return local
		}
		s.recordTransport(kind)
		return NewSocketTransport(kind, conn, s.encode)
	default:
		s.recordTransport(TransportLocal)
		return local
	}
}

func (s *System) recordTransport(kind TransportKind) {
	if s.metrics != nil {
		s.metrics.recordTransportSelection(kind)
	}
}

// Stop cancels id's message loop, waits for it to drain, and removes it
// from the system.
func (s *System) Stop(ctx context.Context, id ActorID) error {
	s.mu.Lock()
	entry, ok := s.actors[id]
	if ok {
		delete(s.actors, id)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("actor: stop %s: %w", id, ErrUnknownActor)
	}

	entry.mailbox.Close()
	entry.cancel()

	select {
	case <-entry.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if s.metrics != nil {
		s.metrics.ActorsStopped.Inc()
	}
	return nil
}

// List returns a snapshot of every actor's handle.
func (s *System) List() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Handle, 0, len(s.actors))
	for _, e := range s.actors {
		out = append(out, Handle{ID: e.id, Status: e.getStatus(), StartedAt: e.started})
	}
	return out
}

// Shutdown stops every actor, cancelling stragglers once ctx is done,
// matching the original's abort-remaining-tasks shutdown path.
func (s *System) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]ActorID, 0, len(s.actors))
	for id := range s.actors {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := s.Stop(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
