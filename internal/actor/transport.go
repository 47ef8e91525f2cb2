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
	"net"
)

// TransportKind names the wire an actor reference uses to reach its
// target, recorded in metrics on selection (spec §4.7 "Transport
// selection").
type TransportKind int

const (
	TransportLocal TransportKind = iota
	TransportUnixSocket
	TransportNetwork
)

func (k TransportKind) String() string {
	switch k {
	case TransportLocal:
		return "local"
	case TransportUnixSocket:
		return "unix"
	case TransportNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Transport is the common send contract every transport kind implements,
// mirrored on the original's ActorTransport variant dispatch (spec §9
// "Dynamic dispatch over transports": a tagged variant over a common
// send/receive contract rather than an inheritance tree).
type Transport interface {
	Kind() TransportKind
	Send(ctx context.Context, msg Message, p Priority) error
	Close() error
}

// LocalTransport delivers directly into an in-process Mailbox: the
// zero-cost path for actors bundled in the same process (spec §4.7).
type LocalTransport struct {
	mailbox *Mailbox
}

func NewLocalTransport(mb *Mailbox) *LocalTransport { return &LocalTransport{mailbox: mb} }

func (t *LocalTransport) Kind() TransportKind { return TransportLocal }

func (t *LocalTransport) Send(ctx context.Context, msg Message, p Priority) error {
	return t.mailbox.SendPriority(ctx, msg, p)
}

func (t *LocalTransport) Close() error { return nil }

// Encoder turns a Message into wire bytes for a non-local transport. The
// actor package has no opinion on wire format; callers plug in pkg/tlv or
// any other codec.
type Encoder func(msg Message) ([]byte, error)

// SocketTransport delivers over a net.Conn (a Unix socket for same-node
// actors, or a TCP connection for Distributed bundles) — the original
// collapses both into one path once a connection exists, and this port
// does the same (spec §4.7, §9).
type SocketTransport struct {
	kind   TransportKind
	conn   net.Conn
	encode Encoder
}

// NewSocketTransport wraps an already-established connection. kind should
// be TransportUnixSocket or TransportNetwork depending on how the caller
// dialed conn.
func NewSocketTransport(kind TransportKind, conn net.Conn, encode Encoder) *SocketTransport {
	return &SocketTransport{kind: kind, conn: conn, encode: encode}
}

func (t *SocketTransport) Kind() TransportKind { return t.kind }

// Send ignores p: priority only matters for the in-process mailbox lane
// selection, not for a point-to-point socket write.
func (t *SocketTransport) Send(ctx context.Context, msg Message, p Priority) error {
	b, err := t.encode(msg)
	if err != nil {
		return fmt.Errorf("actor: encode message for %s transport: %w", t.kind, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(dl)
	}
	_, err = t.conn.Write(b)
	if err != nil {
		return fmt.Errorf("actor: write to %s transport: %w", t.kind, err)
	}
	return nil
}

func (t *SocketTransport) Close() error { return t.conn.Close() }

// Dialer establishes the connection a bundle configuration names for a
// given actor id, returning the socket kind so callers don't have to infer
// it again from the address shape.
type Dialer func(ctx context.Context, addr string) (net.Conn, TransportKind, error)

// DialUnix connects to a Unix domain socket path, the SameNode deployment
// mode's transport (spec §4.7 "Transport selection").
func DialUnix(ctx context.Context, path string) (net.Conn, TransportKind, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, TransportUnixSocket, fmt.Errorf("actor: dial unix socket %s: %w", path, err)
	}
	return conn, TransportUnixSocket, nil
}

// DialNetwork connects over TCP to a Distributed deployment mode's node
// assignment address (spec §4.7 "Transport selection").
func DialNetwork(ctx context.Context, addr string) (net.Conn, TransportKind, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, TransportNetwork, fmt.Errorf("actor: dial network peer %s: %w", addr, err)
	}
	return conn, TransportNetwork, nil
}
