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
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"protov2/pkg/tlv"
)

// Config configures one relay domain process.
type Config struct {
	Domain tlv.Domain
	// Network and Address are passed to net.Listen. Network defaults to
	// "unix" (spec §6: "one datagram/stream socket per relay domain").
	Network string
	Address string
	// PeerSendBuffer sizes each peer's outbound channel; forwards beyond
	// this depth are dropped (try_send semantics, spec §4.2).
	PeerSendBuffer int
}

func (c Config) withDefaults() Config {
	if c.Network == "" {
		c.Network = "unix"
	}
	if c.PeerSendBuffer <= 0 {
		c.PeerSendBuffer = 256
	}
	return c
}

// Server is a single relay domain process: it accepts peer connections and
// forwards every complete message from any peer to every other connected
// peer. It is role-agnostic — a connection may produce, consume, or both.
type Server struct {
	cfg     Config
	metrics *Metrics

	ln net.Listener

	mu    sync.RWMutex
	peers map[*peerConn]struct{}

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewServer builds a relay server for the given config. reg may be nil to
// skip Prometheus registration (useful in tests that construct many servers
// against the default registry).
func NewServer(cfg Config, reg prometheus.Registerer) *Server {
	cfg = cfg.withDefaults()
	return &Server{
		cfg:     cfg,
		metrics: NewMetrics(reg, cfg.Domain.String()),
		peers:   make(map[*peerConn]struct{}),
		stopCh:  make(chan struct{}),
	}
}

// Start binds the listening socket and begins accepting connections.
func (s *Server) Start() error {
	ln, err := net.Listen(s.cfg.Network, s.cfg.Address)
	if err != nil {
		return fmt.Errorf("relay: listen %s %s: %w", s.cfg.Network, s.cfg.Address, err)
	}
	s.ln = ln
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener, disconnects all peers, and waits for the
// accept/read/write goroutines to exit.
func (s *Server) Stop() {
	close(s.stopCh)
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.mu.Lock()
	for p := range s.peers {
		_ = p.conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				log.Printf("relay[%s]: accept error: %v", s.cfg.Domain, err)
				return
			}
		}
		p := &peerConn{conn: conn, out: make(chan []byte, s.cfg.PeerSendBuffer), framer: NewFramer()}
		s.addPeer(p)
		s.wg.Add(2)
		go s.readLoop(p)
		go s.writeLoop(p)
	}
}

func (s *Server) addPeer(p *peerConn) {
	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()
	s.metrics.ConnectionsActive.Inc()
}

func (s *Server) removePeer(p *peerConn) {
	s.mu.Lock()
	_, ok := s.peers[p]
	delete(s.peers, p)
	s.mu.Unlock()
	if ok {
		s.metrics.ConnectionsActive.Dec()
	}
	close(p.out)
}

func (s *Server) readLoop(p *peerConn) {
	defer s.wg.Done()
	buf := make([]byte, 64*1024)
	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			frames := p.framer.Feed(buf[:n])
			s.metrics.ResyncSkipBytes.Add(float64(p.framer.ResyncSkipped))
			s.metrics.ChecksumMismatches.Add(float64(p.framer.ChecksumMismatches))
			s.metrics.GarbageDroppedBytes.Add(float64(p.framer.GarbageDropped))
			p.framer.ResyncSkipped, p.framer.ChecksumMismatches, p.framer.GarbageDropped = 0, 0, 0
			for _, frame := range frames {
				s.broadcast(p, frame)
			}
		}
		if err != nil {
			_ = p.conn.Close()
			s.removePeer(p)
			return
		}
	}
}

func (s *Server) writeLoop(p *peerConn) {
	defer s.wg.Done()
	for frame := range p.out {
		if _, err := p.conn.Write(frame); err != nil {
			_ = p.conn.Close()
			return
		}
	}
}

// broadcast forwards frame from p to every other connected peer. A full
// peer buffer drops the forward for that peer only (never blocks on a slow
// consumer) and increments ChannelFullEvents.
func (s *Server) broadcast(from *peerConn, frame []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	forwarded := false
	for p := range s.peers {
		if p == from {
			continue
		}
		select {
		case p.out <- frame:
			forwarded = true
		default:
			s.metrics.ChannelFullEvents.Inc()
		}
	}
	if forwarded {
		s.metrics.MessagesForwarded.Inc()
	}
}

// PeerCount returns the number of currently connected peers.
func (s *Server) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// Addr returns the listener's local address, or nil if not started.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

type peerConn struct {
	conn   net.Conn
	out    chan []byte
	framer *Framer
}
