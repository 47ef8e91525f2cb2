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

// Command relay runs a single Protocol V2 relay domain: it accepts peer
// connections over a Unix domain socket (or TCP, for out-of-process
// demoing) and forwards every complete, checksummed frame from any peer to
// every other connected peer on the same domain.
//
// Usage:
//
//	go run ./cmd/relay -domain market_data -addr /tmp/relay-market_data.sock
//
// One process is meant to be started per relay domain (spec §6: "one
// datagram/stream socket per relay domain"); run it again with a different
// -domain and -addr to stand up the other three.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"protov2/internal/relay"
	"protov2/pkg/tlv"
)

func parseDomain(s string) (tlv.Domain, error) {
	switch s {
	case "market_data":
		return tlv.DomainMarketData, nil
	case "signal":
		return tlv.DomainSignal, nil
	case "execution":
		return tlv.DomainExecution, nil
	case "system":
		return tlv.DomainSystem, nil
	default:
		return 0, fmt.Errorf("unknown domain %q (want one of market_data, signal, execution, system)", s)
	}
}

func main() {
	domainFlag := flag.String("domain", "market_data", "relay domain: market_data|signal|execution|system")
	network := flag.String("network", "unix", "listener network: unix|tcp")
	addr := flag.String("addr", "", "listen address (unix socket path or host:port); defaults to /tmp/relay-<domain>.sock for network=unix")
	peerBuf := flag.Int("peer_buffer", 256, "per-peer outbound send buffer depth")
	metricsAddr := flag.String("metrics_http", ":9100", "HTTP listen address for /metrics and /healthz")
	flag.Parse()

	domain, err := parseDomain(*domainFlag)
	if err != nil {
		log.Fatalf("relay: %v", err)
	}

	// Apply sane defaults if flags are explicitly set empty/zero.
	if *network == "" {
		*network = "unix"
	}
	if *addr == "" {
		if *network == "unix" {
			*addr = fmt.Sprintf("/tmp/relay-%s.sock", *domainFlag)
		} else {
			*addr = ":9190"
		}
	}
	if *peerBuf <= 0 {
		*peerBuf = 256
	}
	if *metricsAddr == "" {
		*metricsAddr = ":9100"
	}

	if *network == "unix" {
		_ = os.Remove(*addr)
	}

	srv := relay.NewServer(relay.Config{
		Domain:         domain,
		Network:        *network,
		Address:        *addr,
		PeerSendBuffer: *peerBuf,
	}, prometheus.DefaultRegisterer)
	if err := srv.Start(); err != nil {
		log.Fatalf("relay: %v", err)
	}
	defer srv.Stop()
	log.Printf("relay[%s]: listening on %s %s", domain, *network, *addr)

	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"domain": domain.String(),
			"peers":  srv.PeerCount(),
			"time":   time.Now().UTC(),
		})
	})

	go func() {
		log.Printf("relay[%s]: metrics/health on %s", domain, *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			log.Fatalf("relay: http: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
