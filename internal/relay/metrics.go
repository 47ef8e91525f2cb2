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

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the Prometheus collectors for one relay domain process.
// Construction follows the teacher's churn-package style: package-level
// constructors building plain Counter/Gauge values rather than a custom
// Collector — these are simple monotonic counts and a live connection
// gauge, none of which need per-scrape computation.
type Metrics struct {
	MessagesForwarded   prometheus.Counter
	ChannelFullEvents   prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	ResyncSkipBytes     prometheus.Counter
	ChecksumMismatches  prometheus.Counter
	GarbageDroppedBytes prometheus.Counter
}

// NewMetrics builds and registers the relay's metrics against reg, labeled
// by domain so multiple domain processes can share a registry in tests.
func NewMetrics(reg prometheus.Registerer, domain string) *Metrics {
	labels := prometheus.Labels{"domain": domain}
	m := &Metrics{
		MessagesForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "relay_messages_forwarded_total",
			Help:        "Messages successfully forwarded to at least one peer.",
			ConstLabels: labels,
		}),
		ChannelFullEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "relay_channel_full_events_total",
			Help:        "Forwards dropped because a peer's outbound buffer was full.",
			ConstLabels: labels,
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "relay_connections_active",
			Help:        "Currently connected peers.",
			ConstLabels: labels,
		}),
		ResyncSkipBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "relay_resync_skip_bytes_total",
			Help:        "Bytes skipped while resynchronizing on a corrupted stream.",
			ConstLabels: labels,
		}),
		ChecksumMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "relay_checksum_mismatches_total",
			Help:        "Messages dropped for failing domain-required CRC32 validation.",
			ConstLabels: labels,
		}),
		GarbageDroppedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "relay_garbage_dropped_bytes_total",
			Help:        "Bytes dropped after exceeding the resync window without finding a valid header.",
			ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.MessagesForwarded, m.ChannelFullEvents, m.ConnectionsActive,
			m.ResyncSkipBytes, m.ChecksumMismatches, m.GarbageDroppedBytes)
	}
	return m
}
