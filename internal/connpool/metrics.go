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

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the Prometheus collectors for one Pool, grounded on the
// teacher's churn-counter plus package-level-gauge style.
type Metrics struct {
	Created          prometheus.Counter
	Reused           prometheus.Counter
	Active           prometheus.Gauge
	WaitEvents       prometheus.Counter
	WaitTimeouts     prometheus.Counter
	EvictedIdle      prometheus.Counter
	EvictedAbandoned prometheus.Counter
}

// NewMetrics builds and registers a Metrics set under the given name
// (distinguishing, e.g., multiple pools for different transports sharing
// one registry).
func NewMetrics(reg prometheus.Registerer, name string) *Metrics {
	labels := prometheus.Labels{"pool": name}
	m := &Metrics{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connpool_connections_created_total", Help: "Connections created.", ConstLabels: labels,
		}),
		Reused: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connpool_connections_reused_total", Help: "Idle connections reused instead of recreated.", ConstLabels: labels,
		}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "connpool_connections_active", Help: "Connections currently checked out.", ConstLabels: labels,
		}),
		WaitEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connpool_wait_events_total", Help: "Get calls that had to queue for a slot.", ConstLabels: labels,
		}),
		WaitTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connpool_wait_timeouts_total", Help: "Queued Get calls that exceeded max_wait_time.", ConstLabels: labels,
		}),
		EvictedIdle: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connpool_evicted_idle_total", Help: "Connections closed for sitting idle past idle_timeout.", ConstLabels: labels,
		}),
		EvictedAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connpool_evicted_abandoned_total", Help: "Leases forcibly reclaimed after abandoned_after.", ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Created, m.Reused, m.Active, m.WaitEvents, m.WaitTimeouts, m.EvictedIdle, m.EvictedAbandoned)
	}
	return m
}
