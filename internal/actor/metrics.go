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

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the Prometheus collectors for one actor system, grounded on
// the original's SystemMetrics counters (spec §4.7, §5 "Transport
// selection"): actor lifecycle counts, restart outcomes, mailbox lane
// volume, and transport selection, following the teacher's package-level
// Counter/Gauge construction style (internal/relay/metrics.go).
type Metrics struct {
	ActorsSpawned prometheus.Counter
	ActorsStopped prometheus.Counter

	MessagesProcessed      prometheus.Counter
	HighPriorityMessages   prometheus.Counter
	NormalPriorityMessages prometheus.Counter

	ActorRestarts   prometheus.Counter
	RestartFailures prometheus.Counter

	LocalTransportSelections   prometheus.Counter
	UnixTransportSelections    prometheus.Counter
	NetworkTransportSelections prometheus.Counter
}

// NewMetrics builds and registers a Metrics set labeled by system name.
func NewMetrics(reg prometheus.Registerer, system string) *Metrics {
	labels := prometheus.Labels{"system": system}
	m := &Metrics{
		ActorsSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_actors_spawned_total", Help: "Actors spawned.", ConstLabels: labels,
		}),
		ActorsStopped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_actors_stopped_total", Help: "Actors stopped.", ConstLabels: labels,
		}),
		MessagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_messages_processed_total", Help: "Messages handled across all actors.", ConstLabels: labels,
		}),
		HighPriorityMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_high_priority_messages_total", Help: "Messages received on the high-priority lane.", ConstLabels: labels,
		}),
		NormalPriorityMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_normal_priority_messages_total", Help: "Messages received on the normal-priority lane.", ConstLabels: labels,
		}),
		ActorRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_restarts_total", Help: "Restart attempts triggered by a Restart directive.", ConstLabels: labels,
		}),
		RestartFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_restart_budget_exceeded_total", Help: "Restarts that exceeded the restart budget and escalated instead.", ConstLabels: labels,
		}),
		LocalTransportSelections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_transport_local_selections_total", Help: "Actor refs resolved to the local in-process transport.", ConstLabels: labels,
		}),
		UnixTransportSelections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_transport_unix_selections_total", Help: "Actor refs resolved to a Unix socket transport.", ConstLabels: labels,
		}),
		NetworkTransportSelections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actor_transport_network_selections_total", Help: "Actor refs resolved to a network transport.", ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ActorsSpawned, m.ActorsStopped, m.MessagesProcessed,
			m.HighPriorityMessages, m.NormalPriorityMessages, m.ActorRestarts, m.RestartFailures,
			m.LocalTransportSelections, m.UnixTransportSelections, m.NetworkTransportSelections)
	}
	return m
}

func (m *Metrics) recordTransportSelection(kind TransportKind) {
	switch kind {
	case TransportLocal:
		m.LocalTransportSelections.Inc()
	case TransportUnixSocket:
		m.UnixTransportSelections.Inc()
	case TransportNetwork:
		m.NetworkTransportSelections.Inc()
	}
}

func (m *Metrics) recordPriority(p Priority) {
	if p == High {
		m.HighPriorityMessages.Inc()
	} else {
		m.NormalPriorityMessages.Inc()
	}
}
