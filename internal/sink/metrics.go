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

package sink

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors for one LazySink, grounded on the
// original's LazyMetrics counters (spec §4.6 "Metrics"). Success-rate
// helpers need their own totals rather than reading back through the
// Prometheus Counter interface, so each counter that feeds a rate is
// paired with a plain atomic mirror.
type Metrics struct {
	ConnectionAttempts   prometheus.Counter
	SuccessfulConnects   prometheus.Counter
	FailedConnects       prometheus.Counter
	MessagesSent         prometheus.Counter
	MessagesFailed       prometheus.Counter
	ConnectionWaits      prometheus.Counter
	ReconnectionAttempts prometheus.Counter

	connectionAttempts atomic.Uint64
	successfulConnects atomic.Uint64
	messagesSent       atomic.Uint64
	messagesFailed     atomic.Uint64
}

// NewMetrics builds and registers a Metrics set labeled by sink name.
func NewMetrics(reg prometheus.Registerer, name string) *Metrics {
	labels := prometheus.Labels{"sink": name}
	m := &Metrics{
		ConnectionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sink_connection_attempts_total", Help: "Connection attempts made.", ConstLabels: labels,
		}),
		SuccessfulConnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sink_connection_successes_total", Help: "Connection attempts that succeeded.", ConstLabels: labels,
		}),
		FailedConnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sink_connection_failures_total", Help: "Connection attempts that failed.", ConstLabels: labels,
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sink_messages_sent_total", Help: "Messages sent successfully.", ConstLabels: labels,
		}),
		MessagesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sink_messages_failed_total", Help: "Messages that failed to send.", ConstLabels: labels,
		}),
		ConnectionWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sink_connection_waits_total", Help: "Sends that waited on another goroutine's in-flight connect.", ConstLabels: labels,
		}),
		ReconnectionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sink_reconnection_attempts_total", Help: "Auto-reconnects triggered by a connection-loss send failure.", ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ConnectionAttempts, m.SuccessfulConnects, m.FailedConnects,
			m.MessagesSent, m.MessagesFailed, m.ConnectionWaits, m.ReconnectionAttempts)
	}
	return m
}

func (m *Metrics) incConnectionAttempts() { m.ConnectionAttempts.Inc(); m.connectionAttempts.Add(1) }
func (m *Metrics) incSuccessfulConnects() { m.SuccessfulConnects.Inc(); m.successfulConnects.Add(1) }
func (m *Metrics) incFailedConnects()     { m.FailedConnects.Inc() }
func (m *Metrics) incMessagesSent()       { m.MessagesSent.Inc(); m.messagesSent.Add(1) }
func (m *Metrics) incMessagesFailed()     { m.MessagesFailed.Inc(); m.messagesFailed.Add(1) }
func (m *Metrics) incConnectionWaits()    { m.ConnectionWaits.Inc() }
func (m *Metrics) incReconnectionAttempts() {
	m.ReconnectionAttempts.Inc()
}

// ConnectionSuccessRate returns successful_connects / connection_attempts,
// defined as 1.0 when no attempts have been made yet (spec §4.6, grounded
// on the original's LazyMetrics::connection_success_rate).
func (m *Metrics) ConnectionSuccessRate() float64 {
	total := m.connectionAttempts.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.successfulConnects.Load()) / float64(total)
}

// MessageSuccessRate returns messages_sent / (messages_sent +
// messages_failed), defined as 1.0 when nothing has been sent yet.
func (m *Metrics) MessageSuccessRate() float64 {
	sent := m.messagesSent.Load()
	failed := m.messagesFailed.Load()
	total := sent + failed
	if total == 0 {
		return 1.0
	}
	return float64(sent) / float64(total)
}
