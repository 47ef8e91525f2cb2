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
	"time"
)

// runner drives one actor's lifecycle: on_start, the supervised message
// loop, then on_stop — grounded on the original's ActorTask::run (spec
// §4.7 "Lifecycle").
type runner struct {
	id       ActorID
	behavior Behavior
	mailbox  *Mailbox
	sup      *SupervisionContext
	metrics  *Metrics
	entry    *actorEntry
}

func (r *runner) run(ctx context.Context) {
	defer close(r.entry.done)

	r.entry.setStatus(StatusRunning)
	if err := r.behavior.OnStart(ctx); err != nil {
		r.entry.setStatus(StatusFailed)
		return
	}

loop:
	for {
		msg, p, ok := r.mailbox.Recv(ctx)
		if !ok {
			break
		}
		if r.metrics != nil {
			r.metrics.recordPriority(p)
		}

		err := r.behavior.Handle(ctx, msg)
		if err == nil {
			if r.metrics != nil {
				r.metrics.MessagesProcessed.Inc()
			}
			continue
		}

		switch r.behavior.OnError(ctx, err) {
		case Resume:
			continue
		case Restart:
			if r.sup.ShouldRestart(time.Now()) {
				if r.metrics != nil {
					r.metrics.ActorRestarts.Inc()
				}
				_ = r.behavior.OnStop(ctx)
				if startErr := r.behavior.OnStart(ctx); startErr != nil {
					r.entry.setStatus(StatusFailed)
					break loop
				}
				continue
			}
			if r.metrics != nil {
				r.metrics.RestartFailures.Inc()
			}
			break loop
		case Stop:
			break loop
		case Escalate:
			break loop
		}
	}

	r.entry.setStatus(StatusStopping)
	_ = r.behavior.OnStop(ctx)
	r.entry.setStatus(StatusStopped)
}
