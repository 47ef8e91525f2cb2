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

// Package actor is a minimal in-process actor runtime used to structure
// pipeline stages: a priority mailbox, a supervised message loop, and
// transport selection recorded in metrics (spec §4.7). It is not a
// distributed runtime.
package actor

import (
	"context"
	"errors"
)

// Message is the payload an actor's mailbox carries. Implementations are
// expected to be small and immutable so concurrent handling stays cheap.
type Message any

// Behavior is the user-supplied logic for one actor. Handle is called for
// every message the actor receives, in mailbox order with high-priority
// messages drained first; OnStart/OnStop bracket the message loop.
type Behavior interface {
	OnStart(ctx context.Context) error
	Handle(ctx context.Context, msg Message) error
	OnStop(ctx context.Context) error
	OnError(ctx context.Context, err error) Directive
}

// BaseBehavior gives embedders no-op OnStart/OnStop and a Restart-on-error
// default, so a Behavior only needs to implement Handle.
type BaseBehavior struct{}

func (BaseBehavior) OnStart(ctx context.Context) error { return nil }
func (BaseBehavior) OnStop(ctx context.Context) error  { return nil }
func (BaseBehavior) OnError(ctx context.Context, err error) Directive {
	return Restart
}

// Directive is the supervision decision an actor's OnError returns after a
// Handle failure (spec §4.7 "Supervision").
type Directive int

const (
	// Resume drops the failing message and continues the loop unchanged.
	Resume Directive = iota
	// Restart re-runs OnStop then OnStart, provided the restart budget
	// has not been exhausted; otherwise it behaves like Escalate.
	Restart
	// Stop ends the actor's message loop and runs OnStop.
	Stop
	// Escalate ends the actor's message loop and runs OnStop, exactly as
	// Stop does; the failure is not reported to a parent and no metric is
	// recorded.
	Escalate
)

func (d Directive) String() string {
	switch d {
	case Resume:
		return "resume"
	case Restart:
		return "restart"
	case Stop:
		return "stop"
	case Escalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// ErrMailboxClosed is returned by Send/SendPriority once the actor has
// stopped and its mailbox has been torn down.
var ErrMailboxClosed = errors.New("actor: mailbox closed")

// ErrUnknownActor is returned by System.Stop for an id it isn't tracking.
var ErrUnknownActor = errors.New("actor: unknown actor id")
