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
	"sync"
	"time"
)

// SupervisionContext enforces a restart budget: at most maxRestarts
// restarts within restartWindow, after which ShouldRestart returns false
// and the caller escalates (spec §4.7 "Supervision"), grounded on the
// original's SupervisionContext::should_restart windowing.
type SupervisionContext struct {
	parentID      string
	maxRestarts   int
	restartWindow time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       int
}

// NewRootSupervision builds a context for an actor with no parent, using
// the original's root defaults of 5 restarts per 60-second window.
func NewRootSupervision() *SupervisionContext {
	return NewChildSupervision("", 5, 60*time.Second)
}

// NewChildSupervision builds a context that escalates to parentID once the
// restart budget is exhausted.
func NewChildSupervision(parentID string, maxRestarts int, restartWindow time.Duration) *SupervisionContext {
	return &SupervisionContext{
		parentID:      parentID,
		maxRestarts:   maxRestarts,
		restartWindow: restartWindow,
	}
}

// ShouldRestart records a restart attempt and reports whether it falls
// within the budget for the current window, rolling the window forward
// once it expires.
func (s *SupervisionContext) ShouldRestart(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.windowStart.IsZero() || now.Sub(s.windowStart) > s.restartWindow {
		s.windowStart = now
		s.count = 1
		return true
	}
	s.count++
	return s.count <= s.maxRestarts
}

// ParentID returns the parent to escalate to, or "" for a root actor.
func (s *SupervisionContext) ParentID() string { return s.parentID }
