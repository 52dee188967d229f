/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package connectivity reports transitions between online and offline states
package connectivity

import (
	"sync"

	"github.com/dnote/notesync/pkg/cli/observable"
)

// Observer notifies subscribers whenever the network state changes
type Observer interface {
	// Online returns the last known state
	Online() bool
	// Subscribe registers a callback invoked with the new state on every
	// transition. It returns a function that removes the callback.
	Subscribe(func(online bool)) func()
}

// state holds the current connectivity and notifies on transitions only
type state struct {
	mu     sync.Mutex
	online *observable.Value[bool]
}

func newState(online bool) *state {
	return &state{online: observable.New(online)}
}

func (s *state) Online() bool {
	return s.online.Get()
}

func (s *state) Subscribe(fn func(online bool)) func() {
	return s.online.Subscribe(fn)
}

// set records the state and returns true if it changed
func (s *state) set(online bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.online.Get() == online {
		return false
	}

	s.online.Set(online)
	return true
}

// Manual is an observer whose state is set by the caller
type Manual struct {
	*state
}

// NewManual returns a manual observer with the given initial state
func NewManual(online bool) *Manual {
	return &Manual{state: newState(online)}
}

// SetOnline updates the state, notifying subscribers if it changed
func (m *Manual) SetOnline(online bool) {
	m.set(online)
}
