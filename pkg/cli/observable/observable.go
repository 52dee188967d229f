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

// Package observable provides a value holder that notifies subscribers on
// every change
package observable

import (
	"sync"

	"github.com/dnote/notesync/pkg/cli/log"
)

// Listener receives the latest value after every change
type Listener[T any] func(T)

// Value holds a value of type T and notifies its listeners when it is set.
// Listeners are called synchronously in subscription order, outside the lock.
type Value[T any] struct {
	mu        sync.RWMutex
	value     T
	nextID    int
	listeners map[int]Listener[T]
	order     []int
}

// New returns a value holding the given initial value
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		value:     initial,
		listeners: map[int]Listener[T]{},
	}
}

// Get returns the current value
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.value
}

// Set replaces the value and notifies the listeners
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	v.value = value
	listeners := v.snapshot()
	v.mu.Unlock()

	for _, l := range listeners {
		notify(l, value)
	}
}

// Subscribe registers a listener and returns a function that removes it
func (v *Value[T]) Subscribe(l Listener[T]) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.listeners[id] = l
	v.order = append(v.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { v.unsubscribe(id) })
	}
}

// Len returns the number of listeners
func (v *Value[T]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return len(v.listeners)
}

// Clear removes every listener
func (v *Value[T]) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.listeners = map[int]Listener[T]{}
	v.order = nil
}

func (v *Value[T]) unsubscribe(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.listeners, id)
	for i, oid := range v.order {
		if oid == id {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

func (v *Value[T]) snapshot() []Listener[T] {
	ret := make([]Listener[T], 0, len(v.order))
	for _, id := range v.order {
		ret = append(ret, v.listeners[id])
	}

	return ret
}

// notify calls a listener, recovering from a panic so that one misbehaving
// listener does not prevent the others from being notified
func notify[T any](l Listener[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug("recovered from a panicking listener: %v\n", r)
		}
	}()

	l(value)
}
