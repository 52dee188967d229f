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

package orchestrator

import (
	"sync"
)

// keyedMutex serializes work per key. Waiters on the same key acquire the
// lock in the order they called Lock.
type keyedMutex struct {
	mu      sync.Mutex
	waiters map[string][]chan struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{waiters: map[string][]chan struct{}{}}
}

// Lock blocks until the key is free and returns the function releasing it
func (k *keyedMutex) Lock(key string) func() {
	ch := make(chan struct{})

	k.mu.Lock()
	q := k.waiters[key]
	k.waiters[key] = append(q, ch)
	if len(q) == 0 {
		close(ch)
	}
	k.mu.Unlock()

	<-ch

	var once sync.Once
	return func() {
		once.Do(func() { k.unlock(key) })
	}
}

func (k *keyedMutex) unlock(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	q := k.waiters[key][1:]
	if len(q) == 0 {
		delete(k.waiters, key)
		return
	}

	k.waiters[key] = q
	close(q[0])
}

// held returns the number of callers holding or waiting for the key
func (k *keyedMutex) held(key string) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.waiters[key])
}
