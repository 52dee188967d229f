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

package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/dnote/notesync/pkg/cli/log"
)

// HealthChecker reports whether the server can be reached
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Prober is an observer that polls the server health on an interval
type Prober struct {
	*state

	checker  HealthChecker
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewProber returns a prober that assumes it is offline until the first probe succeeds
func NewProber(checker HealthChecker, interval, timeout time.Duration) *Prober {
	return &Prober{
		state:    newState(false),
		checker:  checker,
		interval: interval,
		timeout:  timeout,
	}
}

// Probe checks the health once and records the result
func (p *Prober) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	online := p.checker.Health(ctx) == nil
	if p.set(online) {
		log.Debug("connectivity changed. online: %t\n", online)
	}

	return online
}

// Start probes immediately and then on every tick until Stop is called or
// the context is done
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go func() {
		defer close(doneCh)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.Probe(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				p.Probe(ctx)
			}
		}
	}()
}

// Stop stops the polling loop and waits for it to exit
func (p *Prober) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	doneCh := p.doneCh
	p.mu.Unlock()

	<-doneCh
}
