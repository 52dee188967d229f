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
	"time"
)

// Status is the outcome of an operation as seen by the caller
type Status int

const (
	// StatusSynced means the change reached the server, or there was nothing to send
	StatusSynced Status = iota
	// StatusPending means the change is saved locally and will be retried
	StatusPending
	// StatusFailed means the change did not reach the server and will not be
	// retried automatically
	StatusFailed
	// StatusNoSession means the operation was dropped because no user is signed in
	StatusNoSession
)

func (s Status) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	case StatusNoSession:
		return "no session"
	default:
		return "unknown"
	}
}

// Worse returns the more severe of two statuses
func Worse(a, b Status) Status {
	if b > a {
		return b
	}

	return a
}

// ReplayPolicy decides what happens to queued mutations that fail during a replay pass
type ReplayPolicy string

const (
	// ReplayRetain keeps failed mutations queued with a backoff
	ReplayRetain ReplayPolicy = "retain"
	// ReplayDiscard clears the queue after every pass, whatever the outcome
	ReplayDiscard ReplayPolicy = "discard"
)

// RetryPolicy controls how queued mutations are retried
type RetryPolicy struct {
	// MaxAttempts is the number of rejected attempts after which a mutation is
	// marked failed. Unreachable server errors never mark a mutation failed.
	MaxAttempts int
	// BaseDelay is the delay after the first failed attempt. It doubles on
	// every subsequent failure.
	BaseDelay time.Duration
	// MaxDelay caps the delay between attempts
	MaxDelay time.Duration
	// Interval is how often the background loop looks for due work
	Interval time.Duration
}

// DefaultRetryPolicy is used for any zero field of a RetryPolicy
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   2 * time.Second,
	MaxDelay:    5 * time.Minute,
	Interval:    15 * time.Second,
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	if p.Interval <= 0 {
		p.Interval = DefaultRetryPolicy.Interval
	}

	return p
}

// Backoff returns the delay before the next attempt, given the number of
// attempts made so far
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}

	d := p.BaseDelay
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}

	return d
}
