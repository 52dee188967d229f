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

// Package job schedules periodic maintenance work for the server.
package job

import (
	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// SessionPurgeSchedule is the cron spec for removing expired sessions
const SessionPurgeSchedule = "@hourly"

var (
	// ErrEmptyApp is an error for a missing app in the runner configuration
	ErrEmptyApp = errors.New("No app was provided")
)

// Runner runs the scheduled jobs
type Runner struct {
	Cron *cron.Cron
	App  *app.App
}

// NewRunner returns a new runner with every job registered
func NewRunner(a *app.App) (Runner, error) {
	if a == nil {
		return Runner{}, ErrEmptyApp
	}
	if err := a.Validate(); err != nil {
		return Runner{}, errors.Wrap(err, "validating app")
	}

	r := Runner{
		Cron: cron.New(),
		App:  a,
	}

	if err := r.schedule(); err != nil {
		return Runner{}, errors.Wrap(err, "scheduling jobs")
	}

	return r, nil
}

func (r *Runner) schedule() error {
	if err := r.Cron.AddFunc(SessionPurgeSchedule, r.purgeSessions); err != nil {
		return errors.Wrap(err, "session purge")
	}

	return nil
}

func (r *Runner) purgeSessions() {
	count, err := r.App.PurgeExpiredSessions()
	if err != nil {
		log.ErrorWrap(err, "purging expired sessions")
		return
	}

	log.WithFields(log.Fields{
		"count": count,
	}).Info("purged expired sessions")
}

// Do starts the scheduler in its own goroutine
func (r *Runner) Do() {
	log.Info("starting scheduled jobs")
	r.Cron.Start()
}

// Stop halts the scheduler. Running jobs are not interrupted.
func (r *Runner) Stop() {
	r.Cron.Stop()
}
