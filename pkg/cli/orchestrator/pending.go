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
	"context"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (o *Orchestrator) hasPendingLocked(id string) bool {
	for _, a := range o.pending {
		if a.Note.ID == id {
			return true
		}
	}

	return false
}

func (o *Orchestrator) pendingIndexLocked(actionID string) int {
	for i, a := range o.pending {
		if a.ID == actionID {
			return i
		}
	}

	return -1
}

// enqueueLocked records a mutation of the note. An update is folded into
// an action already queued for the same note, so the queue holds at most
// one action per note and replays its latest state. Folding into a failed
// action starts its attempts over.
func (o *Orchestrator) enqueueLocked(kind database.ActionKind, note database.Note) database.PendingAction {
	note = note.Clone()
	note.Unsynced = true

	if kind == database.ActionUpdate {
		for i, a := range o.pending {
			if a.Note.ID != note.ID {
				continue
			}

			if a.Status == database.ActionFailed {
				o.pending[i].Attempts = 0
				o.pending[i].NextAttemptAt = o.clock.Now()
			}
			o.pending[i].Note = note
			o.pending[i].Status = database.ActionPending
			return o.pending[i]
		}
	}

	now := o.clock.Now()
	a := database.PendingAction{
		ID:            uuid.NewString(),
		Kind:          kind,
		Note:          note,
		Status:        database.ActionPending,
		QueuedAt:      now,
		NextAttemptAt: now,
	}
	o.pending = append(o.pending, a)

	return a
}

// dequeueLocked removes the action and returns whether it was queued
func (o *Orchestrator) dequeueLocked(actionID string) bool {
	idx := o.pendingIndexLocked(actionID)
	if idx == -1 {
		return false
	}

	o.pending = append(o.pending[:idx], o.pending[idx+1:]...)
	return true
}

// dropPendingLocked removes every action for the given note
func (o *Orchestrator) dropPendingLocked(noteID string) {
	kept := o.pending[:0]
	for _, a := range o.pending {
		if a.Note.ID != noteID {
			kept = append(kept, a)
		}
	}
	o.pending = kept
}

// recordFailureLocked counts a failed attempt of the action. A rejection by
// the server marks the action failed once it exhausts its attempts. An
// unreachable server or an abandoned request only delays it.
func (o *Orchestrator) recordFailureLocked(actionID string, err error) database.ActionStatus {
	idx := o.pendingIndexLocked(actionID)
	if idx == -1 {
		return ""
	}

	a := &o.pending[idx]
	a.Attempts++
	a.LastError = err.Error()
	a.NextAttemptAt = o.clock.Now().Add(o.retry.Backoff(a.Attempts))
	if !isTransient(err) && a.Attempts >= o.retry.MaxAttempts {
		a.Status = database.ActionFailed
	}

	return a.Status
}

// isTransient tells whether the request never got an answer from the server
func isTransient(err error) bool {
	if client.IsConnectivity(err) {
		return true
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// syncUnsyncedLocked sets the unsynced flag of the note from the queue
func (o *Orchestrator) syncUnsyncedLocked(noteID string) {
	idx := o.noteIndexLocked(noteID)
	if idx == -1 {
		return
	}

	o.notes[idx].Unsynced = o.hasPendingLocked(noteID)
}

// RetryFailed makes every failed action eligible for replay again and
// returns how many were reset
func (o *Orchestrator) RetryFailed() int {
	o.mu.Lock()

	var count int
	now := o.clock.Now()
	for i := range o.pending {
		if o.pending[i].Status != database.ActionFailed {
			continue
		}

		o.pending[i].Status = database.ActionPending
		o.pending[i].Attempts = 0
		o.pending[i].NextAttemptAt = now
		count++
	}
	if count > 0 {
		o.persistLocked(consts.KeyPendingNotes)
	}
	o.mu.Unlock()

	return count
}

// SyncPendingNotes replays the queued note mutations in the order they were
// queued. Actions that fail stay queued with a backoff unless the replay
// policy discards them. Once an action for a note fails, the later actions
// for that note are left for the next pass.
func (o *Orchestrator) SyncPendingNotes(ctx context.Context) Status {
	return o.syncPendingNotes(ctx, true)
}

// syncPendingNotes replays the queue. Unless force is set, actions whose
// backoff has not elapsed are skipped.
func (o *Orchestrator) syncPendingNotes(ctx context.Context, force bool) Status {
	token, ok := o.session.Token()
	if !ok {
		return StatusNoSession
	}

	queue := o.Pending()
	blocked := map[string]bool{}
	now := o.clock.Now()

	for _, item := range queue {
		if ctx.Err() != nil {
			break
		}

		noteID := item.Note.ID
		if blocked[noteID] {
			continue
		}
		if item.Status == database.ActionFailed || (!force && item.NextAttemptAt.After(now)) {
			blocked[noteID] = true
			continue
		}

		if ok := o.replayAction(ctx, token, item.ID, noteID); !ok {
			blocked[noteID] = true
		}
	}

	var discarded int
	if o.replay == ReplayDiscard {
		discarded = o.discardPending()
	}

	o.publish()

	if discarded > 0 {
		return StatusFailed
	}

	return o.queueStatus()
}

// replayAction replays a single queued action under the lock of its note.
// It returns false if the action was attempted and failed.
func (o *Orchestrator) replayAction(ctx context.Context, token, actionID, noteID string) bool {
	_, unlock := o.lockNote(noteID)
	defer unlock()

	o.mu.Lock()
	idx := o.pendingIndexLocked(actionID)
	if idx == -1 {
		// completed or dropped while waiting for the lock
		o.mu.Unlock()
		return true
	}
	action := o.pending[idx]
	action.Note = action.Note.Clone()
	action.Note.ID = o.resolveLocked(action.Note.ID)
	o.mu.Unlock()

	switch action.Kind {
	case database.ActionAdd:
		resp, err := o.remote.CreateNote(ctx, token, client.NewNotePayload(action.Note))
		if err != nil {
			o.failAction(action, err)
			return false
		}

		o.completeAdd(action, resp)
	case database.ActionUpdate:
		if err := o.pushUpdate(ctx, token, action.Note); err != nil {
			o.failAction(action, err)
			return false
		}

		o.completeUpdate(action)
	default:
		log.Warnf("dropping an action of unknown kind '%s'\n", action.Kind)
		o.mu.Lock()
		o.dequeueLocked(action.ID)
		o.syncUnsyncedLocked(action.Note.ID)
		o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes)
		o.mu.Unlock()
	}

	return true
}

func (o *Orchestrator) failAction(action database.PendingAction, err error) {
	o.mu.Lock()
	st := o.recordFailureLocked(action.ID, err)
	o.persistLocked(consts.KeyPendingNotes)
	o.mu.Unlock()

	log.Debug("replaying %s of note %s failed (%s): %s\n", action.Kind, action.Note.ID, st, err.Error())
}

// completeUpdate dequeues a replayed update
func (o *Orchestrator) completeUpdate(action database.PendingAction) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.dequeueLocked(action.ID)
	o.syncUnsyncedLocked(action.Note.ID)
	o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes)
}

// discardPending empties the queue, clears the unsynced flags and returns
// the number of discarded actions
func (o *Orchestrator) discardPending() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	count := len(o.pending)
	if count == 0 {
		return 0
	}

	log.Warnf("discarding %d unsynced changes\n", count)

	o.pending = nil
	for i := range o.notes {
		o.notes[i].Unsynced = false
	}
	o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes)

	return count
}

func (o *Orchestrator) queueStatus() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := StatusSynced
	for _, a := range o.pending {
		if a.Status == database.ActionFailed {
			return StatusFailed
		}
		st = StatusPending
	}

	return st
}

// Reconcile replays the queued note mutations, then retries the unconfirmed
// deletions. Overlapping calls return StatusPending immediately.
func (o *Orchestrator) Reconcile(ctx context.Context) Status {
	return o.reconcile(ctx, true)
}

func (o *Orchestrator) reconcile(ctx context.Context, force bool) Status {
	if _, ok := o.session.Token(); !ok {
		return StatusNoSession
	}
	if !o.syncing.CompareAndSwap(false, true) {
		log.Debug("reconciliation already in progress\n")
		return StatusPending
	}
	defer o.syncing.Store(false)

	st := o.syncPendingNotes(ctx, force)
	st = Worse(st, o.SyncDeletedNotes(ctx))

	return st
}

// Syncing returns true while a reconciliation is in progress
func (o *Orchestrator) Syncing() bool {
	return o.syncing.Load()
}
