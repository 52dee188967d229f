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
	"github.com/pkg/errors"
)

// LoadNotes publishes the cached notes right away, then merges them with the
// server listing. If the server cannot be reached the cached notes stay as
// they are and StatusPending is returned.
func (o *Orchestrator) LoadNotes(ctx context.Context) Status {
	o.publish()

	token, ok := o.session.Token()
	if !ok {
		return StatusNoSession
	}

	known, done := o.beginListing()
	defer done()

	remote, err := o.remote.ListNotes(ctx, token)
	if err != nil {
		log.Debug("listing notes: %s\n", err.Error())
		return StatusPending
	}

	o.mu.Lock()
	pending := map[string]bool{}
	for _, a := range o.pending {
		pending[a.Note.ID] = true
	}
	ledger := map[string]bool{}
	for _, id := range o.ledger {
		ledger[id] = true
	}
	for id := range o.listingDeletes {
		ledger[id] = true
	}

	merged, conflicts := mergeNotes(o.notes, remote, known, pending, ledger)
	o.notes = merged
	o.persistLocked(consts.KeyNotes)
	o.mu.Unlock()

	for _, c := range conflicts {
		log.Debug("note %s has unsynced changes that differ from the server:\n%s\n", c.ID, c.Diff)
	}

	o.publish()

	return StatusSynced
}

// beginListing records a note listing in flight and returns the ids of the
// notes known at its start. The returned function ends the listing.
func (o *Orchestrator) beginListing() (map[string]bool, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	known := make(map[string]bool, len(o.notes))
	for _, n := range o.notes {
		known[n.ID] = true
	}
	o.listings++

	return known, func() {
		o.mu.Lock()
		defer o.mu.Unlock()

		o.listings--
		if o.listings == 0 {
			o.listingDeletes = nil
		}
	}
}

// AddNote adds the note to the collection and creates it on the server. A
// note without an id is given a provisional id, which is replaced by the
// server id once the creation succeeds. If the server cannot be reached the
// note stays unsynced and its creation is queued.
func (o *Orchestrator) AddNote(ctx context.Context, draft database.Note) (database.Note, Status) {
	token, ok := o.session.Token()
	if !ok {
		return draft, StatusNoSession
	}

	note := draft.Clone()
	if note.ID == "" {
		note.ID = newProvisionalID()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = o.clock.Now().UTC()
	}

	_, unlock := o.lockNote(note.ID)
	defer unlock()

	// the creation is queued together with the optimistic note so that a
	// crash during the request leaves it to be replayed
	o.mu.Lock()
	if o.noteIndexLocked(note.ID) != -1 {
		o.mu.Unlock()
		log.Debug("note %s already exists\n", note.ID)
		return note, StatusFailed
	}
	action := o.enqueueLocked(database.ActionAdd, note)
	note.Unsynced = true
	o.notes = append(o.notes, note.Clone())
	o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes)
	o.mu.Unlock()
	o.publish()

	resp, err := o.remote.CreateNote(ctx, token, client.NewNotePayload(note))
	if err != nil {
		o.mu.Lock()
		o.recordFailureLocked(action.ID, err)
		o.persistLocked(consts.KeyPendingNotes)
		o.mu.Unlock()

		log.Debug("creating note %s: %s\n", note.ID, err.Error())
		return note, StatusPending
	}

	created := o.completeAdd(action, resp)
	o.publish()

	return created, StatusSynced
}

// completeAdd replaces the provisional id of a created note with the server
// id, everywhere it is referenced, and dequeues the creation
func (o *Orchestrator) completeAdd(action database.PendingAction, resp client.RespNote) database.Note {
	o.mu.Lock()
	defer o.mu.Unlock()

	provisionalID := action.Note.ID
	serverID := resp.ID

	o.dequeueLocked(action.ID)
	if provisionalID != serverID {
		o.aliases[provisionalID] = serverID
		for i := range o.pending {
			if o.pending[i].Note.ID == provisionalID {
				o.pending[i].Note.ID = serverID
			}
		}
	}

	idx := o.noteIndexLocked(provisionalID)
	if idx == -1 {
		// deleted locally while the creation was in flight
		log.Debug("note %s was created as %s after being deleted\n", provisionalID, serverID)
		o.ledger = mergeIDs(o.ledger, []string{serverID})
		if dup := o.noteIndexLocked(serverID); dup != -1 {
			o.notes = append(o.notes[:dup], o.notes[dup+1:]...)
		}
		o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes, consts.KeyDeletedNoteIDs)
		return database.Note{}
	}

	if dup := o.noteIndexLocked(serverID); dup != -1 && dup != idx {
		// a listing already brought the note in under its server id
		o.notes = append(o.notes[:dup], o.notes[dup+1:]...)
		idx = o.noteIndexLocked(provisionalID)
	}

	o.notes[idx].ID = serverID
	o.notes[idx].Unsynced = o.hasPendingLocked(serverID)
	if !o.notes[idx].Unsynced {
		// the server assigns the ids of new tasks
		o.notes[idx].Tasks = resp.ToNote().Tasks
	}
	o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes)

	return o.notes[idx].Clone()
}

// UpdateNote sends the note to the server. With persistLocally, the note
// replaces the cached entry, and a failed request marks it unsynced and
// queues the update. Without persistLocally only the request is made, which
// lets a replay retry a queued update without queueing it again.
func (o *Orchestrator) UpdateNote(ctx context.Context, note database.Note, persistLocally bool) Status {
	token, ok := o.session.Token()
	if !ok {
		return StatusNoSession
	}

	id, unlock := o.lockNote(note.ID)
	defer unlock()

	note = note.Clone()
	note.ID = id

	if !persistLocally {
		if err := o.pushUpdate(ctx, token, note); err != nil {
			log.Debug("updating note %s: %s\n", id, err.Error())
			return StatusFailed
		}

		return StatusSynced
	}

	o.mu.Lock()
	idx := o.noteIndexLocked(id)
	if idx == -1 {
		o.mu.Unlock()
		log.Debug("note %s not found\n", id)
		return StatusFailed
	}
	if database.IsProvisionalID(id) {
		// the server does not know the note yet. The update is folded into
		// its queued creation.
		o.enqueueLocked(database.ActionUpdate, note)
		note.Unsynced = true
		o.notes[idx] = note
		o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes)
		o.mu.Unlock()
		o.publish()

		return StatusPending
	}
	o.mu.Unlock()

	err := o.pushUpdate(ctx, token, note)

	o.mu.Lock()
	idx = o.noteIndexLocked(id)
	if idx == -1 {
		o.mu.Unlock()
		return statusOf(err)
	}
	if err != nil {
		action := o.enqueueLocked(database.ActionUpdate, note)
		o.recordFailureLocked(action.ID, err)
		note.Unsynced = true
		o.notes[idx] = note
		o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes)
		o.mu.Unlock()
		o.publish()

		log.Debug("updating note %s: %s\n", id, err.Error())
		return StatusPending
	}

	// the note carries its full state, so an older queued update is superseded
	o.dropPendingLocked(id)
	note.Unsynced = false
	o.notes[idx] = note
	o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes)
	o.mu.Unlock()
	o.publish()

	return StatusSynced
}

func (o *Orchestrator) pushUpdate(ctx context.Context, token string, note database.Note) error {
	if database.IsProvisionalID(note.ID) {
		return errors.Errorf("note %s has not been created on the server", note.ID)
	}

	if _, err := o.remote.UpdateNote(ctx, token, note.ID, client.NewNotePayload(note)); err != nil {
		return err
	}

	return nil
}

func statusOf(err error) Status {
	if err != nil {
		return StatusFailed
	}

	return StatusSynced
}
