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
	"golang.org/x/sync/errgroup"
)

// DeleteNotes removes the notes from the collection and records the ids the
// server may know in the ledger, persisting both together before contacting
// the server. The deletion is visible immediately whatever the connectivity,
// and a listing fetched meanwhile cannot bring the notes back. The ids leave
// the ledger once every remote deletion is confirmed. Otherwise they all
// stay to be retried by SyncDeletedNotes.
func (o *Orchestrator) DeleteNotes(ctx context.Context, ids []string) Status {
	token, ok := o.session.Token()
	if !ok {
		return StatusNoSession
	}

	var remoteIDs []string
	for _, id := range ids {
		resolved, remove := o.removeNote(id)
		if remove {
			remoteIDs = append(remoteIDs, resolved)
		}
	}

	o.mu.Lock()
	o.persistLocked(consts.KeyNotes, consts.KeyPendingNotes, consts.KeyDeletedNoteIDs)
	o.mu.Unlock()
	o.publish()

	if len(remoteIDs) == 0 {
		return StatusSynced
	}

	confirmed := o.deleteRemote(ctx, token, remoteIDs)
	if len(confirmed) < len(remoteIDs) {
		return StatusPending
	}

	o.mu.Lock()
	o.ledger = removeIDs(o.ledger, remoteIDs)
	o.persistLocked(consts.KeyDeletedNoteIDs)
	o.mu.Unlock()

	return StatusSynced
}

// removeNote removes the note and its queued actions under the lock of the
// note, and adds its id to the ledger if the server may know the note. It
// returns the resolved id and whether a remote deletion is needed.
func (o *Orchestrator) removeNote(id string) (string, bool) {
	resolved, unlock := o.lockNote(id)
	defer unlock()

	o.mu.Lock()
	defer o.mu.Unlock()

	if idx := o.noteIndexLocked(resolved); idx != -1 {
		o.notes = append(o.notes[:idx], o.notes[idx+1:]...)
	}
	o.dropPendingLocked(resolved)

	if database.IsProvisionalID(resolved) {
		return resolved, false
	}

	o.ledger = mergeIDs(o.ledger, []string{resolved})
	if o.listings > 0 {
		if o.listingDeletes == nil {
			o.listingDeletes = map[string]bool{}
		}
		o.listingDeletes[resolved] = true
	}

	return resolved, true
}

// SyncDeletedNotes retries the remote deletion of every id in the ledger.
// Confirmed ids leave the ledger, which is empty only after every deletion
// succeeded. A note the server no longer has counts as deleted.
func (o *Orchestrator) SyncDeletedNotes(ctx context.Context) Status {
	token, ok := o.session.Token()
	if !ok {
		return StatusNoSession
	}

	ids := o.Ledger()
	if len(ids) == 0 {
		return StatusSynced
	}

	confirmed := o.deleteRemote(ctx, token, ids)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.ledger = removeIDs(o.ledger, confirmed)
	o.persistLocked(consts.KeyDeletedNoteIDs)

	if len(o.ledger) > 0 {
		return StatusPending
	}

	return StatusSynced
}

// deleteRemote deletes the notes on the server concurrently and returns the
// ids whose deletion is confirmed
func (o *Orchestrator) deleteRemote(ctx context.Context, token string, ids []string) []string {
	results := make([]bool, len(ids))

	var g errgroup.Group
	g.SetLimit(o.deleteMax)
	for i, id := range ids {
		g.Go(func() error {
			err := o.remote.DeleteNote(ctx, token, id)
			if err == nil || client.IsNotFound(err) {
				results[i] = true
				return nil
			}

			log.Debug("deleting note %s: %s\n", id, err.Error())
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Debug("deleting %d notes: %s\n", len(ids), err.Error())
	}

	var confirmed []string
	for i, ok := range results {
		if ok {
			confirmed = append(confirmed, ids[i])
		}
	}

	return confirmed
}

// mergeIDs adds the ids missing from the set
func mergeIDs(set []string, ids []string) []string {
	seen := map[string]bool{}
	for _, id := range set {
		seen[id] = true
	}

	for _, id := range ids {
		if seen[id] {
			continue
		}

		seen[id] = true
		set = append(set, id)
	}

	return set
}

// removeIDs returns the set without the given ids
func removeIDs(set []string, ids []string) []string {
	remove := map[string]bool{}
	for _, id := range ids {
		remove[id] = true
	}

	ret := []string{}
	for _, id := range set {
		if !remove[id] {
			ret = append(ret, id)
		}
	}

	return ret
}
