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
	"strings"

	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/database"
)

// VisibleNotes returns the notes that are not hidden
func (o *Orchestrator) VisibleNotes() []database.Note {
	return filterNotes(o.Notes(), func(n database.Note) bool { return !n.Hidden })
}

// HiddenNotes returns the hidden notes
func (o *Orchestrator) HiddenNotes() []database.Note {
	return filterNotes(o.Notes(), func(n database.Note) bool { return n.Hidden })
}

// Search returns the visible notes whose title, text or task contains the
// query, ignoring case. An empty query matches every visible note.
func (o *Orchestrator) Search(query string) []database.Note {
	q := strings.ToLower(strings.TrimSpace(query))

	return filterNotes(o.VisibleNotes(), func(n database.Note) bool {
		return matchNote(n, q)
	})
}

func matchNote(n database.Note, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Text), q) {
		return true
	}
	for _, t := range n.Tasks {
		if strings.Contains(strings.ToLower(t.Text), q) {
			return true
		}
	}

	return false
}

// HideNotes hides the notes on this device. Hiding is never sent to the server.
func (o *Orchestrator) HideNotes(ctx context.Context, ids []string) Status {
	return o.setHidden(ids, true)
}

// RestoreNotes makes hidden notes visible again
func (o *Orchestrator) RestoreNotes(ctx context.Context, ids []string) Status {
	return o.setHidden(ids, false)
}

func (o *Orchestrator) setHidden(ids []string, hidden bool) Status {
	if _, ok := o.session.Token(); !ok {
		return StatusNoSession
	}

	o.mu.Lock()
	for _, id := range ids {
		if idx := o.noteIndexLocked(o.resolveLocked(id)); idx != -1 {
			o.notes[idx].Hidden = hidden
		}
	}
	o.persistLocked(consts.KeyNotes)
	o.mu.Unlock()
	o.publish()

	return StatusSynced
}

// ShareNote sets the groups the note is shared into. Group membership of a
// note is kept on this device only.
func (o *Orchestrator) ShareNote(ctx context.Context, id string, groupIDs []string) Status {
	if _, ok := o.session.Token(); !ok {
		return StatusNoSession
	}

	resolved, unlock := o.lockNote(id)
	defer unlock()

	o.mu.Lock()
	idx := o.noteIndexLocked(resolved)
	if idx == -1 {
		o.mu.Unlock()
		return StatusFailed
	}
	o.notes[idx].GroupIDs = mergeIDs(nil, groupIDs)
	o.persistLocked(consts.KeyNotes)
	o.mu.Unlock()
	o.publish()

	return StatusSynced
}

// Summary counts the state of the local collections
type Summary struct {
	Notes    int
	Hidden   int
	Unsynced int
	Pending  int
	Failed   int
	Deleted  int
	Groups   int
}

// Summary returns the counts of the local collections
func (o *Orchestrator) Summary() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Summary{
		Notes:   len(o.notes),
		Deleted: len(o.ledger),
		Groups:  len(o.groups),
	}
	for _, n := range o.notes {
		if n.Hidden {
			s.Hidden++
		}
		if n.Unsynced {
			s.Unsynced++
		}
	}
	for _, a := range o.pending {
		if a.Status == database.ActionFailed {
			s.Failed++
		} else {
			s.Pending++
		}
	}

	return s
}

func filterNotes(notes []database.Note, keep func(database.Note) bool) []database.Note {
	ret := []database.Note{}
	for _, n := range notes {
		if keep(n) {
			ret = append(ret, n)
		}
	}

	return ret
}
