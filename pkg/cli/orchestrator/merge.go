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
	"sort"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/utils/diff"
)

// Conflict describes a note whose unsynced local text differs from the server
type Conflict struct {
	ID   string
	Diff string
}

// mergeNotes merges the server listing into the local notes. The server wins
// for title, text and tasks. The local copy keeps the fields the server does
// not store. Notes in the deletion ledger are not resurrected. A local note
// missing from the listing is dropped only if it was known when the listing
// was requested and has no queued action, so notes created while the
// listing was in flight survive. The result is sorted by creation time,
// newest first.
func mergeNotes(local []database.Note, remote []client.RespNote, known, pending, ledger map[string]bool) ([]database.Note, []Conflict) {
	localByID := map[string]database.Note{}
	for _, n := range local {
		localByID[n.ID] = n
	}

	var conflicts []Conflict
	seen := map[string]bool{}
	ret := []database.Note{}

	for _, r := range remote {
		if ledger[r.ID] || seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		n := r.ToNote()
		if l, ok := localByID[r.ID]; ok {
			n.GroupIDs = append([]string(nil), l.GroupIDs...)
			n.Hidden = l.Hidden

			if pending[r.ID] && l.Text != n.Text {
				conflicts = append(conflicts, Conflict{ID: r.ID, Diff: diff.Format(n.Text, l.Text)})
			}
		}
		n.Unsynced = pending[r.ID]

		ret = append(ret, n)
	}

	for _, l := range local {
		if seen[l.ID] {
			continue
		}
		if known[l.ID] && !pending[l.ID] {
			continue
		}
		seen[l.ID] = true

		n := l.Clone()
		n.Unsynced = pending[l.ID]
		ret = append(ret, n)
	}

	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].CreatedAt.After(ret[j].CreatedAt)
	})

	return ret, conflicts
}

// mergeGroups merges the server listing into the local groups. The server
// wins for name and collaborators. Local groups that never reached the
// server are kept.
func mergeGroups(local []database.Group, remote []client.RespGroup) []database.Group {
	ret := []database.Group{}
	seen := map[string]bool{}

	for _, r := range remote {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		ret = append(ret, r.ToGroup())
	}

	for _, l := range local {
		if seen[l.ID] || !l.IsProvisional() {
			continue
		}
		seen[l.ID] = true

		ret = append(ret, l)
	}

	return ret
}
