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
)

// Group mutations are applied locally and sent to the server once. They are
// not queued: a failed request returns StatusFailed and the local change
// stays until the next LoadGroups overwrites it.

// LoadGroups publishes the cached groups, then merges them with the server listing
func (o *Orchestrator) LoadGroups(ctx context.Context) Status {
	o.publish()

	token, ok := o.session.Token()
	if !ok {
		return StatusNoSession
	}

	remote, err := o.remote.ListGroups(ctx, token)
	if err != nil {
		log.Debug("listing groups: %s\n", err.Error())
		return StatusPending
	}

	o.mu.Lock()
	o.groups = mergeGroups(o.groups, remote)
	o.persistLocked(consts.KeyGroups)
	o.mu.Unlock()
	o.publish()

	return StatusSynced
}

// AddGroup adds the group locally and creates it on the server
func (o *Orchestrator) AddGroup(ctx context.Context, draft database.Group) (database.Group, Status) {
	token, ok := o.session.Token()
	if !ok {
		return draft, StatusNoSession
	}

	g := draft
	g.Collaborators = append([]database.Collaborator(nil), draft.Collaborators...)
	if g.ID == "" {
		g.ID = newProvisionalID()
	}

	o.mu.Lock()
	o.groups = append(o.groups, g)
	o.persistLocked(consts.KeyGroups)
	o.mu.Unlock()
	o.publish()

	return o.createGroup(ctx, token, g)
}

// createGroup creates a local group on the server and adopts the server id.
// A group deleted locally while the creation was in flight is deleted on the
// server too.
func (o *Orchestrator) createGroup(ctx context.Context, token string, g database.Group) (database.Group, Status) {
	resp, err := o.remote.CreateGroup(ctx, token, client.NewGroupPayload(g))
	if err != nil {
		log.Debug("creating group %s: %s\n", g.ID, err.Error())
		return g, StatusFailed
	}

	created := resp.ToGroup()

	o.mu.Lock()
	idx := o.groupIndexLocked(g.ID)
	if idx == -1 {
		o.mu.Unlock()

		log.Debug("group %s was created as %s after being deleted\n", g.ID, created.ID)
		if err := o.remote.DeleteGroup(ctx, token, created.ID); err != nil && !client.IsNotFound(err) {
			log.Debug("deleting group %s: %s\n", created.ID, err.Error())
			return database.Group{}, StatusFailed
		}

		return database.Group{}, StatusSynced
	}
	o.groups[idx] = created
	o.replaceGroupIDLocked(g.ID, created.ID)
	o.persistLocked(consts.KeyGroups, consts.KeyNotes, consts.KeyPendingNotes)
	o.mu.Unlock()
	o.publish()

	return created, StatusSynced
}

// replaceGroupIDLocked rewrites the references to a group in notes and in
// queued actions
func (o *Orchestrator) replaceGroupIDLocked(oldID, newID string) {
	if oldID == newID {
		return
	}

	for i := range o.notes {
		o.notes[i].GroupIDs = replaceID(o.notes[i].GroupIDs, oldID, newID)
	}
	for i := range o.pending {
		o.pending[i].Note.GroupIDs = replaceID(o.pending[i].Note.GroupIDs, oldID, newID)
	}
}

// UpdateGroup replaces the group locally and on the server. A group that
// never reached the server is created instead.
func (o *Orchestrator) UpdateGroup(ctx context.Context, g database.Group) Status {
	token, ok := o.session.Token()
	if !ok {
		return StatusNoSession
	}

	o.mu.Lock()
	idx := o.groupIndexLocked(g.ID)
	if idx == -1 {
		o.mu.Unlock()
		log.Debug("group %s not found\n", g.ID)
		return StatusFailed
	}
	o.groups[idx] = g
	o.persistLocked(consts.KeyGroups)
	o.mu.Unlock()
	o.publish()

	if g.IsProvisional() {
		_, st := o.createGroup(ctx, token, g)
		return st
	}

	resp, err := o.remote.UpdateGroup(ctx, token, g.ID, client.NewGroupPayload(g))
	if err != nil {
		log.Debug("updating group %s: %s\n", g.ID, err.Error())
		return StatusFailed
	}

	o.mu.Lock()
	if idx := o.groupIndexLocked(g.ID); idx != -1 {
		o.groups[idx] = resp.ToGroup()
		o.persistLocked(consts.KeyGroups)
	}
	o.mu.Unlock()
	o.publish()

	return StatusSynced
}

// DeleteGroup removes the group locally, unshares the notes from it, and
// deletes it on the server
func (o *Orchestrator) DeleteGroup(ctx context.Context, id string) Status {
	token, ok := o.session.Token()
	if !ok {
		return StatusNoSession
	}

	o.mu.Lock()
	if idx := o.groupIndexLocked(id); idx != -1 {
		o.groups = append(o.groups[:idx], o.groups[idx+1:]...)
	}
	for i := range o.notes {
		o.notes[i].GroupIDs = removeIDs(o.notes[i].GroupIDs, []string{id})
	}
	o.persistLocked(consts.KeyGroups, consts.KeyNotes)
	o.mu.Unlock()
	o.publish()

	if database.IsProvisionalID(id) {
		return StatusSynced
	}

	if err := o.remote.DeleteGroup(ctx, token, id); err != nil && !client.IsNotFound(err) {
		log.Debug("deleting group %s: %s\n", id, err.Error())
		return StatusFailed
	}

	return StatusSynced
}

func replaceID(ids []string, oldID, newID string) []string {
	for i, id := range ids {
		if id == oldID {
			ids[i] = newID
		}
	}

	return ids
}
