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

package e2e

import (
	"context"
	"testing"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/cli/connectivity"
	clidb "github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/dnote/notesync/pkg/server/app"
)

func TestAddNote_online(t *testing.T) {
	env := setupEnv(t)
	o := env.newOrchestrator(t, nil)
	ctx := context.Background()

	note, st := o.AddNote(ctx, clidb.Note{Title: "groceries", Text: "milk"})

	assert.Equal(t, st, orchestrator.StatusSynced, "status mismatch")
	assert.Equal(t, note.IsProvisional(), false, "note should have a server id")
	assert.Equal(t, note.Unsynced, false, "note should be synced")

	remote := env.serverNotes(t)
	assert.Equal(t, len(remote), 1, "server note count mismatch")
	assert.Equal(t, remote[0].UUID, note.ID, "id mismatch")
	assert.Equal(t, remote[0].Body, "milk", "body mismatch")
}

func TestAddNote_offlineThenReconcile(t *testing.T) {
	env := setupEnv(t)
	o := env.newOrchestrator(t, nil)
	ctx := context.Background()

	env.setOffline(true)
	draft, st := o.AddNote(ctx, clidb.Note{Title: "A", Text: "b"})

	assert.Equal(t, st, orchestrator.StatusPending, "status mismatch")
	assert.Equal(t, draft.IsProvisional(), true, "note should keep a provisional id")
	assert.Equal(t, draft.Unsynced, true, "note should be unsynced")
	assert.Equal(t, len(o.Pending()), 1, "queue length mismatch")
	assert.Equal(t, o.Pending()[0].Kind, clidb.ActionAdd, "action kind mismatch")
	assert.Equal(t, len(env.serverNotes(t)), 0, "server should have no note yet")

	env.setOffline(false)
	st = o.Reconcile(ctx)

	assert.Equal(t, st, orchestrator.StatusSynced, "reconcile status mismatch")
	assert.Equal(t, len(o.Pending()), 0, "queue should be empty")

	notes := o.Notes()
	assert.Equal(t, len(notes), 1, "note count mismatch")
	assert.Equal(t, notes[0].Unsynced, false, "note should be synced")
	assert.Equal(t, notes[0].IsProvisional(), false, "provisional id should be replaced")

	remote := env.serverNotes(t)
	assert.Equal(t, len(remote), 1, "server note count mismatch")
	assert.Equal(t, remote[0].UUID, notes[0].ID, "id mismatch")

	// a second pass has nothing left to send
	st = o.Reconcile(ctx)
	assert.Equal(t, st, orchestrator.StatusSynced, "second reconcile status mismatch")
	assert.Equal(t, len(env.serverNotes(t)), 1, "replay should not duplicate the note")
}

func TestAddNote_lostResponseThenReconcile(t *testing.T) {
	env := setupEnv(t)
	o := env.newOrchestrator(t, nil)
	ctx := context.Background()

	env.Transport.lossyResp.Store(true)
	_, st := o.AddNote(ctx, clidb.Note{Title: "A", Text: "b"})
	env.Transport.lossyResp.Store(false)

	assert.Equal(t, st, orchestrator.StatusPending, "status mismatch")
	assert.Equal(t, len(env.serverNotes(t)), 1, "the server should have stored the note")

	assert.Equal(t, o.Reconcile(ctx), orchestrator.StatusSynced, "reconcile status mismatch")

	remote := env.serverNotes(t)
	assert.Equal(t, len(remote), 1, "the replay should not duplicate the note")

	notes := o.Notes()
	assert.Equal(t, len(notes), 1, "note count mismatch")
	assert.Equal(t, notes[0].ID, remote[0].UUID, "the note should adopt the stored id")
}

func TestUpdateNote_offlineThenReconcile(t *testing.T) {
	env := setupEnv(t)
	o := env.newOrchestrator(t, nil)
	ctx := context.Background()

	note, st := o.AddNote(ctx, clidb.Note{Title: "todo", Text: "draft"})
	assert.Equal(t, st, orchestrator.StatusSynced, "add status mismatch")

	env.setOffline(true)
	note.Text = "final"
	st = o.UpdateNote(ctx, note, true)

	assert.Equal(t, st, orchestrator.StatusPending, "update status mismatch")
	got, ok := o.Note(note.ID)
	assert.Equal(t, ok, true, "note should exist")
	assert.Equal(t, got.Unsynced, true, "note should be unsynced")
	assert.Equal(t, got.Text, "final", "local text mismatch")

	env.setOffline(false)
	assert.Equal(t, o.SyncPendingNotes(ctx), orchestrator.StatusSynced, "replay status mismatch")

	remote := env.serverNotes(t)
	assert.Equal(t, len(remote), 1, "server note count mismatch")
	assert.Equal(t, remote[0].Body, "final", "server body mismatch")
}

func TestDeleteNotes_offlineThenReconcile(t *testing.T) {
	env := setupEnv(t)
	o := env.newOrchestrator(t, nil)
	ctx := context.Background()

	note, _ := o.AddNote(ctx, clidb.Note{Title: "n1"})

	env.setOffline(true)
	st := o.DeleteNotes(ctx, []string{note.ID})

	assert.Equal(t, st, orchestrator.StatusPending, "delete status mismatch")
	assert.Equal(t, len(o.Notes()), 0, "note should be gone locally")
	assert.DeepEqual(t, o.Ledger(), []string{note.ID}, "ledger mismatch")
	assert.Equal(t, len(env.serverNotes(t)), 1, "server should still have the note")

	env.setOffline(false)
	st = o.SyncDeletedNotes(ctx)

	assert.Equal(t, st, orchestrator.StatusSynced, "sync status mismatch")
	assert.Equal(t, len(o.Ledger()), 0, "ledger should be empty")
	assert.Equal(t, len(env.serverNotes(t)), 0, "server note should be deleted")
}

func TestLoadNotes_preservesGroupIDs(t *testing.T) {
	env := setupEnv(t)
	o := env.newOrchestrator(t, nil)
	ctx := context.Background()

	note, _ := o.AddNote(ctx, clidb.Note{Title: "shared", Text: "old"})
	assert.Equal(t, o.ShareNote(ctx, note.ID, []string{"g1"}), orchestrator.StatusSynced, "share status mismatch")

	// another device edits the note
	body := "hi"
	if _, err := env.App.UpdateNote(env.User, note.ID, app.NoteParams{Body: &body}); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, o.LoadNotes(ctx), orchestrator.StatusSynced, "load status mismatch")

	got, ok := o.Note(note.ID)
	assert.Equal(t, ok, true, "note should exist")
	assert.Equal(t, got.Text, "hi", "text should come from the server")
	assert.DeepEqual(t, got.GroupIDs, []string{"g1"}, "group ids should be kept")
}

func TestLoadNotes_cachedStateSurvivesRestart(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	first := env.newOrchestrator(t, nil)
	env.setOffline(true)
	first.AddNote(ctx, clidb.Note{Title: "offline"})
	first.Close()

	second := env.newOrchestrator(t, nil)

	notes := second.Notes()
	assert.Equal(t, len(notes), 1, "cached note count mismatch")
	assert.Equal(t, notes[0].Title, "offline", "title mismatch")
	assert.Equal(t, len(second.Pending()), 1, "queue should survive a restart")

	// unreachable server leaves the cached list as it is
	assert.Equal(t, second.LoadNotes(ctx), orchestrator.StatusPending, "load status mismatch")
	assert.Equal(t, len(second.Notes()), 1, "cached list should be untouched")
}

func TestReconnectTriggersReconcile(t *testing.T) {
	env := setupEnv(t)
	observer := connectivity.NewManual(false)
	o := env.newOrchestrator(t, observer)
	ctx := context.Background()

	n1, _ := o.AddNote(ctx, clidb.Note{Title: "synced"})

	env.setOffline(true)
	o.AddNote(ctx, clidb.Note{Title: "later"})
	o.DeleteNotes(ctx, []string{n1.ID})
	assert.Equal(t, len(o.Pending()), 1, "queue length mismatch")
	assert.Equal(t, len(o.Ledger()), 1, "ledger length mismatch")

	env.setOffline(false)
	observer.SetOnline(true)

	waitFor(t, func() bool {
		return !o.Syncing() && len(o.Pending()) == 0 && len(o.Ledger()) == 0
	})

	remote := env.serverNotes(t)
	assert.Equal(t, len(remote), 1, "server note count mismatch")
	assert.Equal(t, remote[0].Title, "later", "remaining note mismatch")
}

func TestGroups_roundTrip(t *testing.T) {
	env := setupEnv(t)
	o := env.newOrchestrator(t, nil)
	ctx := context.Background()

	group, st := o.AddGroup(ctx, clidb.Group{
		Name:          "family",
		Collaborators: []clidb.Collaborator{{ID: "u1", Name: "mom"}},
	})
	assert.Equal(t, st, orchestrator.StatusSynced, "add status mismatch")
	assert.Equal(t, group.IsProvisional(), false, "group should have a server id")

	assert.Equal(t, o.LoadGroups(ctx), orchestrator.StatusSynced, "load status mismatch")
	assert.Equal(t, len(o.Groups()), 1, "group count mismatch")

	assert.Equal(t, o.DeleteGroup(ctx, group.ID), orchestrator.StatusSynced, "delete status mismatch")
	assert.Equal(t, len(o.Groups()), 0, "group should be gone")
}
