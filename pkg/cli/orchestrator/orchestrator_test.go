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
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/connectivity"
	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/session"
	"github.com/dnote/notesync/pkg/cli/testutils"
	"github.com/dnote/notesync/pkg/clock"
	"github.com/pkg/errors"
)

type testEnv struct {
	o        *Orchestrator
	srv      *testutils.Server
	db       *database.DB
	clock    *clock.Mock
	observer *connectivity.Manual
}

type envOptions struct {
	loggedOut bool
	notes     []database.Note
	pending   []database.PendingAction
	ledger    []string
	groups    []database.Group
	retry     RetryPolicy
	replay    ReplayPolicy
}

func newTestEnv(t *testing.T, opts envOptions) testEnv {
	srv := testutils.NewServer()
	t.Cleanup(srv.Close)

	db := database.InitTestMemoryDB(t)
	if !opts.loggedOut {
		database.MustWriteKey(t, db, consts.KeyUserToken, testutils.DefaultToken)
	}
	if opts.notes != nil {
		database.MustWriteKey(t, db, consts.KeyNotes, opts.notes)
	}
	if opts.pending != nil {
		database.MustWriteKey(t, db, consts.KeyPendingNotes, opts.pending)
	}
	if opts.ledger != nil {
		database.MustWriteKey(t, db, consts.KeyDeletedNoteIDs, opts.ledger)
	}
	if opts.groups != nil {
		database.MustWriteKey(t, db, consts.KeyGroups, opts.groups)
	}

	c := clock.NewMock()
	observer := connectivity.NewManual(true)

	o, err := New(Params{
		DB:           db,
		Remote:       srv.NewClient(),
		Session:      session.New(db),
		Observer:     observer,
		Clock:        c,
		Retry:        opts.retry,
		ReplayPolicy: opts.replay,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "constructing the orchestrator"))
	}
	t.Cleanup(o.Close)

	return testEnv{o: o, srv: srv, db: db, clock: c, observer: observer}
}

// assertQueueInvariant checks that a note is unsynced if and only if an
// action is queued for it, both in memory and in the cache store
func assertQueueInvariant(t *testing.T, env testEnv) {
	t.Helper()

	check := func(notes []database.Note, pending []database.PendingAction, source string) {
		queued := map[string]bool{}
		for _, a := range pending {
			queued[a.Note.ID] = true
		}
		for _, n := range notes {
			assert.Equal(t, n.Unsynced, queued[n.ID], source+": unsynced mismatch for note "+n.ID)
		}
	}

	check(env.o.Notes(), env.o.Pending(), "memory")

	var notes []database.Note
	var pending []database.PendingAction
	database.MustReadKey(t, env.db, consts.KeyNotes, &notes)
	database.MustReadKey(t, env.db, consts.KeyPendingNotes, &pending)
	check(notes, pending, "cache")
}

func findNote(notes []database.Note, id string) (database.Note, bool) {
	for _, n := range notes {
		if n.ID == id {
			return n, true
		}
	}

	return database.Note{}, false
}

func noteIDs(notes []database.Note) []string {
	ret := []string{}
	for _, n := range notes {
		ret = append(ret, n.ID)
	}

	return ret
}

func TestAddNote_offline(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.srv.SetOffline(true)

	note, st := env.o.AddNote(context.Background(), database.Note{Title: "A", Text: "b"})

	assert.Equal(t, st, StatusPending, "status mismatch")
	assert.Equal(t, database.IsProvisionalID(note.ID), true, "id should be provisional")

	notes := env.o.Notes()
	assert.Equal(t, len(notes), 1, "note count mismatch")
	assert.Equal(t, notes[0].Title, "A", "title mismatch")
	assert.Equal(t, notes[0].Unsynced, true, "note should be unsynced")

	pending := env.o.Pending()
	assert.Equal(t, len(pending), 1, "queue length mismatch")
	assert.Equal(t, pending[0].Kind, database.ActionAdd, "action kind mismatch")
	assert.Equal(t, pending[0].Attempts, 1, "attempts mismatch")
	assert.Equal(t, pending[0].Status, database.ActionPending, "action status mismatch")

	assertQueueInvariant(t, env)
}

func TestAddNote_online(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	note, st := env.o.AddNote(context.Background(), database.Note{
		Title: "groceries",
		Tasks: []database.Task{{ID: "t1", Text: "milk"}},
	})

	assert.Equal(t, st, StatusSynced, "status mismatch")
	assert.Equal(t, note.ID, "101", "id should be assigned by the server")
	assert.Equal(t, note.Unsynced, false, "note should be synced")
	assert.Equal(t, len(env.o.Pending()), 0, "queue should be empty")
	assert.DeepEqual(t, noteIDs(env.o.Notes()), []string{"101"}, "ids mismatch")

	remote := env.srv.Notes()
	assert.Equal(t, len(remote), 1, "remote note count mismatch")
	assert.Equal(t, remote[0].Title, "groceries", "remote title mismatch")
	assert.Equal(t, remote[0].CreatedAt.Equal(note.CreatedAt), true, "remote createdAt mismatch")

	assertQueueInvariant(t, env)
}

func TestSyncPendingNotes_afterReconnect(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	env.srv.SetOffline(true)
	draft, _ := env.o.AddNote(ctx, database.Note{Title: "A", Text: "b", GroupIDs: []string{"g1"}})

	env.srv.SetOffline(false)
	st := env.o.SyncPendingNotes(ctx)

	assert.Equal(t, st, StatusSynced, "status mismatch")
	assert.Equal(t, len(env.o.Pending()), 0, "queue should be empty")

	notes := env.o.Notes()
	assert.Equal(t, len(notes), 1, "note count mismatch")
	assert.Equal(t, notes[0].ID, "101", "id should be replaced by the server id")
	assert.Equal(t, notes[0].Unsynced, false, "note should be synced")
	assert.DeepEqual(t, notes[0].GroupIDs, []string{"g1"}, "group ids mismatch")

	resolved, ok := env.o.Note(draft.ID)
	assert.Equal(t, ok, true, "provisional id should resolve")
	assert.Equal(t, resolved.ID, "101", "resolved id mismatch")

	assertQueueInvariant(t, env)
}

func TestSyncPendingNotes_idempotent(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	env.srv.SetOffline(true)
	env.o.AddNote(ctx, database.Note{Title: "A"})
	env.o.AddNote(ctx, database.Note{Title: "B"})
	env.srv.SetOffline(false)

	env.o.SyncPendingNotes(ctx)
	first := env.o.Notes()

	st := env.o.SyncPendingNotes(ctx)
	second := env.o.Notes()

	assert.Equal(t, st, StatusSynced, "status mismatch")
	assert.DeepEqual(t, second, first, "notes should not change on a second replay")
	assert.Equal(t, env.srv.CountRequests("POST", "/v3/notes"), 2, "creation request count mismatch")
	assert.Equal(t, len(env.srv.Notes()), 2, "remote note count mismatch")
}

func TestSyncPendingNotes_order(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	env.srv.SetOffline(true)
	a, _ := env.o.AddNote(ctx, database.Note{Title: "first"})
	b, _ := env.o.AddNote(ctx, database.Note{Title: "second"})
	env.srv.SetOffline(false)

	env.o.SyncPendingNotes(ctx)

	first, _ := env.o.Note(a.ID)
	second, _ := env.o.Note(b.ID)
	assert.Equal(t, first.ID, "101", "the first queued note should be created first")
	assert.Equal(t, second.ID, "102", "the second queued note should be created second")
}

func TestUpdateNote(t *testing.T) {
	createdAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	seed := database.Note{ID: "7", Title: "t", Text: "old", GroupIDs: []string{"g1"}, CreatedAt: createdAt}

	setup := func(t *testing.T) testEnv {
		env := newTestEnv(t, envOptions{notes: []database.Note{seed}})
		env.srv.SeedNote(client.RespNote{ID: "7", Title: "t", Text: "old", CreatedAt: createdAt})
		return env
	}

	t.Run("online", func(t *testing.T) {
		env := setup(t)

		n := seed.Clone()
		n.Text = "new"
		st := env.o.UpdateNote(context.Background(), n, true)

		assert.Equal(t, st, StatusSynced, "status mismatch")
		got, _ := env.o.Note("7")
		assert.Equal(t, got.Text, "new", "local text mismatch")
		assert.Equal(t, env.srv.Notes()[0].Text, "new", "remote text mismatch")
		assertQueueInvariant(t, env)
	})

	t.Run("offline", func(t *testing.T) {
		env := setup(t)
		ctx := context.Background()
		env.srv.SetOffline(true)

		n := seed.Clone()
		n.Text = "new"
		assert.Equal(t, env.o.UpdateNote(ctx, n, true), StatusPending, "first status mismatch")
		n.Text = "newer"
		assert.Equal(t, env.o.UpdateNote(ctx, n, true), StatusPending, "second status mismatch")

		pending := env.o.Pending()
		assert.Equal(t, len(pending), 1, "updates of the same note should be folded")
		assert.Equal(t, pending[0].Kind, database.ActionUpdate, "action kind mismatch")
		assert.Equal(t, pending[0].Note.Text, "newer", "queued text mismatch")
		got, _ := env.o.Note("7")
		assert.Equal(t, got.Unsynced, true, "note should be unsynced")
		assertQueueInvariant(t, env)

		env.srv.SetOffline(false)
		assert.Equal(t, env.o.SyncPendingNotes(ctx), StatusSynced, "replay status mismatch")
		assert.Equal(t, env.srv.Notes()[0].Text, "newer", "remote text mismatch")
		got, _ = env.o.Note("7")
		assert.Equal(t, got.Unsynced, false, "note should be synced")
		assertQueueInvariant(t, env)
	})

	t.Run("online supersedes a queued update", func(t *testing.T) {
		env := setup(t)
		ctx := context.Background()

		env.srv.SetOffline(true)
		n := seed.Clone()
		n.Text = "offline edit"
		env.o.UpdateNote(ctx, n, true)
		env.srv.SetOffline(false)

		n.Text = "online edit"
		assert.Equal(t, env.o.UpdateNote(ctx, n, true), StatusSynced, "status mismatch")
		assert.Equal(t, len(env.o.Pending()), 0, "queue should be empty")
		assertQueueInvariant(t, env)
	})

	t.Run("without persisting locally", func(t *testing.T) {
		env := setup(t)
		env.srv.SetOffline(true)

		n := seed.Clone()
		n.Text = "new"
		st := env.o.UpdateNote(context.Background(), n, false)

		assert.Equal(t, st, StatusFailed, "status mismatch")
		got, _ := env.o.Note("7")
		assert.Equal(t, got.Text, "old", "local note should not change")
		assert.Equal(t, len(env.o.Pending()), 0, "nothing should be queued")
	})

	t.Run("missing note", func(t *testing.T) {
		env := setup(t)

		st := env.o.UpdateNote(context.Background(), database.Note{ID: "404"}, true)
		assert.Equal(t, st, StatusFailed, "status mismatch")
	})
}

func TestUpdateNote_provisional(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	env.srv.SetOffline(true)
	n, _ := env.o.AddNote(ctx, database.Note{Title: "A"})
	n.Title = "B"
	st := env.o.UpdateNote(ctx, n, true)

	assert.Equal(t, st, StatusPending, "status mismatch")
	pending := env.o.Pending()
	assert.Equal(t, len(pending), 1, "the update should be folded into the creation")
	assert.Equal(t, pending[0].Kind, database.ActionAdd, "action kind mismatch")
	assert.Equal(t, pending[0].Note.Title, "B", "queued title mismatch")
	assertQueueInvariant(t, env)

	env.srv.SetOffline(false)
	env.o.SyncPendingNotes(ctx)

	remote := env.srv.Notes()
	assert.Equal(t, len(remote), 1, "remote note count mismatch")
	assert.Equal(t, remote[0].Title, "B", "remote title mismatch")
	assert.Equal(t, env.srv.CountRequests("PATCH", "/v3/notes/101"), 0, "no update request should be made")
}

func TestUpdateNote_resolvesProvisionalID(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	env.srv.SetOffline(true)
	n, _ := env.o.AddNote(ctx, database.Note{Title: "A"})
	env.srv.SetOffline(false)
	env.o.SyncPendingNotes(ctx)

	// the caller still holds the provisional id
	n.Title = "B"
	st := env.o.UpdateNote(ctx, n, true)

	assert.Equal(t, st, StatusSynced, "status mismatch")
	assert.DeepEqual(t, noteIDs(env.o.Notes()), []string{"101"}, "ids mismatch")
	assert.Equal(t, env.srv.Notes()[0].Title, "B", "remote title mismatch")
}

func TestDeleteNotes(t *testing.T) {
	seed := []database.Note{{ID: "n1", Title: "one"}, {ID: "n2", Title: "two"}}

	t.Run("offline", func(t *testing.T) {
		env := newTestEnv(t, envOptions{notes: seed})
		env.srv.SeedNote(client.RespNote{ID: "n1"})
		ctx := context.Background()
		env.srv.SetOffline(true)

		st := env.o.DeleteNotes(ctx, []string{"n1"})

		assert.Equal(t, st, StatusPending, "status mismatch")
		assert.DeepEqual(t, noteIDs(env.o.Notes()), []string{"n2"}, "n1 should be removed immediately")
		assert.DeepEqual(t, env.o.Ledger(), []string{"n1"}, "ledger mismatch")

		var cached []database.Note
		var ledger []string
		database.MustReadKey(t, env.db, consts.KeyNotes, &cached)
		database.MustReadKey(t, env.db, consts.KeyDeletedNoteIDs, &ledger)
		assert.DeepEqual(t, noteIDs(cached), []string{"n2"}, "cached notes mismatch")
		assert.DeepEqual(t, ledger, []string{"n1"}, "cached ledger mismatch")

		env.srv.SetOffline(false)
		assert.Equal(t, env.o.SyncDeletedNotes(ctx), StatusSynced, "sync status mismatch")
		assert.DeepEqual(t, env.o.Ledger(), []string{}, "ledger should be empty")
		assert.Equal(t, len(env.srv.Notes()), 0, "remote note should be deleted")
	})

	t.Run("online", func(t *testing.T) {
		env := newTestEnv(t, envOptions{notes: seed})
		env.srv.SeedNote(client.RespNote{ID: "n1"})
		env.srv.SeedNote(client.RespNote{ID: "n2"})

		st := env.o.DeleteNotes(context.Background(), []string{"n1", "n2"})

		assert.Equal(t, st, StatusSynced, "status mismatch")
		assert.Equal(t, len(env.o.Notes()), 0, "notes should be removed")
		assert.Equal(t, len(env.o.Ledger()), 0, "ledger should be empty")
		assert.Equal(t, len(env.srv.Notes()), 0, "remote notes should be deleted")
	})

	t.Run("already deleted remotely", func(t *testing.T) {
		env := newTestEnv(t, envOptions{notes: seed})

		st := env.o.DeleteNotes(context.Background(), []string{"n1"})

		assert.Equal(t, st, StatusSynced, "a missing remote note should count as deleted")
		assert.Equal(t, len(env.o.Ledger()), 0, "ledger should be empty")
	})

	t.Run("partial failure records every requested id", func(t *testing.T) {
		env := newTestEnv(t, envOptions{notes: seed})
		env.srv.SeedNote(client.RespNote{ID: "n1"})
		env.srv.SeedNote(client.RespNote{ID: "n2"})
		env.srv.FailWith("DELETE", "/v3/notes/n2", 500)

		st := env.o.DeleteNotes(context.Background(), []string{"n1", "n2"})

		assert.Equal(t, st, StatusPending, "status mismatch")
		assert.DeepEqual(t, env.o.Ledger(), []string{"n1", "n2"}, "ledger mismatch")

		// n1 is confirmed on retry even though n2 still fails
		assert.Equal(t, env.o.SyncDeletedNotes(context.Background()), StatusPending, "sync status mismatch")
		assert.DeepEqual(t, env.o.Ledger(), []string{"n2"}, "only the failing id should remain")

		env.srv.ClearFailures()
		assert.Equal(t, env.o.SyncDeletedNotes(context.Background()), StatusSynced, "second sync status mismatch")
		assert.DeepEqual(t, env.o.Ledger(), []string{}, "ledger should be empty")
	})

	t.Run("provisional note", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		ctx := context.Background()
		env.srv.SetOffline(true)

		n, _ := env.o.AddNote(ctx, database.Note{Title: "draft"})
		st := env.o.DeleteNotes(ctx, []string{n.ID})

		assert.Equal(t, st, StatusSynced, "status mismatch")
		assert.Equal(t, len(env.o.Notes()), 0, "note should be removed")
		assert.Equal(t, len(env.o.Pending()), 0, "queued creation should be dropped")
		assert.Equal(t, len(env.o.Ledger()), 0, "the server never knew the note")
	})

	t.Run("drops queued updates", func(t *testing.T) {
		env := newTestEnv(t, envOptions{notes: seed})
		ctx := context.Background()
		env.srv.SetOffline(true)

		n := seed[0].Clone()
		n.Text = "edit"
		env.o.UpdateNote(ctx, n, true)
		env.o.DeleteNotes(ctx, []string{"n1"})

		assert.Equal(t, len(env.o.Pending()), 0, "queued update should be dropped")
		assertQueueInvariant(t, env)
	})
}

func TestLoadNotes(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)
	t4 := t1.Add(3 * time.Hour)

	t.Run("merge", func(t *testing.T) {
		provisional := database.Note{ID: "local-x", Title: "draft", CreatedAt: t2, Unsynced: true}
		env := newTestEnv(t, envOptions{
			notes: []database.Note{
				{ID: "5", Text: "old", GroupIDs: []string{"g1"}, Hidden: true, CreatedAt: t1},
				provisional,
				{ID: "6", Text: "deleted elsewhere", CreatedAt: t3},
			},
			pending: []database.PendingAction{{ID: "a1", Kind: database.ActionAdd, Note: provisional, Status: database.ActionPending}},
			ledger:  []string{"8"},
		})
		env.srv.SeedNote(client.RespNote{ID: "5", Text: "hi", CreatedAt: t1})
		env.srv.SeedNote(client.RespNote{ID: "7", Text: "new", CreatedAt: t4})
		env.srv.SeedNote(client.RespNote{ID: "8", Text: "being deleted", CreatedAt: t3})

		st := env.o.LoadNotes(context.Background())
		assert.Equal(t, st, StatusSynced, "status mismatch")

		notes := env.o.Notes()
		assert.DeepEqual(t, noteIDs(notes), []string{"7", "local-x", "5"}, "ids mismatch")

		n5, _ := findNote(notes, "5")
		assert.Equal(t, n5.Text, "hi", "remote text should win")
		assert.DeepEqual(t, n5.GroupIDs, []string{"g1"}, "local group ids should be preserved")
		assert.Equal(t, n5.Hidden, true, "local hidden flag should be preserved")

		var cached []database.Note
		database.MustReadKey(t, env.db, consts.KeyNotes, &cached)
		assert.DeepEqual(t, noteIDs(cached), []string{"7", "local-x", "5"}, "cached ids mismatch")
		assertQueueInvariant(t, env)
	})

	t.Run("offline keeps the cache", func(t *testing.T) {
		cached := []database.Note{{ID: "5", Text: "cached", CreatedAt: t1}}
		env := newTestEnv(t, envOptions{notes: cached})
		env.srv.SetOffline(true)

		var published [][]database.Note
		env.o.SubscribeNotes(func(n []database.Note) { published = append(published, n) })

		st := env.o.LoadNotes(context.Background())

		assert.Equal(t, st, StatusPending, "status mismatch")
		assert.DeepEqual(t, env.o.Notes(), cached, "notes mismatch")
		assert.Equal(t, len(published), 1, "the cached notes should be published once")
		assert.DeepEqual(t, published[0], cached, "published notes mismatch")
	})

	t.Run("equal timestamps keep the server order", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.srv.SeedNote(client.RespNote{ID: "1", CreatedAt: t1})
		env.srv.SeedNote(client.RespNote{ID: "2", CreatedAt: t1})
		env.srv.SeedNote(client.RespNote{ID: "3", CreatedAt: t2})

		env.o.LoadNotes(context.Background())

		assert.DeepEqual(t, noteIDs(env.o.Notes()), []string{"3", "1", "2"}, "ids mismatch")
	})
}

func TestRetryPolicy(t *testing.T) {
	env := newTestEnv(t, envOptions{retry: RetryPolicy{MaxAttempts: 2}})
	ctx := context.Background()

	env.srv.FailWith("POST", "/v3/notes", 500)
	n, st := env.o.AddNote(ctx, database.Note{Title: "A"})
	assert.Equal(t, st, StatusPending, "add status mismatch")

	st = env.o.SyncPendingNotes(ctx)
	assert.Equal(t, st, StatusFailed, "status after exhausting attempts mismatch")

	pending := env.o.Pending()
	assert.Equal(t, len(pending), 1, "failed action should be kept")
	assert.Equal(t, pending[0].Status, database.ActionFailed, "action status mismatch")
	assert.Equal(t, pending[0].Attempts, 2, "attempts mismatch")
	assert.NotEqual(t, pending[0].LastError, "", "last error should be recorded")
	assertQueueInvariant(t, env)

	// failed actions are not retried automatically
	env.o.SyncPendingNotes(ctx)
	assert.Equal(t, env.o.Pending()[0].Attempts, 2, "failed action should not be attempted")
	assert.Equal(t, env.o.Summary().Failed, 1, "failed count mismatch")

	env.srv.ClearFailures()
	assert.Equal(t, env.o.RetryFailed(), 1, "reset count mismatch")
	assert.Equal(t, env.o.SyncPendingNotes(ctx), StatusSynced, "status after retry mismatch")

	got, ok := env.o.Note(n.ID)
	assert.Equal(t, ok, true, "note should exist")
	assert.Equal(t, got.Unsynced, false, "note should be synced")
	assertQueueInvariant(t, env)
}

func TestRetryPolicy_unreachable(t *testing.T) {
	env := newTestEnv(t, envOptions{retry: RetryPolicy{MaxAttempts: 1}})
	ctx := context.Background()
	env.srv.SetOffline(true)

	env.o.AddNote(ctx, database.Note{Title: "A"})
	env.o.SyncPendingNotes(ctx)
	env.o.SyncPendingNotes(ctx)

	pending := env.o.Pending()
	assert.Equal(t, pending[0].Status, database.ActionPending, "an unreachable server should not fail the action")
	assert.Equal(t, pending[0].Attempts, 3, "attempts mismatch")
}

func TestSyncPendingNotes_backoff(t *testing.T) {
	env := newTestEnv(t, envOptions{retry: RetryPolicy{BaseDelay: time.Minute}})
	ctx := context.Background()

	env.srv.SetOffline(true)
	env.o.AddNote(ctx, database.Note{Title: "A"})
	env.srv.SetOffline(false)

	// not due yet
	env.o.syncPendingNotes(ctx, false)
	assert.Equal(t, len(env.o.Pending()), 1, "action should wait for its backoff")
	assert.Equal(t, env.o.hasDueWork(), false, "no work should be due")

	env.clock.Advance(time.Minute)
	assert.Equal(t, env.o.hasDueWork(), true, "work should be due")
	env.o.syncPendingNotes(ctx, false)
	assert.Equal(t, len(env.o.Pending()), 0, "action should be replayed once due")
}

func TestSyncPendingNotes_discard(t *testing.T) {
	env := newTestEnv(t, envOptions{replay: ReplayDiscard})
	ctx := context.Background()

	env.srv.FailWith("POST", "/v3/notes", 500)
	env.o.AddNote(ctx, database.Note{Title: "A"})

	st := env.o.SyncPendingNotes(ctx)

	assert.Equal(t, st, StatusFailed, "status mismatch")
	assert.Equal(t, len(env.o.Pending()), 0, "queue should be cleared")
	assert.Equal(t, len(env.o.Notes()), 1, "the note should stay")
	assertQueueInvariant(t, env)
}

func TestReconcile_onReconnect(t *testing.T) {
	env := newTestEnv(t, envOptions{notes: []database.Note{{ID: "n1"}}})
	env.srv.SeedNote(client.RespNote{ID: "n1"})
	ctx := context.Background()

	env.observer.SetOnline(false)
	env.srv.SetOffline(true)
	env.o.AddNote(ctx, database.Note{Title: "A"})
	env.o.DeleteNotes(ctx, []string{"n1"})

	env.srv.SetOffline(false)
	env.observer.SetOnline(true)
	env.o.wg.Wait()

	assert.Equal(t, len(env.o.Pending()), 0, "queue should be empty")
	assert.Equal(t, len(env.o.Ledger()), 0, "ledger should be empty")
	assert.DeepEqual(t, noteIDs(env.o.Notes()), []string{"101"}, "ids mismatch")
	assert.Equal(t, len(env.srv.Notes()), 1, "remote note count mismatch")
	assertQueueInvariant(t, env)
}

func TestReconcile_overlapping(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	env.srv.SetOffline(true)
	env.o.AddNote(ctx, database.Note{Title: "A"})
	env.srv.SetOffline(false)

	env.o.syncing.Store(true)
	st := env.o.Reconcile(ctx)
	env.o.syncing.Store(false)

	assert.Equal(t, st, StatusPending, "status mismatch")
	assert.Equal(t, len(env.o.Pending()), 1, "an overlapping pass should do nothing")
	assert.Equal(t, len(env.srv.Requests()), 0, "no request should be made")

	assert.Equal(t, env.o.Reconcile(ctx), StatusSynced, "status mismatch")
	assert.Equal(t, env.o.Syncing(), false, "syncing flag should be released")
}

func TestSessionGate(t *testing.T) {
	seed := []database.Note{{ID: "n1", Title: "one"}}
	env := newTestEnv(t, envOptions{loggedOut: true, notes: seed, ledger: []string{"n9"}})
	ctx := context.Background()

	_, st := env.o.AddNote(ctx, database.Note{Title: "A"})
	assert.Equal(t, st, StatusNoSession, "AddNote status mismatch")
	assert.Equal(t, env.o.UpdateNote(ctx, database.Note{ID: "n1", Title: "x"}, true), StatusNoSession, "UpdateNote status mismatch")
	assert.Equal(t, env.o.DeleteNotes(ctx, []string{"n1"}), StatusNoSession, "DeleteNotes status mismatch")
	assert.Equal(t, env.o.SyncPendingNotes(ctx), StatusNoSession, "SyncPendingNotes status mismatch")
	assert.Equal(t, env.o.SyncDeletedNotes(ctx), StatusNoSession, "SyncDeletedNotes status mismatch")
	assert.Equal(t, env.o.Reconcile(ctx), StatusNoSession, "Reconcile status mismatch")
	assert.Equal(t, env.o.HideNotes(ctx, []string{"n1"}), StatusNoSession, "HideNotes status mismatch")
	_, st = env.o.AddGroup(ctx, database.Group{Name: "g"})
	assert.Equal(t, st, StatusNoSession, "AddGroup status mismatch")

	assert.DeepEqual(t, env.o.Notes(), seed, "notes should not change")
	assert.DeepEqual(t, env.o.Ledger(), []string{"n9"}, "ledger should not change")
	assert.Equal(t, len(env.o.Groups()), 0, "groups should not change")
	assert.Equal(t, len(env.srv.Requests()), 0, "no request should be made")
}

func TestNew_restoresCache(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	env.srv.SetOffline(true)
	env.o.AddNote(ctx, database.Note{Title: "A"})
	env.o.Close()

	o, err := New(Params{DB: env.db, Remote: env.srv.NewClient(), Session: session.New(env.db), Clock: env.clock})
	if err != nil {
		t.Fatal(errors.Wrap(err, "constructing the orchestrator"))
	}
	defer o.Close()

	assert.Equal(t, len(o.Notes()), 1, "note count mismatch")
	assert.Equal(t, len(o.Pending()), 1, "queue length mismatch")
	assert.Equal(t, o.Notes()[0].Unsynced, true, "note should be unsynced")

	env.srv.SetOffline(false)
	assert.Equal(t, o.SyncPendingNotes(ctx), StatusSynced, "replay status mismatch")
}

func TestNew_repairsUnsyncedFlag(t *testing.T) {
	env := newTestEnv(t, envOptions{
		notes: []database.Note{{ID: "1", Unsynced: true}, {ID: "2"}},
		pending: []database.PendingAction{
			{ID: "a1", Kind: database.ActionUpdate, Note: database.Note{ID: "2"}},
		},
	})

	n1, _ := env.o.Note("1")
	n2, _ := env.o.Note("2")
	assert.Equal(t, n1.Unsynced, false, "note 1 has no queued action")
	assert.Equal(t, n2.Unsynced, true, "note 2 has a queued action")
	assert.Equal(t, env.o.Pending()[0].Status, database.ActionPending, "missing status should default to pending")
}

func TestNew_invalidParams(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	_, err := New(Params{DB: db, Session: session.New(db)})
	assert.NotEqual(t, err, nil, "a missing remote should be rejected")

	srv := testutils.NewServer()
	defer srv.Close()
	_, err = New(Params{DB: db, Remote: srv.NewClient(), Session: session.New(db), ReplayPolicy: "sometimes"})
	assert.NotEqual(t, err, nil, "an unknown replay policy should be rejected")
}

func TestSubscribeNotes(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	var last []database.Note
	var calls int
	unsubscribe := env.o.SubscribeNotes(func(n []database.Note) {
		calls++
		last = n
	})

	env.o.AddNote(context.Background(), database.Note{Title: "A"})
	unsubscribe()

	assert.Equal(t, calls > 0, true, "listener should be notified")
	assert.DeepEqual(t, noteIDs(last), []string{"101"}, "last published notes mismatch")
}

// eventually polls the condition until it holds or a second has passed
func eventually(t *testing.T, cond func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(message)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDeleteNotes_ledgerBeforeRequest(t *testing.T) {
	env := newTestEnv(t, envOptions{notes: []database.Note{{ID: "n1"}, {ID: "n2"}}})
	env.srv.SeedNote(client.RespNote{ID: "n1"})

	gate := env.srv.Hold("DELETE", "/v3/notes/n1")
	done := make(chan Status)
	go func() { done <- env.o.DeleteNotes(context.Background(), []string{"n1"}) }()

	<-gate.Arrived()

	var cached []database.Note
	var ledger []string
	database.MustReadKey(t, env.db, consts.KeyNotes, &cached)
	database.MustReadKey(t, env.db, consts.KeyDeletedNoteIDs, &ledger)
	assert.DeepEqual(t, noteIDs(cached), []string{"n2"}, "the removal should be cached before the request")
	assert.DeepEqual(t, ledger, []string{"n1"}, "the ledger should be cached before the request")

	gate.Release()
	assert.Equal(t, <-done, StatusSynced, "status mismatch")

	database.MustReadKey(t, env.db, consts.KeyDeletedNoteIDs, &ledger)
	assert.DeepEqual(t, ledger, []string{}, "a confirmed id should leave the ledger")
}

func TestLoadNotes_concurrentDelete(t *testing.T) {
	testCases := []struct {
		name    string
		offline bool
		status  Status
		ledger  []string
	}{
		{name: "confirmed", status: StatusSynced, ledger: []string{}},
		{name: "unconfirmed", offline: true, status: StatusPending, ledger: []string{"n1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, envOptions{notes: []database.Note{{ID: "n1"}, {ID: "n2"}}})
			env.srv.SeedNote(client.RespNote{ID: "n1"})
			env.srv.SeedNote(client.RespNote{ID: "n2"})
			ctx := context.Background()

			// the listing is taken before the deletion and delivered after it
			gate := env.srv.Hold("GET", "/v3/notes")
			done := make(chan Status)
			go func() { done <- env.o.LoadNotes(ctx) }()
			<-gate.Arrived()

			env.srv.SetOffline(tc.offline)
			assert.Equal(t, env.o.DeleteNotes(ctx, []string{"n1"}), tc.status, "delete status mismatch")

			gate.Release()
			assert.Equal(t, <-done, StatusSynced, "load status mismatch")

			assert.DeepEqual(t, noteIDs(env.o.Notes()), []string{"n2"}, "the deleted note should not come back")
			assert.DeepEqual(t, env.o.Ledger(), tc.ledger, "ledger mismatch")

			var cached []database.Note
			database.MustReadKey(t, env.db, consts.KeyNotes, &cached)
			assert.DeepEqual(t, noteIDs(cached), []string{"n2"}, "cached ids mismatch")
		})
	}
}

func TestLoadNotes_concurrentAdd(t *testing.T) {
	env := newTestEnv(t, envOptions{notes: []database.Note{{ID: "n1"}}})
	env.srv.SeedNote(client.RespNote{ID: "n1"})
	ctx := context.Background()

	gate := env.srv.Hold("GET", "/v3/notes")
	done := make(chan Status)
	go func() { done <- env.o.LoadNotes(ctx) }()
	<-gate.Arrived()

	note, st := env.o.AddNote(ctx, database.Note{Title: "A"})
	assert.Equal(t, st, StatusSynced, "add status mismatch")
	assert.Equal(t, note.ID, "101", "id mismatch")

	gate.Release()
	assert.Equal(t, <-done, StatusSynced, "load status mismatch")

	got, ok := env.o.Note("101")
	assert.Equal(t, ok, true, "a note created during the listing should be kept")
	assert.Equal(t, got.Unsynced, false, "the kept note should be synced")
	assert.Equal(t, len(env.o.Notes()), 2, "note count mismatch")
	assertQueueInvariant(t, env)
}

func TestSyncPendingNotes_lostCreateResponse(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	env.srv.DropResponses("POST", "/v3/notes", true)
	_, st := env.o.AddNote(ctx, database.Note{Title: "A"})
	assert.Equal(t, st, StatusPending, "add status mismatch")
	assert.Equal(t, len(env.srv.Notes()), 1, "the server should have stored the note")

	env.srv.DropResponses("POST", "/v3/notes", false)
	assert.Equal(t, env.o.SyncPendingNotes(ctx), StatusSynced, "sync status mismatch")

	assert.Equal(t, len(env.srv.Notes()), 1, "the replay should not duplicate the note")
	assert.DeepEqual(t, noteIDs(env.o.Notes()), []string{"101"}, "ids mismatch")
	assertQueueInvariant(t, env)
}

func TestSyncPendingNotes_lostCreateResponseListedFirst(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	env.srv.DropResponses("POST", "/v3/notes", true)
	draft, _ := env.o.AddNote(ctx, database.Note{Title: "A"})
	env.srv.DropResponses("POST", "/v3/notes", false)

	// the listing shows the stored note before the creation is replayed
	env.o.LoadNotes(ctx)
	assert.Equal(t, len(env.o.Notes()), 2, "the queued note and the listed note should both show")

	assert.Equal(t, env.o.SyncPendingNotes(ctx), StatusSynced, "sync status mismatch")
	assert.DeepEqual(t, noteIDs(env.o.Notes()), []string{"101"}, "the replay should leave a single note")

	got, ok := env.o.Note(draft.ID)
	assert.Equal(t, ok, true, "the provisional id should resolve")
	assert.Equal(t, got.ID, "101", "resolved id mismatch")
	assertQueueInvariant(t, env)
}

func TestAddNote_adoptsTaskIDs(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	note, st := env.o.AddNote(context.Background(), database.Note{
		Title: "groceries",
		Tasks: []database.Task{{Text: "milk"}, {Text: "eggs", Checked: true}},
	})

	assert.Equal(t, st, StatusSynced, "status mismatch")
	want := []database.Task{{ID: "task-1", Text: "milk"}, {ID: "task-2", Text: "eggs", Checked: true}}
	assert.DeepEqual(t, note.Tasks, want, "returned tasks mismatch")

	got, _ := env.o.Note(note.ID)
	assert.DeepEqual(t, got.Tasks, want, "stored tasks mismatch")
}

func TestUpdateNote_foldIntoFailedAction(t *testing.T) {
	env := newTestEnv(t, envOptions{
		notes: []database.Note{{ID: "n1"}},
		retry: RetryPolicy{MaxAttempts: 1},
	})
	env.srv.SeedNote(client.RespNote{ID: "n1"})
	ctx := context.Background()

	env.srv.FailWith("PATCH", "/v3/notes/n1", 500)
	env.o.UpdateNote(ctx, database.Note{ID: "n1", Text: "first"}, true)
	assert.Equal(t, env.o.Pending()[0].Status, database.ActionFailed, "the rejected update should fail")

	env.srv.ClearFailures()
	env.srv.SetOffline(true)
	env.o.UpdateNote(ctx, database.Note{ID: "n1", Text: "second"}, true)

	pending := env.o.Pending()
	assert.Equal(t, len(pending), 1, "the update should be folded")
	assert.Equal(t, pending[0].Status, database.ActionPending, "status mismatch")
	assert.Equal(t, pending[0].Attempts, 1, "attempts should start over")
	assert.Equal(t, pending[0].Note.Text, "second", "the latest state should be queued")
}

func TestAddNote_cancelledRequest(t *testing.T) {
	env := newTestEnv(t, envOptions{retry: RetryPolicy{MaxAttempts: 1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, st := env.o.AddNote(ctx, database.Note{Title: "A"})
	assert.Equal(t, st, StatusPending, "status mismatch")

	pending := env.o.Pending()
	assert.Equal(t, pending[0].Attempts, 1, "attempts mismatch")
	assert.Equal(t, pending[0].Status, database.ActionPending, "a cancelled request should not fail the action")
}

func TestRun(t *testing.T) {
	env := newTestEnv(t, envOptions{retry: RetryPolicy{BaseDelay: time.Minute, Interval: 5 * time.Millisecond}})
	ctx := context.Background()

	env.srv.SetOffline(true)
	due, _ := env.o.AddNote(ctx, database.Note{Title: "due"})
	env.clock.Advance(30 * time.Second)
	waiting, _ := env.o.AddNote(ctx, database.Note{Title: "waiting"})
	env.clock.Advance(30 * time.Second)
	env.srv.SetOffline(false)

	runCtx, cancel := context.WithCancel(ctx)
	errs := make(chan error)
	go func() { errs <- env.o.Run(runCtx) }()

	eventually(t, func() bool { return len(env.o.Pending()) == 1 }, "the due action should be replayed")
	assert.Equal(t, len(env.srv.Notes()), 1, "remote note count mismatch")
	replayed, _ := env.o.Note(due.ID)
	assert.Equal(t, replayed.ID, "101", "the replayed note should carry its server id")

	// a few ticks go by while the second action backs off
	time.Sleep(30 * time.Millisecond)
	pending := env.o.Pending()
	assert.Equal(t, len(pending), 1, "the waiting action should stay queued")
	assert.Equal(t, pending[0].Note.ID, waiting.ID, "queued note mismatch")

	env.observer.SetOnline(false)
	env.clock.Advance(time.Minute)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, len(env.o.Pending()), 1, "nothing should be replayed while offline")
	assert.Equal(t, len(env.srv.Notes()), 1, "remote note count mismatch")

	cancel()
	assert.Equal(t, errors.Is(<-errs, context.Canceled), true, "run should stop with the context")
}
