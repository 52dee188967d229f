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

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/database"
)

func TestAddGroup(t *testing.T) {
	t.Run("online", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})

		g, st := env.o.AddGroup(context.Background(), database.Group{
			Name:          "family",
			Collaborators: []database.Collaborator{{ID: "u1", Name: "Ann"}},
		})

		assert.Equal(t, st, StatusSynced, "status mismatch")
		assert.Equal(t, g.ID, "101", "id mismatch")
		assert.DeepEqual(t, env.o.Groups(), []database.Group{g}, "groups mismatch")

		remote := env.srv.Groups()
		assert.Equal(t, len(remote), 1, "remote group count mismatch")
		assert.Equal(t, remote[0].Name, "family", "remote name mismatch")
	})

	t.Run("offline", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.srv.SetOffline(true)

		g, st := env.o.AddGroup(context.Background(), database.Group{Name: "family"})

		assert.Equal(t, st, StatusFailed, "status mismatch")
		assert.Equal(t, g.IsProvisional(), true, "id should be provisional")
		assert.Equal(t, len(env.o.Groups()), 1, "the group should be kept locally")

		var cached []database.Group
		database.MustReadKey(t, env.db, consts.KeyGroups, &cached)
		assert.Equal(t, len(cached), 1, "the group should be cached")
	})
}

func TestUpdateGroup_provisional(t *testing.T) {
	env := newTestEnv(t, envOptions{notes: []database.Note{{ID: "n1"}}})
	ctx := context.Background()

	env.srv.SetOffline(true)
	g, _ := env.o.AddGroup(ctx, database.Group{Name: "family"})
	env.o.ShareNote(ctx, "n1", []string{g.ID})

	// a queued note update referencing the group
	n, _ := env.o.Note("n1")
	n.Text = "edit"
	env.o.UpdateNote(ctx, n, true)
	env.srv.SetOffline(false)

	g.Name = "relatives"
	st := env.o.UpdateGroup(ctx, g)

	assert.Equal(t, st, StatusSynced, "status mismatch")

	groups := env.o.Groups()
	assert.Equal(t, len(groups), 1, "group count mismatch")
	assert.Equal(t, groups[0].ID, "101", "the group should be created on the server")
	assert.Equal(t, groups[0].Name, "relatives", "name mismatch")

	n, _ = env.o.Note("n1")
	assert.DeepEqual(t, n.GroupIDs, []string{"101"}, "note group ids should be rewritten")
	assert.DeepEqual(t, env.o.Pending()[0].Note.GroupIDs, []string{"101"}, "queued group ids should be rewritten")
}

func TestUpdateGroup(t *testing.T) {
	env := newTestEnv(t, envOptions{groups: []database.Group{{ID: "g1", Name: "old"}}})
	env.srv.SeedGroup(client.RespGroup{ID: "g1", Name: "old"})
	ctx := context.Background()

	st := env.o.UpdateGroup(ctx, database.Group{ID: "g1", Name: "new"})
	assert.Equal(t, st, StatusSynced, "status mismatch")
	assert.Equal(t, env.srv.Groups()[0].Name, "new", "remote name mismatch")

	env.srv.SetOffline(true)
	st = env.o.UpdateGroup(ctx, database.Group{ID: "g1", Name: "newer"})
	assert.Equal(t, st, StatusFailed, "offline status mismatch")
	assert.Equal(t, env.o.Groups()[0].Name, "newer", "the local change should be kept")

	assert.Equal(t, env.o.UpdateGroup(ctx, database.Group{ID: "missing"}), StatusFailed, "missing group status mismatch")
}

func TestDeleteGroup(t *testing.T) {
	env := newTestEnv(t, envOptions{
		groups: []database.Group{{ID: "g1"}, {ID: "g2"}},
		notes:  []database.Note{{ID: "n1", GroupIDs: []string{"g1", "g2"}}},
	})
	env.srv.SeedGroup(client.RespGroup{ID: "g1"})

	st := env.o.DeleteGroup(context.Background(), "g1")

	assert.Equal(t, st, StatusSynced, "status mismatch")
	assert.Equal(t, len(env.o.Groups()), 1, "group count mismatch")
	n, _ := env.o.Note("n1")
	assert.DeepEqual(t, n.GroupIDs, []string{"g2"}, "the note should be unshared")
	assert.Equal(t, len(env.srv.Groups()), 0, "remote group should be deleted")

	env.srv.SetOffline(true)
	st = env.o.DeleteGroup(context.Background(), "g2")
	assert.Equal(t, st, StatusFailed, "offline status mismatch")
	assert.Equal(t, len(env.o.Groups()), 0, "the group should be removed locally")
}

func TestLoadGroups(t *testing.T) {
	env := newTestEnv(t, envOptions{groups: []database.Group{
		{ID: "g1", Name: "stale"},
		{ID: "g2", Name: "gone"},
		{ID: "local-1", Name: "draft"},
	}})
	env.srv.SeedGroup(client.RespGroup{ID: "g1", Name: "fresh", Collaborators: []client.CollaboratorPayload{{ID: "u1", Name: "Ann"}}})

	st := env.o.LoadGroups(context.Background())

	assert.Equal(t, st, StatusSynced, "status mismatch")
	assert.DeepEqual(t, env.o.Groups(), []database.Group{
		{ID: "g1", Name: "fresh", Collaborators: []database.Collaborator{{ID: "u1", Name: "Ann"}}},
		{ID: "local-1", Name: "draft"},
	}, "groups mismatch")

	env.srv.SetOffline(true)
	assert.Equal(t, env.o.LoadGroups(context.Background()), StatusPending, "offline status mismatch")
	assert.Equal(t, len(env.o.Groups()), 2, "groups should be kept")
}

func TestAddGroup_deletedDuringCreation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	gate := env.srv.Hold("POST", "/v3/groups")

	type result struct {
		g  database.Group
		st Status
	}
	done := make(chan result)
	go func() {
		g, st := env.o.AddGroup(ctx, database.Group{Name: "family"})
		done <- result{g, st}
	}()

	<-gate.Arrived()
	groups := env.o.Groups()
	assert.Equal(t, len(groups), 1, "the group should be added locally")
	assert.Equal(t, env.o.DeleteGroup(ctx, groups[0].ID), StatusSynced, "delete status mismatch")

	gate.Release()
	res := <-done

	assert.Equal(t, res.st, StatusSynced, "status mismatch")
	assert.Equal(t, res.g.ID, "", "no group should be returned")
	assert.Equal(t, len(env.o.Groups()), 0, "the group should not come back")
	assert.Equal(t, len(env.srv.Groups()), 0, "the created group should be deleted on the server")
	assert.Equal(t, env.srv.CountRequests("DELETE", "/v3/groups/101"), 1, "delete request count mismatch")
}
