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

package database

import (
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/pkg/errors"
)

func TestReadKey_absent(t *testing.T) {
	db := InitTestMemoryDB(t)

	var notes []Note
	ok, err := ReadKey(db, consts.KeyNotes, &notes)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading"))
	}

	assert.Equal(t, ok, false, "ok mismatch")
	assert.Equal(t, len(notes), 0, "notes length mismatch")
}

func TestWriteKey(t *testing.T) {
	db := InitTestMemoryDB(t)

	n1 := Note{
		ID:        "n1",
		Title:     "groceries",
		Text:      "milk",
		Tasks:     []Task{{ID: "t1", Text: "eggs", Checked: true}},
		GroupIDs:  []string{"g1"},
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	MustWriteKey(t, db, consts.KeyNotes, []Note{n1})

	// overwrite
	n1.Text = "oat milk"
	MustWriteKey(t, db, consts.KeyNotes, []Note{n1})

	var got []Note
	ok := MustReadKey(t, db, consts.KeyNotes, &got)
	assert.Equal(t, ok, true, "ok mismatch")
	assert.DeepEqual(t, got, []Note{n1}, "notes mismatch")

	var count int
	MustScan(t, "counting rows", db.QueryRow("SELECT count(*) FROM cache WHERE key = ?", consts.KeyNotes), &count)
	assert.Equal(t, count, 1, "row count mismatch")
}

func TestWriteKeys(t *testing.T) {
	db := InitTestMemoryDB(t)

	notes := []Note{{ID: "local-1", Title: "a", Unsynced: true}}
	queue := []PendingAction{{Kind: ActionAdd, Note: notes[0], Status: ActionPending}}

	err := WriteKeys(db, map[string]interface{}{
		consts.KeyNotes:        notes,
		consts.KeyPendingNotes: queue,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "writing keys"))
	}

	var gotNotes []Note
	var gotQueue []PendingAction
	MustReadKey(t, db, consts.KeyNotes, &gotNotes)
	MustReadKey(t, db, consts.KeyPendingNotes, &gotQueue)

	assert.DeepEqual(t, gotNotes, notes, "notes mismatch")
	assert.DeepEqual(t, gotQueue, queue, "queue mismatch")
}

func TestDeleteKey(t *testing.T) {
	db := InitTestMemoryDB(t)

	MustWriteKey(t, db, consts.KeyUserToken, "secret")
	if err := DeleteKey(db, consts.KeyUserToken); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}
	// idempotent
	if err := DeleteKey(db, consts.KeyUserToken); err != nil {
		t.Fatal(errors.Wrap(err, "deleting again"))
	}

	var token string
	ok := MustReadKey(t, db, consts.KeyUserToken, &token)
	assert.Equal(t, ok, false, "ok mismatch")
}

func TestReadKey_corrupt(t *testing.T) {
	db := InitTestMemoryDB(t)

	MustExec(t, "inserting corrupt value", db, "INSERT INTO cache (key, value) VALUES (?, ?)", consts.KeyNotes, "{not json")

	var notes []Note
	_, err := ReadKey(db, consts.KeyNotes, &notes)

	var serr *StorageError
	assert.Equal(t, errors.As(err, &serr), true, "error should be a StorageError")
	assert.Equal(t, serr.Key, consts.KeyNotes, "key mismatch")
}

func TestMigrate_idempotent(t *testing.T) {
	db := InitTestMemoryDB(t)

	n, err := Migrate(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}

	assert.Equal(t, n, 0, "no migration should be applied twice")
}

func TestIsProvisionalID(t *testing.T) {
	testCases := []struct {
		id       string
		expected bool
	}{
		{id: "local-3f1c", expected: true},
		{id: "5", expected: false},
		{id: "", expected: false},
		{id: "locals", expected: false},
	}

	for _, tc := range testCases {
		assert.Equal(t, IsProvisionalID(tc.id), tc.expected, "result mismatch for "+tc.id)
	}
}
