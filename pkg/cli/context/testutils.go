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

package context

import (
	"net/http"
	"testing"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/dnote/notesync/pkg/cli/session"
	"github.com/dnote/notesync/pkg/clock"
	"github.com/pkg/errors"
)

func getDefaultTestPaths(t *testing.T) Paths {
	tmpDir := t.TempDir()
	return Paths{
		Home:   tmpDir,
		Cache:  tmpDir,
		Config: tmpDir,
		Data:   tmpDir,
	}
}

// InitTestCtx initializes a test context with an in-memory database, a
// temporary directory for all paths, and an engine talking to the endpoint
func InitTestCtx(t *testing.T, endpoint string) NotesyncCtx {
	return InitTestCtxWithDB(t, database.InitTestMemoryDB(t), endpoint)
}

// InitTestCtxWithDB initializes a test context with the provided database
func InitTestCtxWithDB(t *testing.T, db *database.DB, endpoint string) NotesyncCtx {
	paths := getDefaultTestPaths(t)

	if err := InitNotesyncDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating test directories"))
	}

	c := clock.NewMock()
	hc := &http.Client{}
	cl := client.New(endpoint, "test", hc)
	gate := session.New(db)

	engine, err := orchestrator.New(orchestrator.Params{
		DB:      db,
		Remote:  cl,
		Session: gate,
		Clock:   c,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "constructing the engine"))
	}
	t.Cleanup(engine.Close)

	return NotesyncCtx{
		Paths:       paths,
		APIEndpoint: endpoint,
		Version:     "test",
		DB:          db,
		Clock:       c,
		HTTPClient:  hc,
		Client:      cl,
		Session:     gate,
		Engine:      engine,
	}
}
