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

// Package e2e runs the sync engine of the client against a real server.
package e2e

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/connectivity"
	clidb "github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/dnote/notesync/pkg/cli/session"
	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/controllers"
	"github.com/dnote/notesync/pkg/server/database"
	servertest "github.com/dnote/notesync/pkg/server/testutils"
	"github.com/pkg/errors"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "pass1234"
)

var errUnreachable = errors.New("network is unreachable")

// switchTransport fails every request while the network is off. While
// responses are lost, requests reach the server but the caller only sees a
// failure.
type switchTransport struct {
	offline   atomic.Bool
	lossyResp atomic.Bool
	base      http.RoundTripper
}

func (t *switchTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.offline.Load() {
		return nil, errUnreachable
	}

	res, err := t.base.RoundTrip(req)
	if err == nil && t.lossyResp.Load() {
		res.Body.Close()
		return nil, errUnreachable
	}

	return res, err
}

type testEnv struct {
	App       *app.App
	User      database.User
	Transport *switchTransport
	Client    *client.Client
	CacheDB   *clidb.DB
	Gate      *session.Gate
}

func (e testEnv) setOffline(offline bool) {
	e.Transport.offline.Store(offline)
}

// newOrchestrator builds an orchestrator over the cache of the environment
func (e testEnv) newOrchestrator(t *testing.T, observer connectivity.Observer) *orchestrator.Orchestrator {
	o, err := orchestrator.New(orchestrator.Params{
		DB:       e.CacheDB,
		Remote:   e.Client,
		Session:  e.Gate,
		Observer: observer,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating orchestrator"))
	}
	t.Cleanup(o.Close)

	return o
}

func (e testEnv) serverNotes(t *testing.T) []database.Note {
	var notes []database.Note
	servertest.MustExec(t, e.App.DB.Where("user_id = ?", e.User.ID).Find(&notes), "finding server notes")

	return notes
}

// setupEnv starts a server with one user and signs a client in as that user
func setupEnv(t *testing.T) testEnv {
	a := app.NewTest()
	a.DB = servertest.InitMemoryDB(t)
	user := servertest.SetupUserData(a.DB, testEmail, testPassword)

	server := controllers.MustNewServer(t, &a)

	transport := &switchTransport{base: http.DefaultTransport}
	c := client.New(server.URL+"/api", "test", &http.Client{
		Transport: transport,
		Timeout:   5 * time.Second,
	})

	cacheDB := clidb.InitTestMemoryDB(t)
	gate := session.New(cacheDB)
	if err := gate.Login(context.Background(), c, testEmail, testPassword); err != nil {
		t.Fatal(errors.Wrap(err, "signing in"))
	}

	return testEnv{
		App:       &a,
		User:      user,
		Transport: transport,
		Client:    c,
		CacheDB:   cacheDB,
		Gate:      gate,
	}
}

// waitFor polls the condition until it holds, failing the test after a while
func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the condition")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
