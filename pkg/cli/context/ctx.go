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

// Package context defines the runtime context shared by notesync commands
package context

import (
	"net/http"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/connectivity"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/dnote/notesync/pkg/cli/session"
	"github.com/dnote/notesync/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// NotesyncCtx is a context holding the information of the current runtime
type NotesyncCtx struct {
	Paths       Paths
	APIEndpoint string
	Version     string
	DB          *database.DB
	Editor      string
	Clock       clock.Clock
	HTTPClient  *http.Client

	Client  *client.Client
	Session *session.Gate
	Engine  *orchestrator.Orchestrator
	// Prober is the connectivity observer of the engine. It is only started
	// by long running commands.
	Prober *connectivity.Prober
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx NotesyncCtx) NotesyncCtx {
	ctx.Client = nil
	ctx.Session = nil
	ctx.Engine = nil
	ctx.HTTPClient = nil
	ctx.Prober = nil

	return ctx
}

// Close releases the resources held by the context
func (ctx *NotesyncCtx) Close() {
	if ctx.Prober != nil {
		ctx.Prober.Stop()
	}
	if ctx.Engine != nil {
		ctx.Engine.Close()
	}
	if ctx.DB != nil {
		ctx.DB.Close()
	}
}
