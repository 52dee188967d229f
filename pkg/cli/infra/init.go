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

// Package infra sets up the local infrastructure of notesync: directories,
// the cache database, the config file and the sync engine
package infra

import (
	"os"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/config"
	"github.com/dnote/notesync/pkg/cli/connectivity"
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/dnote/notesync/pkg/cli/session"
	"github.com/dnote/notesync/pkg/cli/utils"
	"github.com/dnote/notesync/pkg/clock"
	"github.com/dnote/notesync/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
)

// RunEFunc is a function type of notesync commands
type RunEFunc func(*cobra.Command, []string) error

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.NotesyncCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := context.InitNotesyncDirs(paths); err != nil {
		return context.NotesyncCtx{}, errors.Wrap(err, "creating the notesync dirs")
	}

	dbPath := customDBPath
	if dbPath == "" {
		dbPath = context.DBPath(paths)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return context.NotesyncCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.NotesyncCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the notesync environment and returns a new context.
// apiEndpoint, when not empty, overrides the configured endpoint and is
// written to a newly created config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.NotesyncCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		ctx.DB.Close()
		return nil, errors.Wrap(err, "generating the config file")
	}

	n, err := database.Migrate(ctx.DB)
	if err != nil {
		ctx.DB.Close()
		return nil, errors.Wrap(err, "running migrations")
	}
	log.Debug("applied %d migrations\n", n)

	ctx, err = setupCtx(ctx, apiEndpoint)
	if err != nil {
		ctx.DB.Close()
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from the config file and
// constructs the sync engine
func setupCtx(ctx context.NotesyncCtx, apiEndpoint string) (context.NotesyncCtx, error) {
	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	endpoint := cf.APIEndpoint
	if apiEndpoint != "" {
		endpoint = apiEndpoint
	}

	c := clock.New()
	hc := client.NewRateLimitedHTTPClient(cf.GetRequestTimeout())
	cl := client.New(endpoint, ctx.Version, hc)
	gate := session.New(ctx.DB)
	prober := connectivity.NewProber(cl, cf.GetProbeInterval(), cf.GetRequestTimeout())

	engine, err := orchestrator.New(orchestrator.Params{
		DB:           ctx.DB,
		Remote:       cl,
		Session:      gate,
		Observer:     prober,
		Clock:        c,
		Retry:        cf.RetryPolicy(),
		ReplayPolicy: orchestrator.ReplayPolicy(cf.ReplayPolicy),
	})
	if err != nil {
		return ctx, errors.Wrap(err, "constructing the sync engine")
	}

	ret := context.NotesyncCtx{
		Paths:       ctx.Paths,
		Version:     ctx.Version,
		DB:          ctx.DB,
		APIEndpoint: endpoint,
		Editor:      cf.Editor,
		Clock:       c,
		HTTPClient:  hc,
		Client:      cl,
		Session:     gate,
		Engine:      engine,
		Prober:      prober,
	}

	return ret, nil
}

// getEditorCommand returns the system's editor command with appropriate flags,
// if necessary, to make the command wait until editor is close to exit.
func getEditorCommand() string {
	editor := os.Getenv("EDITOR")

	switch editor {
	case "atom":
		return "atom -w"
	case "subl":
		return "subl -n -w"
	case "code":
		return "code -n -w"
	case "mate":
		return "mate -w"
	case "vim", "nano", "emacs", "nvim", "hx":
		return editor
	default:
		return "vi"
	}
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.NotesyncCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		Editor:         getEditorCommand(),
		APIEndpoint:    endpoint,
		RequestTimeout: config.DefaultRequestTimeout,
		ProbeInterval:  config.DefaultProbeInterval,
		ReplayPolicy:   string(orchestrator.ReplayRetain),
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}
