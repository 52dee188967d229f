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

package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/dnote/notesync/pkg/server/config"
	"github.com/dnote/notesync/pkg/server/controllers"
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/job"
	"github.com/dnote/notesync/pkg/server/log"
	mw "github.com/dnote/notesync/pkg/server/middleware"
	"github.com/pkg/errors"
)

func startCmd(args []string) {
	fs := setupFlagSet("start", "notesync-server start")

	envFile := fs.String("envFile", config.DefaultEnvFile, "Path to a dotenv file read before the environment")
	appEnv := fs.String("appEnv", "", "Application environment (env: APP_ENV, default: PRODUCTION)")
	port := fs.String("port", "", "Server port (env: PORT, default: 3001)")
	dbPath := fs.String("dbPath", "", "Path to SQLite database file (env: DBPath, default: $XDG_DATA_HOME/notesync/server.db)")
	dbURL := fs.String("dbUrl", "", "Postgres connection URL, used instead of dbPath when set (env: DBURL)")
	disableRegistration := fs.Bool("disableRegistration", false, "Disable user registration (env: DisableRegistration)")
	logLevel := fs.String("logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")

	fs.Parse(args)

	if err := config.LoadEnvFile(*envFile); err != nil {
		exitWithUsage(fs, err)
	}

	cfg, err := config.New(config.Params{
		AppEnv:              *appEnv,
		Port:                *port,
		DBPath:              *dbPath,
		DBURL:               *dbURL,
		DisableRegistration: *disableRegistration,
		LogLevel:            *logLevel,
	})
	if err != nil {
		exitWithUsage(fs, err)
	}

	log.SetLevel(cfg.LogLevel)

	a, err := initApp(cfg)
	if err != nil {
		log.ErrorWrap(err, "initializing app")
		os.Exit(1)
	}
	defer database.Close(a.DB)

	var limiter *mw.RateLimiter
	if !cfg.IsTest() {
		limiter = mw.NewRateLimiter()
		defer limiter.Close()
	}

	ctl := controllers.New(&a)
	r, err := controllers.NewRouter(&a, controllers.RouteConfig{
		Controllers: ctl,
		APIRoutes:   controllers.NewAPIRoutes(&a, ctl),
		Limiter:     limiter,
	})
	if err != nil {
		panic(errors.Wrap(err, "initializing router"))
	}

	runner, err := job.NewRunner(&a)
	if err != nil {
		panic(errors.Wrap(err, "initializing jobs"))
	}
	runner.Do()
	defer runner.Stop()

	log.WithFields(log.Fields{
		"version": Version,
		"port":    cfg.Port,
		"driver":  cfg.Driver(),
	}).Info("notesync server starting")

	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}
}
