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
	"flag"
	"fmt"
	"os"

	"github.com/dnote/notesync/pkg/clock"
	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/config"
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func initDB(cfg config.Config) (*gorm.DB, error) {
	db, err := database.Open(database.Options{
		URL:      cfg.DBURL,
		Path:     cfg.DBPath,
		LogLevel: cfg.LogLevel,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if err := database.InitSchema(db); err != nil {
		database.Close(db)
		return nil, errors.Wrap(err, "initializing schema")
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, errors.Wrap(err, "running migrations")
	}

	return db, nil
}

func initApp(cfg config.Config) (app.App, error) {
	db, err := initDB(cfg)
	if err != nil {
		return app.App{}, err
	}

	return app.App{
		DB:                  db,
		Clock:               clock.New(),
		DisableRegistration: cfg.DisableRegistration,
		Port:                cfg.Port,
	}, nil
}

// printFlags lists the flags of a FlagSet with a -- prefix
func printFlags(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Printf("  --%s", f.Name)

		name, usage := flag.UnquoteUsage(f)
		if name != "" {
			fmt.Printf(" %s", name)
		}
		fmt.Println()

		if usage == "" {
			return
		}
		fmt.Printf("    \t%s", usage)
		if f.DefValue != "" && f.DefValue != "false" {
			fmt.Printf(" (default: %s)", f.DefValue)
		}
		fmt.Println()
	})
}

func setupFlagSet(name, usageCmd string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Printf("Usage:\n  %s [flags]\n\nFlags:\n", usageCmd)
		printFlags(fs)
	}

	return fs
}

func requireString(fs *flag.FlagSet, value, fieldName string) {
	if value != "" {
		return
	}

	fmt.Printf("Error: %s is required\n", fieldName)
	fs.Usage()
	os.Exit(1)
}

func exitWithUsage(fs *flag.FlagSet, err error) {
	fmt.Printf("Error: %s\n\n", err)
	fs.Usage()
	os.Exit(1)
}

// setupAppWithDB builds an app backed by the database for one-off
// administrative commands. The returned func closes the database.
func setupAppWithDB(fs *flag.FlagSet, dbPath, dbURL string) (*app.App, func()) {
	cfg, err := config.New(config.Params{
		DBPath: dbPath,
		DBURL:  dbURL,
	})
	if err != nil {
		exitWithUsage(fs, err)
	}

	a, err := initApp(cfg)
	if err != nil {
		exitWithUsage(fs, err)
	}

	return &a, func() {
		database.Close(a.DB)
	}
}
