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
	"io"
	"os"

	"github.com/dnote/notesync/pkg/prompt"
	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/log"
	"github.com/pkg/errors"
)

const (
	dbPathUsage = "Path to SQLite database file (env: DBPath, default: $XDG_DATA_HOME/notesync/server.db)"
	dbURLUsage  = "Postgres connection URL (env: DBURL)"
)

func confirm(r io.Reader, question string, optimistic bool) (bool, error) {
	fmt.Print(prompt.FormatQuestion(question, optimistic) + " ")

	ok, err := prompt.ReadYesNo(r, optimistic)
	if err != nil {
		return false, errors.Wrap(err, "reading stdin")
	}

	return ok, nil
}

func findUser(a *app.App, email string) *database.User {
	user, err := a.GetUserByEmail(email)
	if err == nil {
		return user
	}

	if errors.Cause(err) == app.ErrNotFound {
		fmt.Printf("Error: user with email %s not found\n", email)
	} else {
		log.ErrorWrap(err, "finding user")
	}
	os.Exit(1)

	return nil
}

func userCreateCmd(args []string) {
	fs := setupFlagSet("create", "notesync-server user create")

	email := fs.String("email", "", "User email address (required)")
	password := fs.String("password", "", "User password (required)")
	dbPath := fs.String("dbPath", "", dbPathUsage)
	dbURL := fs.String("dbUrl", "", dbURLUsage)

	fs.Parse(args)

	requireString(fs, *email, "email")
	requireString(fs, *password, "password")

	a, cleanup := setupAppWithDB(fs, *dbPath, *dbURL)
	defer cleanup()

	if _, err := a.CreateUser(*email, *password); err != nil {
		log.ErrorWrap(err, "creating user")
		os.Exit(1)
	}

	fmt.Printf("User created\nEmail: %s\n", *email)
}

func userRemoveCmd(args []string, stdin io.Reader) {
	fs := setupFlagSet("remove", "notesync-server user remove")

	email := fs.String("email", "", "User email address (required)")
	dbPath := fs.String("dbPath", "", dbPathUsage)
	dbURL := fs.String("dbUrl", "", dbURLUsage)

	fs.Parse(args)

	requireString(fs, *email, "email")

	a, cleanup := setupAppWithDB(fs, *dbPath, *dbURL)
	defer cleanup()

	user := findUser(a, *email)

	question := fmt.Sprintf("Remove %s along with all their notes, groups and sessions?", *email)
	ok, err := confirm(stdin, question, false)
	if err != nil {
		log.ErrorWrap(err, "confirming removal")
		os.Exit(1)
	}
	if !ok {
		fmt.Println("Aborted")
		return
	}

	if err := a.RemoveUser(user); err != nil {
		log.ErrorWrap(err, "removing user")
		os.Exit(1)
	}

	fmt.Printf("User removed\nEmail: %s\n", *email)
}

func userResetPasswordCmd(args []string) {
	fs := setupFlagSet("reset-password", "notesync-server user reset-password")

	email := fs.String("email", "", "User email address (required)")
	password := fs.String("password", "", "New password (required)")
	dbPath := fs.String("dbPath", "", dbPathUsage)
	dbURL := fs.String("dbUrl", "", dbURLUsage)

	fs.Parse(args)

	requireString(fs, *email, "email")
	requireString(fs, *password, "password")

	a, cleanup := setupAppWithDB(fs, *dbPath, *dbURL)
	defer cleanup()

	user := findUser(a, *email)
	if err := a.UpdateUserPassword(user, *password); err != nil {
		log.ErrorWrap(err, "updating password")
		os.Exit(1)
	}

	fmt.Printf("Password reset. Existing sessions were signed out.\nEmail: %s\n", *email)
}

const userUsage = `Available commands:
  create: Create a new user
  remove: Remove a user and everything they own
  reset-password: Reset a user's password`

func userCmd(args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage:\n  notesync-server user [command]\n\n%s\n", userUsage)
		os.Exit(1)
	}

	switch sub := args[0]; sub {
	case "create":
		userCreateCmd(args[1:])
	case "remove":
		userRemoveCmd(args[1:], os.Stdin)
	case "reset-password":
		userResetPasswordCmd(args[1:])
	default:
		fmt.Printf("Unknown subcommand: %s\n\n%s\n", sub, userUsage)
		os.Exit(1)
	}
}
