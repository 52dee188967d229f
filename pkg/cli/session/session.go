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

// Package session reads and persists the credentials of the signed in user
package session

import (
	"context"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/pkg/errors"
)

// Gate answers whether a user is signed in. It is consulted by every
// mutating operation of the sync engine.
type Gate struct {
	db *database.DB
}

// New returns a gate reading credentials from the given cache store
func New(db *database.DB) *Gate {
	return &Gate{db: db}
}

// Token returns the session token and whether one exists. A storage failure
// is logged and treated as a missing token.
func (g *Gate) Token() (string, bool) {
	var token string
	ok, err := database.ReadKey(g.db, consts.KeyUserToken, &token)
	if err != nil {
		log.Debug("reading the session token: %s\n", err.Error())
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}

	return token, true
}

// UserInfo returns the profile stored at login, if any
func (g *Gate) UserInfo() (database.UserInfo, bool, error) {
	var info database.UserInfo
	ok, err := database.ReadKey(g.db, consts.KeyUserInfo, &info)
	if err != nil {
		return info, false, errors.Wrap(err, "reading user info")
	}

	return info, ok, nil
}

// Authenticator signs a user in and out of the server
type Authenticator interface {
	Signin(ctx context.Context, email, password string) (client.SigninResponse, error)
	Signout(ctx context.Context, token string) error
}

// Login exchanges the credentials for a session token and persists it with
// the user profile
func (g *Gate) Login(ctx context.Context, auth Authenticator, email, password string) error {
	resp, err := auth.Signin(ctx, email, password)
	if err != nil {
		return errors.Wrap(err, "requesting a session")
	}

	info := database.UserInfo{Email: resp.Email}
	if info.Email == "" {
		info.Email = email
	}

	err = database.WriteKeys(g.db, map[string]interface{}{
		consts.KeyUserToken: resp.Key,
		consts.KeyUserInfo:  info,
	})
	if err != nil {
		return errors.Wrap(err, "saving the session")
	}

	return nil
}

// Logout invalidates the session on the server, best effort, and forgets it
// locally
func (g *Gate) Logout(ctx context.Context, auth Authenticator) error {
	token, ok := g.Token()
	if !ok {
		return nil
	}

	if err := auth.Signout(ctx, token); err != nil {
		log.Debug("signing out remotely: %s\n", err.Error())
	}

	if err := database.DeleteKey(g.db, consts.KeyUserToken); err != nil {
		return errors.Wrap(err, "deleting the session token")
	}
	if err := database.DeleteKey(g.db, consts.KeyUserInfo); err != nil {
		return errors.Wrap(err, "deleting the user info")
	}

	return nil
}
