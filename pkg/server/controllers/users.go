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

package controllers

import (
	"net/http"

	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/database"
	mw "github.com/dnote/notesync/pkg/server/middleware"
)

// NewUsers creates a new Users controller.
func NewUsers(app *app.App) *Users {
	return &Users{app: app}
}

// Users is a user controller.
type Users struct {
	app *app.App
}

// LoginForm is the form data for log in
type LoginForm struct {
	Email    string `schema:"email" json:"email"`
	Password string `schema:"password" json:"password"`
}

// SessionResponse is a response containing a session information
type SessionResponse struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
	Email     string `json:"email"`
}

func respondWithSession(w http.ResponseWriter, statusCode int, user *database.User, session *database.Session) {
	respondJSON(w, statusCode, SessionResponse{
		Key:       session.Key,
		ExpiresAt: session.ExpiresAt.Unix(),
		Email:     user.Email.String,
	})
}

func (u *Users) login(form LoginForm) (*database.User, *database.Session, error) {
	if form.Email == "" {
		return nil, nil, app.ErrEmailRequired
	}
	if form.Password == "" {
		return nil, nil, app.ErrPasswordRequired
	}

	user, err := u.app.Authenticate(form.Email, form.Password)
	if err != nil {
		return nil, nil, err
	}

	s, err := u.app.SignIn(user)
	if err != nil {
		return nil, nil, err
	}

	return user, s, nil
}

// V3Login handles POST /v3/signin
func (u *Users) V3Login(w http.ResponseWriter, r *http.Request) {
	var form LoginForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	user, session, err := u.login(form)
	if err != nil {
		handleJSONError(w, err, "logging in user")
		return
	}

	respondWithSession(w, http.StatusOK, user, session)
}

// V3Register handles POST /v3/signup
func (u *Users) V3Register(w http.ResponseWriter, r *http.Request) {
	var form LoginForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	user, err := u.app.Register(form.Email, form.Password)
	if err != nil {
		handleJSONError(w, err, "registering user")
		return
	}

	session, err := u.app.SignIn(&user)
	if err != nil {
		handleJSONError(w, err, "signing in user")
		return
	}

	respondWithSession(w, http.StatusCreated, &user, session)
}

// V3Logout handles POST /v3/signout. Signing out without a session is a no-op.
func (u *Users) V3Logout(w http.ResponseWriter, r *http.Request) {
	key := mw.GetCredential(r)

	if key != "" {
		if err := u.app.DeleteSession(key); err != nil {
			handleJSONError(w, err, "deleting session")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
