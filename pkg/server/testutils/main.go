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

// Package testutils provides utilities used in server tests
package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/helpers"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitDB opens a database at the given path and initializes the schema
func InitDB(dbPath string) *gorm.DB {
	db, err := database.Open(database.Options{Path: dbPath})
	if err != nil {
		panic(errors.Wrap(err, "opening database"))
	}
	if err := database.InitSchema(db); err != nil {
		panic(err)
	}
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	return db
}

// InitMemoryDB creates an in-memory SQLite database with the schema
// initialized. Each call gets its own database, closed when the test ends.
func InitMemoryDB(t *testing.T) *gorm.DB {
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", MustUUID(t))

	db, err := database.Open(database.Options{Path: dbName})
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() {
		database.Close(db)
	})

	if err := database.InitSchema(db); err != nil {
		t.Fatalf("initializing schema: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	return db
}

// MustUUID generates a UUID and fails the test on error
func MustUUID(t *testing.T) string {
	uuid, err := helpers.GenUUID()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating UUID"))
	}
	return uuid
}

// SetupUserData creates and returns a new user with email and password for testing purposes
func SetupUserData(db *gorm.DB, email, password string) database.User {
	uuid, err := helpers.GenUUID()
	if err != nil {
		panic(errors.Wrap(err, "generating UUID"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(errors.Wrap(err, "hashing password"))
	}

	user := database.User{
		UUID:     uuid,
		Email:    database.ToNullString(email),
		Password: database.ToNullString(string(hashedPassword)),
	}
	if err := db.Save(&user).Error; err != nil {
		panic(errors.Wrap(err, "preparing user"))
	}

	return user
}

// SetupSession creates and returns a session for the user expiring at the given time
func SetupSession(db *gorm.DB, user database.User, expiresAt time.Time) database.Session {
	key, err := helpers.RandomString(32)
	if err != nil {
		panic(err)
	}

	session := database.Session{
		Key:        key,
		UserID:     user.ID,
		LastUsedAt: time.Now().UTC(),
		ExpiresAt:  expiresAt.UTC(),
	}
	if err := db.Save(&session).Error; err != nil {
		panic(errors.Wrap(err, "preparing session"))
	}

	return session
}

// SetupNoteData creates a note owned by the user
func SetupNoteData(db *gorm.DB, user database.User, title, body string) database.Note {
	uuid, err := helpers.GenUUID()
	if err != nil {
		panic(err)
	}

	note := database.Note{
		UUID:   uuid,
		UserID: user.ID,
		Title:  title,
		Body:   body,
	}
	if err := db.Save(&note).Error; err != nil {
		panic(errors.Wrap(err, "preparing note"))
	}

	return note
}

// SetupGroupData creates a group owned by the user
func SetupGroupData(db *gorm.DB, user database.User, name string, collaborators ...database.Collaborator) database.Group {
	uuid, err := helpers.GenUUID()
	if err != nil {
		panic(err)
	}

	group := database.Group{
		UUID:          uuid,
		UserID:        user.ID,
		Name:          name,
		Collaborators: collaborators,
	}
	if err := db.Save(&group).Error; err != nil {
		panic(errors.Wrap(err, "preparing group"))
	}

	return group
}

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	hc := http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	res, err := hc.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}
	t.Cleanup(func() {
		res.Body.Close()
	})

	return res
}

// SetReqAuthHeader creates a session for the user and sets it as the bearer token of the request
func SetReqAuthHeader(t *testing.T, db *gorm.DB, req *http.Request, user database.User) database.Session {
	session := SetupSession(db, user, time.Now().Add(time.Hour*24))
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.Key))

	return session
}

// HTTPAuthDo makes an HTTP request with an appropriate authorization header for the user
func HTTPAuthDo(t *testing.T, db *gorm.DB, req *http.Request, user database.User) *http.Response {
	SetReqAuthHeader(t, db, req, user)

	return HTTPDo(t, req)
}

// MakeReq makes an HTTP request to the given path of the endpoint
func MakeReq(endpoint string, method, path, data string) *http.Request {
	u := fmt.Sprintf("%s%s", endpoint, path)

	req, err := http.NewRequest(method, u, strings.NewReader(data))
	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}

	return req
}

// MakeJSONReq makes a request with the JSON encoding of the payload
func MakeJSONReq(t *testing.T, endpoint, method, path string, payload interface{}) *http.Request {
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(errors.Wrap(err, "marshalling payload"))
	}

	req := MakeReq(endpoint, method, path, string(b))
	req.Header.Set("Content-Type", "application/json")

	return req
}

// MakeFormReq makes a form-encoded request
func MakeFormReq(endpoint, method, path string, data url.Values) *http.Request {
	req := MakeReq(endpoint, method, path, data.Encode())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return req
}

// MustExec fails the test if the given database query has error
func MustExec(t *testing.T, db *gorm.DB, message string) {
	t.Helper()
	if err := db.Error; err != nil {
		t.Fatalf("%s: %s", message, err.Error())
	}
}

// MustDecodeJSON decodes the response body into v and fails the test on error
func MustDecodeJSON(t *testing.T, res *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatal(errors.Wrap(err, "decoding response body"))
	}
}
