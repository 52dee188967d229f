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
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/server/app"
	"github.com/pkg/errors"
)

func TestParseRequestData(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"a","tasks":[{"text":"x"}]}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var got notePayload
		assert.NilError(t, parseRequestData(r, &got), "parsing")

		assert.Equal(t, *got.Title, "a", "title mismatch")
		assert.Equal(t, got.Text, (*string)(nil), "text should be absent")
		assert.Equal(t, len(got.Tasks), 1, "task count mismatch")
	})

	t.Run("form", func(t *testing.T) {
		dat := url.Values{}
		dat.Set("email", "alice@example.com")
		dat.Set("password", "pass1234")
		dat.Set("unknown", "ignored")

		r := httptest.NewRequest("POST", "/", strings.NewReader(dat.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var got LoginForm
		assert.NilError(t, parseRequestData(r, &got), "parsing")

		assert.Equal(t, got.Email, "alice@example.com", "email mismatch")
		assert.Equal(t, got.Password, "pass1234", "password mismatch")
	})

	t.Run("invalid json", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{`))
		r.Header.Set("Content-Type", "application/json")

		var got LoginForm
		err := parseRequestData(r, &got)

		assert.Equal(t, errors.Cause(err), ErrInvalidPayload, "error mismatch")
	})
}

func TestGetStatusCode(t *testing.T) {
	testCases := []struct {
		err      error
		expected int
	}{
		{app.ErrNotFound, http.StatusNotFound},
		{errors.Wrap(app.ErrNotFound, "finding note"), http.StatusNotFound},
		{app.ErrLoginInvalid, http.StatusUnauthorized},
		{app.ErrRegistrationDisabled, http.StatusForbidden},
		{app.ErrDuplicateEmail, http.StatusConflict},
		{app.ErrPasswordTooShort, http.StatusBadRequest},
		{app.ErrGroupNameRequired, http.StatusBadRequest},
		{errors.Wrap(ErrInvalidPayload, "decoding"), http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, getStatusCode(tc.err), tc.expected, "status code mismatch")
		})
	}
}
