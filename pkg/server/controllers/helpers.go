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
	"encoding/json"
	"mime"
	"net/http"
	"reflect"
	"time"

	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/log"
	mw "github.com/dnote/notesync/pkg/server/middleware"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

// ErrInvalidPayload is an error for a request body that cannot be decoded
var ErrInvalidPayload = errors.New("invalid payload")

// maxPayloadBytes bounds the size of request bodies
const maxPayloadBytes = 1 << 20

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(time.Time{}, func(s string) reflect.Value {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(t)
	})

	return d
}

// parseRequestData decodes a JSON body, or a form body for any other
// content type, into dst
func parseRequestData(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxPayloadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return errors.Wrapf(ErrInvalidPayload, "decoding json: %s", err)
		}

		return nil
	}

	if err := r.ParseForm(); err != nil {
		return errors.Wrapf(ErrInvalidPayload, "parsing form: %s", err)
	}
	if err := formDecoder.Decode(dst, r.PostForm); err != nil {
		return errors.Wrapf(ErrInvalidPayload, "decoding form: %s", err)
	}

	return nil
}

// getStatusCode returns the HTTP status for an error returned by the app
func getStatusCode(err error) int {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrLoginInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrRegistrationDisabled):
		return http.StatusForbidden
	case errors.Is(err, app.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidPayload),
		errors.Is(err, app.ErrEmailRequired),
		errors.Is(err, app.ErrPasswordRequired),
		errors.Is(err, app.ErrPasswordTooShort),
		errors.Is(err, app.ErrGroupNameRequired),
		errors.Is(err, app.ErrCollaboratorInvalid):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// handleJSONError responds with the status for the error. The error message
// is only exposed for client errors.
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	statusCode := getStatusCode(err)
	if statusCode == http.StatusInternalServerError {
		mw.DoError(w, msg, err, statusCode)
		return
	}

	log.WithFields(log.Fields{
		"statusCode": statusCode,
		"error":      err,
	}).Debug(msg)

	http.Error(w, errors.Cause(err).Error(), statusCode)
}

// respondJSON responds with the JSON encoding of v
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}
