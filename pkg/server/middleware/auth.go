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

package middleware

import (
	"errors"
	"net/http"

	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/context"
)

// Auth lets the request through only if it carries the key of a live
// session, and puts the session and its user in the request context
func Auth(a *app.App, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := GetCredential(r)
		if key == "" {
			RespondUnauthorized(w)
			return
		}

		session, user, err := a.GetSessionUser(key)
		if errors.Is(err, app.ErrNotFound) || errors.Is(err, app.ErrSessionExpired) {
			RespondUnauthorized(w)
			return
		} else if err != nil {
			DoError(w, "authenticating with session", err, http.StatusInternalServerError)
			return
		}

		ctx := context.WithUser(r.Context(), user)
		ctx = context.WithSession(ctx, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
