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
	mw "github.com/dnote/notesync/pkg/server/middleware"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	APIRoutes   []Route
	// Limiter rate limits the routes asking for it. Nil turns rate limiting off.
	Limiter *mw.RateLimiter
}

// NewAPIRoutes returns the routes served under /api
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"GET", "/health", c.Health.Index, false},

		// v3
		{"POST", "/v3/signin", c.Users.V3Login, true},
		{"POST", "/v3/signup", c.Users.V3Register, true},
		{"POST", "/v3/signout", c.Users.V3Logout, true},
		{"GET", "/v3/notes", mw.Auth(a, c.Notes.V3Index), true},
		{"GET", "/v3/notes/{noteUUID}", mw.Auth(a, c.Notes.V3Show), true},
		{"POST", "/v3/notes", mw.Auth(a, c.Notes.V3Create), true},
		{"PATCH", "/v3/notes/{noteUUID}", mw.Auth(a, c.Notes.V3Update), true},
		{"DELETE", "/v3/notes/{noteUUID}", mw.Auth(a, c.Notes.V3Delete), true},
		{"GET", "/v3/groups", mw.Auth(a, c.Groups.V3Index), true},
		{"POST", "/v3/groups", mw.Auth(a, c.Groups.V3Create), true},
		{"PATCH", "/v3/groups/{groupUUID}", mw.Auth(a, c.Groups.V3Update), true},
		{"DELETE", "/v3/groups/{groupUUID}", mw.Auth(a, c.Groups.V3Delete), true},
	}
}

func registerRoutes(router *mux.Router, limiter *mw.RateLimiter, routes []Route) {
	for _, route := range routes {
		router.
			Handle(route.Pattern, limiter.Apply(route.Handler, route.RateLimit)).
			Methods(route.Method)
	}
}

// notSupported responds to the API versions that are no longer served
func notSupported(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "API version is not supported. Please upgrade your client.", http.StatusGone)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	router.PathPrefix("/api/v1").Handler(rc.Limiter.Apply(notSupported, true))
	router.PathPrefix("/api/v2").Handler(rc.Limiter.Apply(notSupported, true))

	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter, rc.Limiter, rc.APIRoutes)

	router.HandleFunc("/health", rc.Controllers.Health.Index).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(notFound)
	apiRouter.NotFoundHandler = http.HandlerFunc(notFound)

	return mw.Logging(router), nil
}
