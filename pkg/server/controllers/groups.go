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
	"github.com/dnote/notesync/pkg/server/context"
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/presenters"
	"github.com/gorilla/mux"
)

// NewGroups creates a new Groups controller.
func NewGroups(app *app.App) *Groups {
	return &Groups{app: app}
}

// Groups is a group controller.
type Groups struct {
	app *app.App
}

type collaboratorPayload struct {
	ID   string `schema:"id" json:"id"`
	Name string `schema:"name" json:"name"`
}

type groupPayload struct {
	Name          *string               `schema:"name" json:"name"`
	Collaborators []collaboratorPayload `schema:"collaborators" json:"collaborators"`
}

func (p groupPayload) toParams() app.GroupParams {
	ret := app.GroupParams{Name: p.Name}

	if p.Collaborators != nil {
		collaborators := make([]database.Collaborator, 0, len(p.Collaborators))
		for _, c := range p.Collaborators {
			collaborators = append(collaborators, database.Collaborator{ID: c.ID, Name: c.Name})
		}
		ret.Collaborators = &collaborators
	}

	return ret
}

// ListGroupsResponse is a response for listing groups
type ListGroupsResponse struct {
	Groups []presenters.Group `json:"groups"`
}

// V3Index handles GET /v3/groups
func (g *Groups) V3Index(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())

	groups, err := g.app.ListGroups(*user)
	if err != nil {
		handleJSONError(w, err, "listing groups")
		return
	}

	respondJSON(w, http.StatusOK, ListGroupsResponse{
		Groups: presenters.PresentGroups(groups),
	})
}

// V3Create handles POST /v3/groups
func (g *Groups) V3Create(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())

	var payload groupPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	group, err := g.app.CreateGroup(*user, payload.toParams())
	if err != nil {
		handleJSONError(w, err, "creating group")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentGroup(group))
}

// V3Update handles PATCH /v3/groups/{groupUUID}
func (g *Groups) V3Update(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())

	var payload groupPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	group, err := g.app.UpdateGroup(*user, mux.Vars(r)["groupUUID"], payload.toParams())
	if err != nil {
		handleJSONError(w, err, "updating group")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentGroup(group))
}

// V3Delete handles DELETE /v3/groups/{groupUUID}
func (g *Groups) V3Delete(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())

	if err := g.app.DeleteGroup(*user, mux.Vars(r)["groupUUID"]); err != nil {
		handleJSONError(w, err, "deleting group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
