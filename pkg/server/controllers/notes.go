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
	"time"

	"github.com/dnote/notesync/pkg/server/app"
	"github.com/dnote/notesync/pkg/server/context"
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/presenters"
	"github.com/gorilla/mux"
)

// NewNotes creates a new Notes controller.
func NewNotes(app *app.App) *Notes {
	return &Notes{app: app}
}

// Notes is a note controller.
type Notes struct {
	app *app.App
}

type taskPayload struct {
	ID      string `schema:"id" json:"id"`
	Text    string `schema:"text" json:"text"`
	Checked bool   `schema:"checked" json:"checked"`
}

// notePayload is the body of create and update requests. A nil tasks list
// leaves the tasks unchanged on update.
type notePayload struct {
	Title     *string       `schema:"title" json:"title"`
	Text      *string       `schema:"text" json:"text"`
	Tasks     []taskPayload `schema:"tasks" json:"tasks"`
	CreatedAt *time.Time    `schema:"createdAt" json:"createdAt"`
	ClientKey string        `schema:"clientKey" json:"clientKey"`
}

func (p notePayload) toParams() app.NoteParams {
	ret := app.NoteParams{
		Title:     p.Title,
		Body:      p.Text,
		CreatedAt: p.CreatedAt,
		ClientKey: p.ClientKey,
	}

	if p.Tasks != nil {
		tasks := make([]database.Task, 0, len(p.Tasks))
		for _, t := range p.Tasks {
			tasks = append(tasks, database.Task{ID: t.ID, Text: t.Text, Checked: t.Checked})
		}
		ret.Tasks = &tasks
	}

	return ret
}

// ListNotesResponse is a response for listing notes
type ListNotesResponse struct {
	Notes []presenters.Note `json:"notes"`
}

// V3Index handles GET /v3/notes
func (n *Notes) V3Index(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())

	notes, err := n.app.ListNotes(*user)
	if err != nil {
		handleJSONError(w, err, "listing notes")
		return
	}

	respondJSON(w, http.StatusOK, ListNotesResponse{
		Notes: presenters.PresentNotes(notes),
	})
}

// V3Show handles GET /v3/notes/{noteUUID}
func (n *Notes) V3Show(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())

	note, err := n.app.GetNote(*user, mux.Vars(r)["noteUUID"])
	if err != nil {
		handleJSONError(w, err, "finding note")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentNote(note))
}

// V3Create handles POST /v3/notes
func (n *Notes) V3Create(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())

	var payload notePayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	note, err := n.app.CreateNote(*user, payload.toParams())
	if err != nil {
		handleJSONError(w, err, "creating note")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentNote(note))
}

// V3Update handles PATCH /v3/notes/{noteUUID}
func (n *Notes) V3Update(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())

	var payload notePayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	note, err := n.app.UpdateNote(*user, mux.Vars(r)["noteUUID"], payload.toParams())
	if err != nil {
		handleJSONError(w, err, "updating note")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentNote(note))
}

// V3Delete handles DELETE /v3/notes/{noteUUID}
func (n *Notes) V3Delete(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())

	if err := n.app.DeleteNote(*user, mux.Vars(r)["noteUUID"]); err != nil {
		handleJSONError(w, err, "deleting note")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
