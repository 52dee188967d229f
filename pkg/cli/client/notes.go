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

package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/pkg/errors"
)

// TaskPayload is a checklist item in a request or a response
type TaskPayload struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// NotePayload is a payload for creating or updating a note. ClientKey
// identifies a creation so that the server can recognize a replay of it.
type NotePayload struct {
	Title     string        `json:"title"`
	Text      string        `json:"text"`
	Tasks     []TaskPayload `json:"tasks"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
	ClientKey string        `json:"clientKey,omitempty"`
}

// RespNote is a note as returned by the server
type RespNote struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Text      string        `json:"text"`
	Tasks     []TaskPayload `json:"tasks"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewNotePayload builds a request payload from a local note. Locally owned
// fields are not sent. A provisional id is sent as the client key.
func NewNotePayload(n database.Note) NotePayload {
	tasks := make([]TaskPayload, 0, len(n.Tasks))
	for _, t := range n.Tasks {
		tasks = append(tasks, TaskPayload{ID: t.ID, Text: t.Text, Checked: t.Checked})
	}

	ret := NotePayload{
		Title: n.Title,
		Text:  n.Text,
		Tasks: tasks,
	}
	if !n.CreatedAt.IsZero() {
		createdAt := n.CreatedAt
		ret.CreatedAt = &createdAt
	}
	if database.IsProvisionalID(n.ID) {
		ret.ClientKey = n.ID
	}

	return ret
}

// ToNote converts the server representation into a local note
func (r RespNote) ToNote() database.Note {
	tasks := make([]database.Task, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		tasks = append(tasks, database.Task{ID: t.ID, Text: t.Text, Checked: t.Checked})
	}

	return database.Note{
		ID:        r.ID,
		Title:     r.Title,
		Text:      r.Text,
		Tasks:     tasks,
		CreatedAt: r.CreatedAt,
	}
}

// ListNotesResp is the response from the list notes endpoint
type ListNotesResp struct {
	Notes []RespNote `json:"notes"`
}

// ListNotes fetches every note of the user
func (c *Client) ListNotes(ctx context.Context, token string) ([]RespNote, error) {
	var resp ListNotesResp
	if err := c.doAuthorizedReq(ctx, "GET", "/v3/notes", token, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "listing notes")
	}

	return resp.Notes, nil
}

// CreateNote creates a note and returns it with its server id
func (c *Client) CreateNote(ctx context.Context, token string, payload NotePayload) (RespNote, error) {
	var resp RespNote
	if err := c.doAuthorizedReq(ctx, "POST", "/v3/notes", token, payload, &resp); err != nil {
		return resp, errors.Wrap(err, "creating a note")
	}

	return resp, nil
}

// UpdateNote replaces the server fields of the note with the given id
func (c *Client) UpdateNote(ctx context.Context, token, id string, payload NotePayload) (RespNote, error) {
	var resp RespNote
	path := fmt.Sprintf("/v3/notes/%s", url.PathEscape(id))
	if err := c.doAuthorizedReq(ctx, "PATCH", path, token, payload, &resp); err != nil {
		return resp, errors.Wrapf(err, "updating the note %s", id)
	}

	return resp, nil
}

// DeleteNote deletes the note with the given id
func (c *Client) DeleteNote(ctx context.Context, token, id string) error {
	path := fmt.Sprintf("/v3/notes/%s", url.PathEscape(id))
	if err := c.doAuthorizedReq(ctx, "DELETE", path, token, nil, nil); err != nil {
		return errors.Wrapf(err, "deleting the note %s", id)
	}

	return nil
}
