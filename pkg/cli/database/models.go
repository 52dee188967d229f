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

package database

import (
	"strings"
	"time"

	"github.com/dnote/notesync/pkg/cli/consts"
)

// Task is a checklist item inside a note
type Task struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Note represents a note in the local collection. GroupIDs and Hidden are
// owned by the device and never echoed by the server.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Tasks     []Task    `json:"tasks"`
	GroupIDs  []string  `json:"groupIds"`
	CreatedAt time.Time `json:"createdAt"`
	Unsynced  bool      `json:"unsynced"`
	Hidden    bool      `json:"hidden,omitempty"`
}

// IsProvisional returns true if the note has not been assigned a server id
func (n Note) IsProvisional() bool {
	return IsProvisionalID(n.ID)
}

// Clone returns a deep copy of the note
func (n Note) Clone() Note {
	ret := n
	if n.Tasks != nil {
		ret.Tasks = append([]Task(nil), n.Tasks...)
	}
	if n.GroupIDs != nil {
		ret.GroupIDs = append([]string(nil), n.GroupIDs...)
	}

	return ret
}

// Collaborator is a member of a group
type Collaborator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group is a named set of collaborators that notes can be shared into
type Group struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Collaborators []Collaborator `json:"collaborators"`
}

// IsProvisional returns true if the group has not been assigned a server id
func (g Group) IsProvisional() bool {
	return IsProvisionalID(g.ID)
}

// IsProvisionalID returns true if the id was minted locally
func IsProvisionalID(id string) bool {
	return strings.HasPrefix(id, consts.ProvisionalIDPrefix)
}

// ActionKind is the kind of a queued note mutation
type ActionKind string

const (
	// ActionAdd replays a note creation
	ActionAdd ActionKind = "add"
	// ActionUpdate replays a note update
	ActionUpdate ActionKind = "update"
)

// ActionStatus is the replay state of a queued mutation
type ActionStatus string

const (
	// ActionPending is waiting for its next attempt
	ActionPending ActionStatus = "pending"
	// ActionFailed has exhausted its attempts and waits for a manual retry
	ActionFailed ActionStatus = "failed"
)

// PendingAction is a note mutation that could not reach the server
type PendingAction struct {
	ID            string       `json:"id"`
	Kind          ActionKind   `json:"action"`
	Note          Note         `json:"note"`
	Status        ActionStatus `json:"status"`
	Attempts      int          `json:"attempts"`
	LastError     string       `json:"lastError,omitempty"`
	QueuedAt      time.Time    `json:"queuedAt"`
	NextAttemptAt time.Time    `json:"nextAttemptAt"`
}

// UserInfo is the profile of the signed in user
type UserInfo struct {
	Email string `json:"email"`
}
