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

package presenters

import (
	"time"

	"github.com/dnote/notesync/pkg/server/database"
)

// Task is a checklist item of a presented note
type Task struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Note is a result of PresentNote
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Tasks     []Task    `json:"tasks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PresentNote presents note
func PresentNote(note database.Note) Note {
	tasks := make([]Task, 0, len(note.Tasks))
	for _, t := range note.Tasks {
		tasks = append(tasks, Task{ID: t.ID, Text: t.Text, Checked: t.Checked})
	}

	return Note{
		ID:        note.UUID,
		Title:     note.Title,
		Text:      note.Body,
		Tasks:     tasks,
		CreatedAt: FormatTS(note.CreatedAt),
		UpdatedAt: FormatTS(note.UpdatedAt),
	}
}

// PresentNotes presents notes
func PresentNotes(notes []database.Note) []Note {
	ret := make([]Note, 0, len(notes))
	for _, note := range notes {
		ret = append(ret, PresentNote(note))
	}

	return ret
}
