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

package app

import (
	"time"

	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/helpers"
	"github.com/dnote/notesync/pkg/server/permissions"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NoteParams are the fields of a note set by a request. Nil fields are left
// unchanged on update. ClientKey is only read on creation.
type NoteParams struct {
	Title     *string
	Body      *string
	Tasks     *[]database.Task
	CreatedAt *time.Time
	ClientKey string
}

// normalizeTasks assigns an id to every task missing one
func normalizeTasks(tasks []database.Task) ([]database.Task, error) {
	ret := make([]database.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			id, err := helpers.GenUUID()
			if err != nil {
				return nil, err
			}
			t.ID = id
		}
		ret = append(ret, t)
	}

	return ret, nil
}

// ListNotes returns the notes of the user, newest first
func (a *App) ListNotes(user database.User) ([]database.Note, error) {
	var notes []database.Note
	if err := a.DB.Where("user_id = ?", user.ID).Order("created_at DESC, id DESC").Find(&notes).Error; err != nil {
		return nil, errors.Wrap(err, "finding notes")
	}

	return notes, nil
}

// GetNote returns the note with the given uuid owned by the user
func (a *App) GetNote(user database.User, uuid string) (database.Note, error) {
	return getNote(a.DB, user, uuid)
}

func getNote(db *gorm.DB, user database.User, uuid string) (database.Note, error) {
	var note database.Note
	if !helpers.ValidateUUID(uuid) {
		return note, ErrNotFound
	}

	err := db.Where("uuid = ?", uuid).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return note, ErrNotFound
	} else if err != nil {
		return note, errors.Wrap(err, "finding note")
	}

	if !permissions.ViewNote(&user, note) {
		return database.Note{}, ErrNotFound
	}

	return note, nil
}

// findByClientKey returns the note the user created with the given client key
func findByClientKey(db *gorm.DB, user database.User, key string) (database.Note, bool, error) {
	var note database.Note

	err := db.Where("user_id = ? AND client_key = ?", user.ID, key).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return note, false, nil
	} else if err != nil {
		return note, false, errors.Wrap(err, "finding note by client key")
	}

	return note, true, nil
}

// CreateNote creates a note for the user. The creation time given by the
// client is kept so that notes written offline sort where they were written.
// A creation repeating the client key of an earlier one returns the note it
// created.
func (a *App) CreateNote(user database.User, p NoteParams) (database.Note, error) {
	if p.ClientKey != "" {
		existing, ok, err := findByClientKey(a.DB, user, p.ClientKey)
		if err != nil {
			return database.Note{}, err
		}
		if ok {
			return existing, nil
		}
	}

	uuid, err := helpers.GenUUID()
	if err != nil {
		return database.Note{}, err
	}

	note := database.Note{
		UUID:      uuid,
		UserID:    user.ID,
		Tasks:     []database.Task{},
		ClientKey: database.ToNullString(p.ClientKey),
	}
	if p.Title != nil {
		note.Title = *p.Title
	}
	if p.Body != nil {
		note.Body = *p.Body
	}
	if p.Tasks != nil {
		if note.Tasks, err = normalizeTasks(*p.Tasks); err != nil {
			return database.Note{}, err
		}
	}

	now := a.Clock.Now()
	note.CreatedAt = now
	note.UpdatedAt = now
	if p.CreatedAt != nil && !p.CreatedAt.IsZero() {
		note.CreatedAt = *p.CreatedAt
	}

	if err := a.DB.Create(&note).Error; err != nil {
		// a concurrent request with the same key may have won the insert
		if p.ClientKey != "" {
			if existing, ok, ferr := findByClientKey(a.DB, user, p.ClientKey); ferr == nil && ok {
				return existing, nil
			}
		}

		return database.Note{}, errors.Wrap(err, "inserting note")
	}

	return note, nil
}

// UpdateNote updates the note with the given uuid owned by the user
func (a *App) UpdateNote(user database.User, uuid string, p NoteParams) (database.Note, error) {
	var note database.Note

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		note, err = getNote(tx, user, uuid)
		if err != nil {
			return err
		}

		if p.Title != nil {
			note.Title = *p.Title
		}
		if p.Body != nil {
			note.Body = *p.Body
		}
		if p.Tasks != nil {
			if note.Tasks, err = normalizeTasks(*p.Tasks); err != nil {
				return err
			}
		}
		note.UpdatedAt = a.Clock.Now()

		if err := tx.Save(&note).Error; err != nil {
			return errors.Wrap(err, "saving note")
		}

		return nil
	})
	if err != nil {
		return database.Note{}, err
	}

	return note, nil
}

// DeleteNote deletes the note with the given uuid owned by the user
func (a *App) DeleteNote(user database.User, uuid string) error {
	res := a.DB.Where("user_id = ? AND uuid = ?", user.ID, uuid).Delete(&database.Note{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting note")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
