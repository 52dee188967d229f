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
	"database/sql"
	"time"
)

// NullString is a string column that may be NULL
type NullString = sql.NullString

// ToNullString returns a NullString that is valid if the given string is not empty
func ToNullString(s string) NullString {
	return NullString{String: s, Valid: s != ""}
}

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// User is a model for a user
type User struct {
	Model
	UUID        string     `json:"uuid" gorm:"type:text;uniqueIndex"`
	Email       NullString `gorm:"uniqueIndex"`
	Password    NullString `json:"-"`
	LastLoginAt *time.Time `json:"-"`
}

// Session represents a user session
type Session struct {
	Model
	UserID     int    `gorm:"index"`
	Key        string `gorm:"uniqueIndex"`
	LastUsedAt time.Time
	ExpiresAt  time.Time `gorm:"index"`
}

// Task is a checklist item of a note
type Task struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Note is a model for a note. Tasks are stored as a JSON column.
type Note struct {
	Model
	UUID   string `gorm:"type:text;uniqueIndex"`
	UserID int    `gorm:"index"`
	User   User
	Title  string
	Body   string
	Tasks  []Task `gorm:"serializer:json"`
	// ClientKey identifies the creation request of the note, unique per user
	ClientKey NullString `gorm:"type:text"`
}

// Collaborator is a member of a group
type Collaborator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group is a model for a group of collaborators
type Group struct {
	Model
	UUID          string `gorm:"type:text;uniqueIndex"`
	UserID        int    `gorm:"index"`
	Name          string
	Collaborators []Collaborator `gorm:"serializer:json"`
}
