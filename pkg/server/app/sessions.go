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
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SessionDuration is how long a session stays valid after sign in
const SessionDuration = 24 * 30 * time.Hour

// CreateSession returns a new session for the user of the given id
func (a *App) CreateSession(userID int) (database.Session, error) {
	key, err := helpers.RandomString(32)
	if err != nil {
		return database.Session{}, errors.Wrap(err, "generating key")
	}

	now := a.Clock.Now().UTC()
	session := database.Session{
		UserID:     userID,
		Key:        key,
		LastUsedAt: now,
		ExpiresAt:  now.Add(SessionDuration),
	}

	if err := a.DB.Save(&session).Error; err != nil {
		return database.Session{}, errors.Wrap(err, "saving session")
	}

	return session, nil
}

// GetSessionUser returns the session with the given key and its user, and
// marks the session used
func (a *App) GetSessionUser(key string) (*database.Session, *database.User, error) {
	var session database.Session
	err := a.DB.Where("key = ?", key).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	} else if err != nil {
		return nil, nil, errors.Wrap(err, "finding session")
	}

	now := a.Clock.Now().UTC()
	if !session.ExpiresAt.After(now) {
		return nil, nil, ErrSessionExpired
	}

	var user database.User
	err = a.DB.Where("id = ?", session.UserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	} else if err != nil {
		return nil, nil, errors.Wrap(err, "finding user")
	}

	if err := a.DB.Model(&session).Update("last_used_at", now).Error; err != nil {
		return nil, nil, errors.Wrap(err, "touching session")
	}

	return &session, &user, nil
}

// DeleteUserSessions deletes all existing sessions for the given user. It effectively
// invalidates all existing sessions.
func (a *App) DeleteUserSessions(db *gorm.DB, userID int) error {
	if err := db.Where("user_id = ?", userID).Delete(&database.Session{}).Error; err != nil {
		return errors.Wrap(err, "deleting sessions")
	}

	return nil
}

// DeleteSession deletes the session with the given key
func (a *App) DeleteSession(sessionKey string) error {
	if err := a.DB.Where("key = ?", sessionKey).Delete(&database.Session{}).Error; err != nil {
		return errors.Wrap(err, "deleting the session")
	}

	return nil
}

// PurgeExpiredSessions deletes the sessions that expired and returns how many
func (a *App) PurgeExpiredSessions() (int64, error) {
	res := a.DB.Where("expires_at <= ?", a.Clock.Now().UTC()).Delete(&database.Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "deleting expired sessions")
	}

	return res.RowsAffected, nil
}
