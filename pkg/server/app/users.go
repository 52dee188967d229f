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
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/helpers"
	"github.com/dnote/notesync/pkg/server/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// minPasswordLength is the minimum length of a password
const minPasswordLength = 8

// passwordCost is the bcrypt cost for hashing passwords. Tests lower it.
var passwordCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}

	return string(b), nil
}

// TouchLastLoginAt updates the last login timestamp
func (a *App) TouchLastLoginAt(user database.User, tx *gorm.DB) error {
	t := a.Clock.Now()
	if err := tx.Model(&user).Update("last_login_at", &t).Error; err != nil {
		return errors.Wrap(err, "updating last_login_at")
	}

	return nil
}

// CreateUser creates a user. Operators create users from the command line
// regardless of DisableRegistration; use Register for self-service signups.
func (a *App) CreateUser(email, password string) (database.User, error) {
	if email == "" {
		return database.User{}, ErrEmailRequired
	}
	if password == "" {
		return database.User{}, ErrPasswordRequired
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return database.User{}, err
	}

	uuid, err := helpers.GenUUID()
	if err != nil {
		return database.User{}, err
	}

	user := database.User{
		UUID:     uuid,
		Email:    database.ToNullString(email),
		Password: database.ToNullString(hashed),
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return errors.Wrap(err, "counting user")
		}
		if count > 0 {
			return ErrDuplicateEmail
		}

		if err := tx.Create(&user).Error; err != nil {
			return errors.Wrap(err, "saving user")
		}

		return nil
	})
	if err != nil {
		return database.User{}, err
	}

	return user, nil
}

// Register creates a user unless registration is disabled
func (a *App) Register(email, password string) (database.User, error) {
	if a.DisableRegistration {
		return database.User{}, ErrRegistrationDisabled
	}

	return a.CreateUser(email, password)
}

// GetUserByEmail finds the user with the given email
func (a *App) GetUserByEmail(email string) (*database.User, error) {
	var user database.User
	err := a.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "finding user")
	}

	return &user, nil
}

// Authenticate returns the user matching the credentials
func (a *App) Authenticate(email, password string) (*database.User, error) {
	user, err := a.GetUserByEmail(email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrLoginInvalid
	} else if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password.String), []byte(password)); err != nil {
		return nil, ErrLoginInvalid
	}

	return user, nil
}

// SignIn starts a new session for the user
func (a *App) SignIn(user *database.User) (*database.Session, error) {
	if err := a.TouchLastLoginAt(*user, a.DB); err != nil {
		log.ErrorWrap(err, "touching login timestamp")
	}

	session, err := a.CreateSession(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "creating session")
	}

	return &session, nil
}

// UpdateUserPassword replaces the password of the user and signs out all of
// its sessions
func (a *App) UpdateUserPassword(user *database.User, password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}

	return a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("password", database.ToNullString(hashed)).Error; err != nil {
			return errors.Wrap(err, "updating password")
		}
		if err := a.DeleteUserSessions(tx, user.ID); err != nil {
			return err
		}

		return nil
	})
}

// RemoveUser deletes the user along with its notes, groups and sessions
func (a *App) RemoveUser(user *database.User) error {
	return a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&database.Note{}).Error; err != nil {
			return errors.Wrap(err, "deleting notes")
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&database.Group{}).Error; err != nil {
			return errors.Wrap(err, "deleting groups")
		}
		if err := a.DeleteUserSessions(tx, user.ID); err != nil {
			return err
		}
		if err := tx.Delete(user).Error; err != nil {
			return errors.Wrap(err, "deleting user")
		}

		return nil
	})
}
