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

package cmd

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/testutils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openDB(t *testing.T, path string) *gorm.DB {
	db := testutils.InitDB(path)
	t.Cleanup(func() {
		database.Close(db)
	})

	return db
}

func countUsers(t *testing.T, path string) int64 {
	db := openDB(t, path)

	var count int64
	testutils.MustExec(t, db.Model(&database.User{}).Count(&count), "counting users")

	return count
}

func TestUserCreateCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "server.db")

	userCreateCmd([]string{"--dbPath", dbPath, "--email", "alice@example.com", "--password", "pass12345"})

	db := openDB(t, dbPath)

	var user database.User
	testutils.MustExec(t, db.Where("email = ?", "alice@example.com").First(&user), "finding user")
	assert.NotEqual(t, user.UUID, "", "uuid should be set")

	err := bcrypt.CompareHashAndPassword([]byte(user.Password.String), []byte("pass12345"))
	assert.NilError(t, err, "password should match")
}

func TestUserRemoveCmd(t *testing.T) {
	testCases := []struct {
		answer   string
		expected int64
	}{
		{answer: "y\n", expected: 0},
		{answer: "n\n", expected: 1},
		{answer: "\n", expected: 1},
	}

	for _, tc := range testCases {
		t.Run(strings.TrimSpace(tc.answer), func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "server.db")

			db := testutils.InitDB(dbPath)
			user := testutils.SetupUserData(db, "alice@example.com", "pass12345")
			testutils.SetupNoteData(db, user, "title", "body")
			database.Close(db)

			userRemoveCmd([]string{"--dbPath", dbPath, "--email", "alice@example.com"}, strings.NewReader(tc.answer))

			assert.Equal(t, countUsers(t, dbPath), tc.expected, "user count mismatch")
		})
	}
}

func TestUserResetPasswordCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "server.db")

	db := testutils.InitDB(dbPath)
	user := testutils.SetupUserData(db, "alice@example.com", "oldpassword1")
	testutils.SetupSession(db, user, time.Now().Add(time.Hour))
	database.Close(db)

	userResetPasswordCmd([]string{"--dbPath", dbPath, "--email", "alice@example.com", "--password", "newpassword1"})

	db = openDB(t, dbPath)

	var updated database.User
	testutils.MustExec(t, db.Where("email = ?", "alice@example.com").First(&updated), "finding user")

	err := bcrypt.CompareHashAndPassword([]byte(updated.Password.String), []byte("newpassword1"))
	assert.NilError(t, err, "new password should match")
	err = bcrypt.CompareHashAndPassword([]byte(updated.Password.String), []byte("oldpassword1"))
	assert.Equal(t, err != nil, true, "old password should not match")

	var sessionCount int64
	testutils.MustExec(t, db.Model(&database.Session{}).Count(&sessionCount), "counting sessions")
	assert.Equal(t, sessionCount, int64(0), "sessions should be revoked")
}
