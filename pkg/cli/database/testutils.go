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
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MustScan scans the given row and fails a test in case of any errors
func MustScan(t *testing.T, message string, row *sql.Row, args ...interface{}) {
	err := row.Scan(args...)
	if err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "scanning a row"), message))
	}
}

// MustExec executes the given SQL query and fails a test if an error occurs
func MustExec(t *testing.T, message string, db *DB, query string, args ...interface{}) sql.Result {
	result, err := db.Exec(query, args...)
	if err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "executing sql"), message))
	}

	return result
}

// MustWriteKey writes a cache key and fails a test if an error occurs
func MustWriteKey(t *testing.T, db *DB, key string, value interface{}) {
	if err := WriteKey(db, key, value); err != nil {
		t.Fatal(errors.Wrapf(err, "writing %s", key))
	}
}

// MustReadKey reads a cache key and fails a test if an error occurs
func MustReadKey(t *testing.T, db *DB, key string, dest interface{}) bool {
	ok, err := ReadKey(db, key, dest)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "reading %s", key))
	}

	return ok
}

// InitTestMemoryDB initializes an in-memory test database with all migrations applied
func InitTestMemoryDB(t *testing.T) *DB {
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	return initTestDB(t, dbName)
}

// InitTestFileDB initializes a file-based test database with all migrations applied
func InitTestFileDB(t *testing.T) (*DB, string) {
	dbPath := filepath.Join(t.TempDir(), fmt.Sprintf("notesync-%s.db", uuid.NewString()))

	return initTestDB(t, dbPath), dbPath
}

func initTestDB(t *testing.T, path string) *DB {
	db, err := Open(path)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening database"))
	}

	if _, err := Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating database"))
	}

	t.Cleanup(func() { db.Close() })
	return db
}
