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
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// StorageError is a failure to read or write a key of the cache store
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Key, e.Err.Error())
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error
func (e *StorageError) Cause() error {
	return e.Err
}

// ReadKey decodes the value stored under the given key into dest. It returns
// false if the key is absent.
func ReadKey(db *DB, key string, dest interface{}) (bool, error) {
	var raw string
	err := db.QueryRow("SELECT value FROM cache WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, &StorageError{Op: "read", Key: key, Err: err}
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, &StorageError{Op: "read", Key: key, Err: errors.Wrap(err, "decoding value")}
	}

	return true, nil
}

func writeKey(db *DB, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return &StorageError{Op: "write", Key: key, Err: errors.Wrap(err, "encoding value")}
	}

	_, err = db.Exec(`INSERT INTO cache (key, value, updated_at) VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, string(b))
	if err != nil {
		return &StorageError{Op: "write", Key: key, Err: err}
	}

	return nil
}

// WriteKey replaces the value stored under the given key
func WriteKey(db *DB, key string, value interface{}) error {
	return writeKey(db, key, value)
}

// WriteKeys replaces the values of several keys in a single transaction
func WriteKeys(db *DB, values map[string]interface{}) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := writeKey(tx, k, values[k]); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}

// DeleteKey removes the given key. Deleting an absent key is not an error.
func DeleteKey(db *DB, key string) error {
	if _, err := db.Exec("DELETE FROM cache WHERE key = ?", key); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}

	return nil
}
