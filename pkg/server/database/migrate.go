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
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dnote/notesync/pkg/server/database/migrations"
	"github.com/dnote/notesync/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var migrationFilenameRegex = regexp.MustCompile(`^(\d{3})-(.+)\.sql$`)

type migrationFile struct {
	filename string
	version  int
}

// parseMigrationFilename returns the version of a file named NNN-description.sql
func parseMigrationFilename(name string) (int, error) {
	m := migrationFilenameRegex.FindStringSubmatch(name)
	if m == nil {
		return 0, errors.Errorf("invalid migration filename %s: must be NNN-description.sql", name)
	}

	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errors.Wrapf(err, "parsing version of %s", name)
	}

	return v, nil
}

func readMigrationFiles(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "reading migration directory")
	}

	var ret []migrationFile
	seen := map[int]string{}
	for _, e := range entries {
		v, err := parseMigrationFilename(e.Name())
		if err != nil {
			return nil, err
		}

		if existing, ok := seen[v]; ok {
			return nil, errors.Errorf("duplicate migration version %d: %s and %s", v, existing, e.Name())
		}
		seen[v] = e.Name()

		ret = append(ret, migrationFile{filename: e.Name(), version: v})
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].version < ret[j].version
	})

	return ret, nil
}

// Migrate applies the embedded SQL migrations that have not run yet
func Migrate(db *gorm.DB) error {
	return migrate(db, migrations.Files)
}

func migrate(db *gorm.DB, fsys fs.FS) error {
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`).Error; err != nil {
		return errors.Wrap(err, "creating schema_migrations")
	}

	var current int
	if err := db.Raw("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current).Error; err != nil {
		return errors.Wrap(err, "reading schema version")
	}

	files, err := readMigrationFiles(fsys)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"version": current,
		"files":   len(files),
	}).Debug("database schema version")

	for _, f := range files {
		if f.version <= current {
			continue
		}

		b, err := fs.ReadFile(fsys, f.filename)
		if err != nil {
			return errors.Wrapf(err, "reading %s", f.filename)
		}
		if strings.TrimSpace(string(b)) == "" {
			return errors.Errorf("migration %s is empty", f.filename)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(b)).Error; err != nil {
				return errors.Wrapf(err, "running %s", f.filename)
			}
			if err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", f.version).Error; err != nil {
				return errors.Wrapf(err, "recording %s", f.filename)
			}

			return nil
		})
		if err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"file": f.filename,
		}).Info("applied migration")
	}

	return nil
}
