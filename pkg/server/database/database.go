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
	"os"
	"path/filepath"
	"strings"

	"github.com/dnote/notesync/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitSchema migrates database schema to reflect the latest model definition
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Session{},
		&Note{},
		&Group{},
	); err != nil {
		return errors.Wrap(err, "auto-migrating models")
	}

	return nil
}

// getDBLogLevel maps the server log level to the gorm logger level. SQL
// statements are only logged when debugging.
func getDBLogLevel(level string) logger.LogLevel {
	switch level {
	case log.LevelDebug:
		return logger.Info
	case log.LevelWarn:
		return logger.Warn
	case log.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}

// Options configures the database connection
type Options struct {
	// URL is a PostgreSQL connection string. If set, Path is ignored.
	URL string
	// Path is the SQLite database file
	Path     string
	LogLevel string
}

func dialector(o Options) (gorm.Dialector, error) {
	if o.URL != "" {
		return postgres.Open(o.URL), nil
	}

	if o.Path == "" {
		return nil, errors.New("database path is empty")
	}

	// in-memory and URI databases have no directory to create
	if o.Path != ":memory:" && !strings.HasPrefix(o.Path, "file:") {
		dir := filepath.Dir(o.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating database directory at %s", dir)
		}
	}

	return sqlite.Open(o.Path), nil
}

// Open initializes the database connection
func Open(o Options) (*gorm.DB, error) {
	d, err := dialector(o)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(getDBLogLevel(o.LogLevel)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database connection")
	}

	return db, nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "getting sql.DB")
	}

	return sqlDB.Close()
}
