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

package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/dnote/notesync/pkg/dirs"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// AppEnvTest represents an app environment for tests. Rate limiting is off.
	AppEnvTest string = "TEST"
	// DefaultDBDir is the directory under the data home holding the server database
	DefaultDBDir = "notesync"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "server.db"
	// DefaultEnvFile is the env file read on startup if present
	DefaultEnvFile = ".env"

	// DriverSQLite selects the embedded SQLite database
	DriverSQLite = "sqlite"
	// DriverPostgres selects a PostgreSQL database given by DBURL
	DriverPostgres = "postgres"
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrLogLevelInvalid is an error for an unknown log level
	ErrLogLevelInvalid = errors.New("Invalid log level")
)

// DefaultDBPath returns the default path to the database file
func DefaultDBPath() string {
	return filepath.Join(dirs.DataHome, DefaultDBDir, DefaultDBFilename)
}

// LoadEnvFile sets the variables in the given env file without overriding
// the ones already present. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}

	return nil
}

func readBoolEnv(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	if err != nil {
		return false
	}

	return v
}

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

// Config is an application configuration
type Config struct {
	AppEnv              string
	Port                string
	DBPath              string
	DBURL               string
	DisableRegistration bool
	LogLevel            string
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv              string
	Port                string
	DBPath              string
	DBURL               string
	DisableRegistration bool
	LogLevel            string
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	c := Config{
		AppEnv:              getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:                getOrEnv(p.Port, "PORT", "3001"),
		DBPath:              getOrEnv(p.DBPath, "DBPath", DefaultDBPath()),
		DBURL:               getOrEnv(p.DBURL, "DBURL", ""),
		DisableRegistration: p.DisableRegistration || readBoolEnv("DisableRegistration"),
		LogLevel:            getOrEnv(p.LogLevel, "LOG_LEVEL", "info"),
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

// IsTest checks if the app environment is configured for tests.
func (c Config) IsTest() bool {
	return c.AppEnv == AppEnvTest
}

// Driver returns the database driver to use. A DBURL takes precedence over
// the SQLite path.
func (c Config) Driver() string {
	if c.DBURL != "" {
		return DriverPostgres
	}

	return DriverSQLite
}

func validate(c Config) error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.Wrapf(ErrPortInvalid, "'%s'", c.Port)
	}
	if c.DBURL == "" && c.DBPath == "" {
		return ErrDBMissingPath
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(ErrLogLevelInvalid, "'%s'", c.LogLevel)
	}

	return nil
}
