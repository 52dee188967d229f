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

// Package dirs resolves the base directories notesync stores its files in
package dirs

import (
	"os"
	"os/user"
)

var (
	// Home is the home directory of the user
	Home string
	// ConfigHome holds user-specific configuration, such as the config file
	ConfigHome string
	// DataHome holds user-specific data, such as the local cache store
	DataHome string
	// CacheHome holds non-essential files, such as editor scratch files
	CacheHome string
)

func init() {
	Reload()
}

// Reload resolves the directories again from the environment
func Reload() {
	Home = getHomeDir()

	d := resolve(os.Getenv, Home)
	ConfigHome = d.config
	DataHome = d.data
	CacheHome = d.cache
}

type baseDirs struct {
	config string
	data   string
	cache  string
}

// getHomeDir prefers $HOME and falls back to the user database, so that a
// missing $HOME does not prevent starting
func getHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}

	usr, err := user.Current()
	if err != nil {
		return os.TempDir()
	}

	return usr.HomeDir
}

func readPath(getenv func(string) string, envName, defaultPath string) string {
	if dir := getenv(envName); dir != "" {
		return dir
	}

	return defaultPath
}
