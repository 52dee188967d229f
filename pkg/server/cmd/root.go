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
	"fmt"
	"os"
)

// Version is the server version, overridden at build time
var Version = "master"

func rootCmd() {
	fmt.Printf(`notesync server - the sync backend for notesync clients

Usage:
  notesync-server [command] [flags]

Available commands:
  start: Start the server (use 'notesync-server start --help' for flags)
  user: Manage users (use 'notesync-server user' for subcommands)
  version: Print the version
`)
}

func versionCmd() {
	fmt.Printf("notesync-server-%s\n", Version)
}

// Execute runs the command named by the process arguments
func Execute() {
	if len(os.Args) < 2 {
		rootCmd()
		return
	}

	switch cmd := os.Args[1]; cmd {
	case "start":
		startCmd(os.Args[2:])
	case "user":
		userCmd(os.Args[2:])
	case "version":
		versionCmd()
	default:
		fmt.Printf("Unknown command %s\n", cmd)
		rootCmd()
		os.Exit(1)
	}
}
