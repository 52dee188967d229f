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

package main

import (
	"os"
	"strings"

	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/pkg/errors"

	// commands
	"github.com/dnote/notesync/pkg/cli/cmd/add"
	"github.com/dnote/notesync/pkg/cli/cmd/cat"
	"github.com/dnote/notesync/pkg/cli/cmd/edit"
	"github.com/dnote/notesync/pkg/cli/cmd/find"
	"github.com/dnote/notesync/pkg/cli/cmd/group"
	"github.com/dnote/notesync/pkg/cli/cmd/hide"
	"github.com/dnote/notesync/pkg/cli/cmd/login"
	"github.com/dnote/notesync/pkg/cli/cmd/logout"
	"github.com/dnote/notesync/pkg/cli/cmd/ls"
	"github.com/dnote/notesync/pkg/cli/cmd/remove"
	"github.com/dnote/notesync/pkg/cli/cmd/restore"
	"github.com/dnote/notesync/pkg/cli/cmd/root"
	"github.com/dnote/notesync/pkg/cli/cmd/share"
	"github.com/dnote/notesync/pkg/cli/cmd/status"
	"github.com/dnote/notesync/pkg/cli/cmd/sync"
	"github.com/dnote/notesync/pkg/cli/cmd/version"
	"github.com/dnote/notesync/pkg/cli/cmd/view"
	"github.com/dnote/notesync/pkg/cli/cmd/watch"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseDBPath extracts the value of --dbPath wherever it appears in the
// arguments, because the cache store has to be opened before cobra parses
// the flags of the subcommand. It returns an empty string if not found.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--dbPath="); ok {
			return v
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}

func run() int {
	ctx, err := infra.Init(versionTag, apiEndpoint, parseDBPath(os.Args[1:]))
	if err != nil {
		log.Errorf("%s\n", errors.Wrap(err, "initializing context").Error())
		return 1
	}
	defer ctx.Close()

	root.Register(add.NewCmd(*ctx))
	root.Register(edit.NewCmd(*ctx))
	root.Register(remove.NewCmd(*ctx))
	root.Register(ls.NewCmd(*ctx))
	root.Register(cat.NewCmd(*ctx))
	root.Register(view.NewCmd(*ctx))
	root.Register(find.NewCmd(*ctx))
	root.Register(hide.NewCmd(*ctx))
	root.Register(restore.NewCmd(*ctx))
	root.Register(share.NewCmd(*ctx))
	root.Register(group.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(watch.NewCmd(*ctx))
	root.Register(status.NewCmd(*ctx))
	root.Register(login.NewCmd(*ctx))
	root.Register(logout.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		return 1
	}

	return 0
}

func main() {
	os.Exit(run())
}
