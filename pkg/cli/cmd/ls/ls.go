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

package ls

import (
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/spf13/cobra"
)

var hiddenFlag bool
var offlineFlag bool

var example = `
 * List notes, newest first
 notesync ls

 * List hidden notes
 notesync ls --hidden

 * List the cached notes without contacting the server
 notesync ls --offline`

// NewCmd returns a new ls command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Short:   "List notes",
		Aliases: []string{"l", "notes"},
		Example: example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewRun(ctx, hiddenFlag)(cmd, args)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&hiddenFlag, "hidden", false, "List hidden notes")
	f.BoolVar(&offlineFlag, "offline", false, "Do not fetch notes from the server")

	return cmd
}

// NewRun returns a run function listing the visible notes, or the hidden
// notes if hidden is set
func NewRun(ctx context.NotesyncCtx, hidden bool) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if !offlineFlag {
			if st := ctx.Engine.LoadNotes(cmd.Context()); st == orchestrator.StatusPending {
				log.Debug("the server is unreachable. showing cached notes\n")
			}
		}

		notes := ctx.Engine.VisibleNotes()
		if hidden {
			notes = ctx.Engine.HiddenNotes()
		}

		output.NoteList(notes)

		return nil
	}
}
