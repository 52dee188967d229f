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

package share

import (
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var clearFlag bool

var example = `
  * Share a note into groups
  notesync share 3 12 13

  * Stop sharing a note
  notesync share 3 --clear`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("missing the note id")
	}
	if len(args) == 1 && !clearFlag {
		return errors.New("missing the group ids. use --clear to unshare the note")
	}

	return nil
}

// NewCmd returns a new share command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "share <note id> <group id>...",
		Short:   "Set the groups a note is shared into",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&clearFlag, "clear", false, "Unshare the note from every group")

	return cmd
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var groupIDs []string
		if !clearFlag {
			groupIDs = args[1:]
		}

		st := ctx.Engine.ShareNote(cmd.Context(), args[0], groupIDs)
		if st == orchestrator.StatusFailed {
			return errors.Errorf("note %s not found", args[0])
		}
		output.Status(st, "shared")

		return nil
	}
}
