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

package remove

import (
	"fmt"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/dnote/notesync/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var yesFlag bool

var example = `
  * Remove notes by id
  notesync remove 1 2

  * Skip the confirmation
  notesync remove 1 -y`

// NewCmd returns a new remove command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <note id>...",
		Short:   "Remove notes",
		Aliases: []string{"rm", "d", "delete"},
		Example: example,
		Args:    cobra.MinimumNArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "Assume yes to the prompts and run in non-interactive mode")

	return cmd
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var ids []string
		for _, id := range args {
			n, ok := ctx.Engine.Note(id)
			if !ok {
				log.Warnf("note %s not found\n", id)
				continue
			}

			ids = append(ids, n.ID)
		}
		if len(ids) == 0 {
			return errors.New("no note to remove")
		}

		if !yesFlag {
			ok, err := ui.Confirm(fmt.Sprintf("remove %d notes?", len(ids)), false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		st := ctx.Engine.DeleteNotes(cmd.Context(), ids)
		output.Status(st, fmt.Sprintf("removed %d notes", len(ids)))

		return nil
	}
}
