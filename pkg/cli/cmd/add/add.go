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

package add

import (
	"os"
	"strings"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/dnote/notesync/pkg/cli/ui"
	"github.com/dnote/notesync/pkg/cli/utils"
	"github.com/dnote/notesync/pkg/cli/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var contentFlag string
var taskFlags []string
var groupFlags []string

var example = `
 * Open an editor to write the note
 notesync add

 * Skip the editor by providing the title and the content directly
 notesync add "git tips" -c "a branch is just a pointer to a commit"

 * Add a checklist
 notesync add groceries --task milk --task eggs

 * Send stdin content to a note
 echo "pull is fetch with a merge" | notesync add "git tips"`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new add command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add [title]",
		Short:   "Add a new note",
		Aliases: []string{"a", "n", "new"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "The content of the note")
	f.StringArrayVarP(&taskFlags, "task", "t", nil, "A task to add to the note. Can be repeated")
	f.StringArrayVarP(&groupFlags, "group", "g", nil, "The id of a group to share the note into. Can be repeated")

	return cmd
}

func isPiped() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return fi.Mode()&os.ModeCharDevice == 0
}

// getDraft builds the note from the arguments, stdin, or an editor
func getDraft(ctx context.NotesyncCtx, args []string) (database.Note, error) {
	if len(args) == 0 {
		fpath, err := ui.GetTmpContentPath(ctx)
		if err != nil {
			return database.Note{}, errors.Wrap(err, "getting temporarily content file path")
		}

		c, err := ui.GetEditorInput(ctx, fpath, "")
		if err != nil {
			return database.Note{}, errors.Wrap(err, "Failed to get editor input")
		}

		return ui.ParseNote(c, nil)
	}

	n := database.Note{Title: strings.TrimSpace(args[0]), Text: contentFlag}
	if n.Text == "" && isPiped() {
		c, err := ui.ReadStdInput()
		if err != nil {
			return n, errors.Wrap(err, "Failed to get piped input")
		}
		n.Text = strings.TrimSpace(c)
	}

	for _, t := range taskFlags {
		id, err := utils.GenerateUUID()
		if err != nil {
			return n, errors.Wrap(err, "generating a task id")
		}
		n.Tasks = append(n.Tasks, database.Task{ID: id, Text: t})
	}

	return n, nil
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		draft, err := getDraft(ctx, args)
		if err != nil {
			return errors.Wrap(err, "getting content")
		}
		if err := validate.NoteTitle(draft.Title); err != nil {
			return errors.Wrap(err, "invalid title")
		}
		draft.GroupIDs = groupFlags

		note, st := ctx.Engine.AddNote(cmd.Context(), draft)
		output.Status(st, "added")

		if note.ID != "" {
			output.NoteInfo(note, ctx.Engine.Groups())
		}

		return nil
	}
}
