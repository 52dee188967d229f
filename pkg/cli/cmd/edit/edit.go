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

package edit

import (
	"strings"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/dnote/notesync/pkg/cli/ui"
	"github.com/dnote/notesync/pkg/cli/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var titleFlag string
var contentFlag string

var example = `
  * Edit a note in an editor
  notesync edit 3

  * Skip the editor by providing new values directly
  notesync edit 3 -c "new content"
  notesync edit 3 --title "new title"`

// NewCmd returns a new edit command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <note id>",
		Short:   "Edit a note",
		Aliases: []string{"e"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&titleFlag, "title", "", "The new title of the note")
	f.StringVarP(&contentFlag, "content", "c", "", "The new content of the note")

	return cmd
}

func getEdited(ctx context.NotesyncCtx, n database.Note) (database.Note, error) {
	if titleFlag != "" || contentFlag != "" {
		if titleFlag != "" {
			n.Title = strings.TrimSpace(titleFlag)
		}
		if contentFlag != "" {
			n.Text = contentFlag
		}

		return n, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return n, errors.Wrap(err, "getting temporarily content file path")
	}

	c, err := ui.GetEditorInput(ctx, fpath, ui.FormatNote(n))
	if err != nil {
		return n, errors.Wrap(err, "getting editor input")
	}

	parsed, err := ui.ParseNote(c, n.Tasks)
	if err != nil {
		return n, errors.Wrap(err, "parsing the edited note")
	}

	n.Title = parsed.Title
	n.Text = parsed.Text
	n.Tasks = parsed.Tasks

	return n, nil
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		n, ok := ctx.Engine.Note(args[0])
		if !ok {
			return errors.Errorf("note %s not found", args[0])
		}

		edited, err := getEdited(ctx, n)
		if err != nil {
			return err
		}
		if err := validate.NoteTitle(edited.Title); err != nil {
			return errors.Wrap(err, "invalid title")
		}

		st := ctx.Engine.UpdateNote(cmd.Context(), edited, true)
		output.Status(st, "edited")

		return nil
	}
}
