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

package cat

import (
	"fmt"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/dnote/notesync/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * See the note with id 2
 notesync cat 2

 * Print the note as it appears in the editor
 notesync cat 2 --content-only
 `

var contentOnlyFlag bool

// NewCmd returns a new cat command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cat <note id>",
		Aliases: []string{"c"},
		Short:   "See a note",
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewRun(ctx, contentOnlyFlag)(cmd, args)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&contentOnlyFlag, "content-only", false, "print the note content only")

	return cmd
}

// NewRun returns a new run function printing the note given as the first argument
func NewRun(ctx context.NotesyncCtx, contentOnly bool) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		n, ok := ctx.Engine.Note(args[0])
		if !ok {
			return errors.Errorf("note %s not found", args[0])
		}

		if contentOnly {
			fmt.Print(ui.FormatNote(n))
		} else {
			output.NoteInfo(n, ctx.Engine.Groups())
		}

		return nil
	}
}
