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

package view

import (
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dnote/notesync/pkg/cli/cmd/cat"
	"github.com/dnote/notesync/pkg/cli/cmd/ls"
)

var example = `
 * List notes
 notesync view

 * View a particular note
 notesync view 3
 `

var contentOnly bool
var hidden bool

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new view command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view <note id?>",
		Aliases: []string{"v"},
		Short:   "List notes or view a note",
		Example: example,
		RunE:    newRun(ctx),
		PreRunE: preRun,
	}

	f := cmd.Flags()
	f.BoolVar(&contentOnly, "content-only", false, "print the note content only")
	f.BoolVar(&hidden, "hidden", false, "list hidden notes")

	return cmd
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var run infra.RunEFunc

		if len(args) == 0 {
			if contentOnly {
				return errors.New("--content-only flag is only valid when viewing a note")
			}

			run = ls.NewRun(ctx, hidden)
		} else {
			run = cat.NewRun(ctx, contentOnly)
		}

		return run(cmd, args)
	}
}
