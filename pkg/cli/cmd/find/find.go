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

package find

import (
	"strings"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/spf13/cobra"
)

var example = `
  * Search notes by a keyword
  notesync find milk

  * Search with a phrase
  notesync find "merge conflict"`

// NewCmd returns a new find command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "find <query>",
		Short:   "Search the cached notes",
		Aliases: []string{"f"},
		Example: example,
		Args:    cobra.MinimumNArgs(1),
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		notes := ctx.Engine.Search(query)
		if len(notes) == 0 {
			log.Infof("no note matches '%s'\n", query)
			return nil
		}

		output.NoteList(notes)

		return nil
	}
}
