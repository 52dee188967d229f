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

package hide

import (
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/spf13/cobra"
)

var example = `
  * Hide notes from the list on this device
  notesync hide 1 2`

// NewCmd returns a new hide command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hide <note id>...",
		Short:   "Hide notes on this device",
		Example: example,
		Args:    cobra.MinimumNArgs(1),
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		st := ctx.Engine.HideNotes(cmd.Context(), args)
		output.Status(st, "hidden")

		return nil
	}
}
