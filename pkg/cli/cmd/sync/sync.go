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

package sync

import (
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/spf13/cobra"
)

var example = `
  notesync sync

  * Replay the changes that exhausted their attempts
  notesync sync --retry-failed`

var retryFailedFlag bool

// NewCmd returns a new sync command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Sync data with the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&retryFailedFlag, "retry-failed", false, "retry the changes that previously failed too many times")

	return cmd
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if retryFailedFlag {
			n := ctx.Engine.RetryFailed()
			log.Debug("reset %d failed actions\n", n)
		}

		st := ctx.Engine.Reconcile(cmd.Context())
		if st == orchestrator.StatusNoSession {
			output.Status(st, "")
			return nil
		}

		// Listing after the replay lets the merge see server ids of the
		// notes that were just created.
		listed := ctx.Engine.LoadNotes(cmd.Context())
		listed = orchestrator.Worse(listed, ctx.Engine.LoadGroups(cmd.Context()))

		switch {
		case st == orchestrator.StatusFailed:
			output.Failures(ctx.Engine.Pending())
			log.Errorf("some changes could not be synced\n")
		case st == orchestrator.StatusPending || listed == orchestrator.StatusPending:
			log.Pendingf("the server could not be reached. changes are kept locally\n")
		default:
			log.Success("synced\n")
		}

		return nil
	}
}
