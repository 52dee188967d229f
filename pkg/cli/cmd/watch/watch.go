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

package watch

import (
	gocontext "context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  * Keep syncing in the foreground until interrupted
  notesync watch`

// NewCmd returns a new watch command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Sync whenever the server becomes reachable",
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.Prober == nil {
			return errors.New("connectivity prober is not configured")
		}

		c, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		unsubscribeConn := ctx.Prober.Subscribe(func(online bool) {
			if online {
				log.Success("server is reachable. syncing\n")
			} else {
				log.Pendingf("server is unreachable. changes are kept locally\n")
			}
		})
		defer unsubscribeConn()

		unsubscribeNotes := ctx.Engine.SubscribeNotes(func(notes []database.Note) {
			log.Debug("%d notes\n", len(notes))
		})
		defer unsubscribeNotes()

		ctx.Prober.Start(c)
		defer ctx.Prober.Stop()

		log.Infof("watching %s. press ctrl+c to stop\n", ctx.APIEndpoint)

		err := ctx.Engine.Run(c)
		if err != nil && errors.Cause(err) != gocontext.Canceled {
			return errors.Wrap(err, "running the sync loop")
		}

		return nil
	}
}
