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

package login

import (
	"net/url"
	"strings"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  notesync login`

var emailFlag, passwordFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&emailFlag, "email", "u", "", "email address for authentication")
	f.StringVarP(&passwordFlag, "password", "p", "", "password for authentication")

	return cmd
}

// getServerDisplayURL returns the scheme and host of the API endpoint
func getServerDisplayURL(ctx context.NotesyncCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + u.Host
}

func getCredentials() (string, string, error) {
	email := strings.TrimSpace(emailFlag)
	if email == "" {
		if err := ui.PromptInput("email", &email); err != nil {
			return "", "", errors.Wrap(err, "getting email input")
		}
	}
	if email == "" {
		return "", "", errors.New("Email is empty")
	}

	password := passwordFlag
	if password == "" {
		if err := ui.PromptPassword("password", &password); err != nil {
			return "", "", errors.Wrap(err, "getting password input")
		}
	}
	if password == "" {
		return "", "", errors.New("Password is empty")
	}

	return email, password, nil
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if display := getServerDisplayURL(ctx); display != "" {
			log.Infof("logging in to %s\n", display)
		}

		email, password, err := getCredentials()
		if err != nil {
			return err
		}

		if err := ctx.Session.Login(cmd.Context(), ctx.Client, email, password); err != nil {
			return errors.Wrap(err, "logging in")
		}

		log.Success("logged in\n")

		ctx.Engine.LoadNotes(cmd.Context())
		ctx.Engine.LoadGroups(cmd.Context())

		return nil
	}
}
