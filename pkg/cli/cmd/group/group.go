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

// Package group implements the commands managing the groups notes are
// shared into
package group

import (
	"strings"

	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/infra"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/output"
	"github.com/dnote/notesync/pkg/cli/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var collaboratorFlags []string

var example = `
  * Create a group with collaborators
  notesync group add family -m u1:Ann -m u2:Bob

  * List groups
  notesync group ls

  * Rename a group
  notesync group rename 12 relatives

  * Remove a group. Notes shared into it are unshared.
  notesync group remove 12`

// NewCmd returns a new group command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "group",
		Short:   "Manage groups",
		Aliases: []string{"groups", "g"},
		Example: example,
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE:  newAddRun(ctx),
	}
	add.Flags().StringArrayVarP(&collaboratorFlags, "member", "m", nil, "A collaborator as <id>:<name>. Can be repeated")

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE:  newListRun(ctx),
	}

	rename := &cobra.Command{
		Use:   "rename <group id> <name>",
		Short: "Rename a group",
		Args:  cobra.ExactArgs(2),
		RunE:  newRenameRun(ctx),
	}

	remove := &cobra.Command{
		Use:     "remove <group id>",
		Aliases: []string{"rm"},
		Short:   "Remove a group",
		Args:    cobra.ExactArgs(1),
		RunE:    newRemoveRun(ctx),
	}

	cmd.AddCommand(add, ls, rename, remove)

	return cmd
}

// parseCollaborators parses values in the form of <id>:<name>
func parseCollaborators(values []string) ([]database.Collaborator, error) {
	var ret []database.Collaborator
	for _, v := range values {
		parts := strings.SplitN(v, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.Errorf("invalid member '%s'. expected <id>:<name>", v)
		}

		ret = append(ret, database.Collaborator{ID: parts[0], Name: parts[1]})
	}

	return ret, nil
}

func findGroup(ctx context.NotesyncCtx, id string) (database.Group, bool) {
	for _, g := range ctx.Engine.Groups() {
		if g.ID == id {
			return g, true
		}
	}

	return database.Group{}, false
}

func newAddRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if err := validate.GroupName(name); err != nil {
			return errors.Wrap(err, "invalid name")
		}

		collaborators, err := parseCollaborators(collaboratorFlags)
		if err != nil {
			return err
		}

		g, st := ctx.Engine.AddGroup(cmd.Context(), database.Group{Name: name, Collaborators: collaborators})
		output.Status(st, "created group "+g.ID)

		return nil
	}
}

func newListRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		ctx.Engine.LoadGroups(cmd.Context())

		groups := ctx.Engine.Groups()
		if len(groups) == 0 {
			log.Info("no groups\n")
			return nil
		}

		output.GroupList(groups)

		return nil
	}
}

func newRenameRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		g, ok := findGroup(ctx, args[0])
		if !ok {
			return errors.Errorf("group %s not found", args[0])
		}

		name := strings.TrimSpace(args[1])
		if err := validate.GroupName(name); err != nil {
			return errors.Wrap(err, "invalid name")
		}
		g.Name = name

		st := ctx.Engine.UpdateGroup(cmd.Context(), g)
		output.Status(st, "renamed")

		return nil
	}
}

func newRemoveRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if _, ok := findGroup(ctx, args[0]); !ok {
			return errors.Errorf("group %s not found", args[0])
		}

		st := ctx.Engine.DeleteGroup(cmd.Context(), args[0])
		output.Status(st, "removed group "+args[0])

		return nil
	}
}
