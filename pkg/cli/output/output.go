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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"strings"

	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/dnote/notesync/pkg/cli/utils"
)

const timeLayout = "Jan 2, 2006 3:04pm (MST)"

// NoteInfo prints a note with its metadata
func NoteInfo(n database.Note, groups []database.Group) {
	log.Infof("note id: %s\n", n.ID)
	log.Infof("created at: %s\n", n.CreatedAt.Local().Format(timeLayout))
	if len(n.GroupIDs) > 0 {
		log.Infof("shared with: %s\n", strings.Join(groupNames(n.GroupIDs, groups), ", "))
	}
	if n.Unsynced {
		log.Pendingf("has changes not yet on the server\n")
	}
	if n.Hidden {
		log.Infof("hidden\n")
	}

	fmt.Printf("\n%s\n", log.ColorYellow.Sprint(n.Title))
	if n.Text != "" {
		fmt.Printf("\n%s\n", n.Text)
	}
	for _, t := range n.Tasks {
		mark := " "
		if t.Checked {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, t.Text)
	}
}

// NoteList prints one line per note
func NoteList(notes []database.Note) {
	for _, n := range notes {
		marker := " "
		if n.Unsynced {
			marker = log.ColorYellow.Sprint("○")
		}

		title := n.Title
		if title == "" {
			title = utils.Excerpt(n.Text, 50)
		}

		fmt.Printf("%s %s %s\n", marker, log.ColorGray.Sprintf("(%s)", n.ID), title)
	}
}

// GroupList prints one line per group
func GroupList(groups []database.Group) {
	for _, g := range groups {
		id := log.ColorGray.Sprintf("(%s)", g.ID)
		if len(g.Collaborators) == 0 {
			fmt.Printf("%s %s\n", id, g.Name)
			continue
		}

		names := make([]string, 0, len(g.Collaborators))
		for _, c := range g.Collaborators {
			names = append(names, c.Name)
		}
		fmt.Printf("%s %s %s\n", id, g.Name, log.ColorGray.Sprintf("[%s]", strings.Join(names, ", ")))
	}
}

// Summary prints the state of the local collections
func Summary(s orchestrator.Summary, email string) {
	if email != "" {
		log.Infof("signed in as %s\n", email)
	} else {
		log.Warnf("not signed in\n")
	}

	log.Infof("notes: %d (%d hidden)\n", s.Notes, s.Hidden)
	log.Infof("groups: %d\n", s.Groups)

	if s.Pending+s.Failed+s.Deleted == 0 {
		log.Success("everything is synced\n")
		return
	}
	if s.Pending > 0 {
		log.Pendingf("%d changes waiting to be synced\n", s.Pending)
	}
	if s.Deleted > 0 {
		log.Pendingf("%d deletions waiting to be confirmed\n", s.Deleted)
	}
	if s.Failed > 0 {
		log.Errorf("%d changes failed. run 'notesync sync --retry-failed' to try again\n", s.Failed)
	}
}

// Failures prints the queued actions that exhausted their attempts
func Failures(actions []database.PendingAction) {
	for _, a := range actions {
		if a.Status != database.ActionFailed {
			continue
		}

		log.Errorf("%s %s after %d attempts: %s\n", a.Kind, a.Note.ID, a.Attempts, a.LastError)
	}
}

// Status prints the outcome of an operation
func Status(st orchestrator.Status, what string) {
	switch st {
	case orchestrator.StatusSynced:
		log.Successf("%s\n", what)
	case orchestrator.StatusPending:
		log.Pendingf("%s locally. it will be synced when the server is reachable\n", what)
	case orchestrator.StatusFailed:
		log.Errorf("%s locally but the server rejected it\n", what)
	case orchestrator.StatusNoSession:
		log.Warnf("not signed in. run 'notesync login' first\n")
	}
}

func groupNames(ids []string, groups []database.Group) []string {
	byID := map[string]string{}
	for _, g := range groups {
		byID[g.ID] = g.Name
	}

	ret := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			ret = append(ret, name)
		} else {
			ret = append(ret, id)
		}
	}

	return ret
}
