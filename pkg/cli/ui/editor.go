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

// Package ui provides the user interface for the program
package ui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/utils"
	"github.com/pkg/errors"
)

// GetTmpContentPath returns the path to the temporary file containing
// content being added or edited
func GetTmpContentPath(ctx context.NotesyncCtx) (string, error) {
	for i := 0; ; i++ {
		filename := fmt.Sprintf("%s_%d.%s", consts.TmpContentFileBase, i, consts.TmpContentFileExt)
		candidate := filepath.Join(ctx.Paths.Cache, filename)

		ok, err := utils.FileExists(candidate)
		if err != nil {
			return "", errors.Wrapf(err, "checking if file exists at %s", candidate)
		}
		if !ok {
			return candidate, nil
		}
	}
}

func newEditorCmd(ctx context.NotesyncCtx, fpath string) (*exec.Cmd, error) {
	args := strings.Fields(ctx.Editor)
	if len(args) == 0 {
		return nil, errors.New("no editor is configured")
	}
	args = append(args, fpath)

	return exec.Command(args[0], args[1:]...), nil
}

// GetEditorInput writes the initial content to the file, launches a text
// editor on it and returns the content once the editor exits
func GetEditorInput(ctx context.NotesyncCtx, fpath, initial string) (string, error) {
	if err := os.WriteFile(fpath, []byte(initial), 0644); err != nil {
		return "", errors.Wrap(err, "writing the temporary content file")
	}
	defer os.Remove(fpath)

	cmd, err := newEditorCmd(ctx, fpath)
	if err != nil {
		return "", errors.Wrap(err, "creating an editor command")
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", errors.Wrap(err, "running the editor")
	}

	b, err := os.ReadFile(fpath)
	if err != nil {
		return "", errors.Wrap(err, "reading the temporary content file")
	}

	return string(b), nil
}

const (
	taskOpen = "- [ ] "
	taskDone = "- [x] "
)

// FormatNote renders a note for editing. The first line is the title and
// the remaining lines are the body. Tasks are listed at the end as
// markdown checkboxes.
func FormatNote(n database.Note) string {
	var sb strings.Builder

	sb.WriteString(n.Title)
	sb.WriteString("\n\n")
	if n.Text != "" {
		sb.WriteString(n.Text)
		sb.WriteString("\n")
	}

	if len(n.Tasks) > 0 {
		sb.WriteString("\n")
		for _, t := range n.Tasks {
			if t.Checked {
				sb.WriteString(taskDone)
			} else {
				sb.WriteString(taskOpen)
			}
			sb.WriteString(t.Text)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// ParseNote reads the content produced by FormatNote back into the title,
// text and tasks of the note. Existing task ids are reused in order.
func ParseNote(content string, existing []database.Task) (database.Note, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var ret database.Note
	var body []string
	titleSet := false

	for _, line := range lines {
		if !titleSet {
			if strings.TrimSpace(line) == "" {
				continue
			}

			ret.Title = strings.TrimSpace(line)
			titleSet = true
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(line, taskOpen):
			ret.Tasks = append(ret.Tasks, database.Task{Text: strings.TrimSpace(line[len(taskOpen):])})
		case strings.HasPrefix(lower, taskDone):
			ret.Tasks = append(ret.Tasks, database.Task{Text: strings.TrimSpace(line[len(taskDone):]), Checked: true})
		default:
			body = append(body, line)
		}
	}

	if !titleSet {
		return ret, errors.New("empty content")
	}

	ret.Text = strings.TrimSpace(strings.Join(body, "\n"))

	for i := range ret.Tasks {
		if i < len(existing) && existing[i].ID != "" {
			ret.Tasks[i].ID = existing[i].ID
			continue
		}

		id, err := utils.GenerateUUID()
		if err != nil {
			return ret, errors.Wrap(err, "generating a task id")
		}
		ret.Tasks[i].ID = id
	}

	return ret, nil
}
