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

// Package testutils provides utilities used in tests
package testutils

import (
	"bytes"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/utils"
	"github.com/pkg/errors"
)

// Prompts for user input
const (
	PromptRemoveNote = "remove 1 notes?"
)

// Timeout for waiting for prompts in tests
const promptTimeout = 10 * time.Second

// Login simulates a logged in user by writing credentials in the cache store
func Login(t *testing.T, db *database.DB) {
	database.MustWriteKey(t, db, consts.KeyUserToken, DefaultToken)
	database.MustWriteKey(t, db, consts.KeyUserInfo, database.UserInfo{Email: "alice@example.com"})
}

// RunNotesyncCmdOptions is an option for RunNotesyncCmd
type RunNotesyncCmdOptions struct {
	Env []string
}

func newNotesyncCmd(opts RunNotesyncCmdOptions, binaryName string, arg ...string) (*exec.Cmd, error) {
	binaryPath, err := filepath.Abs(binaryName)
	if err != nil {
		return nil, errors.Wrap(err, "getting the absolute path to the test binary")
	}

	cmd := exec.Command(binaryPath, arg...)
	cmd.Env = append(opts.Env, "NOTESYNC_DEBUG=1")

	return cmd, nil
}

// RunNotesyncCmd runs a notesync command and returns its stdout
func RunNotesyncCmd(t *testing.T, opts RunNotesyncCmdOptions, binaryName string, arg ...string) string {
	t.Logf("running: %s %s", binaryName, strings.Join(arg, " "))

	cmd, err := newNotesyncCmd(opts, binaryName, arg...)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting command").Error())
	}

	var stderr, stdout bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		t.Logf("\n%s", stdout.String())
		t.Fatal(errors.Wrapf(err, "running command %s", stderr.String()))
	}

	// Print stdout if and only if test fails later
	t.Logf("\n%s", stdout.String())

	return stdout.String()
}

// WaitNotesyncCmd runs a notesync command and passes stdout to the callback
func WaitNotesyncCmd(t *testing.T, opts RunNotesyncCmdOptions, runFunc func(io.Reader, io.WriteCloser) error, binaryName string, arg ...string) (string, error) {
	t.Logf("running: %s %s", binaryName, strings.Join(arg, " "))

	cmd, err := newNotesyncCmd(opts, binaryName, arg...)
	if err != nil {
		return "", errors.Wrap(err, "getting command")
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", errors.Wrap(err, "getting stdout pipe")
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", errors.Wrap(err, "getting stdin")
	}
	defer stdin.Close()

	if err = cmd.Start(); err != nil {
		return "", errors.Wrap(err, "starting command")
	}

	var output bytes.Buffer
	tee := io.TeeReader(stdout, &output)

	if err := runFunc(tee, stdin); err != nil {
		t.Logf("\n%s", output.String())
		return output.String(), errors.Wrap(err, "running callback")
	}

	io.Copy(&output, stdout)

	if err := cmd.Wait(); err != nil {
		t.Logf("\n%s", output.String())
		return output.String(), errors.Wrapf(err, "command failed: %s", stderr.String())
	}

	t.Logf("\n%s", output.String())
	return output.String(), nil
}

// MustWaitNotesyncCmd is WaitNotesyncCmd that fails the test on error
func MustWaitNotesyncCmd(t *testing.T, opts RunNotesyncCmdOptions, runFunc func(io.Reader, io.WriteCloser) error, binaryName string, arg ...string) string {
	output, err := WaitNotesyncCmd(t, opts, runFunc, binaryName, arg...)
	if err != nil {
		t.Fatal(err)
	}

	return output
}

func respondToPrompt(stdout io.Reader, stdin io.WriteCloser, expectedPrompt, response string) error {
	return assert.RespondToPrompt(stdout, stdin, expectedPrompt, response, promptTimeout)
}

// ConfirmRemoveNote waits for the prompt for removing a note and confirms
func ConfirmRemoveNote(stdout io.Reader, stdin io.WriteCloser) error {
	return respondToPrompt(stdout, stdin, PromptRemoveNote, "y\n")
}

// CancelRemoveNote waits for the prompt for removing a note and declines
func CancelRemoveNote(stdout io.Reader, stdin io.WriteCloser) error {
	return respondToPrompt(stdout, stdin, PromptRemoveNote, "n\n")
}

// UserContent writes a note body to stdin and closes it, as a pipe would
func UserContent(stdout io.Reader, stdin io.WriteCloser) error {
	longText := `Lorem ipsum dolor sit amet, consectetur adipiscing elit,
	sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.`

	if _, err := io.WriteString(stdin, longText); err != nil {
		return errors.Wrap(err, "creating note from stdin")
	}

	// the reader stops at EOF only
	stdin.Close()

	return nil
}

// MustGenerateUUID generates the uuid. If error occurs, it fails the test.
func MustGenerateUUID(t *testing.T) string {
	ret, err := utils.GenerateUUID()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating uuid").Error())
	}

	return ret
}

// MustOpenDatabase opens the cache store at the path
func MustOpenDatabase(t *testing.T, dbPath string) *database.DB {
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening database"))
	}
	t.Cleanup(func() { db.Close() })

	return db
}
