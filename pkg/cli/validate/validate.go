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

// Package validate checks user input before it reaches the sync engine
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	// MaxTitleLength is the maximum number of characters in a note title
	MaxTitleLength = 200
	// MaxGroupNameLength is the maximum number of characters in a group name
	MaxGroupNameLength = 60
)

// ErrTitleEmpty is an error for a note without a title
var ErrTitleEmpty = errors.New("The note title is empty")

// ErrTitleTooLong is an error for a note title over MaxTitleLength
var ErrTitleTooLong = errors.Errorf("The note title is longer than %d characters", MaxTitleLength)

// ErrGroupNameEmpty is an error for an empty group name
var ErrGroupNameEmpty = errors.New("The group name is empty")

// ErrGroupNameTooLong is an error for a group name over MaxGroupNameLength
var ErrGroupNameTooLong = errors.Errorf("The group name is longer than %d characters", MaxGroupNameLength)

// ErrMultiline is an error for a single line value that has linebreaks
var ErrMultiline = errors.New("The value contains multiple lines")

func isMultiline(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// NoteTitle validates a note title
func NoteTitle(title string) error {
	title = strings.TrimSpace(title)

	if title == "" {
		return ErrTitleEmpty
	}
	if isMultiline(title) {
		return ErrMultiline
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}

	return nil
}

// GroupName validates a group name
func GroupName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return ErrGroupNameEmpty
	}
	if isMultiline(name) {
		return ErrMultiline
	}
	if utf8.RuneCountInString(name) > MaxGroupNameLength {
		return ErrGroupNameTooLong
	}

	return nil
}
