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

// Package prompt formats and reads yes/no confirmations
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// FormatQuestion appends the choices to the question. The capitalized
// choice is the answer assumed for an empty response.
func FormatQuestion(question string, optimistic bool) string {
	if optimistic {
		return fmt.Sprintf("%s (Y/n)", question)
	}

	return fmt.Sprintf("%s (y/N)", question)
}

// ReadYesNo reads one line and reports whether it confirms. An empty line
// confirms only when optimistic. Anything unrecognized declines. A final
// line without a newline is accepted.
func ReadYesNo(r io.Reader, optimistic bool) (bool, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return false, errors.Wrap(err, "reading the answer")
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	case "":
		return optimistic, nil
	default:
		return false, nil
	}
}
