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

// Package log prints human readable messages to the terminal
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// debugEnv turns on debug output when set to "1"
const debugEnv = "NOTESYNC_DEBUG"

var (
	// ColorYellow marks changes waiting for the server
	ColorYellow = color.New(color.FgYellow)
	// ColorGray marks secondary information
	ColorGray = color.New(color.FgHiBlack)

	red   = color.New(color.FgRed)
	green = color.New(color.FgGreen)
	blue  = color.New(color.FgBlue)
)

const indent = "  "

type mark struct {
	c      *color.Color
	symbol string
}

var (
	markInfo    = mark{blue, "•"}
	markSuccess = mark{green, "✔"}
	markPending = mark{ColorYellow, "○"}
	markError   = mark{red, "⨯"}
	markWarn    = mark{red, "•"}
)

func (m mark) print(out io.Writer, msg string) {
	fmt.Fprintf(out, "%s%s %s", indent, m.c.Sprint(m.symbol), msg)
}

// Info prints information
func Info(msg string) {
	markInfo.print(color.Output, msg)
}

// Infof prints formatted information
func Infof(msg string, v ...interface{}) {
	Info(fmt.Sprintf(msg, v...))
}

// Success prints a success message
func Success(msg string) {
	markSuccess.print(color.Output, msg)
}

// Successf prints a formatted success message
func Successf(msg string, v ...interface{}) {
	Success(fmt.Sprintf(msg, v...))
}

// Pendingf prints a message about a change saved locally that has yet to
// reach the server
func Pendingf(msg string, v ...interface{}) {
	markPending.print(color.Output, fmt.Sprintf(msg, v...))
}

// Warnf prints a warning to stderr
func Warnf(msg string, v ...interface{}) {
	markWarn.print(color.Error, fmt.Sprintf(msg, v...))
}

// Error prints an error message
func Error(msg string) {
	markError.print(color.Error, msg)
}

// Errorf prints a formatted error message
func Errorf(msg string, v ...interface{}) {
	Error(fmt.Sprintf(msg, v...))
}

// Askf prints a question waiting for input. A masked input is marked gray.
func Askf(msg string, masked bool, v ...interface{}) {
	c := green
	if masked {
		c = ColorGray
	}

	fmt.Fprintf(color.Output, "%s%s %s: ", indent, c.Sprint("[?]"), fmt.Sprintf(msg, v...))
}

// Debug prints to stderr if debugging is on
func Debug(msg string, v ...interface{}) {
	if os.Getenv(debugEnv) != "1" {
		return
	}

	fmt.Fprintf(color.Error, "%s %s", ColorGray.Sprint("DEBUG:"), fmt.Sprintf(msg, v...))
}
