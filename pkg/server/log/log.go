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

// Package log writes structured JSON logs for the notesync server
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	fieldKeyLevel     = "level"
	fieldKeyMessage   = "msg"
	fieldKeyTimestamp = "ts"

	// LevelDebug represents debug log level
	LevelDebug = "debug"
	// LevelInfo represents info log level
	LevelInfo = "info"
	// LevelWarn represents warn log level
	LevelWarn = "warn"
	// LevelError represents error log level
	LevelError = "error"
)

var (
	mu           sync.Mutex
	currentLevel           = LevelInfo
	output       io.Writer = os.Stderr
)

// Fields is a set of key-value pairs attached to a log line
type Fields map[string]interface{}

// Entry is a log line being built
type Entry struct {
	Fields    Fields
	Timestamp time.Time
}

func newEntry(fields Fields) Entry {
	return Entry{
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// WithFields creates a log entry with the given fields
func WithFields(fields Fields) Entry {
	return newEntry(fields)
}

// SetLevel sets the minimum level that is written. Unknown levels are
// treated as info.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
}

// SetOutput redirects the logs to the given writer and returns a function
// restoring the previous one
func SetOutput(w io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()

	prev := output
	output = w

	return func() {
		mu.Lock()
		defer mu.Unlock()
		output = prev
	}
}

func levelPriority(level string) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

func shouldLog(level string) bool {
	mu.Lock()
	defer mu.Unlock()

	return levelPriority(level) >= levelPriority(currentLevel)
}

// Debug logs the entry at a debug level
func (e Entry) Debug(msg string) {
	e.write(LevelDebug, msg)
}

// Info logs the entry at an info level
func (e Entry) Info(msg string) {
	e.write(LevelInfo, msg)
}

// Warn logs the entry at a warning level
func (e Entry) Warn(msg string) {
	e.write(LevelWarn, msg)
}

// Error logs the entry at an error level
func (e Entry) Error(msg string) {
	e.write(LevelError, msg)
}

// ErrorWrap logs the entry at an error level with the given error under the
// "error" field
func (e Entry) ErrorWrap(err error, msg string) {
	fields := make(Fields, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields["error"] = err

	Entry{Fields: fields, Timestamp: e.Timestamp}.Error(msg)
}

func (e Entry) encode(level, msg string) ([]byte, error) {
	data := make(Fields, len(e.Fields)+3)

	for k, v := range e.Fields {
		if err, ok := v.(error); ok {
			data[k] = err.Error()
			continue
		}
		data[k] = v
	}

	data[fieldKeyLevel] = level
	data[fieldKeyMessage] = msg
	data[fieldKeyTimestamp] = e.Timestamp.Format(time.RFC3339Nano)

	return json.Marshal(data)
}

func (e Entry) write(level, msg string) {
	if !shouldLog(level) {
		return
	}

	b, err := e.encode(level, msg)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"level":"error","msg":"encoding log entry: %s"}`, err))
	}

	mu.Lock()
	defer mu.Unlock()

	if _, err := fmt.Fprintln(output, string(b)); err != nil {
		fmt.Fprintf(os.Stderr, "writing log: %v\n", err)
	}
}

// Debug logs a debug message without additional fields
func Debug(msg string) {
	newEntry(Fields{}).Debug(msg)
}

// Info logs an info message without additional fields
func Info(msg string) {
	newEntry(Fields{}).Info(msg)
}

// Warn logs a warning without additional fields
func Warn(msg string) {
	newEntry(Fields{}).Warn(msg)
}

// Error logs an error message without additional fields
func Error(msg string) {
	newEntry(Fields{}).Error(msg)
}

// ErrorWrap logs the given error with a message and no other fields
func ErrorWrap(err error, msg string) {
	newEntry(Fields{}).ErrorWrap(err, msg)
}
