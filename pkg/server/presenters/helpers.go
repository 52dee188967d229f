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

// Package presenters shapes database records into API responses
package presenters

import (
	"time"
)

// FormatTS rounds the given timestamp to the microsecond in UTC so that
// times in responses are consistent across database drivers
func FormatTS(ts time.Time) time.Time {
	return ts.UTC().Round(time.Microsecond)
}
