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

package app

import (
	"github.com/dnote/notesync/pkg/clock"
	"golang.org/x/crypto/bcrypt"
)

// NewTest returns an app for a testing environment. Callers set the DB.
func NewTest() App {
	passwordCost = bcrypt.MinCost

	return App{
		Clock:               clock.NewMock(),
		DisableRegistration: false,
		Port:                "3000",
	}
}
