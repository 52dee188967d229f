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

// Package permissions decides whether a user may access a resource.
package permissions

import (
	"github.com/dnote/notesync/pkg/server/database"
)

func owns(user *database.User, ownerID int) bool {
	if user == nil || ownerID == 0 {
		return false
	}

	return ownerID == user.ID
}

// ViewNote checks if the given user can view the given note
func ViewNote(user *database.User, note database.Note) bool {
	return owns(user, note.UserID)
}

// ViewGroup checks if the given user can view the given group. Collaborators
// are recorded for clients and grant no server-side access.
func ViewGroup(user *database.User, group database.Group) bool {
	return owns(user, group.UserID)
}
