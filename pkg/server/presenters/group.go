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

package presenters

import (
	"github.com/dnote/notesync/pkg/server/database"
)

// Collaborator is a member of a presented group
type Collaborator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group is a result of PresentGroup
type Group struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Collaborators []Collaborator `json:"collaborators"`
}

// PresentGroup presents group
func PresentGroup(group database.Group) Group {
	collaborators := make([]Collaborator, 0, len(group.Collaborators))
	for _, c := range group.Collaborators {
		collaborators = append(collaborators, Collaborator{ID: c.ID, Name: c.Name})
	}

	return Group{
		ID:            group.UUID,
		Name:          group.Name,
		Collaborators: collaborators,
	}
}

// PresentGroups presents groups
func PresentGroups(groups []database.Group) []Group {
	ret := make([]Group, 0, len(groups))
	for _, g := range groups {
		ret = append(ret, PresentGroup(g))
	}

	return ret
}
