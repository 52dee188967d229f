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
	"strings"

	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/helpers"
	"github.com/dnote/notesync/pkg/server/permissions"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GroupParams are the fields of a group set by a request. Nil fields are
// left unchanged on update.
type GroupParams struct {
	Name          *string
	Collaborators *[]database.Collaborator
}

func validateGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrGroupNameRequired
	}

	return name, nil
}

// normalizeCollaborators drops repeated collaborator ids, keeping the first
func normalizeCollaborators(collaborators []database.Collaborator) ([]database.Collaborator, error) {
	seen := map[string]bool{}
	ret := make([]database.Collaborator, 0, len(collaborators))

	for _, c := range collaborators {
		if c.ID == "" {
			return nil, ErrCollaboratorInvalid
		}
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		ret = append(ret, c)
	}

	return ret, nil
}

// ListGroups returns the groups of the user ordered by name
func (a *App) ListGroups(user database.User) ([]database.Group, error) {
	var groups []database.Group
	if err := a.DB.Where("user_id = ?", user.ID).Order("name ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, errors.Wrap(err, "finding groups")
	}

	return groups, nil
}

func getGroup(db *gorm.DB, user database.User, uuid string) (database.Group, error) {
	var group database.Group
	if !helpers.ValidateUUID(uuid) {
		return group, ErrNotFound
	}

	err := db.Where("uuid = ?", uuid).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return group, ErrNotFound
	} else if err != nil {
		return group, errors.Wrap(err, "finding group")
	}

	if !permissions.ViewGroup(&user, group) {
		return database.Group{}, ErrNotFound
	}

	return group, nil
}

// CreateGroup creates a group for the user
func (a *App) CreateGroup(user database.User, p GroupParams) (database.Group, error) {
	if p.Name == nil {
		return database.Group{}, ErrGroupNameRequired
	}
	name, err := validateGroupName(*p.Name)
	if err != nil {
		return database.Group{}, err
	}

	collaborators := []database.Collaborator{}
	if p.Collaborators != nil {
		if collaborators, err = normalizeCollaborators(*p.Collaborators); err != nil {
			return database.Group{}, err
		}
	}

	uuid, err := helpers.GenUUID()
	if err != nil {
		return database.Group{}, err
	}

	group := database.Group{
		UUID:          uuid,
		UserID:        user.ID,
		Name:          name,
		Collaborators: collaborators,
	}
	if err := a.DB.Create(&group).Error; err != nil {
		return database.Group{}, errors.Wrap(err, "inserting group")
	}

	return group, nil
}

// UpdateGroup updates the group with the given uuid owned by the user
func (a *App) UpdateGroup(user database.User, uuid string, p GroupParams) (database.Group, error) {
	var group database.Group

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		group, err = getGroup(tx, user, uuid)
		if err != nil {
			return err
		}

		if p.Name != nil {
			if group.Name, err = validateGroupName(*p.Name); err != nil {
				return err
			}
		}
		if p.Collaborators != nil {
			if group.Collaborators, err = normalizeCollaborators(*p.Collaborators); err != nil {
				return err
			}
		}

		if err := tx.Save(&group).Error; err != nil {
			return errors.Wrap(err, "saving group")
		}

		return nil
	})
	if err != nil {
		return database.Group{}, err
	}

	return group, nil
}

// DeleteGroup deletes the group with the given uuid owned by the user
func (a *App) DeleteGroup(user database.User, uuid string) error {
	res := a.DB.Where("user_id = ? AND uuid = ?", user.ID, uuid).Delete(&database.Group{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting group")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
