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

package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/pkg/errors"
)

// CollaboratorPayload is a group member in a request or a response
type CollaboratorPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GroupPayload is a payload for creating or updating a group
type GroupPayload struct {
	Name          string                `json:"name"`
	Collaborators []CollaboratorPayload `json:"collaborators"`
}

// RespGroup is a group as returned by the server
type RespGroup struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Collaborators []CollaboratorPayload `json:"collaborators"`
}

// NewGroupPayload builds a request payload from a local group
func NewGroupPayload(g database.Group) GroupPayload {
	collaborators := make([]CollaboratorPayload, 0, len(g.Collaborators))
	for _, c := range g.Collaborators {
		collaborators = append(collaborators, CollaboratorPayload{ID: c.ID, Name: c.Name})
	}

	return GroupPayload{
		Name:          g.Name,
		Collaborators: collaborators,
	}
}

// ToGroup converts the server representation into a local group
func (r RespGroup) ToGroup() database.Group {
	collaborators := make([]database.Collaborator, 0, len(r.Collaborators))
	for _, c := range r.Collaborators {
		collaborators = append(collaborators, database.Collaborator{ID: c.ID, Name: c.Name})
	}

	return database.Group{
		ID:            r.ID,
		Name:          r.Name,
		Collaborators: collaborators,
	}
}

// ListGroupsResp is the response from the list groups endpoint
type ListGroupsResp struct {
	Groups []RespGroup `json:"groups"`
}

// ListGroups fetches every group the user belongs to
func (c *Client) ListGroups(ctx context.Context, token string) ([]RespGroup, error) {
	var resp ListGroupsResp
	if err := c.doAuthorizedReq(ctx, "GET", "/v3/groups", token, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "listing groups")
	}

	return resp.Groups, nil
}

// CreateGroup creates a group and returns it with its server id
func (c *Client) CreateGroup(ctx context.Context, token string, payload GroupPayload) (RespGroup, error) {
	var resp RespGroup
	if err := c.doAuthorizedReq(ctx, "POST", "/v3/groups", token, payload, &resp); err != nil {
		return resp, errors.Wrap(err, "creating a group")
	}

	return resp, nil
}

// UpdateGroup replaces the name and collaborators of the group
func (c *Client) UpdateGroup(ctx context.Context, token, id string, payload GroupPayload) (RespGroup, error) {
	var resp RespGroup
	path := fmt.Sprintf("/v3/groups/%s", url.PathEscape(id))
	if err := c.doAuthorizedReq(ctx, "PATCH", path, token, payload, &resp); err != nil {
		return resp, errors.Wrapf(err, "updating the group %s", id)
	}

	return resp, nil
}

// DeleteGroup deletes the group with the given id
func (c *Client) DeleteGroup(ctx context.Context, token, id string) error {
	path := fmt.Sprintf("/v3/groups/%s", url.PathEscape(id))
	if err := c.doAuthorizedReq(ctx, "DELETE", path, token, nil, nil); err != nil {
		return errors.Wrapf(err, "deleting the group %s", id)
	}

	return nil
}
