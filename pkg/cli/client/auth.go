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

	"github.com/pkg/errors"
)

// SigninPayload is a payload for /v3/signin
type SigninPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninResponse is a response from /v3/signin endpoint
type SigninResponse struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
	Email     string `json:"email"`
}

// Signin requests a session token
func (c *Client) Signin(ctx context.Context, email, password string) (SigninResponse, error) {
	payload := SigninPayload{
		Email:    email,
		Password: password,
	}

	var resp SigninResponse
	if err := c.doReq(ctx, "POST", "/v3/signin", "", payload, &resp); err != nil {
		if IsUnauthorized(err) {
			return SigninResponse{}, ErrInvalidLogin
		}
		return SigninResponse{}, errors.Wrap(err, "making http request")
	}

	return resp, nil
}

// Signout deletes a user session on the server side
func (c *Client) Signout(ctx context.Context, token string) error {
	if err := c.doAuthorizedReq(ctx, "POST", "/v3/signout", token, nil, nil); err != nil {
		return errors.Wrap(err, "making http request")
	}

	return nil
}
