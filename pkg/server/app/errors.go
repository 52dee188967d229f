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
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is an error for a missing resource, or one owned by another user
	ErrNotFound = errors.New("not found")
	// ErrLoginInvalid is an error for mismatching login credentials
	ErrLoginInvalid = errors.New("wrong login credentials")
	// ErrEmailRequired is an error for a missing email
	ErrEmailRequired = errors.New("Please enter an email")
	// ErrPasswordRequired is an error for a missing password
	ErrPasswordRequired = errors.New("Please enter a password")
	// ErrPasswordTooShort is an error for a password shorter than the minimum length
	ErrPasswordTooShort = errors.New("password should be longer than 8 characters")
	// ErrDuplicateEmail is an error for an email already taken by another user
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrRegistrationDisabled is an error for creating a user when registration is off
	ErrRegistrationDisabled = errors.New("registration is disabled")
	// ErrGroupNameRequired is an error for a group without a name
	ErrGroupNameRequired = errors.New("group name is required")
	// ErrCollaboratorInvalid is an error for a collaborator without an id
	ErrCollaboratorInvalid = errors.New("collaborator id is required")
	// ErrSessionExpired is an error for an expired session
	ErrSessionExpired = errors.New("session expired")
)
