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

// Package consts provides definitions of constants
package consts

var (
	// NotesyncDirName is the name of the directory containing notesync files
	NotesyncDirName = "notesync"
	// NotesyncDBFileName is a filename for the local cache database
	NotesyncDBFileName = "notesync.db"
	// TmpContentFileBase is the base for the filename for a temporary content
	TmpContentFileBase = "NOTESYNC_TMPCONTENT"
	// TmpContentFileExt is the extension for the temporary content file
	TmpContentFileExt = "md"
	// ConfigFilename is the name of the config file
	ConfigFilename = "notesyncrc"

	// ProvisionalIDPrefix marks ids minted locally before the server assigned one
	ProvisionalIDPrefix = "local-"
)

// Keys of the local cache store
const (
	// KeyNotes holds the serialized note collection
	KeyNotes = "notes"
	// KeyGroups holds the serialized group collection
	KeyGroups = "groups_data"
	// KeyPendingNotes holds the queue of note mutations awaiting replay
	KeyPendingNotes = "pendingNotes"
	// KeyDeletedNoteIDs holds the ledger of unconfirmed remote deletions
	KeyDeletedNoteIDs = "deletedNoteIds"
	// KeyUserToken holds the bearer token of the signed in user
	KeyUserToken = "userToken"
	// KeyUserInfo holds the profile of the signed in user
	KeyUserInfo = "userInfo"
)
