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

// Package orchestrator implements the offline-first synchronization engine.
//
// Every mutation is applied to the local collections and persisted before
// the server is contacted. Note mutations that cannot reach the server are
// queued and replayed when connectivity returns. Deletions that cannot be
// confirmed are kept in a ledger and retried.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/dnote/notesync/pkg/cli/connectivity"
	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/database"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/observable"
	"github.com/dnote/notesync/pkg/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Remote is the server API used by the orchestrator
type Remote interface {
	ListNotes(ctx context.Context, token string) ([]client.RespNote, error)
	CreateNote(ctx context.Context, token string, payload client.NotePayload) (client.RespNote, error)
	UpdateNote(ctx context.Context, token, id string, payload client.NotePayload) (client.RespNote, error)
	DeleteNote(ctx context.Context, token, id string) error

	ListGroups(ctx context.Context, token string) ([]client.RespGroup, error)
	CreateGroup(ctx context.Context, token string, payload client.GroupPayload) (client.RespGroup, error)
	UpdateGroup(ctx context.Context, token, id string, payload client.GroupPayload) (client.RespGroup, error)
	DeleteGroup(ctx context.Context, token, id string) error
}

// Session supplies the token of the signed in user
type Session interface {
	Token() (string, bool)
}

// Params are the dependencies of an Orchestrator
type Params struct {
	DB      *database.DB
	Remote  Remote
	Session Session
	// Observer is optional. When set, a transition to online triggers Reconcile.
	Observer     connectivity.Observer
	Clock        clock.Clock
	Retry        RetryPolicy
	ReplayPolicy ReplayPolicy
	// DeleteConcurrency limits the number of concurrent remote deletes
	DeleteConcurrency int
}

// Orchestrator owns the in-memory note and group collections and keeps them
// converging with the server. Listeners registered with SubscribeNotes and
// SubscribeGroups must not call back into the orchestrator synchronously.
type Orchestrator struct {
	db        *database.DB
	remote    Remote
	session   Session
	observer  connectivity.Observer
	clock     clock.Clock
	retry     RetryPolicy
	replay    ReplayPolicy
	deleteMax int

	// mu guards the fields below. It is never held across a network call.
	mu      sync.Mutex
	notes   []database.Note
	groups  []database.Group
	pending []database.PendingAction
	ledger  []string
	aliases map[string]string

	// listings counts the note listings in flight. Notes deleted meanwhile
	// are kept out of their merge even once the ledger forgets them.
	listings       int
	listingDeletes map[string]bool

	publishMu  sync.Mutex
	notesFeed  *observable.Value[[]database.Note]
	groupsFeed *observable.Value[[]database.Group]

	locks   *keyedMutex
	syncing atomic.Bool

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
	closeOnce   sync.Once
}

// New constructs an orchestrator and loads the cached state. The cached
// collections are available before any remote call is made.
func New(p Params) (*Orchestrator, error) {
	if p.DB == nil {
		return nil, errors.New("database is required")
	}
	if p.Remote == nil {
		return nil, errors.New("remote is required")
	}
	if p.Session == nil {
		return nil, errors.New("session is required")
	}
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	if p.ReplayPolicy == "" {
		p.ReplayPolicy = ReplayRetain
	}
	if p.ReplayPolicy != ReplayRetain && p.ReplayPolicy != ReplayDiscard {
		return nil, errors.Errorf("unknown replay policy '%s'", p.ReplayPolicy)
	}
	if p.DeleteConcurrency <= 0 {
		p.DeleteConcurrency = 8
	}

	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		db:        p.DB,
		remote:    p.Remote,
		session:   p.Session,
		observer:  p.Observer,
		clock:     p.Clock,
		retry:     p.Retry.withDefaults(),
		replay:    p.ReplayPolicy,
		deleteMax: p.DeleteConcurrency,
		aliases:   map[string]string{},
		locks:     newKeyedMutex(),
		ctx:       ctx,
		cancel:    cancel,
	}

	o.loadCache()
	o.notesFeed = observable.New(o.Notes())
	o.groupsFeed = observable.New(o.Groups())

	if o.observer != nil {
		o.unsubscribe = o.observer.Subscribe(o.HandleConnectivity)
	}

	return o, nil
}

// Close stops reacting to connectivity changes and waits for background
// reconciliation to finish
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		if o.unsubscribe != nil {
			o.unsubscribe()
		}
		o.cancel()
		o.wg.Wait()
		o.notesFeed.Clear()
		o.groupsFeed.Clear()
	})
}

// readCacheKey reads a key, logging and ignoring a storage failure
func (o *Orchestrator) readCacheKey(key string, dest interface{}) {
	if _, err := database.ReadKey(o.db, key, dest); err != nil {
		log.Warnf("reading cached %s: %s\n", key, err.Error())
	}
}

func (o *Orchestrator) loadCache() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.readCacheKey(consts.KeyNotes, &o.notes)
	o.readCacheKey(consts.KeyGroups, &o.groups)
	o.readCacheKey(consts.KeyPendingNotes, &o.pending)
	o.readCacheKey(consts.KeyDeletedNoteIDs, &o.ledger)

	// a crash between two writes of an older version may have left the
	// flag out of step with the queue
	for i := range o.notes {
		o.notes[i].Unsynced = o.hasPendingLocked(o.notes[i].ID)
	}
	for i := range o.pending {
		if o.pending[i].ID == "" {
			o.pending[i].ID = uuid.NewString()
		}
		if o.pending[i].Status == "" {
			o.pending[i].Status = database.ActionPending
		}
	}
}

// persistLocked writes the given keys in a single transaction. A storage
// failure is logged and the in-memory state is kept.
func (o *Orchestrator) persistLocked(keys ...string) {
	values := map[string]interface{}{}
	for _, k := range keys {
		switch k {
		case consts.KeyNotes:
			values[k] = nonNilNotes(o.notes)
		case consts.KeyGroups:
			values[k] = nonNilGroups(o.groups)
		case consts.KeyPendingNotes:
			values[k] = nonNilActions(o.pending)
		case consts.KeyDeletedNoteIDs:
			values[k] = nonNilStrings(o.ledger)
		}
	}

	if err := database.WriteKeys(o.db, values); err != nil {
		log.Warnf("persisting %v: %s\n", keys, err.Error())
	}
}

// publish notifies the note and group listeners with the latest state
func (o *Orchestrator) publish() {
	o.publishMu.Lock()
	defer o.publishMu.Unlock()

	o.notesFeed.Set(o.Notes())
	o.groupsFeed.Set(o.Groups())
}

// Notes returns a copy of the note collection
func (o *Orchestrator) Notes() []database.Note {
	o.mu.Lock()
	defer o.mu.Unlock()

	return cloneNotes(o.notes)
}

// Groups returns a copy of the group collection
func (o *Orchestrator) Groups() []database.Group {
	o.mu.Lock()
	defer o.mu.Unlock()

	ret := make([]database.Group, 0, len(o.groups))
	for _, g := range o.groups {
		g.Collaborators = append([]database.Collaborator(nil), g.Collaborators...)
		ret = append(ret, g)
	}

	return ret
}

// Pending returns a copy of the queue of note mutations awaiting replay
func (o *Orchestrator) Pending() []database.PendingAction {
	o.mu.Lock()
	defer o.mu.Unlock()

	ret := make([]database.PendingAction, 0, len(o.pending))
	for _, a := range o.pending {
		a.Note = a.Note.Clone()
		ret = append(ret, a)
	}

	return ret
}

// Ledger returns a copy of the ids whose remote deletion is unconfirmed
func (o *Orchestrator) Ledger() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string{}, o.ledger...)
}

// Note returns the note with the given id. A provisional id that has since
// been replaced by a server id is resolved.
func (o *Orchestrator) Note(id string) (database.Note, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	idx := o.noteIndexLocked(o.resolveLocked(id))
	if idx == -1 {
		return database.Note{}, false
	}

	return o.notes[idx].Clone(), true
}

// SubscribeNotes registers a listener for the note collection and returns a
// function that removes it
func (o *Orchestrator) SubscribeNotes(fn func([]database.Note)) func() {
	return o.notesFeed.Subscribe(fn)
}

// SubscribeGroups registers a listener for the group collection and returns
// a function that removes it
func (o *Orchestrator) SubscribeGroups(fn func([]database.Group)) func() {
	return o.groupsFeed.Subscribe(fn)
}

// HandleConnectivity reacts to a connectivity transition. Going online
// starts a reconciliation in the background.
func (o *Orchestrator) HandleConnectivity(online bool) {
	if !online {
		return
	}
	if o.ctx.Err() != nil {
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		st := o.Reconcile(o.ctx)
		log.Debug("reconciled after reconnecting. status: %s\n", st)
	}()
}

// Run retries due work on every tick of the retry interval while online,
// until the context is done or the orchestrator is closed
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.retry.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.ctx.Done():
			return nil
		case <-ticker.C:
			if o.observer != nil && !o.observer.Online() {
				continue
			}
			if !o.hasDueWork() {
				continue
			}

			st := o.reconcile(ctx, false)
			log.Debug("retried due work. status: %s\n", st)
		}
	}
}

func (o *Orchestrator) hasDueWork() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.ledger) > 0 {
		return true
	}

	now := o.clock.Now()
	for _, a := range o.pending {
		if a.Status == database.ActionPending && !a.NextAttemptAt.After(now) {
			return true
		}
	}

	return false
}

// lockNote serializes operations on a note. It returns the id resolved
// through the provisional id aliases along with the unlock function.
func (o *Orchestrator) lockNote(id string) (string, func()) {
	unlock := o.locks.Lock(id)

	o.mu.Lock()
	resolved := o.resolveLocked(id)
	o.mu.Unlock()

	if resolved == id {
		return id, unlock
	}

	unlockResolved := o.locks.Lock(resolved)
	return resolved, func() {
		unlockResolved()
		unlock()
	}
}

func (o *Orchestrator) resolveLocked(id string) string {
	if sid, ok := o.aliases[id]; ok {
		return sid
	}

	return id
}

func (o *Orchestrator) noteIndexLocked(id string) int {
	for i, n := range o.notes {
		if n.ID == id {
			return i
		}
	}

	return -1
}

func (o *Orchestrator) groupIndexLocked(id string) int {
	for i, g := range o.groups {
		if g.ID == id {
			return i
		}
	}

	return -1
}

func newProvisionalID() string {
	return consts.ProvisionalIDPrefix + uuid.NewString()
}

func cloneNotes(notes []database.Note) []database.Note {
	ret := make([]database.Note, 0, len(notes))
	for _, n := range notes {
		ret = append(ret, n.Clone())
	}

	return ret
}

func nonNilNotes(s []database.Note) []database.Note {
	if s == nil {
		return []database.Note{}
	}
	return s
}

func nonNilGroups(s []database.Group) []database.Group {
	if s == nil {
		return []database.Group{}
	}
	return s
}

func nonNilActions(s []database.PendingAction) []database.PendingAction {
	if s == nil {
		return []database.PendingAction{}
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
