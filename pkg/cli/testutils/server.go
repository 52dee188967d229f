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

package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dnote/notesync/pkg/cli/client"
	"github.com/gorilla/mux"
)

// DefaultToken is the session token accepted by a test server
const DefaultToken = "test-session-token"

// Server is an in-memory notesync API used in tests. It can be taken offline
// and made to fail individual routes.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	token    string
	offline  bool
	failures map[string]int
	notes    map[string]client.RespNote
	groups   map[string]client.RespGroup
	nextID   int
	nextTask int
	requests []string
	now      time.Time
	gates    map[string]*Gate
	held     []*Gate
	dropped  map[string]bool
	keys     map[string]string
}

// Gate holds a single request inside the server until it is released
type Gate struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Arrived is closed once the held request has reached the server
func (g *Gate) Arrived() <-chan struct{} {
	return g.arrived
}

// Release lets the held request proceed. It is safe to call more than once.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// NewServer starts a test server that accepts DefaultToken
func NewServer() *Server {
	s := &Server{
		token:    DefaultToken,
		failures: map[string]int{},
		gates:    map[string]*Gate{},
		dropped:  map[string]bool{},
		keys:     map[string]string{},
		notes:    map[string]client.RespNote{},
		groups:   map[string]client.RespGroup{},
		now:      time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/v3/signin", s.signin).Methods("POST")
	r.HandleFunc("/v3/signout", s.auth(s.signout)).Methods("POST")
	r.HandleFunc("/v3/notes", s.auth(s.listNotes)).Methods("GET")
	r.HandleFunc("/v3/notes", s.auth(s.createNote)).Methods("POST")
	r.HandleFunc("/v3/notes/{id}", s.auth(s.updateNote)).Methods("PATCH")
	r.HandleFunc("/v3/notes/{id}", s.auth(s.deleteNote)).Methods("DELETE")
	r.HandleFunc("/v3/groups", s.auth(s.listGroups)).Methods("GET")
	r.HandleFunc("/v3/groups", s.auth(s.createGroup)).Methods("POST")
	r.HandleFunc("/v3/groups/{id}", s.auth(s.updateGroup)).Methods("PATCH")
	r.HandleFunc("/v3/groups/{id}", s.auth(s.deleteGroup)).Methods("DELETE")

	s.Server = httptest.NewServer(s.intercept(r))

	return s
}

// NewClient returns a client pointed at the server
func (s *Server) NewClient() *client.Client {
	return client.New(s.URL, "test", s.Client())
}

// SetOffline makes every request fail at the transport level
func (s *Server) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offline = offline
}

// FailWith makes requests with the given method and path respond with the status code
func (s *Server) FailWith(method, path string, statusCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[method+" "+path] = statusCode
}

// ClearFailures removes every failure set by FailWith
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = map[string]int{}
}

// Hold makes the next request with the given method and path wait until the
// returned gate is released. The request is handled before it is held, so the
// response carries the state of the server at arrival. Closing the server
// releases every gate.
func (s *Server) Hold(method, path string) *Gate {
	g := &Gate{arrived: make(chan struct{}), release: make(chan struct{})}

	s.mu.Lock()
	s.gates[method+" "+path] = g
	s.held = append(s.held, g)
	s.mu.Unlock()

	return g
}

// DropResponses makes requests with the given method and path take effect
// on the server while the connection is cut before any response is written
func (s *Server) DropResponses(method, path string, drop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropped[method+" "+path] = drop
}

// Close releases every held request and shuts the server down
func (s *Server) Close() {
	s.mu.Lock()
	for _, g := range s.held {
		g.Release()
	}
	s.mu.Unlock()

	s.Server.Close()
}

// SeedNote stores a note as if it had been created earlier
func (s *Server) SeedNote(n client.RespNote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes[n.ID] = n
}

// SeedGroup stores a group as if it had been created earlier
func (s *Server) SeedGroup(g client.RespGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups[g.ID] = g
}

// Notes returns the stored notes ordered by id
func (s *Server) Notes() []client.RespNote {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortedNotes()
}

// Groups returns the stored groups ordered by id
func (s *Server) Groups() []client.RespGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret := []client.RespGroup{}
	for _, g := range s.groups {
		ret = append(ret, g)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })

	return ret
}

// Requests returns the "METHOD path" of every request that reached a handler
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requests...)
}

// CountRequests returns how many requests with the method and path reached a handler
func (s *Server) CountRequests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	for _, r := range s.requests {
		if r == method+" "+path {
			count++
		}
	}

	return count
}

func (s *Server) sortedNotes() []client.RespNote {
	ret := []client.RespNote{}
	for _, n := range s.notes {
		ret = append(ret, n)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })

	return ret
}

func (s *Server) newID() string {
	s.nextID++
	return strconv.Itoa(100 + s.nextID)
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path

		s.mu.Lock()
		offline := s.offline
		status, failing := s.failures[route]
		dropped := s.dropped[route]
		gate := s.gates[route]
		delete(s.gates, route)
		s.mu.Unlock()

		if offline {
			panic(http.ErrAbortHandler)
		}
		if failing {
			http.Error(w, http.StatusText(status), status)
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, route)
		s.mu.Unlock()

		if dropped {
			next.ServeHTTP(httptest.NewRecorder(), r)
			panic(http.ErrAbortHandler)
		}
		if gate != nil {
			// the response reflects the state before the gate is released
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r)

			close(gate.arrived)
			<-gate.release

			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			w.Write(rec.Body.Bytes())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != fmt.Sprintf("Bearer %s", s.token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) signin(w http.ResponseWriter, r *http.Request) {
	var p client.SigninPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Password == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, client.SigninResponse{
		Key:       s.token,
		ExpiresAt: s.now.Add(24 * time.Hour).Unix(),
		Email:     p.Email,
	})
}

func (s *Server) signout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, client.ListNotesResp{Notes: s.Notes()})
}

// respTasks assigns an id to every task without one
func (s *Server) respTasks(tasks []client.TaskPayload) []client.TaskPayload {
	ret := make([]client.TaskPayload, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			s.nextTask++
			t.ID = "task-" + strconv.Itoa(s.nextTask)
		}
		ret = append(ret, t)
	}

	return ret
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var p client.NotePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if id, ok := s.keys[p.ClientKey]; ok && p.ClientKey != "" {
		n := s.notes[id]
		s.mu.Unlock()
		respondJSON(w, http.StatusCreated, n)
		return
	}

	createdAt := s.now
	if p.CreatedAt != nil {
		createdAt = *p.CreatedAt
	}
	n := client.RespNote{
		ID:        s.newID(),
		Title:     p.Title,
		Text:      p.Text,
		Tasks:     s.respTasks(p.Tasks),
		CreatedAt: createdAt,
		UpdatedAt: s.now,
	}
	s.notes[n.ID] = n
	if p.ClientKey != "" {
		s.keys[p.ClientKey] = n.ID
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, n)
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var p client.NotePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	n, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	n.Title = p.Title
	n.Text = p.Text
	n.Tasks = s.respTasks(p.Tasks)
	n.UpdatedAt = s.now
	s.notes[id] = n
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	_, ok := s.notes[id]
	delete(s.notes, id)
	s.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, client.ListGroupsResp{Groups: s.Groups()})
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var p client.GroupPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	g := client.RespGroup{ID: s.newID(), Name: p.Name, Collaborators: p.Collaborators}
	s.groups[g.ID] = g
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, g)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var p client.GroupPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	g, ok := s.groups[id]
	if !ok {
		s.mu.Unlock()
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	g.Name = p.Name
	g.Collaborators = p.Collaborators
	s.groups[id] = g
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, g)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	_, ok := s.groups[id]
	delete(s.groups, id)
	s.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
