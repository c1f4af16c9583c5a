// Package jiratest provides an in-process fake JIRA server for tests.
//
// The fake covers exactly the endpoints the client uses and records every
// write so tests can assert on what would have hit a real instance.
package jiratest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Update is a recorded PUT /issue/{key}.
type Update struct {
	Key  string
	Body string
}

// Comment is a recorded POST /issue/{key}/comment.
type Comment struct {
	Key  string
	Body string
}

// Rank is a recorded PUT /agile/1.0/issue/rank.
type Rank struct {
	Key    string
	Before string
	After  string
}

// Server is a fake JIRA instance.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	fields     []field
	issues     map[string]string
	searches   map[string][]string
	failIssues int

	updates  []Update
	comments []Comment
	ranks    []Rank
}

type field struct {
	id   string
	name string
}

// New starts a fake server. Callers own Close.
func New() *Server {
	s := &Server{
		issues:   make(map[string]string),
		searches: make(map[string][]string),
	}

	r := mux.NewRouter()
	r.HandleFunc("/rest/api/2/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/rest/api/2/field", s.handleFields).Methods(http.MethodGet)
	r.HandleFunc("/rest/api/2/issue/{key}", s.handleGetIssue).Methods(http.MethodGet)
	r.HandleFunc("/rest/api/2/issue/{key}", s.handleUpdateIssue).Methods(http.MethodPut)
	r.HandleFunc("/rest/api/2/issue/{key}/comment", s.handleComment).Methods(http.MethodPost)
	r.HandleFunc("/rest/agile/1.0/issue/rank", s.handleRank).Methods(http.MethodPut)

	s.Server = httptest.NewServer(r)
	return s
}

// AddField registers a field catalog entry.
func (s *Server) AddField(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = append(s.fields, field{id: id, name: name})
}

// AddIssue stores a raw issue document, retrievable by key and referencable
// from search results.
func (s *Server) AddIssue(key, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues[key] = raw
}

// SetSearch fixes the ordered result keys for an exact JQL string.
func (s *Server) SetSearch(jql string, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches[jql] = keys
}

// FailIssueGets makes the next n single-issue GETs return HTTP 500.
func (s *Server) FailIssueGets(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failIssues = n
}

// Updates returns the recorded issue updates.
func (s *Server) Updates() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Update(nil), s.updates...)
}

// Comments returns the recorded comments.
func (s *Server) Comments() []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Comment(nil), s.comments...)
}

// Ranks returns the recorded rank moves.
func (s *Server) Ranks() []Rank {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Rank(nil), s.ranks...)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jql := r.URL.Query().Get("jql")
	keys := s.searches[jql]

	startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
	maxResults, err := strconv.Atoi(r.URL.Query().Get("maxResults"))
	if err != nil || maxResults <= 0 {
		maxResults = 50
	}

	var raws []string
	for i := startAt; i < len(keys) && i < startAt+maxResults; i++ {
		raw, ok := s.issues[keys[i]]
		if !ok {
			http.Error(w, fmt.Sprintf("search references unknown issue %q", keys[i]), http.StatusInternalServerError)
			return
		}
		raws = append(raws, raw)
	}

	body := fmt.Sprintf(`{"startAt":%d,"maxResults":%d,"total":%d,"issues":[%s]}`,
		startAt, maxResults, len(keys), strings.Join(raws, ","))
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func (s *Server) handleFields(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := "[]"
	for _, f := range s.fields {
		entry, _ := sjson.Set(`{}`, "id", f.id)
		entry, _ = sjson.Set(entry, "name", f.name)
		body, _ = sjson.SetRaw(body, "-1", entry)
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failIssues > 0 {
		s.failIssues--
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	key := mux.Vars(r)["key"]
	raw, ok := s.issues[key]
	if !ok {
		http.Error(w, fmt.Sprintf("issue %q not found", key), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, raw)
}

func (s *Server) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	body := readBody(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issues[key]; !ok {
		http.Error(w, fmt.Sprintf("issue %q not found", key), http.StatusNotFound)
		return
	}
	s.updates = append(s.updates, Update{Key: key, Body: body})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	body := readBody(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, Comment{Key: key, Body: gjson.Get(body, "body").String()})
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranks = append(s.ranks, Rank{
		Key:    gjson.Get(body, "issues.0").String(),
		Before: gjson.Get(body, "rankBeforeIssue").String(),
		After:  gjson.Get(body, "rankAfterIssue").String(),
	})
	w.WriteHeader(http.StatusNoContent)
}

func readBody(r *http.Request) string {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return ""
	}
	return string(data)
}

// IssueJSON builds a raw issue document. Map keys are sjson paths under
// "fields", so nested values read naturally: {"status.name": "New"}.
func IssueJSON(key string, fields map[string]any) string {
	body, _ := sjson.Set(`{}`, "key", key)
	for path, value := range fields {
		body, _ = sjson.Set(body, "fields."+path, value)
	}
	return body
}
