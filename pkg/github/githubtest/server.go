// Package githubtest provides an in-memory GitHub GraphQL server for tests.
//
// The server executes a reduced GitHub schema against read-only fixtures.
// Mutations validate their input and return what GitHub would return, but
// nothing is ever written back, so every request sees the same data.
package githubtest

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	gqlgo "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
)

//go:embed schema.graphql
var schemaSDL string

// Path is where the GraphQL endpoint is served
const Path = "/graphql"

// Mutation is a recorded mutation call
type Mutation struct {
	Name  string
	Input map[string]any
	Err   error
}

// Option configures a Handler
type Option func(*Handler)

// WithFixtures replaces the embedded fixtures
func WithFixtures(fx Fixtures) Option {
	return func(h *Handler) {
		h.fixtures = fx
	}
}

// WithToken makes the handler reject requests without this bearer token
func WithToken(token string) Option {
	return func(h *Handler) {
		h.token = token
	}
}

// WithIDGenerator replaces the random node id generator
func WithIDGenerator(gen func(prefix string) string) Option {
	return func(h *Handler) {
		h.newID = gen
	}
}

// Handler serves GraphQL requests against fixtures
type Handler struct {
	fixtures Fixtures
	schema   *gqlgo.Schema
	token    string
	newID    func(prefix string) string

	mu        sync.Mutex
	requests  int
	mutations []Mutation
}

// NewHandler creates a handler over the embedded fixtures
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		fixtures: DefaultFixtures(),
		newID: func(prefix string) string {
			return prefix + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.schema = gqlgo.MustParseSchema(schemaSDL, &rootResolver{h: h}, gqlgo.UseFieldResolvers())
	return h
}

// Fixtures returns the data the handler serves
func (h *Handler) Fixtures() Fixtures {
	return h.fixtures
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "Method Not Allowed"})
		return
	}
	if h.token != "" && !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"message":           "Bad credentials",
			"documentation_url": "https://docs.github.com/graphql",
		})
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Problems parsing JSON"})
		return
	}

	h.mu.Lock()
	h.requests++
	h.mu.Unlock()

	resp := h.schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)

	body := map[string]any{"data": nil}
	if len(resp.Data) > 0 {
		body["data"] = resp.Data
	}
	if len(resp.Errors) > 0 {
		body["errors"] = flattenErrors(resp.Errors)
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) authorized(r *http.Request) bool {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	return ok && strings.EqualFold(scheme, "bearer") && token == h.token
}

// flattenErrors copies extension keys onto the error object itself, the
// way GitHub reports "type" next to "message"
func flattenErrors(errs []*gqlerrors.QueryError) []map[string]any {
	out := make([]map[string]any, 0, len(errs))
	for _, e := range errs {
		entry := map[string]any{"message": e.Message}
		if len(e.Locations) > 0 {
			entry["locations"] = e.Locations
		}
		if len(e.Path) > 0 {
			entry["path"] = e.Path
		}
		if len(e.Extensions) > 0 {
			entry["extensions"] = e.Extensions
			for k, v := range e.Extensions {
				if _, taken := entry[k]; !taken {
					entry[k] = v
				}
			}
		}
		out = append(out, entry)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) record(name string, input any, err error) {
	m := Mutation{Name: name, Err: err}
	if raw, marshalErr := json.Marshal(input); marshalErr == nil {
		_ = json.Unmarshal(raw, &m.Input)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, m)
}

// Mutations returns the mutations executed so far, in order
func (h *Handler) Mutations() []Mutation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Mutation(nil), h.mutations...)
}

// MutationNames returns the names of the executed mutations, in order
func (h *Handler) MutationNames() []string {
	mutations := h.Mutations()
	names := make([]string, 0, len(mutations))
	for _, m := range mutations {
		names = append(names, m.Name)
	}
	return names
}

// Requests returns the number of GraphQL documents executed
func (h *Handler) Requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests
}

// Server is a Handler behind an httptest server
type Server struct {
	*Handler
	HTTP *httptest.Server

	// URL is the GraphQL endpoint
	URL string
}

// NewServer starts a server that is closed when the test ends
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	h := NewHandler(opts...)
	mux := http.NewServeMux()
	mux.Handle(Path, h)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &Server{Handler: h, HTTP: srv, URL: srv.URL + Path}
}
