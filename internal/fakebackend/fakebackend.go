// Package fakebackend is an in-memory stand-in for the routing backend's
// REST API, used by tests across the module.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"map_console/pkg/model"
)

// Backend serves the REST contract from in-memory data. Spatial and path
// queries return canned answers set by the test.
type Backend struct {
	mu sync.Mutex

	Nodes       []model.Node
	Edges       []model.Edge
	Constraints []model.Constraint

	PolygonEdges []int64
	CircleEdges  []int64
	Path         *model.PathResult

	// Fail maps a route name ("constraints", "add-constraints", ...) to the
	// status code it should answer with instead of succeeding.
	Fail map[string]int

	hits     map[string]int
	lastBody map[string][]byte

	server *httptest.Server
}

// New starts a backend with the given graph and no constraints.
// The server is closed when the test ends.
func New(tb interface {
	Helper()
	Cleanup(func())
}, nodes []model.Node, edges []model.Edge) *Backend {
	tb.Helper()
	b := &Backend{
		Nodes:    nodes,
		Edges:    edges,
		Fail:     make(map[string]int),
		hits:     make(map[string]int),
		lastBody: make(map[string][]byte),
	}
	b.server = httptest.NewServer(b.Router())
	tb.Cleanup(b.server.Close)
	return b
}

// URL returns the server root.
func (b *Backend) URL() string {
	return b.server.URL
}

// Hits returns how many requests reached the named route.
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// LastBody returns the last request body posted to the named route.
func (b *Backend) LastBody(route string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBody[route]
}

// SetConstraints replaces the constraint list, simulating another operator.
func (b *Backend) SetConstraints(cs []model.Constraint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Constraints = cs
}

// SetFail makes route answer with status until cleared with 0.
func (b *Backend) SetFail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.Fail, route)
		return
	}
	b.Fail[route] = status
}

// Router builds the mux with every route of the API.
func (b *Backend) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/nodes", b.wrap("nodes", b.handleNodes)).Methods(http.MethodGet)
	r.HandleFunc("/api/edges", b.wrap("edges", b.handleEdges)).Methods(http.MethodGet)
	r.HandleFunc("/api/constraints", b.wrap("constraints", b.handleConstraints)).Methods(http.MethodGet)
	r.HandleFunc("/api/edges-in-polygon", b.wrap("edges-in-polygon", b.handlePolygon)).Methods(http.MethodPost)
	r.HandleFunc("/api/edges-in-circle", b.wrap("edges-in-circle", b.handleCircle)).Methods(http.MethodPost)
	r.HandleFunc("/api/add-constraints", b.wrap("add-constraints", b.handleAdd)).Methods(http.MethodPost)
	r.HandleFunc("/api/remove-constraint/{edge_id:[0-9]+}", b.wrap("remove-constraint", b.handleRemove)).Methods(http.MethodDelete)
	r.HandleFunc("/api/clear-constraints", b.wrap("clear-constraints", b.handleClear)).Methods(http.MethodPost)
	r.HandleFunc("/api/reload-graph", b.wrap("reload-graph", b.handleOK)).Methods(http.MethodPost)
	r.HandleFunc("/api/find-path", b.wrap("find-path", b.handlePath)).Methods(http.MethodPost)
	r.HandleFunc("/api/find-nearest", b.wrap("find-nearest", b.handleNearest)).Methods(http.MethodPost)
	return r
}

func (b *Backend) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[route]++
		if r.Body != nil {
			var buf json.RawMessage
			if json.NewDecoder(r.Body).Decode(&buf) == nil {
				b.lastBody[route] = buf
			}
		}
		status, failing := b.Fail[route]
		b.mu.Unlock()

		if failing {
			writeJSON(w, status, model.ErrorResponse{Error: route + " failed"})
			return
		}
		h(w, r)
	}
}

func (b *Backend) handleNodes(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Nodes)
}

func (b *Backend) handleEdges(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Edges)
}

func (b *Backend) handleConstraints(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cs := b.Constraints
	if cs == nil {
		cs = []model.Constraint{}
	}
	writeJSON(w, http.StatusOK, cs)
}

func (b *Backend) edgesByID(ids []int64) []model.Edge {
	out := []model.Edge{}
	for _, id := range ids {
		for _, e := range b.Edges {
			if e.ID == id {
				out = append(out, e)
			}
		}
	}
	return out
}

func (b *Backend) handlePolygon(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, model.EdgesResponse{Edges: b.edgesByID(b.PolygonEdges)})
}

func (b *Backend) handleCircle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, model.EdgesResponse{Edges: b.edgesByID(b.CircleEdges)})
}

func (b *Backend) handleAdd(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req model.AddConstraintsRequest
	if err := json.Unmarshal(b.lastBody["add-constraints"], &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid body"})
		return
	}
	for _, id := range req.EdgeIDs {
		b.removeLocked(id)
		b.Constraints = append(b.Constraints, model.Constraint{
			EdgeID:      id,
			Type:        req.Type,
			Value:       req.Value,
			Description: req.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) removeLocked(id int64) bool {
	for i, c := range b.Constraints {
		if c.EdgeID == id {
			b.Constraints = append(b.Constraints[:i], b.Constraints[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Backend) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["edge_id"], 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.removeLocked(id) {
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to remove constraint"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) handleClear(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Constraints = nil
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) handleOK(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) handlePath(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Path == nil {
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "No path found"})
		return
	}
	writeJSON(w, http.StatusOK, b.Path)
}

func (b *Backend) handleNearest(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Nodes) == 0 {
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "empty graph"})
		return
	}
	writeJSON(w, http.StatusOK, model.NearestResponse{NodeID: b.Nodes[0].ID, Distance: 0})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SampleGraph returns a small five-node network around the default map
// center:
//
//	1 --e10--> 2 --e11-- 3
//	|                    ^
//	e12                 e13
//	|                    |
//	4 -------e14-------- 5
//
// e10 and e13 are intrinsically oneway.
func SampleGraph() ([]model.Node, []model.Edge) {
	nodes := []model.Node{
		{ID: 1, Latitude: 20.9630, Longitude: 105.8290},
		{ID: 2, Latitude: 20.9630, Longitude: 105.8305},
		{ID: 3, Latitude: 20.9630, Longitude: 105.8320},
		{ID: 4, Latitude: 20.9615, Longitude: 105.8290},
		{ID: 5, Latitude: 20.9615, Longitude: 105.8320},
	}
	edges := []model.Edge{
		{ID: 10, FromNode: 1, ToNode: 2, Distance: 155.7, IsOneway: true},
		{ID: 11, FromNode: 2, ToNode: 3, Distance: 155.7},
		{ID: 12, FromNode: 1, ToNode: 4, Distance: 166.8},
		{ID: 13, FromNode: 5, ToNode: 3, Distance: 166.8, IsOneway: true},
		{ID: 14, FromNode: 4, ToNode: 5, Distance: 311.4},
	}
	return nodes, edges
}
