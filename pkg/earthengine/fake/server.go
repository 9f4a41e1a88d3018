/*
Copyright 2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package fake is an in-memory Earth Engine REST server for tests.  It
// implements asset storage, export operations and pluggable computation
// against the same wire types the client uses.
package fake

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/unikorn-cloud/geefixture/pkg/config"
	"github.com/unikorn-cloud/geefixture/pkg/earthengine"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

var (
	// ErrNoCompute is returned when a computation is requested but the
	// server has no compute function.
	ErrNoCompute = errors.New("no compute function configured")
)

// ComputeFunc evaluates an expression on behalf of the server.
type ComputeFunc func(expression *ee.Expression) (any, error)

type operation struct {
	earthengine.Operation

	// states are the states still to be reported, the last one sticks.
	states []earthengine.State
	// asset is created when the operation succeeds.
	asset earthengine.Asset
}

// Server is a fake Earth Engine API.
type Server struct {
	server    *httptest.Server
	projectID string

	lock         sync.Mutex
	assets       map[string]earthengine.Asset
	operations   map[string]*operation
	order        []string
	calls        map[string]int
	deleted      []string
	compute      ComputeFunc
	pixels       []byte
	exportStates []earthengine.State
	pageSize     int
	thumbnails   int
}

// Option configures a Server.
type Option func(*Server)

// WithCompute sets how value:compute requests are answered.
func WithCompute(f ComputeFunc) Option {
	return func(s *Server) {
		s.compute = f
	}
}

// WithPixels sets the bytes every thumbnail returns.
func WithPixels(pixels []byte) Option {
	return func(s *Server) {
		s.pixels = pixels
	}
}

// WithExportStates sets the states each export reports, one per poll.
func WithExportStates(states ...earthengine.State) Option {
	return func(s *Server) {
		s.exportStates = states
	}
}

// WithPageSize paginates listings.
func WithPageSize(size int) Option {
	return func(s *Server) {
		s.pageSize = size
	}
}

// New starts a fake server for a project.  Close it when done.
func New(projectID string, options ...Option) *Server {
	s := &Server{
		projectID:    projectID,
		assets:       map[string]earthengine.Asset{},
		operations:   map[string]*operation{},
		calls:        map[string]int{},
		exportStates: []earthengine.State{earthengine.StateSucceeded},
	}

	for _, o := range options {
		o(s)
	}

	router := chi.NewRouter()
	router.Post("/v1/projects/{project}/value:compute", s.computeValue)
	router.Post("/v1/projects/{project}/thumbnails", s.createThumbnail)
	router.Post("/v1/projects/{project}/assets", s.createAsset)
	router.Post("/v1/projects/{project}/image:export", s.export("EXPORT_IMAGE", earthengine.AssetTypeImage))
	router.Post("/v1/projects/{project}/table:export", s.export("EXPORT_FEATURES", earthengine.AssetTypeTable))
	router.Get("/v1/projects/{project}/operations", s.listOperations)
	router.Get("/v1/*", s.get)
	router.Delete("/v1/*", s.deleteAsset)

	s.server = httptest.NewServer(router)

	return s
}

// URL is the server's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// NewClient returns an API client talking to this server.
func (s *Server) NewClient(c *config.Config) *earthengine.Client {
	clone := *c
	clone.BaseURL = s.server.URL

	return earthengine.NewWithHTTPClient(&clone, s.projectID, s.server.Client())
}

// Root is the project's top level folder.
func (s *Server) Root() string {
	return "projects/" + s.projectID + "/assets"
}

// AddAsset seeds an asset.
func (s *Server) AddAsset(name string, assetType earthengine.AssetType) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.assets[name] = s.newAsset(name, assetType)
}

// Assets lists every stored asset name in order.
func (s *Server) Assets() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	names := make([]string, 0, len(s.assets))

	for name := range s.assets {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Deleted lists deleted asset names in deletion order.
func (s *Server) Deleted() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	return slices.Clone(s.deleted)
}

// Calls is how often an operation was requested.
func (s *Server) Calls(operation string) int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.calls[operation]
}

// Operations lists all operations in creation order.
func (s *Server) Operations() []earthengine.Operation {
	s.lock.Lock()
	defer s.lock.Unlock()

	operations := make([]earthengine.Operation, len(s.order))

	for i, name := range s.order {
		operations[i] = s.operations[name].Operation
	}

	return operations
}

func (s *Server) newAsset(name string, assetType earthengine.AssetType) earthengine.Asset {
	return earthengine.Asset{
		Type: assetType,
		Name: name,
		ID:   strings.TrimPrefix(name, s.Root()+"/"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason, message string) {
	writeJSON(w, status, &earthengine.ErrorResponse{
		Error: earthengine.Status{
			Code:    status,
			Message: message,
			Status:  reason,
		},
	})
}

func (s *Server) count(operation string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.calls[operation]++
}

func (s *Server) computeValue(w http.ResponseWriter, r *http.Request) {
	s.count("computeValue")

	var request earthengine.ComputeValueRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	if s.compute == nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", ErrNoCompute.Error())
		return
	}

	result, err := s.compute(request.Expression)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) createThumbnail(w http.ResponseWriter, r *http.Request) {
	s.count("createThumbnail")

	var request earthengine.ThumbnailRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	if request.Expression == nil || request.FileFormat != "PNG" {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "expression and PNG format required")
		return
	}

	s.lock.Lock()
	s.thumbnails++
	name := fmt.Sprintf("projects/%s/thumbnails/%d", chi.URLParam(r, "project"), s.thumbnails)
	s.lock.Unlock()

	writeJSON(w, http.StatusOK, &earthengine.Thumbnail{Name: name})
}

// parentExists must be called with the lock held.
func (s *Server) parentExists(name string) bool {
	parent := name[:strings.LastIndex(name, "/")]
	if parent == s.Root() {
		return true
	}

	asset, ok := s.assets[parent]

	return ok && asset.Type.Container()
}

func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	s.count("createAsset")

	var request earthengine.Asset

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	if !request.Type.Container() {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "only containers can be created")
		return
	}

	name := "projects/" + chi.URLParam(r, "project") + "/assets/" + r.URL.Query().Get("assetId")

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.assets[name]; ok {
		writeError(w, http.StatusConflict, "ALREADY_EXISTS", "asset already exists: "+name)
		return
	}

	if !s.parentExists(name) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "parent does not exist: "+name)
		return
	}

	asset := s.newAsset(name, request.Type)
	s.assets[name] = asset

	writeJSON(w, http.StatusOK, &asset)
}

func (s *Server) export(taskType string, assetType earthengine.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.count(taskType)

		var request earthengine.ExportRequest

		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
			return
		}

		destination := request.AssetExportOptions.EarthEngineDestination.Name

		s.lock.Lock()
		defer s.lock.Unlock()

		if !s.parentExists(destination) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "parent does not exist: "+destination)
			return
		}

		o := &operation{
			Operation: earthengine.Operation{
				Name: fmt.Sprintf("projects/%s/operations/%d", chi.URLParam(r, "project"), len(s.order)),
				Metadata: earthengine.OperationMetadata{
					Type:        "type.googleapis.com/google.earthengine.v1.OperationMetadata",
					Description: request.Description,
					TaskType:    taskType,
				},
			},
			states: slices.Clone(s.exportStates),
			asset:  s.newAsset(destination, assetType),
		}

		s.setState(o, o.states[0])

		s.operations[o.Name] = o
		s.order = append(s.order, o.Name)

		writeJSON(w, http.StatusOK, &o.Operation)
	}
}

// setState must be called with the lock held.
func (s *Server) setState(o *operation, state earthengine.State) {
	o.Metadata.State = state
	o.Done = state.Terminal()

	switch state {
	case earthengine.StateSucceeded:
		s.assets[o.asset.Name] = o.asset
	case earthengine.StateFailed:
		o.Error = &earthengine.Status{Code: 13, Message: "export failed"}
	case earthengine.StatePending, earthengine.StateRunning, earthengine.StateCancelling, earthengine.StateCancelled:
	}
}

func page[T any](items []T, r *http.Request, size int) ([]T, string) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	offset = min(offset, len(items))

	if size <= 0 || offset+size >= len(items) {
		return items[offset:], ""
	}

	return items[offset : offset+size], strconv.Itoa(offset + size)
}

func (s *Server) listOperations(w http.ResponseWriter, r *http.Request) {
	s.count("listOperations")

	operations := s.Operations()

	items, next := page(operations, r, s.pageSize)

	writeJSON(w, http.StatusOK, &earthengine.ListOperationsResponse{
		Operations:    items,
		NextPageToken: next,
	})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	switch {
	case strings.HasSuffix(name, ":getPixels"):
		s.getPixels(w)
	case strings.HasSuffix(name, ":listAssets"):
		s.listAssets(w, r, strings.TrimSuffix(name, ":listAssets"))
	case strings.Contains(name, "/operations/"):
		s.getOperation(w, name)
	default:
		s.getAsset(w, name)
	}
}

func (s *Server) getPixels(w http.ResponseWriter) {
	s.count("getPixels")

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(s.pixels)
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request, parent string) {
	s.count("listAssets")

	s.lock.Lock()

	if _, ok := s.assets[parent]; !ok && parent != s.Root() {
		s.lock.Unlock()
		writeError(w, http.StatusNotFound, "NOT_FOUND", "asset not found: "+parent)

		return
	}

	var children []earthengine.Asset

	for name, asset := range s.assets {
		if strings.HasPrefix(name, parent+"/") && !strings.Contains(strings.TrimPrefix(name, parent+"/"), "/") {
			children = append(children, asset)
		}
	}

	s.lock.Unlock()

	slices.SortFunc(children, func(a, b earthengine.Asset) int {
		return strings.Compare(a.Name, b.Name)
	})

	items, next := page(children, r, s.pageSize)

	writeJSON(w, http.StatusOK, &earthengine.ListAssetsResponse{
		Assets:        items,
		NextPageToken: next,
	})
}

func (s *Server) getOperation(w http.ResponseWriter, name string) {
	s.count("getOperation")

	s.lock.Lock()
	defer s.lock.Unlock()

	o, ok := s.operations[name]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "operation not found: "+name)
		return
	}

	if len(o.states) > 1 {
		o.states = o.states[1:]
		s.setState(o, o.states[0])
	}

	writeJSON(w, http.StatusOK, &o.Operation)
}

func (s *Server) getAsset(w http.ResponseWriter, name string) {
	s.count("getAsset")

	s.lock.Lock()
	defer s.lock.Unlock()

	asset, ok := s.assets[name]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "asset not found: "+name)
		return
	}

	writeJSON(w, http.StatusOK, &asset)
}

func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request) {
	s.count("deleteAsset")

	name := chi.URLParam(r, "*")

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.assets[name]; !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "asset not found: "+name)
		return
	}

	for other := range s.assets {
		if strings.HasPrefix(other, name+"/") {
			writeError(w, http.StatusBadRequest, "FAILED_PRECONDITION", "container is not empty: "+name)
			return
		}
	}

	delete(s.assets, name)
	s.deleted = append(s.deleted, name)

	writeJSON(w, http.StatusOK, map[string]any{})
}
