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

// Package session holds the state shared by every test in a run: the API
// client, a unique hash and the remote test folder built from it.
package session

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/unikorn-cloud/geefixture/pkg/assets"
	"github.com/unikorn-cloud/geefixture/pkg/auth"
	"github.com/unikorn-cloud/geefixture/pkg/config"
	"github.com/unikorn-cloud/geefixture/pkg/earthengine"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
	"github.com/unikorn-cloud/geefixture/pkg/regression"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

type options struct {
	credentials *auth.Credentials
	client      *earthengine.Client
	structure   assets.Tree
}

// Option customizes a Session.
type Option func(*options)

// WithCredentials skips credential resolution.
func WithCredentials(credentials *auth.Credentials) Option {
	return func(o *options) {
		o.credentials = credentials
	}
}

// WithClient uses an existing API client, credentials are not resolved.
func WithClient(client *earthengine.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithStructure sets the tree created in the test folder, empty by default.
func WithStructure(structure assets.Tree) Option {
	return func(o *options) {
		o.structure = structure
	}
}

// Session is shared by all tests of a run.
type Session struct {
	config    *config.Config
	client    *earthengine.Client
	hash      string
	structure assets.Tree

	lock    sync.Mutex
	created bool
	folder  string
	err     error
}

// NewHash returns 32 random hex characters.
func NewHash() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// New resolves credentials and builds the client.  A missing project is
// reported here, before anything remote happens.
func New(ctx context.Context, c *config.Config, opts ...Option) (*Session, error) {
	log := log.FromContext(ctx)

	o := &options{
		structure: assets.Tree{},
	}

	for _, opt := range opts {
		opt(o)
	}

	client := o.client

	if client == nil {
		credentials := o.credentials

		if credentials == nil {
			var err error

			if credentials, err = auth.New(ctx, c); err != nil {
				return nil, err
			}
		}

		client = earthengine.New(ctx, c, credentials)
	}

	s := &Session{
		config:    c,
		client:    client,
		hash:      NewHash(),
		structure: o.structure,
	}

	log.Info("session started", "project", client.ProjectID(), "hash", s.hash)

	return s, nil
}

// Client is the session's API client.
func (s *Session) Client() *earthengine.Client {
	return s.client
}

// Hash is unique to the session and prefixes the test folder.
func (s *Session) Hash() string {
	return s.hash
}

// Root is the project's asset root.
func (s *Session) Root() string {
	return s.client.Root()
}

// Structure is the tree the test folder is populated with.
func (s *Session) Structure() assets.Tree {
	return s.structure
}

// TestFolder creates <root>/<hash> with the session structure on first use
// and returns it.  Later calls return the same folder and error.
func (s *Session) TestFolder(ctx context.Context) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.created {
		s.created = true
		s.folder, s.err = assets.InitTree(ctx, s.client, s.structure, s.hash, s.Root(), assets.OptionsFromConfig(s.config))
	}

	return s.folder, s.err
}

// Close deletes the test folder if one was created, even partially.
func (s *Session) Close(ctx context.Context) error {
	log := log.FromContext(ctx)

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.folder == "" {
		return nil
	}

	deleted, err := assets.DeleteAssets(ctx, s.client, s.folder, false)
	if err != nil {
		return err
	}

	log.Info("deleted test folder", "folder", s.folder, "assets", len(deleted))

	s.folder = ""

	return nil
}

// Evaluate computes any object and returns its decoded value.
func (s *Session) Evaluate(ctx context.Context, object ee.ComputedObject) (any, error) {
	return s.client.ComputeValue(ctx, ee.Build(object))
}

func (s *Session) fixtureOptions(opts []regression.FixtureOption) []regression.FixtureOption {
	return append([]regression.FixtureOption{regression.WithDataDir(s.config.DataDir)}, opts...)
}

// ListRegression returns a list fixture writing to the configured data
// directory.
func (s *Session) ListRegression(t testing.TB, opts ...regression.FixtureOption) *regression.ListFixture {
	return regression.NewList(t, s.client, s.fixtureOptions(opts)...)
}

// DictionaryRegression returns a dictionary fixture.
func (s *Session) DictionaryRegression(t testing.TB, opts ...regression.FixtureOption) *regression.DictionaryFixture {
	return regression.NewDictionary(t, s.client, s.fixtureOptions(opts)...)
}

// FeatureCollectionRegression returns a feature collection fixture.
func (s *Session) FeatureCollectionRegression(t testing.TB, opts ...regression.FixtureOption) *regression.FeatureCollectionFixture {
	return regression.NewFeatureCollection(t, s.client, s.fixtureOptions(opts)...)
}

// ImageRegression returns an image fixture.
func (s *Session) ImageRegression(t testing.TB, opts ...regression.FixtureOption) *regression.ImageFixture {
	return regression.NewImage(t, s.client, s.fixtureOptions(opts)...)
}
