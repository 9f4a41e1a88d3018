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

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/unikorn-cloud/geefixture/pkg/config"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	// ErrMissingProject is raised when no project can be found in either
	// the configuration or the credentials.
	ErrMissingProject = errors.New("the project name cannot be detected, set EARTHENGINE_PROJECT")

	// ErrInvalidToken is raised when an earthengine credentials token
	// cannot be used.
	ErrInvalidToken = errors.New("invalid earthengine token")

	// ErrInvalidServiceAccount is raised when a service account key cannot
	// be used.
	ErrInvalidServiceAccount = errors.New("invalid service account key")

	// ErrNoCredentials is raised when no credentials are configured and
	// application default credentials cannot be found.
	ErrNoCredentials = errors.New("no credentials found")
)

//nolint:gochecknoglobals
var (
	// Scopes are the OAuth2 scopes requested for every credential.
	Scopes = []string{
		"https://www.googleapis.com/auth/earthengine",
		"https://www.googleapis.com/auth/cloud-platform",
	}
)

// Method records where credentials came from.
type Method string

const (
	MethodToken           Method = "token"
	MethodServiceAccount  Method = "service-account"
	MethodCredentialsFile Method = "credentials-file"
	MethodDefault         Method = "application-default"
	MethodStatic          Method = "static"
)

// Credentials are a resolved token source and the project to bill.
type Credentials struct {
	TokenSource oauth2.TokenSource
	ProjectID   string
	Method      Method
}

// HTTPClient returns a client that authorizes every request.
func (c *Credentials) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, c.TokenSource)
}

// token is the layout of the earthengine CLI credentials file.
type token struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RefreshToken string   `json:"refresh_token"`
	Project      string   `json:"project,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
}

// authorizedUser is the google application credentials layout the token
// is translated into.
type authorizedUser struct {
	Type           string `json:"type"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	RefreshToken   string `json:"refresh_token"`
	QuotaProjectID string `json:"quota_project_id,omitempty"`
}

type serviceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	ProjectID   string `json:"project_id"`
}

// New resolves credentials in order: token, service account, the local
// earthengine credentials file, then application default credentials.
// The project is required and resolved before any remote call is made.
func New(ctx context.Context, c *config.Config) (*Credentials, error) {
	log := log.FromContext(ctx)

	credentials, err := resolve(ctx, c)
	if err != nil {
		if c.ProjectID == "" {
			return nil, fmt.Errorf("%w: %w", ErrMissingProject, err)
		}

		return nil, err
	}

	if c.ProjectID != "" {
		credentials.ProjectID = c.ProjectID
	}

	if credentials.ProjectID == "" {
		return nil, ErrMissingProject
	}

	log.V(1).Info("resolved credentials", "method", credentials.Method, "project", credentials.ProjectID)

	return credentials, nil
}

func resolve(ctx context.Context, c *config.Config) (*Credentials, error) {
	switch {
	case c.Token != "":
		if c.PersistToken {
			if err := WriteCredentialsFile(c.Token); err != nil {
				return nil, err
			}
		}

		return FromToken(ctx, []byte(c.Token))
	case c.ServiceAccount != "":
		return FromServiceAccount(ctx, []byte(c.ServiceAccount))
	}

	path, err := CredentialsPath()
	if err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(path); err == nil {
		credentials, err := FromToken(ctx, data)
		if err != nil {
			return nil, err
		}

		credentials.Method = MethodCredentialsFile

		return credentials, nil
	}

	credentials, err := google.FindDefaultCredentials(ctx, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCredentials, err)
	}

	return &Credentials{
		TokenSource: credentials.TokenSource,
		ProjectID:   credentials.ProjectID,
		Method:      MethodDefault,
	}, nil
}

// FromToken builds credentials from the content of an earthengine CLI
// credentials file.
func FromToken(ctx context.Context, data []byte) (*Credentials, error) {
	var t token

	if err := json.Unmarshal([]byte(config.Unquote(string(data))), &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if t.RefreshToken == "" || t.ClientID == "" || t.ClientSecret == "" {
		return nil, fmt.Errorf("%w: refresh_token, client_id and client_secret are required", ErrInvalidToken)
	}

	scopes := t.Scopes
	if len(scopes) == 0 {
		scopes = Scopes
	}

	user, err := json.Marshal(&authorizedUser{
		Type:           "authorized_user",
		ClientID:       t.ClientID,
		ClientSecret:   t.ClientSecret,
		RefreshToken:   t.RefreshToken,
		QuotaProjectID: t.Project,
	})
	if err != nil {
		return nil, err
	}

	credentials, err := google.CredentialsFromJSON(ctx, user, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return &Credentials{
		TokenSource: oauth2.ReuseTokenSource(nil, credentials.TokenSource),
		ProjectID:   t.Project,
		Method:      MethodToken,
	}, nil
}

// FromServiceAccount builds credentials from a service account key.
func FromServiceAccount(ctx context.Context, data []byte) (*Credentials, error) {
	data = []byte(config.Unquote(string(data)))

	var key serviceAccount

	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidServiceAccount, err)
	}

	if key.Type != "service_account" || key.ClientEmail == "" {
		return nil, fmt.Errorf("%w: expected a service_account key with a client_email", ErrInvalidServiceAccount)
	}

	credentials, err := google.CredentialsFromJSON(ctx, data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidServiceAccount, err)
	}

	return &Credentials{
		TokenSource: credentials.TokenSource,
		ProjectID:   key.ProjectID,
		Method:      MethodServiceAccount,
	}, nil
}

// Static wraps a fixed access token, used against test servers.
func Static(accessToken, projectID string) *Credentials {
	return &Credentials{
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
		ProjectID:   projectID,
		Method:      MethodStatic,
	}
}

// CredentialsPath is where the earthengine CLI keeps its credentials on
// every platform.
func CredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}

	return filepath.Join(home, ".config", "earthengine", "credentials"), nil
}

// WriteCredentialsFile stores a token where the earthengine CLI expects it.
func WriteCredentialsFile(data string) error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(config.Unquote(data)), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}
