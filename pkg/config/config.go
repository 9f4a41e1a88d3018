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

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/geefixture/pkg/constants"
)

var (
	// ErrInvalidConfig is returned when one or more configuration values
	// cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is everything needed to talk to Earth Engine and manage golden
// files.  It is built once per process and passed down explicitly.
type Config struct {
	// BaseURL is the REST API endpoint.
	BaseURL string
	// Token is the content of an earthengine CLI credentials file.
	Token string
	// ServiceAccount is the content of a service account key file.
	ServiceAccount string
	// ProjectID is the cloud project requests are billed to.  When empty
	// it is taken from the credentials.
	ProjectID string
	// PersistToken writes Token to the earthengine CLI credentials location.
	PersistToken bool
	// RequestTimeout bounds every individual HTTP request.
	RequestTimeout time.Duration
	// TaskTimeout bounds how long an export is waited for.
	TaskTimeout time.Duration
	// PollInterval is how often export state is polled.
	PollInterval time.Duration
	// RequestsPerSecond limits the request rate against the API.
	RequestsPerSecond float64
	// DataDir is where golden files are read from and written to.
	DataDir         string
	SkipIntegration bool
	DebugLogging    bool
	LogRequests     bool
	LogResponses    bool
}

// Load loads configuration from environment variables and .env files.
// Returns an error if configuration values are malformed.
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		BaseURL:           getWithDefault("EARTHENGINE_API_URL", constants.DefaultAPIURL),
		Token:             Unquote(os.Getenv("EARTHENGINE_TOKEN")),
		ServiceAccount:    Unquote(os.Getenv("EARTHENGINE_SERVICE_ACCOUNT")),
		ProjectID:         os.Getenv("EARTHENGINE_PROJECT"),
		PersistToken:      getBoolWithDefault("EARTHENGINE_PERSIST_TOKEN", false),
		RequestTimeout:    getDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second),
		TaskTimeout:       getDurationWithDefault("TASK_TIMEOUT", 10*time.Minute),
		PollInterval:      getDurationWithDefault("POLL_INTERVAL", 5*time.Second),
		RequestsPerSecond: getFloatWithDefault("REQUESTS_PER_SECOND", 10),
		DataDir:           getWithDefault("GEE_DATA_DIR", constants.DefaultDataDir),
		SkipIntegration:   getBoolWithDefault("SKIP_INTEGRATION", false),
		DebugLogging:      getBoolWithDefault("DEBUG_LOGGING", false),
		LogRequests:       getBoolWithDefault("LOG_REQUESTS", false),
		LogResponses:      getBoolWithDefault("LOG_RESPONSES", false),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// AddFlags registers command line overrides.  Defaults are the values
// already loaded, so flags take precedence over the environment.
func (c *Config) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&c.BaseURL, "api-url", c.BaseURL, "Earth Engine REST API endpoint.")
	f.StringVar(&c.ProjectID, "project", c.ProjectID, "Cloud project to bill requests to.")
	f.DurationVar(&c.RequestTimeout, "request-timeout", c.RequestTimeout, "Timeout for individual API requests.")
	f.DurationVar(&c.TaskTimeout, "task-timeout", c.TaskTimeout, "How long to wait for export tasks.")
	f.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "How often to poll export task state.")
	f.Float64Var(&c.RequestsPerSecond, "requests-per-second", c.RequestsPerSecond, "API request rate limit.")
	f.StringVar(&c.DataDir, "data-dir", c.DataDir, "Golden file directory.")
	f.BoolVar(&c.LogRequests, "log-requests", c.LogRequests, "Log every API request.")
	f.BoolVar(&c.LogResponses, "log-responses", c.LogResponses, "Log every API response body.")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	return validateRequiredFields(c)
}

// Unquote removes a single pair of surrounding single quotes.  Some CI
// secret stores add them around multi-line JSON values.
func Unquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") && !strings.Contains(value[1:len(value)-1], "'") {
		return value[1 : len(value)-1]
	}

	return value
}

func getWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getDurationWithDefault gets a duration from environment variable or returns default.
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getBoolWithDefault gets a boolean from environment variable or returns default.
func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func getFloatWithDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatValue
}

//nolint:gochecknoglobals
var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../test/.env", // From test/integration directory
}

func loadEnvFile() {
	paths := envPaths
	if explicit := os.Getenv("GEEFIXTURE_ENV_FILE"); explicit != "" {
		paths = []string{explicit}
	}

	var envPath string

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				envPath = absPath
				break
			}
		}
	}

	if envPath == "" {
		// .env file not found - this is OK in CI/CD where env vars are set directly
		return
	}

	// Values already in the environment win over the file.
	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", envPath, err)
	}
}

// validateRequiredFields checks that all configuration values are set and sane.
func validateRequiredFields(config *Config) error {
	var invalid []string

	if u, err := url.Parse(config.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, "EARTHENGINE_API_URL")
	}

	positive := map[string]time.Duration{
		"REQUEST_TIMEOUT": config.RequestTimeout,
		"TASK_TIMEOUT":    config.TaskTimeout,
		"POLL_INTERVAL":   config.PollInterval,
	}

	for envVar, value := range positive {
		if value <= 0 {
			invalid = append(invalid, envVar)
		}
	}

	if config.RequestsPerSecond <= 0 {
		invalid = append(invalid, "REQUESTS_PER_SECOND")
	}

	if config.DataDir == "" {
		invalid = append(invalid, "GEE_DATA_DIR")
	}

	if len(invalid) > 0 {
		slices.Sort(invalid)

		return fmt.Errorf("%w: %s. Please fix these environment variables or the .env file", ErrInvalidConfig, strings.Join(invalid, ", "))
	}

	return nil
}
