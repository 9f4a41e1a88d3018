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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/unikorn-cloud/geefixture/pkg/config"
	"github.com/unikorn-cloud/geefixture/pkg/constants"
)

// isolate clears every variable the loader reads so the host environment
// cannot leak into a test.
func isolate(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"EARTHENGINE_API_URL",
		"EARTHENGINE_TOKEN",
		"EARTHENGINE_SERVICE_ACCOUNT",
		"EARTHENGINE_PROJECT",
		"EARTHENGINE_PERSIST_TOKEN",
		"REQUEST_TIMEOUT",
		"TASK_TIMEOUT",
		"POLL_INTERVAL",
		"REQUESTS_PER_SECOND",
		"GEE_DATA_DIR",
		"SKIP_INTEGRATION",
		"DEBUG_LOGGING",
		"LOG_REQUESTS",
		"LOG_RESPONSES",
	} {
		t.Setenv(key, "")
	}

	t.Setenv("GEEFIXTURE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	c, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, constants.DefaultAPIURL, c.BaseURL)
	require.Equal(t, 30*time.Second, c.RequestTimeout)
	require.Equal(t, 10*time.Minute, c.TaskTimeout)
	require.Equal(t, 5*time.Second, c.PollInterval)
	require.InDelta(t, 10.0, c.RequestsPerSecond, 1e-9)
	require.Equal(t, constants.DefaultDataDir, c.DataDir)
	require.Empty(t, c.ProjectID)
	require.False(t, c.PersistToken)
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)

	t.Setenv("EARTHENGINE_PROJECT", "ee-test")
	t.Setenv("EARTHENGINE_TOKEN", `'{"refresh_token":"abc"}'`)
	t.Setenv("TASK_TIMEOUT", "5m")
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	t.Setenv("LOG_REQUESTS", "true")

	c, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "ee-test", c.ProjectID)
	require.JSONEq(t, `{"refresh_token":"abc"}`, c.Token)
	require.Equal(t, 5*time.Minute, c.TaskTimeout)
	require.Equal(t, 5*time.Second, c.PollInterval, "malformed values fall back to defaults")
	require.True(t, c.LogRequests)
}

func TestLoadEnvFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("EARTHENGINE_PROJECT=from-file\nGEE_DATA_DIR=golden\n"), 0o600))

	t.Setenv("GEEFIXTURE_ENV_FILE", path)

	// godotenv never overrides, so clear the isolated values first.
	require.NoError(t, os.Unsetenv("EARTHENGINE_PROJECT"))
	require.NoError(t, os.Unsetenv("GEE_DATA_DIR"))

	c, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "from-file", c.ProjectID)
	require.Equal(t, "golden", c.DataDir)
}

func TestLoadInvalid(t *testing.T) {
	isolate(t)

	t.Setenv("EARTHENGINE_API_URL", "not a url")
	t.Setenv("REQUESTS_PER_SECOND", "-1")
	t.Setenv("TASK_TIMEOUT", "-1s")

	_, err := config.Load()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	require.Contains(t, err.Error(), "EARTHENGINE_API_URL, REQUESTS_PER_SECOND, TASK_TIMEOUT")
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	isolate(t)

	t.Setenv("EARTHENGINE_PROJECT", "from-env")

	c, err := config.Load()
	require.NoError(t, err)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.AddFlags(flags)

	require.NoError(t, flags.Parse([]string{"--project=from-flag", "--poll-interval=1s"}))
	require.Equal(t, "from-flag", c.ProjectID)
	require.Equal(t, time.Second, c.PollInterval)
	require.NoError(t, c.Validate())
}

func TestUnquote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Quoted", input: "'abc'", want: "abc"},
		{name: "Unquoted", input: "abc", want: "abc"},
		{name: "Empty", input: "", want: ""},
		{name: "SingleQuote", input: "'", want: "'"},
		{name: "EmptyQuoted", input: "''", want: ""},
		{name: "InnerQuote", input: "'a'b'", want: "'a'b'"},
		{name: "LeadingOnly", input: "'abc", want: "'abc"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, test.want, config.Unquote(test.input))
		})
	}
}
