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

// Package regression compares remotely computed results against golden files.
//
// Every check first renders a serialized description of the request, the
// expression graph plus the options that affect the result.  When that
// matches the serialized snapshot on disk byte for byte the check passes
// without contacting the service.  Otherwise the stale snapshot is removed,
// the value is evaluated, rounded and compared against (or recorded as) the
// value golden file, and on success the serialized snapshot is written again
// so the next run can take the fast path.
package regression

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"gopkg.in/yaml.v3"

	"github.com/unikorn-cloud/geefixture/pkg/constants"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
	"github.com/unikorn-cloud/geefixture/pkg/metrics"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	// ErrConflictingPaths is raised when both a basename and a full path
	// are given.
	ErrConflictingPaths = errors.New("basename and fullpath are mutually exclusive")

	// ErrUnexpectedResult is raised when the service returns a value of
	// the wrong shape for the fixture.
	ErrUnexpectedResult = errors.New("unexpected result type")

	// ErrInvalidPrecision is raised when a precision is outside the range
	// a float64 can represent.
	ErrInvalidPrecision = errors.New("invalid precision")
)

// Outcome is how a check was decided.
type Outcome string

const (
	// OutcomeCached passed on an unchanged serialized request.
	OutcomeCached Outcome = "cached"
	// OutcomeRecorded wrote a missing value golden file.
	OutcomeRecorded Outcome = "recorded"
	// OutcomeMatched compared equal to the value golden file.
	OutcomeMatched Outcome = "matched"
	// OutcomeMismatch differed from the value golden file.
	OutcomeMismatch Outcome = "mismatch"
)

// Passed is true for every outcome but a mismatch.
func (o Outcome) Passed() bool {
	return o != OutcomeMismatch
}

// RefreshResult is whether a serialized snapshot was rewritten.
type RefreshResult string

const (
	RefreshWritten RefreshResult = "written"
	RefreshFailed  RefreshResult = "failed"
)

// Refresh reports the regeneration of a serialized snapshot.  A failure
// never fails the check.
type Refresh struct {
	Result RefreshResult
	Path   string
	Err    error
}

// Result is the result of a check.
type Result struct {
	Outcome Outcome
	// Refresh is set when the serialized snapshot was regenerated.
	Refresh        *Refresh
	ValuePath      string
	SerializedPath string
}

//nolint:gochecknoglobals
var nonWord = regexp.MustCompile(`\W`)

// fixture is the state shared by every kind of check.
type fixture struct {
	t       testing.TB
	kind    string
	options fixtureOptions
}

func newFixture(t testing.TB, kind string, options []FixtureOption) fixture {
	o := defaultFixtureOptions()

	for _, option := range options {
		option(&o)
	}

	return fixture{
		t:       t,
		kind:    kind,
		options: o,
	}
}

func checkOptionsFrom(options []CheckOption) checkOptions {
	o := defaultCheckOptions()

	for _, option := range options {
		option(&o)
	}

	return o
}

// basename derives a file name from the test name.
func (f *fixture) basename() string {
	name := f.t.Name()

	if !f.options.parentNames {
		name = name[strings.LastIndex(name, "/")+1:]
	}

	return nonWord.ReplaceAllString(name, "_")
}

type paths struct {
	dir  string
	stem string
	ext  string
}

func (p *paths) value() string {
	return filepath.Join(p.dir, p.stem+p.ext)
}

func (p *paths) serialized() string {
	return filepath.Join(p.dir, constants.SerializedPrefix+p.stem+constants.SerializedExtension)
}

func (f *fixture) paths(o *checkOptions, ext string) *paths {
	f.t.Helper()

	if o.basename != "" && o.fullpath != "" {
		f.t.Fatalf("%v: %s, %s", ErrConflictingPaths, o.basename, o.fullpath)
	}

	if o.fullpath != "" {
		base := filepath.Base(o.fullpath)
		suffix := filepath.Ext(base)

		return &paths{
			dir:  filepath.Dir(o.fullpath),
			stem: strings.TrimSuffix(base, suffix),
			ext:  suffix,
		}
	}

	basename := o.basename
	if basename == "" {
		basename = f.basename()
	}

	full := filepath.Join(f.options.dataDir, basename)

	return &paths{
		dir:  filepath.Dir(full),
		stem: filepath.Base(full),
		ext:  ext,
	}
}

func validatePrecision(precision int) error {
	if precision < 0 || precision > MaxPrecision {
		return fmt.Errorf("%w: %d not in 0-%d", ErrInvalidPrecision, precision, MaxPrecision)
	}

	return nil
}

// check is a single kind specific comparison.
type check struct {
	expression *ee.Expression
	// options are the settings recorded in the serialized snapshot.
	options map[string]any
	ext     string
	// value evaluates the expression into golden file content.
	value func(ctx context.Context) ([]byte, error)
	// equal and diff override byte comparison when set.
	equal goldie.EqualFn
	diff  goldie.DiffFn
}

func (f *fixture) run(ctx context.Context, c *check, o *checkOptions) Result {
	f.t.Helper()

	log := log.FromContext(ctx).WithValues("kind", f.kind, "test", f.t.Name())

	if err := validatePrecision(o.precision); err != nil {
		f.t.Fatalf("%v", err)
	}

	p := f.paths(o, c.ext)

	result := Result{
		ValuePath:      p.value(),
		SerializedPath: p.serialized(),
	}

	serialized, err := serialize(c.expression, c.options)
	if err != nil {
		f.t.Fatalf("serializing %s request: %v", f.kind, err)
	}

	if existing, err := os.ReadFile(result.SerializedPath); err == nil && bytes.Equal(existing, serialized) {
		log.V(1).Info("serialized request unchanged", "path", result.SerializedPath)

		return f.finish(result, OutcomeCached)
	}

	if err := os.Remove(result.SerializedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error(err, "failed to remove stale serialized snapshot", "path", result.SerializedPath)
	}

	data, err := c.value(ctx)
	if err != nil {
		f.t.Fatalf("evaluating %s: %v", f.kind, err)
	}

	outcome := f.compare(p, data, c)

	if outcome == OutcomeRecorded || outcome == OutcomeMatched {
		result.Refresh = f.refresh(ctx, result.SerializedPath, serialized)
	}

	return f.finish(result, outcome)
}

func (f *fixture) finish(result Result, outcome Outcome) Result {
	result.Outcome = outcome

	metrics.Checks.WithLabelValues(f.kind, string(outcome)).Inc()

	return result
}

// compare records a missing golden file, or asserts against an existing one.
func (f *fixture) compare(p *paths, data []byte, c *check) Outcome {
	f.t.Helper()

	options := []goldie.Option{
		goldie.WithFixtureDir(p.dir),
		goldie.WithNameSuffix(p.ext),
	}

	equal := bytes.Equal

	if c.equal != nil {
		equal = c.equal
		options = append(options, goldie.WithEqualFn(c.equal))
	}

	if c.diff != nil {
		options = append(options, goldie.WithDiffFn(c.diff))
	}

	g := goldie.New(f.t, options...)

	if _, err := os.Stat(p.value()); errors.Is(err, fs.ErrNotExist) {
		if err := g.Update(f.t, p.stem, data); err != nil {
			f.t.Fatalf("recording %s: %v", p.value(), err)
		}

		return OutcomeRecorded
	}

	g.Assert(f.t, p.stem, data)

	// Read back as the update flag may have rewritten the file.
	expected, err := os.ReadFile(p.value())
	if err == nil && equal(data, expected) {
		return OutcomeMatched
	}

	return OutcomeMismatch
}

func (f *fixture) refresh(ctx context.Context, path string, data []byte) *Refresh {
	log := log.FromContext(ctx).WithValues("kind", f.kind, "path", path)

	r := &Refresh{
		Result: RefreshWritten,
		Path:   path,
	}

	if err := writeFile(path, data); err != nil {
		r.Result = RefreshFailed
		r.Err = err

		log.Error(err, "serialized snapshot refresh failed")
	} else {
		log.V(1).Info("serialized snapshot refreshed")
	}

	metrics.SnapshotRefreshes.WithLabelValues(f.kind, string(r.Result)).Inc()

	return r
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644) //nolint:gosec
}

// serialize renders the serialized request snapshot.
func serialize(expression *ee.Expression, options map[string]any) ([]byte, error) {
	data, err := json.Marshal(expression)
	if err != nil {
		return nil, err
	}

	var graph any

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	if err := decoder.Decode(&graph); err != nil {
		return nil, err
	}

	return encodeYAML(map[string]any{
		"expression": plain(graph),
		"options":    options,
	})
}

// encodeYAML writes a stable document, maps are emitted in key order.
func encodeYAML(value any) ([]byte, error) {
	var buffer bytes.Buffer

	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)

	if err := encoder.Encode(value); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}

	return buffer.Bytes(), nil
}

// evaluate computes an expression and checks the shape of the result.
func evaluate[T any](ctx context.Context, evaluator Evaluator, expression *ee.Expression) (T, error) {
	var zero T

	value, err := evaluator.ComputeValue(ctx, expression)
	if err != nil {
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrUnexpectedResult, value)
	}

	return typed, nil
}
