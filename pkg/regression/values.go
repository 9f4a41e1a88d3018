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

package regression

import (
	"context"
	"testing"

	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

const (
	KindList              = "list"
	KindDictionary        = "dictionary"
	KindFeatureCollection = "feature_collection"
	KindImage             = "image"
)

// ListFixture checks lists against YAML golden files.
type ListFixture struct {
	fixture

	evaluator Evaluator
}

// NewList creates a list fixture for a test.
func NewList(t testing.TB, evaluator Evaluator, options ...FixtureOption) *ListFixture {
	return &ListFixture{
		fixture:   newFixture(t, KindList, options),
		evaluator: evaluator,
	}
}

// Check evaluates the list and compares it with its golden file.
func (l *ListFixture) Check(ctx context.Context, list *ee.List, options ...CheckOption) Result {
	l.t.Helper()

	return valueCheck[[]any](ctx, &l.fixture, l.evaluator, list, options)
}

// DictionaryFixture checks dictionaries against YAML golden files.
type DictionaryFixture struct {
	fixture

	evaluator Evaluator
}

// NewDictionary creates a dictionary fixture for a test.
func NewDictionary(t testing.TB, evaluator Evaluator, options ...FixtureOption) *DictionaryFixture {
	return &DictionaryFixture{
		fixture:   newFixture(t, KindDictionary, options),
		evaluator: evaluator,
	}
}

// Check evaluates the dictionary and compares it with its golden file.
func (d *DictionaryFixture) Check(ctx context.Context, dictionary *ee.Dictionary, options ...CheckOption) Result {
	d.t.Helper()

	return valueCheck[map[string]any](ctx, &d.fixture, d.evaluator, dictionary, options)
}

func valueCheck[T any](ctx context.Context, f *fixture, evaluator Evaluator, object ee.ComputedObject, options []CheckOption) Result {
	f.t.Helper()

	o := checkOptionsFrom(options)
	expression := ee.Build(object)

	return f.run(ctx, &check{
		expression: expression,
		options: map[string]any{
			"precision": o.precision,
		},
		ext: ".yml",
		value: func(ctx context.Context) ([]byte, error) {
			value, err := evaluate[T](ctx, evaluator, expression)
			if err != nil {
				return nil, err
			}

			return encodeYAML(Round(value, o.precision))
		},
	}, &o)
}
