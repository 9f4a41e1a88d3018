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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

// IndexProperty is the per feature index the service adds to every feature.
// Computed collections carry it as the feature id.
const IndexProperty = "system:index"

// FeatureCollectionFixture checks feature collections against YAML golden
// files of their GeoJSON.
type FeatureCollectionFixture struct {
	fixture

	evaluator Evaluator
}

// NewFeatureCollection creates a feature collection fixture for a test.
func NewFeatureCollection(t testing.TB, evaluator Evaluator, options ...FixtureOption) *FeatureCollectionFixture {
	return &FeatureCollectionFixture{
		fixture:   newFixture(t, KindFeatureCollection, options),
		evaluator: evaluator,
	}
}

// Check evaluates the collection and compares it with its golden file.
func (f *FeatureCollectionFixture) Check(ctx context.Context, collection *ee.FeatureCollection, options ...CheckOption) Result {
	f.t.Helper()

	o := checkOptionsFrom(options)
	expression := ee.Build(collection)

	return f.run(ctx, &check{
		expression: expression,
		options: map[string]any{
			"precision":  o.precision,
			"drop_index": o.dropIndex,
		},
		ext: ".yml",
		value: func(ctx context.Context) ([]byte, error) {
			value, err := f.evaluator.ComputeValue(ctx, expression)
			if err != nil {
				return nil, err
			}

			normalized, err := NormalizeFeatureCollection(value, o.precision, o.dropIndex)
			if err != nil {
				return nil, err
			}

			return encodeYAML(normalized)
		},
	}, &o)
}

// NormalizeFeatureCollection decodes a GeoJSON feature collection, snaps
// every coordinate to the precision grid, removes repeated vertices,
// optionally drops the feature index and rounds the remaining numbers.
func NormalizeFeatureCollection(value any, precision int, dropIndex bool) (any, error) {
	if err := validatePrecision(precision); err != nil {
		return nil, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
	}

	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
	}

	factor := int(math.Pow10(precision))

	for _, feature := range collection.Features {
		if feature.Geometry != nil {
			feature.Geometry = removeRepeatedPoints(orb.Round(feature.Geometry, factor))
		}

		if dropIndex {
			feature.ID = nil
			delete(feature.Properties, IndexProperty)
		}
	}

	if columns, ok := collection.ExtraMembers["columns"].(map[string]any); ok && dropIndex {
		delete(columns, IndexProperty)
	}

	if data, err = json.Marshal(collection); err != nil {
		return nil, err
	}

	var document any

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	if err := decoder.Decode(&document); err != nil {
		return nil, err
	}

	return Round(document, precision), nil
}

// removeRepeatedPoints drops consecutive equal vertices, snapping to a grid
// can collapse neighbours onto the same point.
func removeRepeatedPoints(geometry orb.Geometry) orb.Geometry {
	switch g := geometry.(type) {
	case orb.LineString:
		return compactPoints(g)
	case orb.Ring:
		return compactPoints(g)
	case orb.MultiLineString:
		for i := range g {
			g[i] = compactPoints(g[i])
		}
	case orb.Polygon:
		for i := range g {
			g[i] = compactPoints(g[i])
		}
	case orb.MultiPolygon:
		for i := range g {
			for j := range g[i] {
				g[i][j] = compactPoints(g[i][j])
			}
		}
	case orb.Collection:
		for i := range g {
			g[i] = removeRepeatedPoints(g[i])
		}
	}

	return geometry
}

func compactPoints[S ~[]orb.Point](points S) S {
	return slices.CompactFunc(points, orb.Point.Equal)
}
