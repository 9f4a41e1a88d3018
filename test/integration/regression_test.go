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

package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unikorn-cloud/geefixture/pkg/ee"
	"github.com/unikorn-cloud/geefixture/pkg/regression"
)

func holySee() *ee.FeatureCollection {
	return ee.FeatureCollectionLoad("FAO/GAUL/2015/level0").Filter(ee.FilterEq("ADM0_NAME", "Holy See"))
}

func TestListRegression(t *testing.T) {
	s := requireSession(t)

	result := s.ListRegression(t).Check(t.Context(), ee.NewList(1, 2, 3))
	require.True(t, result.Outcome.Passed())
}

func TestListRegressionPrecision(t *testing.T) {
	s := requireSession(t)

	result := s.ListRegression(t).Check(t.Context(), ee.NewList(1.123456789, 2.123456789, 3.123456789), regression.WithPrecision(3))
	require.True(t, result.Outcome.Passed())
}

func TestDictionaryRegression(t *testing.T) {
	s := requireSession(t)

	result := s.DictionaryRegression(t).Check(t.Context(), ee.NewDictionary(map[string]any{"a": 1, "b": 2}))
	require.True(t, result.Outcome.Passed())
}

func TestDictionaryRegressionPrecision(t *testing.T) {
	s := requireSession(t)

	data := ee.NewDictionary(map[string]any{"a": 1.123456789, "b": 2.123456789})

	result := s.DictionaryRegression(t).Check(t.Context(), data, regression.WithPrecision(3))
	require.True(t, result.Outcome.Passed())
}

func TestFeatureCollectionRegression(t *testing.T) {
	s := requireSession(t)

	result := s.FeatureCollectionRegression(t).Check(t.Context(), holySee())
	require.True(t, result.Outcome.Passed())
}

func TestFeatureCollectionRegressionPrecision(t *testing.T) {
	s := requireSession(t)

	result := s.FeatureCollectionRegression(t).Check(t.Context(), holySee(), regression.WithPrecision(4))
	require.True(t, result.Outcome.Passed())
}

func TestFeatureCollectionRegressionNoIndex(t *testing.T) {
	s := requireSession(t)

	point := ee.Point(0, 0)

	geometries := ee.ListSequence(50, 100, 10).Map(func(size *ee.Object) ee.ComputedObject {
		return point.Buffer(size, ee.ToNumber(size).Divide(5))
	})

	features := geometries.Map(func(geometry *ee.Object) ee.ComputedObject {
		return ee.NewFeature(ee.ToGeometry(geometry), nil)
	})

	result := s.FeatureCollectionRegression(t).Check(t.Context(), ee.NewFeatureCollection(features), regression.WithDropIndex(), regression.WithPrecision(4))
	require.True(t, result.Outcome.Passed())
}

func TestImageRegressionThreeBands(t *testing.T) {
	s := requireSession(t)

	image := ee.ImageLoad(landsatImage).Select("SR_B4", "SR_B3", "SR_B2")

	result := s.ImageRegression(t).Check(t.Context(), image, regression.WithScale(1000))
	require.True(t, result.Outcome.Passed())
}

func TestImageRegressionOneBand(t *testing.T) {
	s := requireSession(t)

	image := ee.ImageLoad(landsatImage).NormalizedDifference("SR_B5", "SR_B4")

	result := s.ImageRegression(t).Check(t.Context(), image, regression.WithScale(1000))
	require.True(t, result.Outcome.Passed())
}

func TestImageRegressionWithVisualization(t *testing.T) {
	s := requireSession(t)

	image := ee.ImageLoad(landsatImage).NormalizedDifference("SR_B5", "SR_B4")

	// magma, stretched to two sigma
	visualization := ee.Visualization{
		Bands:   []string{"nd"},
		Min:     []float64{0.0122},
		Max:     []float64{1.237},
		Palette: []string{"#000004", "#2C105C", "#711F81", "#B63679", "#EE605E", "#FDAE78", "#FCFDBF"},
	}

	result := s.ImageRegression(t).Check(t.Context(), image, regression.WithScale(1000), regression.WithVisualization(visualization))
	require.True(t, result.Outcome.Passed())
}
