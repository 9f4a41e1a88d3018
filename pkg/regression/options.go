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
	"github.com/unikorn-cloud/geefixture/pkg/constants"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

const (
	// DefaultPrecision is the number of decimal places floats are rounded to.
	DefaultPrecision = 6

	// MaxPrecision is the most decimal places a float64 coordinate keeps.
	MaxPrecision = 15

	// DefaultScale is the image thumbnail scale in meters per pixel.
	DefaultScale = 30.0

	// DefaultDiffThreshold is the image difference, as a percentage, below
	// which two thumbnails are considered equal.
	DefaultDiffThreshold = 0.1
)

type fixtureOptions struct {
	dataDir     string
	parentNames bool
}

func defaultFixtureOptions() fixtureOptions {
	return fixtureOptions{
		dataDir:     constants.DefaultDataDir,
		parentNames: true,
	}
}

// FixtureOption configures every check made by a fixture.
type FixtureOption func(*fixtureOptions)

// WithDataDir sets the directory golden files are kept in.
func WithDataDir(dir string) FixtureOption {
	return func(o *fixtureOptions) {
		o.dataDir = dir
	}
}

// WithoutParentNames derives file names from the innermost subtest name
// only, rather than the full test path.
func WithoutParentNames() FixtureOption {
	return func(o *fixtureOptions) {
		o.parentNames = false
	}
}

type checkOptions struct {
	basename      string
	fullpath      string
	precision     int
	dropIndex     bool
	scale         float64
	visualization *ee.Visualization
	diffThreshold float64
	expectEqual   bool
}

func defaultCheckOptions() checkOptions {
	return checkOptions{
		precision:     DefaultPrecision,
		scale:         DefaultScale,
		diffThreshold: DefaultDiffThreshold,
		expectEqual:   true,
	}
}

// CheckOption modifies a single check.
type CheckOption func(*checkOptions)

// WithBasename names the golden files, relative to the data directory and
// without extension.  It cannot be combined with WithFullpath.
func WithBasename(basename string) CheckOption {
	return func(o *checkOptions) {
		o.basename = basename
	}
}

// WithFullpath sets the exact path of the value golden file.  The serialized
// snapshot is kept alongside it.
func WithFullpath(path string) CheckOption {
	return func(o *checkOptions) {
		o.fullpath = path
	}
}

// WithPrecision sets how many decimal places floats are rounded to, between
// zero and MaxPrecision.
func WithPrecision(precision int) CheckOption {
	return func(o *checkOptions) {
		o.precision = precision
	}
}

// WithDropIndex removes the system:index from every feature, both its id
// and any property of that name.
func WithDropIndex() CheckOption {
	return func(o *checkOptions) {
		o.dropIndex = true
	}
}

// WithScale sets the thumbnail resolution in meters per pixel.
func WithScale(scale float64) CheckOption {
	return func(o *checkOptions) {
		o.scale = scale
	}
}

// WithVisualization renders images with fixed parameters rather than ones
// derived from the image statistics.
func WithVisualization(visualization ee.Visualization) CheckOption {
	return func(o *checkOptions) {
		o.visualization = &visualization
	}
}

// WithDiffThreshold sets the percentage of pixel difference tolerated.
func WithDiffThreshold(threshold float64) CheckOption {
	return func(o *checkOptions) {
		o.diffThreshold = threshold
	}
}

// ExpectDifferent inverts an image check, it passes only when the images
// differ by at least the threshold.
func ExpectDifferent() CheckOption {
	return func(o *checkOptions) {
		o.expectEqual = false
	}
}
