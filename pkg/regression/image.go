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
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

var (
	// ErrNoBands is raised when an image without bands is checked.
	ErrNoBands = errors.New("image has no bands")
)

// ImageFixture checks images by rendering PNG thumbnails and comparing them
// with golden images.
type ImageFixture struct {
	fixture

	renderer Renderer
}

// NewImage creates an image fixture for a test.
func NewImage(t testing.TB, renderer Renderer, options ...FixtureOption) *ImageFixture {
	return &ImageFixture{
		fixture:  newFixture(t, KindImage, options),
		renderer: renderer,
	}
}

// Check renders the image clipped to its footprint and compares the
// thumbnail with its golden image.
func (i *ImageFixture) Check(ctx context.Context, img *ee.Image, options ...CheckOption) Result {
	i.t.Helper()

	o := checkOptionsFrom(options)

	clipped := img.ClipToBoundsAndScale(img.Geometry(), o.scale)
	expression := ee.Build(clipped)

	snapshot := map[string]any{
		"scale":          o.scale,
		"diff_threshold": o.diffThreshold,
		"expect_equal":   o.expectEqual,
	}

	if o.visualization != nil {
		snapshot["visualization"] = o.visualization
	}

	equal := func(actual, expected []byte) bool {
		distance, err := Distance(actual, expected)
		if err != nil {
			return false
		}

		return (distance < o.diffThreshold) == o.expectEqual
	}

	diff := func(actual, expected string) string {
		distance, err := Distance([]byte(actual), []byte(expected))
		if err != nil {
			return err.Error()
		}

		if o.expectEqual {
			return fmt.Sprintf("images differ by %.4f%%, threshold %.4f%%", distance, o.diffThreshold)
		}

		return fmt.Sprintf("images differ by %.4f%%, expected at least %.4f%%", distance, o.diffThreshold)
	}

	return i.run(ctx, &check{
		expression: expression,
		options:    snapshot,
		ext:        ".png",
		value: func(ctx context.Context) ([]byte, error) {
			visualization := o.visualization
			if visualization == nil {
				v, err := i.visualize(ctx, clipped, o.scale)
				if err != nil {
					return nil, err
				}

				visualization = v
			}

			return i.renderer.Thumbnail(ctx, expression, visualization)
		},
		equal: equal,
		diff:  diff,
	}, &o)
}

// visualize derives rendering parameters from the image: the first three
// bands, or the first band only when there are fewer, each stretched
// between its minimum and maximum over the image footprint.
func (i *ImageFixture) visualize(ctx context.Context, img *ee.Image, scale float64) (*ee.Visualization, error) {
	names, err := evaluate[[]any](ctx, i.renderer, ee.Build(img.BandNames()))
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, ErrNoBands
	}

	count := 1
	if len(names) >= 3 {
		count = 3
	}

	bands := make([]string, count)

	for n := range bands {
		name, ok := names[n].(string)
		if !ok {
			return nil, fmt.Errorf("%w: band name %T", ErrUnexpectedResult, names[n])
		}

		bands[n] = name
	}

	stats := img.Select(bands...).ReduceRegion(ee.ReducerMinMax(), img.Geometry(), scale)

	values, err := evaluate[map[string]any](ctx, i.renderer, ee.Build(stats))
	if err != nil {
		return nil, err
	}

	visualization := &ee.Visualization{
		Bands: bands,
		Min:   make([]float64, count),
		Max:   make([]float64, count),
	}

	for n, band := range bands {
		if visualization.Min[n], err = number(values[band+"_min"]); err != nil {
			return nil, err
		}

		if visualization.Max[n], err = number(values[band+"_max"]); err != nil {
			return nil, err
		}
	}

	return visualization, nil
}

func number(value any) (float64, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Float64()
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	}

	return 0, fmt.Errorf("%w: expected a number, got %T", ErrUnexpectedResult, value)
}

// Distance is the Manhattan distance between two PNG images as a percentage
// of the largest possible difference.  Images of different sizes are 100%
// apart.
func Distance(a, b []byte) (float64, error) {
	left, err := png.Decode(bytes.NewReader(a))
	if err != nil {
		return 0, fmt.Errorf("decoding image: %w", err)
	}

	right, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return 0, fmt.Errorf("decoding image: %w", err)
	}

	bounds := left.Bounds()

	if bounds.Size() != right.Bounds().Size() {
		return 100, nil
	}

	if bounds.Empty() {
		return 0, nil
	}

	offset := right.Bounds().Min.Sub(bounds.Min)

	var total uint64

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			total += manhattan(nrgba(left, x, y), nrgba(right, x+offset.X, y+offset.Y))
		}
	}

	maximum := float64(4*255) * float64(bounds.Dx()*bounds.Dy())

	return float64(total) / maximum * 100, nil
}

func nrgba(img image.Image, x, y int) color.NRGBA {
	//nolint:forcetypeassert
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func manhattan(a, b color.NRGBA) uint64 {
	abs := func(x, y uint8) uint64 {
		if x > y {
			return uint64(x - y)
		}

		return uint64(y - x)
	}

	return abs(a.R, b.R) + abs(a.G, b.G) + abs(a.B, b.B) + abs(a.A, b.A)
}
