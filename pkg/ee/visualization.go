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

package ee

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVisualization is returned when visualization parameters
	// cannot describe a one or three band rendering.
	ErrInvalidVisualization = errors.New("invalid visualization")
)

// Visualization describes how an image is rendered to a thumbnail.  Min
// and Max are either a single value applied to all bands, or one per band.
type Visualization struct {
	Bands   []string  `json:"bands" yaml:"bands"`
	Min     []float64 `json:"min" yaml:"min"`
	Max     []float64 `json:"max" yaml:"max"`
	Palette []string  `json:"palette,omitempty" yaml:"palette,omitempty"`
}

// Validate checks the band count and value ranges agree.
func (v *Visualization) Validate() error {
	if len(v.Bands) != 1 && len(v.Bands) != 3 {
		return fmt.Errorf("%w: expected 1 or 3 bands, got %d", ErrInvalidVisualization, len(v.Bands))
	}

	if len(v.Palette) > 0 && len(v.Bands) != 1 {
		return fmt.Errorf("%w: a palette requires a single band", ErrInvalidVisualization)
	}

	for _, r := range [][]float64{v.Min, v.Max} {
		if len(r) != 1 && len(r) != len(v.Bands) {
			return fmt.Errorf("%w: ranges must have 1 or %d values", ErrInvalidVisualization, len(v.Bands))
		}
	}

	return nil
}

// Range returns the minimum and maximum for the band at index.
func (v *Visualization) Range(index int) (float64, float64) {
	lo := v.Min[0]
	if len(v.Min) > index {
		lo = v.Min[index]
	}

	hi := v.Max[0]
	if len(v.Max) > index {
		hi = v.Max[index]
	}

	return lo, hi
}
