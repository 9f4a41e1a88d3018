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
	"encoding/json"
	"math"
)

// Round rounds every floating point leaf of a decoded JSON document to the
// given number of decimal places.  Slices and maps are walked recursively,
// json.Number integers become int64, NaN and infinities are kept and all
// other leaves are returned unchanged.
func Round(value any, precision int) any {
	return walk(value, func(f float64) float64 {
		return roundFloat(f, precision)
	})
}

// plain converts json.Number leaves to native numbers without rounding.
func plain(value any) any {
	return walk(value, func(f float64) float64 {
		return f
	})
}

func walk(value any, fn func(float64) float64) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}

		f, err := v.Float64()
		if err != nil {
			return v.String()
		}

		return fn(f)
	case float64:
		return fn(v)
	case float32:
		return fn(float64(v))
	case []any:
		out := make([]any, len(v))

		for i := range v {
			out[i] = walk(v[i], fn)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(v))

		for k := range v {
			out[k] = walk(v[k], fn)
		}

		return out
	}

	return value
}

func roundFloat(f float64, precision int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}

	scale := math.Pow(10, float64(precision))

	scaled := f * scale
	if math.IsInf(scaled, 0) {
		return f
	}

	return math.Round(scaled) / scale
}
