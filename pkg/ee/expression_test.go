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

package ee_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

func serialize(t *testing.T, object ee.ComputedObject) string {
	t.Helper()

	data, err := ee.Serialize(object)
	require.NoError(t, err)

	return string(data)
}

func TestSerializeConstant(t *testing.T) {
	t.Parallel()

	require.JSONEq(t, `{"result":"0","values":{"0":{"constantValue":[1,2,3]}}}`, serialize(t, ee.NewList(1, 2, 3)))
	require.JSONEq(t, `{"result":"0","values":{"0":{"constantValue":{"a":1,"b":2}}}}`, serialize(t, ee.NewDictionary(map[string]any{"a": 1, "b": 2})))
	require.JSONEq(t, `{"result":"0","values":{"0":{"constantValue":1}}}`, serialize(t, ee.NewNumber(1)))
}

func TestSerializeNull(t *testing.T) {
	t.Parallel()

	require.JSONEq(t, `{"result":"0","values":{"0":{"nullValue":"NULL_VALUE"}}}`, serialize(t, ee.Constant(nil)))
}

func TestSerializeInlinesSingleUse(t *testing.T) {
	t.Parallel()

	expected := `{
  "result": "0",
  "values": {
    "0": {
      "functionInvocationValue": {
        "functionName": "Image.select",
        "arguments": {
          "bandSelectors": {"constantValue": ["B1"]},
          "input": {
            "functionInvocationValue": {
              "functionName": "Image.load",
              "arguments": {"id": {"constantValue": "x"}}
            }
          }
        }
      }
    }
  }
}`

	require.JSONEq(t, expected, serialize(t, ee.ImageLoad("x").Select("B1")))
}

func TestSerializeSharesRepeatedValues(t *testing.T) {
	t.Parallel()

	image := ee.ImageLoad("x")

	expected := `{
  "result": "0",
  "values": {
    "0": {
      "functionInvocationValue": {
        "functionName": "Test.pair",
        "arguments": {
          "a": {"valueReference": "1"},
          "b": {"valueReference": "1"}
        }
      }
    },
    "1": {
      "functionInvocationValue": {
        "functionName": "Image.load",
        "arguments": {"id": {"constantValue": "x"}}
      }
    }
  }
}`

	// Structurally equal but distinct handles are shared too.
	require.JSONEq(t, expected, serialize(t, ee.Invoke("Test.pair", map[string]any{"a": image, "b": image})))
	require.JSONEq(t, expected, serialize(t, ee.Invoke("Test.pair", map[string]any{"a": ee.ImageLoad("x"), "b": ee.ImageLoad("x")})))
}

func TestSerializeMap(t *testing.T) {
	t.Parallel()

	list := ee.ListSequence(1, 3, 1).Map(func(x *ee.Object) ee.ComputedObject {
		return ee.ToNumber(x).Divide(2)
	})

	expected := `{
  "result": "0",
  "values": {
    "0": {
      "functionInvocationValue": {
        "functionName": "List.map",
        "arguments": {
          "baseAlgorithm": {
            "functionDefinitionValue": {
              "argumentNames": ["_MAPPING_VAR_0_0"],
              "body": "1"
            }
          },
          "list": {
            "functionInvocationValue": {
              "functionName": "List.sequence",
              "arguments": {
                "end": {"constantValue": 3},
                "start": {"constantValue": 1},
                "step": {"constantValue": 1}
              }
            }
          }
        }
      }
    },
    "1": {
      "functionInvocationValue": {
        "functionName": "Number.divide",
        "arguments": {
          "left": {"argumentReference": "_MAPPING_VAR_0_0"},
          "right": {"constantValue": 2}
        }
      }
    }
  }
}`

	require.JSONEq(t, expected, serialize(t, list))
}

func TestSerializeNestedMapNames(t *testing.T) {
	t.Parallel()

	list := ee.NewList(1, 2).Map(func(x *ee.Object) ee.ComputedObject {
		return ee.NewList(3, 4).Map(func(y *ee.Object) ee.ComputedObject {
			return ee.Invoke("Test.add", map[string]any{"x": x, "y": y})
		})
	})

	expression := ee.Build(list)

	var names []string

	for _, value := range expression.Values {
		if value.FunctionInvocationValue == nil {
			continue
		}

		if algorithm, ok := value.FunctionInvocationValue.Arguments["baseAlgorithm"]; ok {
			names = append(names, algorithm.FunctionDefinitionValue.ArgumentNames...)
		}
	}

	serialized := serialize(t, list)
	require.Contains(t, serialized, `"argumentNames":["_MAPPING_VAR_1_0"]`)
	require.Contains(t, serialized, `"argumentNames":["_MAPPING_VAR_0_0"]`)
	require.Contains(t, names, "_MAPPING_VAR_1_0", "the outer function is a top level value")
}

func TestSerializeIsDeterministic(t *testing.T) {
	t.Parallel()

	build := func() ee.ComputedObject {
		point := ee.Point(0, 0)
		image := ee.NewImage(1).ClipToBoundsAndScale(point.Buffer(100, nil), 30)

		return ee.NewDictionary(map[string]any{
			"bands": image.BandNames(),
			"stats": image.ReduceRegion(ee.ReducerMinMax(), image.Geometry(), 30),
			"z":     1,
			"a":     "text",
		})
	}

	first := serialize(t, build())

	for range 10 {
		require.Equal(t, first, serialize(t, build()))
	}
}

func TestSerializeOmitsUnsetArguments(t *testing.T) {
	t.Parallel()

	serialized := serialize(t, ee.Point(0, 0).Buffer(100, nil))
	require.NotContains(t, serialized, "maxError")

	serialized = serialize(t, ee.Point(0, 0).Buffer(100, 20))
	require.Contains(t, serialized, "maxError")
}

func TestKinds(t *testing.T) {
	t.Parallel()

	require.Equal(t, ee.KindList, ee.NewList(1).Kind())
	require.Equal(t, ee.KindDictionary, ee.NewDictionary(map[string]any{}).Kind())
	require.Equal(t, ee.KindImage, ee.ImageLoad("x").Kind())
	require.Equal(t, ee.KindFeatureCollection, ee.NewFeatureCollection(ee.Point(0, 0)).Kind())
	require.Equal(t, ee.KindGeometry, ee.ImageLoad("x").Geometry().Kind())
	require.Equal(t, ee.KindNumber, ee.NewNumber(1).Kind())
	require.Equal(t, ee.KindObject, ee.Invoke("Test", nil).Kind())
}

func TestVisualization(t *testing.T) {
	t.Parallel()

	v := &ee.Visualization{Bands: []string{"a", "b", "c"}, Min: []float64{0}, Max: []float64{1, 2, 3}}
	require.NoError(t, v.Validate())

	lo, hi := v.Range(2)
	require.InDelta(t, 0.0, lo, 1e-9)
	require.InDelta(t, 3.0, hi, 1e-9)

	v = &ee.Visualization{Bands: []string{"a", "b"}, Min: []float64{0}, Max: []float64{1}}
	require.ErrorIs(t, v.Validate(), ee.ErrInvalidVisualization)

	v = &ee.Visualization{Bands: []string{"a", "b", "c"}, Min: []float64{0}, Max: []float64{1}, Palette: []string{"#000000"}}
	require.ErrorIs(t, v.Validate(), ee.ErrInvalidVisualization)
}
