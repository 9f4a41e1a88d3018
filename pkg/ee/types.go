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

// Number is a computed number.
type Number struct{ Object }

// List is a computed list.
type List struct{ Object }

// Dictionary is a computed dictionary.
type Dictionary struct{ Object }

// Geometry is a computed geometry.
type Geometry struct{ Object }

// Feature is a computed feature.
type Feature struct{ Object }

// FeatureCollection is a computed feature collection.
type FeatureCollection struct{ Object }

// Image is a computed image.
type Image struct{ Object }

// Filter is a computed collection filter.
type Filter struct{ Object }

// Reducer is a computed reducer.
type Reducer struct{ Object }

func cast(kind Kind, o ComputedObject) Object {
	return Object{kind: kind, n: o.node()}
}

// ToNumber reinterprets any object, typically a mapped variable, as a number.
func ToNumber(o ComputedObject) *Number {
	return &Number{cast(KindNumber, o)}
}

// ToList reinterprets any object as a list.
func ToList(o ComputedObject) *List {
	return &List{cast(KindList, o)}
}

// ToDictionary reinterprets any object as a dictionary.
func ToDictionary(o ComputedObject) *Dictionary {
	return &Dictionary{cast(KindDictionary, o)}
}

// ToGeometry reinterprets any object as a geometry.
func ToGeometry(o ComputedObject) *Geometry {
	return &Geometry{cast(KindGeometry, o)}
}

// ToFeature reinterprets any object as a feature.
func ToFeature(o ComputedObject) *Feature {
	return &Feature{cast(KindFeature, o)}
}

// ToImage reinterprets any object as an image.
func ToImage(o ComputedObject) *Image {
	return &Image{cast(KindImage, o)}
}

// ToFeatureCollection reinterprets any object as a feature collection.
func ToFeatureCollection(o ComputedObject) *FeatureCollection {
	return &FeatureCollection{cast(KindFeatureCollection, o)}
}

// NewNumber is a constant number.
func NewNumber(value float64) *Number {
	return ToNumber(Constant(value))
}

// Divide divides by another number.
func (n *Number) Divide(right any) *Number {
	return ToNumber(invoke(KindNumber, "Number.divide", map[string]any{"left": n, "right": right}))
}

// Gte is 1 when the number is at least right, 0 otherwise.
func (n *Number) Gte(right any) *Number {
	return ToNumber(invoke(KindNumber, "Number.gte", map[string]any{"left": n, "right": right}))
}

// NewList is a list of constants or computed objects.
func NewList(items ...any) *List {
	return ToList(Constant(items))
}

// ListSequence is the numbers from start to end inclusive.
func ListSequence(start, end, step any) *List {
	return ToList(invoke(KindList, "List.sequence", map[string]any{"start": start, "end": end, "step": step}))
}

// Map applies fn to every element.
func (l *List) Map(fn func(*Object) ComputedObject) *List {
	return ToList(mapped("List.map", "list", l, fn))
}

// Size is the number of elements.
func (l *List) Size() *Number {
	return ToNumber(invoke(KindNumber, "List.size", map[string]any{"list": l}))
}

// Slice is the elements from start up to but not including end.
func (l *List) Slice(start, end any) *List {
	return ToList(invoke(KindList, "List.slice", map[string]any{"list": l, "start": start, "end": end}))
}

// Get is the element at index.
func (l *List) Get(index any) *Object {
	return invoke(KindObject, "List.get", map[string]any{"list": l, "index": index})
}

// NewDictionary is a dictionary of constants or computed objects.
func NewDictionary(entries map[string]any) *Dictionary {
	return ToDictionary(Constant(entries))
}

// Get is the value at key.
func (d *Dictionary) Get(key any) *Object {
	return invoke(KindObject, "Dictionary.get", map[string]any{"dictionary": d, "key": key})
}

// Point is a point geometry.
func Point(longitude, latitude float64) *Geometry {
	return ToGeometry(invoke(KindGeometry, "GeometryConstructors.Point", map[string]any{
		"coordinates": []any{longitude, latitude},
	}))
}

// Buffer grows the geometry by distance meters.  A nil maxError uses the
// server default.
func (g *Geometry) Buffer(distance, maxError any) *Geometry {
	return ToGeometry(invoke(KindGeometry, "Geometry.buffer", map[string]any{
		"geometry": g,
		"distance": distance,
		"maxError": maxError,
	}))
}

// NewFeature is a feature with optional properties.
func NewFeature(geometry ComputedObject, properties map[string]any) *Feature {
	arguments := map[string]any{"geometry": geometry}
	if properties != nil {
		arguments["metadata"] = properties
	}

	return ToFeature(invoke(KindFeature, "Feature", arguments))
}

// FeatureCollectionLoad loads a table asset.
func FeatureCollectionLoad(id string) *FeatureCollection {
	return ToFeatureCollection(invoke(KindFeatureCollection, "Collection.loadTable", map[string]any{"tableId": id}))
}

// NewFeatureCollection builds a collection from features, a computed list
// of features, or a single geometry or feature.
func NewFeatureCollection(features any) *FeatureCollection {
	switch t := features.(type) {
	case *Geometry:
		features = []any{NewFeature(t, nil)}
	case *Feature:
		features = []any{t}
	}

	return ToFeatureCollection(invoke(KindFeatureCollection, "Collection", map[string]any{"features": features}))
}

// Filter keeps features matching filter.
func (c *FeatureCollection) Filter(filter *Filter) *FeatureCollection {
	return ToFeatureCollection(invoke(KindFeatureCollection, "Collection.filter", map[string]any{
		"collection": c,
		"filter":     filter,
	}))
}

// Map applies fn to every feature.
func (c *FeatureCollection) Map(fn func(*Object) ComputedObject) *FeatureCollection {
	return ToFeatureCollection(mapped("Collection.map", "collection", c, fn))
}

// Size is the number of features.
func (c *FeatureCollection) Size() *Number {
	return ToNumber(invoke(KindNumber, "Collection.size", map[string]any{"collection": c}))
}

// FilterEq keeps elements whose property name equals value.
func FilterEq(name string, value any) *Filter {
	return &Filter{cast(KindFilter, invoke(KindFilter, "Filter.equals", map[string]any{
		"leftField":  name,
		"rightValue": value,
	}))}
}

// ReducerMinMax computes the minimum and maximum of each input.
func ReducerMinMax() *Reducer {
	return &Reducer{cast(KindReducer, invoke(KindReducer, "Reducer.minMax", nil))}
}

// ImageLoad loads an image asset.
func ImageLoad(id string) *Image {
	return ToImage(invoke(KindImage, "Image.load", map[string]any{"id": id}))
}

// NewImage is a constant image.
func NewImage(value any) *Image {
	return ToImage(invoke(KindImage, "Image.constant", map[string]any{"value": value}))
}

// Select keeps the named bands in order.
func (i *Image) Select(bands ...string) *Image {
	return ToImage(invoke(KindImage, "Image.select", map[string]any{
		"input":         i,
		"bandSelectors": bands,
	}))
}

// NormalizedDifference is (first - second) / (first + second) in a band
// named "nd".
func (i *Image) NormalizedDifference(bands ...string) *Image {
	return ToImage(invoke(KindImage, "Image.normalizedDifference", map[string]any{
		"input":     i,
		"bandNames": bands,
	}))
}

// Geometry is the image footprint.
func (i *Image) Geometry() *Geometry {
	return ToGeometry(invoke(KindGeometry, "Image.geometry", map[string]any{"feature": i}))
}

// Clip masks the image outside geometry.
func (i *Image) Clip(geometry ComputedObject) *Image {
	return ToImage(invoke(KindImage, "Image.clip", map[string]any{
		"input":    i,
		"geometry": geometry,
	}))
}

// ClipToBoundsAndScale clips to geometry and resamples to scale meters.
func (i *Image) ClipToBoundsAndScale(geometry ComputedObject, scale float64) *Image {
	return ToImage(invoke(KindImage, "Image.clipToBoundsAndScale", map[string]any{
		"input":    i,
		"geometry": geometry,
		"scale":    scale,
	}))
}

// BandNames lists the band names.
func (i *Image) BandNames() *List {
	return ToList(invoke(KindList, "Image.bandNames", map[string]any{"image": i}))
}

// ReduceRegion applies reducer to all pixels within geometry.
func (i *Image) ReduceRegion(reducer *Reducer, geometry ComputedObject, scale float64) *Dictionary {
	return ToDictionary(invoke(KindDictionary, "Image.reduceRegion", map[string]any{
		"image":    i,
		"reducer":  reducer,
		"geometry": geometry,
		"scale":    scale,
	}))
}

func mapped(function, collection string, input ComputedObject, fn func(*Object) ComputedObject) *Object {
	return &Object{
		kind: input.Kind(),
		n: &node{
			kind:     invocationNode,
			function: function,
			entries: map[string]*node{
				collection:      input.node(),
				"baseAlgorithm": lambda(fn),
			},
		},
	}
}
