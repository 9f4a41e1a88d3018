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

// Package ee builds lazy Earth Engine computations.  Nothing here talks to
// the network, objects are only descriptions of work that the REST client
// submits as an Expression.
package ee

import (
	"fmt"
	"reflect"
)

// Kind is the server side type an object evaluates to.
type Kind string

const (
	KindObject            Kind = "Object"
	KindNumber            Kind = "Number"
	KindString            Kind = "String"
	KindList              Kind = "List"
	KindDictionary        Kind = "Dictionary"
	KindGeometry          Kind = "Geometry"
	KindFeature           Kind = "Feature"
	KindFeatureCollection Kind = "FeatureCollection"
	KindImage             Kind = "Image"
	KindFilter            Kind = "Filter"
	KindReducer           Kind = "Reducer"
)

// ComputedObject is anything that can be evaluated remotely.
type ComputedObject interface {
	// Kind is the type the object evaluates to.
	Kind() Kind

	node() *node
}

type nodeKind int

const (
	constantNode nodeKind = iota
	arrayNode
	dictionaryNode
	invocationNode
	argumentNode
	functionNode
)

// node is a vertex of the client side graph.
type node struct {
	kind nodeKind

	// value is a constant's value.
	value any
	// items are array members.
	items []*node
	// entries are dictionary members or invocation arguments.
	entries map[string]*node
	// function is the invoked algorithm.
	function string
	// variable is a function's parameter, or an argument reference's
	// identity.
	variable *variable
	// body is a function's result.
	body *node
}

func (n *node) name() string {
	return n.variable.name()
}

// variable names a mapped function's parameter.  Its name depends on how
// deeply functions nest inside the body, so it's only known once the body
// has been built.
type variable struct {
	depth int
}

func (v *variable) name() string {
	return fmt.Sprintf("_MAPPING_VAR_%d_0", v.depth)
}

// Object is a generic computed object.
type Object struct {
	kind Kind
	n    *node
}

func (o *Object) Kind() Kind {
	return o.kind
}

func (o *Object) node() *node {
	return o.n
}

// Invoke calls any server side algorithm by name.
func Invoke(function string, arguments map[string]any) *Object {
	return invoke(KindObject, function, arguments)
}

func invoke(kind Kind, function string, arguments map[string]any) *Object {
	entries := make(map[string]*node, len(arguments))

	for key, value := range arguments {
		// Optional arguments left unset are omitted.
		if value == nil {
			continue
		}

		entries[key] = toNode(value)
	}

	return &Object{
		kind: kind,
		n: &node{
			kind:     invocationNode,
			function: function,
			entries:  entries,
		},
	}
}

// Constant wraps a JSON compatible value.
func Constant(value any) *Object {
	return &Object{kind: kindOf(value), n: toNode(value)}
}

func kindOf(value any) Kind {
	switch value.(type) {
	case string:
		return KindString
	case int, int32, int64, float32, float64, uint, uint32, uint64:
		return KindNumber
	}

	v := reflect.ValueOf(value)

	//nolint:exhaustive
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return KindList
	case reflect.Map:
		return KindDictionary
	}

	return KindObject
}

// toNode promotes a Go value into the graph.  Containers holding only
// constants collapse into a single constant.
func toNode(value any) *node {
	if value == nil {
		return &node{kind: constantNode}
	}

	if o, ok := value.(ComputedObject); ok {
		return o.node()
	}

	v := reflect.ValueOf(value)

	//nolint:exhaustive
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]*node, v.Len())

		for i := range items {
			items[i] = toNode(v.Index(i).Interface())
		}

		return collapseArray(items)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}

		entries := make(map[string]*node, v.Len())

		iter := v.MapRange()
		for iter.Next() {
			entries[iter.Key().String()] = toNode(iter.Value().Interface())
		}

		return collapseDictionary(entries)
	}

	return &node{kind: constantNode, value: value}
}

func collapseArray(items []*node) *node {
	values := make([]any, len(items))

	for i, item := range items {
		if item.kind != constantNode {
			return &node{kind: arrayNode, items: items}
		}

		values[i] = item.value
	}

	return &node{kind: constantNode, value: values}
}

func collapseDictionary(entries map[string]*node) *node {
	values := make(map[string]any, len(entries))

	for key, entry := range entries {
		if entry.kind != constantNode {
			return &node{kind: dictionaryNode, entries: entries}
		}

		values[key] = entry.value
	}

	return &node{kind: constantNode, value: values}
}

// lambda builds a single parameter function definition by calling
// body with a reference to the parameter.
func lambda(body func(*Object) ComputedObject) *node {
	v := &variable{}

	result := body(&Object{
		kind: KindObject,
		n:    &node{kind: argumentNode, variable: v},
	}).node()

	v.depth = functionDepth(result)

	return &node{
		kind:     functionNode,
		variable: v,
		body:     result,
	}
}

// functionDepth counts how many functions nest under a node.
func functionDepth(n *node) int {
	depth := 0

	visit := func(child *node) {
		if d := functionDepth(child); d > depth {
			depth = d
		}
	}

	switch n.kind {
	case arrayNode:
		for _, item := range n.items {
			visit(item)
		}
	case dictionaryNode, invocationNode:
		for _, entry := range n.entries {
			visit(entry)
		}
	case functionNode:
		return n.variable.depth + 1
	case constantNode, argumentNode:
	}

	return depth
}
