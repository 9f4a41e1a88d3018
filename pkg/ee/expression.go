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
	"encoding/json"
	"slices"
	"strconv"

	"k8s.io/utils/ptr"
)

// Expression is the wire form of a computation graph as accepted by the
// REST API.  Values are keyed by identifier and Result names the root.
type Expression struct {
	Result string                `json:"result"`
	Values map[string]*ValueNode `json:"values"`
}

// ValueNode is a single vertex of an expression, exactly one member is set.
type ValueNode struct {
	ConstantValue           any                 `json:"constantValue,omitempty"`
	NullValue               *string             `json:"nullValue,omitempty"`
	ArrayValue              *ArrayValue         `json:"arrayValue,omitempty"`
	DictionaryValue         *DictionaryValue    `json:"dictionaryValue,omitempty"`
	FunctionInvocationValue *FunctionInvocation `json:"functionInvocationValue,omitempty"`
	FunctionDefinitionValue *FunctionDefinition `json:"functionDefinitionValue,omitempty"`
	ArgumentReference       *string             `json:"argumentReference,omitempty"`
	ValueReference          *string             `json:"valueReference,omitempty"`
}

type ArrayValue struct {
	Values []*ValueNode `json:"values"`
}

type DictionaryValue struct {
	Values map[string]*ValueNode `json:"values"`
}

type FunctionInvocation struct {
	FunctionName string                `json:"functionName"`
	Arguments    map[string]*ValueNode `json:"arguments,omitempty"`
}

type FunctionDefinition struct {
	ArgumentNames []string `json:"argumentNames"`
	Body          string   `json:"body"`
}

// Build converts a computed object into its canonical expression.
// Identical sub-graphs are shared, invocations referenced only once are
// inlined into their parent, and identifiers are numbered in walk order
// from the root, so equal graphs always yield equal expressions.
func Build(object ComputedObject) *Expression {
	s := &serializer{
		values: map[string]*ValueNode{},
		ids:    map[string]string{},
		refs:   map[string]int{},
		pinned: map[string]bool{},
	}

	root := s.encode(object.node())
	rootID := s.pin(root)

	return s.compact(rootID)
}

// Serialize returns the canonical JSON encoding of a computed object.
func Serialize(object ComputedObject) ([]byte, error) {
	return json.Marshal(Build(object))
}

type serializer struct {
	// values are all stored nodes by provisional identifier.
	values map[string]*ValueNode
	// ids maps a node's JSON encoding to its provisional identifier.
	ids map[string]string
	// refs counts references to each identifier.
	refs map[string]int
	// pinned identifiers are referenced by name and are never inlined.
	pinned map[string]bool
}

func (s *serializer) encode(n *node) *ValueNode {
	switch n.kind {
	case constantNode:
		if n.value == nil {
			return &ValueNode{NullValue: ptr.To("NULL_VALUE")}
		}

		return &ValueNode{ConstantValue: n.value}
	case arrayNode:
		values := make([]*ValueNode, len(n.items))

		for i, item := range n.items {
			values[i] = s.encode(item)
		}

		return &ValueNode{ArrayValue: &ArrayValue{Values: values}}
	case dictionaryNode:
		values := make(map[string]*ValueNode, len(n.entries))

		for _, key := range sortedKeys(n.entries) {
			values[key] = s.encode(n.entries[key])
		}

		return &ValueNode{DictionaryValue: &DictionaryValue{Values: values}}
	case argumentNode:
		return &ValueNode{ArgumentReference: ptr.To(n.name())}
	case functionNode:
		body := s.pin(s.encode(n.body))

		return s.reference(&ValueNode{
			FunctionDefinitionValue: &FunctionDefinition{
				ArgumentNames: []string{n.variable.name()},
				Body:          body,
			},
		})
	case invocationNode:
		var arguments map[string]*ValueNode

		if len(n.entries) > 0 {
			arguments = make(map[string]*ValueNode, len(n.entries))

			for _, key := range sortedKeys(n.entries) {
				arguments[key] = s.encode(n.entries[key])
			}
		}

		return s.reference(&ValueNode{
			FunctionInvocationValue: &FunctionInvocation{
				FunctionName: n.function,
				Arguments:    arguments,
			},
		})
	}

	return &ValueNode{NullValue: ptr.To("NULL_VALUE")}
}

// reference stores a value, deduplicating it against equal values, and
// returns a reference to it.
func (s *serializer) reference(v *ValueNode) *ValueNode {
	// Marshalling maps sorts keys, so this is a canonical key.
	key, _ := json.Marshal(v)

	id, ok := s.ids[string(key)]
	if !ok {
		id = strconv.Itoa(len(s.values))
		s.ids[string(key)] = id
		s.values[id] = v
	}

	s.refs[id]++

	return &ValueNode{ValueReference: ptr.To(id)}
}

// pin makes sure a value is stored under an identifier that will survive
// compaction and returns that identifier.
func (s *serializer) pin(v *ValueNode) string {
	if v.ValueReference == nil {
		v = s.reference(v)
	}

	id := *v.ValueReference
	s.pinned[id] = true

	return id
}

func (s *serializer) inlinable(id string) bool {
	return s.refs[id] == 1 && !s.pinned[id]
}

// inline replaces references to singly used values with the values.
func (s *serializer) inline(v *ValueNode) *ValueNode {
	if v.ValueReference != nil {
		if s.inlinable(*v.ValueReference) {
			return s.inline(s.values[*v.ValueReference])
		}

		return v
	}

	out := *v

	switch {
	case v.ArrayValue != nil:
		values := make([]*ValueNode, len(v.ArrayValue.Values))

		for i, item := range v.ArrayValue.Values {
			values[i] = s.inline(item)
		}

		out.ArrayValue = &ArrayValue{Values: values}
	case v.DictionaryValue != nil:
		out.DictionaryValue = &DictionaryValue{Values: s.inlineMap(v.DictionaryValue.Values)}
	case v.FunctionInvocationValue != nil:
		out.FunctionInvocationValue = &FunctionInvocation{
			FunctionName: v.FunctionInvocationValue.FunctionName,
			Arguments:    s.inlineMap(v.FunctionInvocationValue.Arguments),
		}
	}

	return &out
}

func (s *serializer) inlineMap(in map[string]*ValueNode) map[string]*ValueNode {
	if in == nil {
		return nil
	}

	out := make(map[string]*ValueNode, len(in))

	for key, value := range in {
		out[key] = s.inline(value)
	}

	return out
}

// compact inlines what it can then renumbers the surviving values in depth
// first order from the root.
func (s *serializer) compact(rootID string) *Expression {
	kept := map[string]*ValueNode{}
	renumber := map[string]string{}

	var visit func(id string)

	var walk func(v *ValueNode)

	visit = func(id string) {
		if _, ok := renumber[id]; ok {
			return
		}

		renumber[id] = strconv.Itoa(len(renumber))

		value := s.inline(s.values[id])
		kept[id] = value

		walk(value)
	}

	walk = func(v *ValueNode) {
		switch {
		case v.ValueReference != nil:
			visit(*v.ValueReference)
		case v.ArrayValue != nil:
			for _, item := range v.ArrayValue.Values {
				walk(item)
			}
		case v.DictionaryValue != nil:
			for _, key := range sortedKeys(v.DictionaryValue.Values) {
				walk(v.DictionaryValue.Values[key])
			}
		case v.FunctionInvocationValue != nil:
			for _, key := range sortedKeys(v.FunctionInvocationValue.Arguments) {
				walk(v.FunctionInvocationValue.Arguments[key])
			}
		case v.FunctionDefinitionValue != nil:
			visit(v.FunctionDefinitionValue.Body)
		}
	}

	visit(rootID)

	values := make(map[string]*ValueNode, len(kept))

	for id, value := range kept {
		values[renumber[id]] = relabel(value, renumber)
	}

	return &Expression{
		Result: renumber[rootID],
		Values: values,
	}
}

func relabel(v *ValueNode, renumber map[string]string) *ValueNode {
	out := *v

	switch {
	case v.ValueReference != nil:
		out.ValueReference = ptr.To(renumber[*v.ValueReference])
	case v.ArrayValue != nil:
		values := make([]*ValueNode, len(v.ArrayValue.Values))

		for i, item := range v.ArrayValue.Values {
			values[i] = relabel(item, renumber)
		}

		out.ArrayValue = &ArrayValue{Values: values}
	case v.DictionaryValue != nil:
		out.DictionaryValue = &DictionaryValue{Values: relabelMap(v.DictionaryValue.Values, renumber)}
	case v.FunctionInvocationValue != nil:
		out.FunctionInvocationValue = &FunctionInvocation{
			FunctionName: v.FunctionInvocationValue.FunctionName,
			Arguments:    relabelMap(v.FunctionInvocationValue.Arguments, renumber),
		}
	case v.FunctionDefinitionValue != nil:
		out.FunctionDefinitionValue = &FunctionDefinition{
			ArgumentNames: v.FunctionDefinitionValue.ArgumentNames,
			Body:          renumber[v.FunctionDefinitionValue.Body],
		}
	}

	return &out
}

func relabelMap(in map[string]*ValueNode, renumber map[string]string) map[string]*ValueNode {
	if in == nil {
		return nil
	}

	out := make(map[string]*ValueNode, len(in))

	for key, value := range in {
		out[key] = relabel(value, renumber)
	}

	return out
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))

	for key := range m {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
