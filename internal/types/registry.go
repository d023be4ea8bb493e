// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
// Package types maps Go types to stable wire names.
package types

import (
	"reflect"
	"slices"
	"strings"

	"github.com/tochemey/interfaced/internal/xsync"
)

// Registry resolves the wire names of registered message types.
// It is safe for concurrent use.
type Registry struct {
	byName *xsync.Map[string, reflect.Type]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{byName: xsync.NewMap[string, reflect.Type]()}
}

// Register records the type of v and returns its wire name
func (r *Registry) Register(v any) string {
	rtype := reflectType(v)
	name := nameOf(rtype)
	r.byName.Set(name, rtype)
	return name
}

// Remove forgets the type of v
func (r *Registry) Remove(v any) {
	r.byName.Delete(TypeName(v))
}

// Name returns the wire name of v when its type is registered
func (r *Registry) Name(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	name := TypeName(v)
	rtype, ok := r.byName.Get(name)
	if !ok || rtype != reflectType(v) {
		return "", false
	}
	return name, true
}

// Lookup returns the type registered under name. Names are case insensitive.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	return r.byName.Get(normalize(name))
}

// Names returns the sorted wire names
func (r *Registry) Names() []string {
	names := r.byName.Keys()
	slices.Sort(names)
	return names
}

// TypeName returns the wire name of the type of v.
// v may itself be a reflect.Type.
func TypeName(v any) string {
	return nameOf(reflectType(v))
}

func reflectType(v any) reflect.Type {
	if rtype, ok := v.(reflect.Type); ok {
		return rtype
	}
	return reflect.TypeOf(v)
}

func nameOf(rtype reflect.Type) string {
	return normalize(rtype.String())
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
