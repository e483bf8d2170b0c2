/*
 *  MIT License
 *
 *  Copyright (c) 2026 docforge contributors
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

// Package serialize walks a content object into a JSON-compatible tree
// tagging every struct with its Go type name, and back (spec.md §4.18).
// No example repo in the retrieval pack ships a tagged-union JSON
// serializer of this shape, so this is stdlib encoding/json + reflection
// throughout, the way the teacher itself reaches for plain encoding/json
// wherever it doesn't need CBOR/msgpack.
package serialize

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"sort"
)

// Registry maps a "_type" tag to the concrete Go type it reconstructs.
// Register every content-model type once at process start; pkg/extract
// does this in an init() for every decoder's content type.
type Registry struct {
	byName map[string]reflect.Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]reflect.Type)}
}

// Register associates name with the Go type of sample (a nil or zero
// value of the concrete struct, never a pointer).
func (r *Registry) Register(name string, sample any) {
	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.byName[name] = t
}

// std is the process-wide registry pkg/extract populates; spec.md §5
// calls this "a small cached type registry ... initialized lazily and
// thereafter read-only".
var std = NewRegistry()

// Default returns the package-level registry every decoder's types are
// registered into.
func Default() *Registry { return std }

// Serialize walks v (a struct, pointer-to-struct, slice, or map) into a
// JSON-compatible value tree. Every struct gains a "_type" key holding
// its Go type name. When includeBinary is false, []byte fields are still
// present as keys but their value is nulled out.
func Serialize(v any, includeBinary bool) any {
	return serializeValue(reflect.ValueOf(v), includeBinary)
}

func serializeValue(v reflect.Value, includeBinary bool) any {
	if !v.IsValid() {
		return nil
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return serializeStruct(v, includeBinary)
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return serializeBytes(v, includeBinary)
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = serializeValue(v.Index(i), includeBinary)
		}
		return out
	case reflect.Map:
		out := make(map[string]any, v.Len())
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
		for _, k := range keys {
			out[fmt.Sprint(k.Interface())] = serializeValue(v.MapIndex(k), includeBinary)
		}
		return out
	default:
		return v.Interface()
	}
}

func serializeBytes(v reflect.Value, includeBinary bool) any {
	if !includeBinary {
		return map[string]any{"_bytes": nil}
	}
	b := v.Bytes()
	return map[string]any{"_bytes": base64.StdEncoding.EncodeToString(b)}
}

func serializeStruct(v reflect.Value, includeBinary bool) map[string]any {
	t := v.Type()
	out := map[string]any{"_type": t.Name()}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		key := jsonFieldName(f)
		out[key] = serializeValue(v.Field(i), includeBinary)
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			if i == 0 {
				return f.Name
			}
			return tag[:i]
		}
	}
	return tag
}

// Deserialize reconstructs a value of outType from tree (as produced by
// Serialize), using r to resolve nested "_type" tags.
func Deserialize(r *Registry, tree any, outType reflect.Type) (any, error) {
	v, err := deserializeInto(r, tree, outType)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func deserializeInto(r *Registry, tree any, outType reflect.Type) (reflect.Value, error) {
	for outType.Kind() == reflect.Ptr {
		outType = outType.Elem()
	}

	if tree == nil {
		return reflect.Zero(outType), nil
	}

	switch outType.Kind() {
	case reflect.Struct:
		m, ok := tree.(map[string]any)
		if !ok {
			return reflect.Value{}, fmt.Errorf("serialize: expected object for %s", outType.Name())
		}
		if tn, ok := m["_type"].(string); ok {
			if rt, ok := r.byName[tn]; ok {
				outType = rt
			}
		}
		out := reflect.New(outType).Elem()
		for i := 0; i < outType.NumField(); i++ {
			f := outType.Field(i)
			if f.PkgPath != "" {
				continue
			}
			key := jsonFieldName(f)
			raw, present := m[key]
			if !present {
				continue
			}
			fv, err := deserializeInto(r, raw, f.Type)
			if err != nil {
				return reflect.Value{}, err
			}
			if f.Type.Kind() == reflect.Ptr && fv.Kind() != reflect.Ptr {
				pv := reflect.New(f.Type.Elem())
				pv.Elem().Set(fv)
				fv = pv
			}
			out.Field(i).Set(fv)
		}
		return out, nil

	case reflect.Slice:
		if outType.Elem().Kind() == reflect.Uint8 {
			return deserializeBytes(tree, outType)
		}
		arr, ok := tree.([]any)
		if !ok {
			return reflect.MakeSlice(outType, 0, 0), nil
		}
		out := reflect.MakeSlice(outType, len(arr), len(arr))
		for i, item := range arr {
			ev, err := deserializeInto(r, item, outType.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case reflect.Map:
		m, _ := tree.(map[string]any)
		out := reflect.MakeMapWithSize(outType, len(m))
		for k, val := range m {
			ev, err := deserializeInto(r, val, outType.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k), ev)
		}
		return out, nil

	case reflect.Ptr:
		inner, err := deserializeInto(r, tree, outType.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		pv := reflect.New(outType.Elem())
		pv.Elem().Set(inner)
		return pv, nil

	default:
		return coerceScalar(tree, outType)
	}
}

func deserializeBytes(tree any, outType reflect.Type) (reflect.Value, error) {
	m, ok := tree.(map[string]any)
	if !ok {
		return reflect.MakeSlice(outType, 0, 0), nil
	}
	enc, _ := m["_bytes"].(string)
	if enc == "" {
		if _, hasIO := m["_bytesio"]; hasIO {
			enc, _ = m["_bytesio"].(string)
		}
	}
	if enc == "" {
		return reflect.MakeSlice(outType, 0, 0), nil
	}
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeSlice(outType, len(b), len(b))
	reflect.Copy(out, reflect.ValueOf(b))
	return out, nil
}

func coerceScalar(tree any, outType reflect.Type) (reflect.Value, error) {
	v := reflect.ValueOf(tree)
	if !v.IsValid() {
		return reflect.Zero(outType), nil
	}
	if v.Type().ConvertibleTo(outType) {
		return v.Convert(outType), nil
	}
	// encoding/json decodes every number as float64; convert explicitly
	// for int-kinded destination fields.
	if f, ok := tree.(float64); ok {
		switch outType.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return reflect.ValueOf(f).Convert(outType), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return reflect.ValueOf(f).Convert(outType), nil
		}
	}
	return reflect.Zero(outType), nil
}
