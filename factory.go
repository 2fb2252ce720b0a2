package icelock

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// identity names a container by reference so a value can be recognised when
// it is reached again through itself.
type identity struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// source is a composite input as seen by the builder.
type source struct {
	kind Kind
	size int

	id    identity
	hasID bool

	// each yields the entries in natural order. key is the field name for
	// records, the index for sequences, the key for maps and the position
	// for sets.
	each func(fn func(key, value any) error) error
}

// builder carries the state of one recursive construction.
type builder struct {
	// onPath holds the containers enclosing the value being built.
	onPath map[identity]struct{}

	handles int
}

// build wraps value in a handle built with opts. path locates value inside
// the top-level input and is used in error messages.
func (b *builder) build(value any, opts Options, path Path) (*Handle, error) {
	if isNull(value) {
		return nil, ErrNullInput
	}
	src, ok := inspect(value)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotComposite, value)
	}
	if src.hasID {
		if b.onPath == nil {
			b.onPath = make(map[identity]struct{})
		}
		if _, seen := b.onPath[src.id]; seen {
			return nil, fmt.Errorf("%w: at %s", ErrCyclicInput, path)
		}
		b.onPath[src.id] = struct{}{}
		defer delete(b.onPath, src.id)
	}

	h := &Handle{
		state:  opts.Initial,
		opts:   opts.childOptions(),
		logger: opts.Logger,
	}
	b.handles++

	// wrap returns what the shadow container stores for elem.
	wrap := func(elem any, seg any) (any, error) {
		if !isComposite(elem) {
			return elem, nil
		}
		child, err := b.build(elem, h.opts, path.child(seg))
		if err != nil {
			return nil, err
		}
		h.children = append(h.children, child)
		return child.view, nil
	}

	var err error
	switch src.kind {
	case KindRecord:
		shadow := newOrdered[string](src.size)
		err = src.each(func(key, value any) error {
			v, err := wrap(value, key)
			if err != nil {
				return err
			}
			shadow.put(key.(string), v)
			return nil
		})
		h.view = &Record{h: h, shadow: shadow}

	case KindSequence:
		shadow := make([]any, 0, src.size)
		err = src.each(func(key, value any) error {
			v, err := wrap(value, key)
			if err != nil {
				return err
			}
			shadow = append(shadow, v)
			return nil
		})
		h.view = &Sequence{h: h, shadow: shadow}

	case KindMap:
		shadow := newOrdered[any](src.size)
		err = src.each(func(key, value any) error {
			if !hashable(key) {
				return fmt.Errorf("%w: map key %T at %s", ErrUnhashable, key, path)
			}
			v, err := wrap(value, key)
			if err != nil {
				return err
			}
			shadow.put(key, v)
			return nil
		})
		h.view = &Map{h: h, shadow: shadow}

	case KindSet:
		shadow := newOrdered[any](src.size)
		err = src.each(func(key, value any) error {
			v, err := wrap(value, key)
			if err != nil {
				return err
			}
			if !hashable(v) {
				return fmt.Errorf("%w: set member %T at %s", ErrUnhashable, v, path)
			}
			shadow.put(v, nil)
			return nil
		})
		h.view = &Set{h: h, shadow: shadow}
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// isNull reports whether v is the null sentinel: an untyped nil, or a nil
// pointer or interface.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isComposite reports whether Lock would wrap v.
func isComposite(v any) bool {
	if isNull(v) {
		return false
	}
	_, ok := inspect(v)
	return ok
}

// hashable reports whether v can be used as a map key or set member.
func hashable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}

// inspect classifies v. It reports false for primitives.
func inspect(v any) (source, bool) {
	switch t := v.(type) {
	case nil, bool, string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return source{}, false

	case *Record:
		return viewSource(t, KindRecord, t.shadow.len(), func(fn func(key, value any) error) error {
			for i, k := range t.shadow.keys {
				if err := fn(k, t.shadow.vals[i]); err != nil {
					return err
				}
			}
			return nil
		}), true

	case *Sequence:
		return viewSource(t, KindSequence, len(t.shadow), func(fn func(key, value any) error) error {
			for i, e := range t.shadow {
				if err := fn(i, e); err != nil {
					return err
				}
			}
			return nil
		}), true

	case *Map:
		return viewSource(t, KindMap, t.shadow.len(), func(fn func(key, value any) error) error {
			for i, k := range t.shadow.keys {
				if err := fn(k, t.shadow.vals[i]); err != nil {
					return err
				}
			}
			return nil
		}), true

	case *Set:
		return viewSource(t, KindSet, t.shadow.len(), func(fn func(key, value any) error) error {
			for i, k := range t.shadow.keys {
				if err := fn(i, k); err != nil {
					return err
				}
			}
			return nil
		}), true

	case Fields:
		return literalSource(reflect.ValueOf(t), KindRecord, len(t), func(fn func(key, value any) error) error {
			for _, f := range t {
				if err := fn(f.Key, f.Value); err != nil {
					return err
				}
			}
			return nil
		}), true

	case Pairs:
		return literalSource(reflect.ValueOf(t), KindMap, len(t), func(fn func(key, value any) error) error {
			for _, p := range t {
				if err := fn(p.Key, p.Value); err != nil {
					return err
				}
			}
			return nil
		}), true

	case Members:
		return literalSource(reflect.ValueOf(t), KindSet, len(t), func(fn func(key, value any) error) error {
			for i, m := range t {
				if err := fn(i, m); err != nil {
					return err
				}
			}
			return nil
		}), true
	}
	return inspectValue(reflect.ValueOf(v))
}

func viewSource(v View, kind Kind, size int, each func(func(key, value any) error) error) source {
	return source{
		kind:  kind,
		size:  size,
		id:    identity{typ: reflect.TypeOf(v), ptr: reflect.ValueOf(v).Pointer()},
		hasID: true,
		each:  each,
	}
}

func literalSource(rv reflect.Value, kind Kind, size int, each func(func(key, value any) error) error) source {
	src := source{kind: kind, size: size, each: each}
	src.id, src.hasID = sliceIdentity(rv)
	return src
}

func sliceIdentity(rv reflect.Value) (identity, bool) {
	if rv.Len() == 0 {
		return identity{}, false
	}
	return identity{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}, true
}

// inspectValue classifies the Go-native shapes: structs, slices, arrays,
// maps and pointers to any of them.
func inspectValue(rv reflect.Value) (source, bool) {
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return source{}, false
		}
		elem := rv.Elem()
		if !elem.CanInterface() {
			return source{}, false
		}
		src, ok := inspect(elem.Interface())
		if !ok {
			return source{}, false
		}
		if !src.hasID {
			src.id, src.hasID = identity{typ: rv.Type(), ptr: rv.Pointer()}, true
		}
		return src, true

	case reflect.Struct:
		fields := recordFields(rv.Type())
		if len(fields) == 0 {
			return source{}, false
		}
		return source{
			kind: KindRecord,
			size: len(fields),
			each: func(fn func(key, value any) error) error {
				for _, f := range fields {
					if err := fn(f.name, rv.Field(f.index).Interface()); err != nil {
						return err
					}
				}
				return nil
			},
		}, true

	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return source{}, false
		}
		src := source{
			kind: KindSequence,
			size: rv.Len(),
			each: func(fn func(key, value any) error) error {
				for i := 0; i < rv.Len(); i++ {
					if err := fn(i, rv.Index(i).Interface()); err != nil {
						return err
					}
				}
				return nil
			},
		}
		if rv.Kind() == reflect.Slice {
			src.id, src.hasID = sliceIdentity(rv)
		}
		return src, true

	case reflect.Map:
		keys := sortedKeys(rv)
		src := source{size: len(keys)}
		if !rv.IsNil() {
			src.id, src.hasID = identity{typ: rv.Type(), ptr: rv.Pointer()}, true
		}
		if elem := rv.Type().Elem(); elem.Kind() == reflect.Struct && elem.NumField() == 0 {
			src.kind = KindSet
			src.each = func(fn func(key, value any) error) error {
				for i, k := range keys {
					if err := fn(i, k.Interface()); err != nil {
						return err
					}
				}
				return nil
			}
			return src, true
		}
		src.kind = KindMap
		src.each = func(fn func(key, value any) error) error {
			for _, k := range keys {
				if err := fn(k.Interface(), rv.MapIndex(k).Interface()); err != nil {
					return err
				}
			}
			return nil
		}
		return src, true
	}
	return source{}, false
}

type recordField struct {
	name  string
	index int
}

// recordFields lists the exported fields of a struct type in declaration
// order. The tag icelock:"name" renames a field and icelock:"-" skips it.
func recordFields(t reflect.Type) []recordField {
	var fields []recordField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("icelock"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fields = append(fields, recordField{name: name, index: i})
	}
	return fields
}

// sortedKeys returns the keys of a map in a deterministic order: booleans and
// numbers by value, then strings, then everything else by formatted text.
func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	slices.SortStableFunc(keys, func(a, b reflect.Value) int {
		ra, rb := keyRank(a), keyRank(b)
		if c := cmp.Compare(ra.rank, rb.rank); c != 0 {
			return c
		}
		switch ra.rank {
		case 0:
			if c := cmp.Compare(ra.num, rb.num); c != 0 {
				return c
			}
		case 1:
			return strings.Compare(ra.text, rb.text)
		}
		return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})
	return keys
}

type rankedKey struct {
	rank int
	num  float64
	text string
}

func keyRank(v reflect.Value) rankedKey {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return rankedKey{rank: 2}
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return rankedKey{num: 1}
		}
		return rankedKey{}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rankedKey{num: float64(v.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rankedKey{num: float64(v.Uint())}
	case reflect.Float32, reflect.Float64:
		return rankedKey{num: v.Float()}
	case reflect.String:
		return rankedKey{rank: 1, text: v.String()}
	}
	return rankedKey{rank: 2}
}
