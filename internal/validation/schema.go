// package validation checks inbound command payloads against declared shapes before any
// business logic runs. Shapes are strict allow-lists: a field that is not declared is
// rejected at every nesting level.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
)

type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBoolean
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "a string"
	case KindNumber:
		return "a number"
	case KindBoolean:
		return "a boolean"
	case KindArray:
		return "an array"
	case KindObject:
		return "an object"
	}
	return "unknown"
}

// Field declares one value. Fields are built with String, Number, Integer, Boolean,
// Array and Object and refined with the chained methods, each of which returns a copy.
type Field struct {
	kind     Kind
	optional bool
	nullable bool
	integer  bool

	// -1 when unset; rune count for strings, element count for arrays
	minLen, maxLen int

	min, max *float64
	enum     []string
	pattern  *regexp.Regexp
	items    *Field
	shape    Shape
}

// Shape is the set of fields an object may carry.
type Shape map[string]Field

func String() Field { return Field{kind: KindString, minLen: -1, maxLen: -1} }
func Number() Field { return Field{kind: KindNumber, minLen: -1, maxLen: -1} }
func Boolean() Field { return Field{kind: KindBoolean, minLen: -1, maxLen: -1} }

// Integer is a number without a fractional part.
func Integer() Field {
	f := Number()
	f.integer = true
	return f
}

func Array(items Field) Field {
	return Field{kind: KindArray, minLen: -1, maxLen: -1, items: &items}
}

func Object(shape Shape) Field {
	return Field{kind: KindObject, minLen: -1, maxLen: -1, shape: shape}
}

// Optional allows the field to be absent.
func (f Field) Optional() Field {
	f.optional = true
	return f
}

// Nullable allows an explicit null.
func (f Field) Nullable() Field {
	f.nullable = true
	return f
}

func (f Field) MinLen(n int) Field {
	f.minLen = n
	return f
}

func (f Field) MaxLen(n int) Field {
	f.maxLen = n
	return f
}

func (f Field) Min(v float64) Field {
	f.min = &v
	return f
}

func (f Field) Max(v float64) Field {
	f.max = &v
	return f
}

func (f Field) Enum(values ...string) Field {
	f.enum = values
	return f
}

func (f Field) Pattern(re *regexp.Regexp) Field {
	f.pattern = re
	return f
}

// Schema is a named top-level shape. The name is reported as the part of any
// validation error.
type Schema struct {
	Name  string
	Shape Shape
}

// Validate parses raw and checks it against the schema. An empty payload is treated as
// an empty object. The parsed object is returned with numbers as json.Number.
func (s Schema) Validate(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, apperr.Validation(s.Name, "malformed payload: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, apperr.Validation(s.Name, "unexpected data after payload")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.Validation(s.Name, "payload must be an object")
	}
	if err := checkObject("", s.Shape, obj); err != nil {
		return nil, apperr.Validation(s.Name, "%v", err)
	}
	return obj, nil
}

// Decode validates raw against s and unmarshals it into T.
func Decode[T any](s Schema, raw []byte) (T, error) {
	var out T
	if _, err := s.Validate(raw); err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, apperr.Validation(s.Name, "invalid payload: %v", err)
	}
	return out, nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func checkObject(path string, shape Shape, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := shape[k]; !ok {
			return fmt.Errorf("%s: unknown field", join(path, k))
		}
	}

	names := make([]string, 0, len(shape))
	for k := range shape {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		f := shape[name]
		v, present := obj[name]
		if !present {
			if f.optional {
				continue
			}
			return fmt.Errorf("%s: required", join(path, name))
		}
		if err := checkValue(join(path, name), f, v); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(path string, f Field, v any) error {
	if v == nil {
		if f.nullable {
			return nil
		}
		return fmt.Errorf("%s: must not be null", path)
	}

	switch f.kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: must be %s", path, f.kind)
		}
		if err := checkLen(path, f, utf8.RuneCountInString(s)); err != nil {
			return err
		}
		if len(f.enum) > 0 && !slices.Contains(f.enum, s) {
			return fmt.Errorf("%s: must be one of %v", path, f.enum)
		}
		if f.pattern != nil && !f.pattern.MatchString(s) {
			return fmt.Errorf("%s: invalid format", path)
		}

	case KindNumber:
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("%s: must be %s", path, f.kind)
		}
		x, err := n.Float64()
		if err != nil {
			return fmt.Errorf("%s: must be %s", path, f.kind)
		}
		if f.integer {
			if _, err := n.Int64(); err != nil {
				return fmt.Errorf("%s: must be an integer", path)
			}
		}
		if f.min != nil && x < *f.min {
			return fmt.Errorf("%s: must be at least %v", path, *f.min)
		}
		if f.max != nil && x > *f.max {
			return fmt.Errorf("%s: must be at most %v", path, *f.max)
		}

	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%s: must be %s", path, f.kind)
		}

	case KindArray:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%s: must be %s", path, f.kind)
		}
		if err := checkLen(path, f, len(arr)); err != nil {
			return err
		}
		for i, item := range arr {
			if err := checkValue(fmt.Sprintf("%s[%d]", path, i), *f.items, item); err != nil {
				return err
			}
		}

	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: must be %s", path, f.kind)
		}
		return checkObject(path, f.shape, obj)
	}
	return nil
}

func checkLen(path string, f Field, n int) error {
	if f.minLen >= 0 && n < f.minLen {
		return fmt.Errorf("%s: length must be at least %d", path, f.minLen)
	}
	if f.maxLen >= 0 && n > f.maxLen {
		return fmt.Errorf("%s: length must be at most %d", path, f.maxLen)
	}
	return nil
}
