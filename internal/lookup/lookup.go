// Package lookup resolves dotted paths such as "user.address.city" against
// arbitrary Go values: maps keyed by strings, structs, slices, arrays and
// pointers to any of those.
package lookup

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Resolve walks path segment by segment starting at data.
//
// The second return value is false when the path cannot be resolved: an
// intermediate value is nil, a key or field does not exist, an index is out
// of range, or a value of an unsupported kind is reached. A path that
// resolves to nil is reported the same way. Resolve never panics.
func Resolve(data any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	current := reflect.ValueOf(data)
	for _, segment := range strings.Split(path, ".") {
		current = indirect(current)
		if !current.IsValid() {
			return nil, false
		}

		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}

	if !indirect(current).IsValid() || !current.CanInterface() {
		return nil, false
	}
	return current.Interface(), true
}

// step looks up a single segment on an already dereferenced value.
func step(v reflect.Value, segment string) (reflect.Value, bool) {
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		value := v.MapIndex(reflect.ValueOf(segment).Convert(v.Type().Key()))
		if !value.IsValid() {
			return reflect.Value{}, false
		}
		return value, true

	case reflect.Struct:
		return field(v, segment)

	case reflect.Slice, reflect.Array:
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(index), true

	default:
		return reflect.Value{}, false
	}
}

// field finds an exported struct field by name, then by json tag name, then
// by case-insensitive name.
func field(v reflect.Value, name string) (reflect.Value, bool) {
	typ := v.Type()

	if sf, ok := typ.FieldByName(name); ok && sf.IsExported() {
		value, err := v.FieldByIndexErr(sf.Index)
		if err != nil {
			return reflect.Value{}, false
		}
		return value, true
	}

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tag := sf.Tag.Get("json"); tag != "" {
			tagName := tag
			if commaIdx := strings.Index(tag, ","); commaIdx >= 0 {
				tagName = tag[:commaIdx]
			}
			if tagName == name {
				return v.Field(i), true
			}
		}
	}

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if sf.IsExported() && strings.EqualFold(sf.Name, name) {
			return v.Field(i), true
		}
	}

	return reflect.Value{}, false
}

// indirect unwraps interfaces and pointers. A nil pointer or nil interface
// yields the zero Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Interface, reflect.Pointer:
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if v.IsNil() {
				return reflect.Value{}
			}
			return v
		default:
			return v
		}
	}
	return v
}

// Stringify converts a resolved value to the text that is substituted into
// the document.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	default:
		return fmt.Sprint(val)
	}
}
