package configuration

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Unmarshal reads the exported fields of the struct v points to from cf.  Each field is read from the setting named by
// its "cfg" tag, falling back to its "yaml" tag, its "json" tag and then its name; a tag of "-" skips the field.
//
// Fields may be strings, string slices, bools or ints.  Fields whose settings are not configured keep their value, so
// defaults are assigned before calling Unmarshal.
func Unmarshal(v any, cf Interface) error {
	rv, err := structOf(v)
	if err != nil {
		return err
	}
	return eachField(rv, func(name string, fv reflect.Value) error {
		return Get(fv.Addr().Interface(), cf, name)
	})
}

// Marshal is the reverse of Unmarshal, returning the fields of the struct v points to as a Map.  Fields of unsupported
// types are left out.
func Marshal(v any) (Map, error) {
	rv, err := structOf(v)
	if err != nil {
		return nil, err
	}
	cf := make(Map, rv.NumField())
	err = eachField(rv, func(name string, fv reflect.Value) error {
		switch fv.Kind() {
		case reflect.String:
			cf[name] = []string{fv.String()}
		case reflect.Bool:
			cf[name] = []string{strconv.FormatBool(fv.Bool())}
		case reflect.Int:
			cf[name] = []string{strconv.FormatInt(fv.Int(), 10)}
		case reflect.Slice:
			if items, ok := fv.Interface().([]string); ok {
				cf[name] = append([]string{}, items...)
			}
		}
		return nil
	})
	return cf, err
}

// Get reads one setting into ref, which must be a *string, *[]string, *bool or *int.  Ref is left unchanged if the
// setting is not configured.
func Get(ref any, cf Interface, name string) error {
	values := cf.GetConfiguration(name)
	if values == nil {
		return nil
	}
	if list, ok := ref.(*[]string); ok {
		*list = values
		return nil
	}
	switch len(values) {
	case 0:
		return nil
	case 1:
	default:
		return fmt.Errorf(`%q has %d values, expected one`, name, len(values))
	}
	if err := parse(ref, values[0]); err != nil {
		return fmt.Errorf(`%w for %q`, err, name)
	}
	return nil
}

func parse(ref any, value string) error {
	switch ref := ref.(type) {
	case *string:
		*ref = value
	case *bool:
		switch strings.ToLower(value) {
		case `true`, `yes`, `on`, `1`:
			*ref = true
		case `false`, `no`, `off`, `0`:
			*ref = false
		default:
			return fmt.Errorf(`invalid boolean %q`, value)
		}
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*ref = n
	default:
		return fmt.Errorf(`unsupported type %T`, ref)
	}
	return nil
}

func structOf(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf(`expected a pointer to a struct, got %T`, v)
	}
	return rv.Elem(), nil
}

// eachField calls fn with each exported field of rv that names a setting.
func eachField(rv reflect.Value, fn func(name string, fv reflect.Value) error) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := settingName(rt.Field(i))
		if name == `` {
			continue
		}
		if err := fn(name, rv.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

func settingName(ft reflect.StructField) string {
	if !ft.IsExported() {
		return ``
	}
	name := ft.Name
	for _, key := range [...]string{`cfg`, `yaml`, `json`} {
		if tag := ft.Tag.Get(key); tag != `` {
			name, _, _ = strings.Cut(tag, `,`)
			break
		}
	}
	if name == `-` {
		return ``
	}
	return name
}
