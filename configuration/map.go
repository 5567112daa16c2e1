package configuration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Map is a literal source of settings.  It encodes as a JSON or YAML mapping of names to scalars or lists of scalars,
// which is the format read by File and written by the "config" command.
type Map map[string][]string

// GetConfiguration returns the values of name, or nil if the map does not contain it.
func (cf Map) GetConfiguration(name string) []string { return cf[name] }

// Configured lists the names in the map.
func (cf Map) Configured() []string {
	names := make([]string, 0, len(cf))
	for name := range cf {
		names = append(names, name)
	}
	return names
}

// File reads settings from a JSON document if path ends in ".json", or a YAML document otherwise, such as:
//
//	overlap_finder: kmp
//	join_window: 8192
//	nats_url: nats://localhost:4222
func File(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf Map
	if strings.EqualFold(filepath.Ext(path), `.json`) {
		err = json.Unmarshal(data, &cf)
	} else {
		err = yaml.Unmarshal(data, &cf)
	}
	if err != nil {
		return nil, fmt.Errorf(`%w while parsing %v`, err, path)
	}
	return cf, nil
}

// UnmarshalJSON implements json.Unmarshaler.  Numbers and booleans are kept as their JSON text; null becomes "null".
func (cf *Map) UnmarshalJSON(p []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(p, &doc); err != nil {
		return err
	}
	m := make(Map, len(doc))
	for name, v := range doc {
		items, ok := v.([]any)
		if !ok {
			items = []any{v}
		}
		values := make([]string, len(items))
		for i, item := range items {
			s, err := jsonScalar(item)
			if err != nil {
				return fmt.Errorf(`%w for %q`, err, name)
			}
			values[i] = s
		}
		m[name] = values
	}
	*cf = m
	return nil
}

func jsonScalar(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return `null`, nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return ``, fmt.Errorf(`expected a scalar, got %T`, v)
}

// MarshalJSON implements json.Marshaler.  Settings with one value are written as a scalar; "true", "false" and "null"
// are written as JSON literals.
func (cf Map) MarshalJSON() ([]byte, error) { return json.Marshal(cf.document()) }

// MarshalYAML implements yaml.Marshaler with the same layout as MarshalJSON.
func (cf Map) MarshalYAML() (any, error) { return cf.document(), nil }

func (cf Map) document() map[string]any {
	doc := make(map[string]any, len(cf))
	for name, values := range cf {
		switch len(values) {
		case 0:
		case 1:
			doc[name] = literal(values[0])
		default:
			items := make([]any, len(values))
			for i, v := range values {
				items[i] = literal(v)
			}
			doc[name] = items
		}
	}
	return doc
}

func literal(v string) any {
	switch v {
	case `true`:
		return true
	case `false`:
		return false
	case `null`:
		return nil
	}
	return v
}

// UnmarshalYAML implements yaml.Unmarshaler for a mapping of names to scalars or sequences of scalars.
func (cf *Map) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf(`line %d: expected a mapping of settings`, node.Line)
	}
	m := make(Map, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == `` {
			return fmt.Errorf(`line %d: expected a setting name`, key.Line)
		}
		switch value.Kind {
		case yaml.ScalarNode:
			m[key.Value] = []string{value.Value}
		case yaml.SequenceNode:
			values := make([]string, len(value.Content))
			for j, item := range value.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf(`line %d: expected a scalar in %q`, item.Line, key.Value)
				}
				values[j] = item.Value
			}
			m[key.Value] = values
		default:
			return fmt.Errorf(`line %d: expected a scalar or sequence for %q`, value.Line, key.Value)
		}
	}
	*cf = m
	return nil
}
