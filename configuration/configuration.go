// Package configuration resolves named settings, such as "overlap_finder" or "nats_url", from layered sources like
// the environment, YAML or JSON files, literal maps and command line flags.
//
// A source reports each setting as a list of strings; nil means the source does not set it.  Sources are layered with
// Overlay, and read into structs with Unmarshal using the "cfg" struct tag:
//
//	var opts struct {
//		Window int `cfg:"join_window"`
//	}
//	err := configuration.Unmarshal(&opts, configuration.Overlay{flags, configuration.Environment(`OVERLAP_`), file})
package configuration

import "fmt"

// Interface is a source of named settings.
type Interface interface {
	// GetConfiguration returns the values of the named setting, usually just one.  A nil result means the setting is
	// not configured here and a default, or a lower layer, applies.
	GetConfiguration(name string) []string

	// Configured lists the settings this source provides, in no particular order and possibly with repeats.
	Configured() []string
}

// An Overlay layers sources in priority order: the first one to configure a setting decides its value.  Nil layers are
// skipped, so optional sources can be left in place.
type Overlay []Interface

// GetConfiguration returns the values from the highest layer that configures name.
func (cf Overlay) GetConfiguration(name string) []string {
	for _, layer := range cf {
		if layer == nil {
			continue
		}
		if values := layer.GetConfiguration(name); values != nil {
			return values
		}
	}
	return nil
}

// Configured lists the settings of every layer.
func (cf Overlay) Configured() []string { return Configured(cf...) }

// Configured lists the settings provided by any of the sources, once each, in the order they are first seen.
func Configured(sources ...Interface) []string {
	var names []string
	seen := make(map[string]bool)
	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, name := range src.Configured() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// MapOf copies the effective value of every setting in cf, such as for printing the configuration as YAML.
func MapOf(cf Interface) Map {
	names := Configured(cf)
	m := make(Map, len(names))
	for _, name := range names {
		m[name] = cf.GetConfiguration(name)
	}
	return m
}

// With layers a single setting over cf; the command line uses this to let flags override other sources.  Values are
// formatted with fmt.Sprint.
func With(cf Interface, name string, values ...any) Interface {
	items := make([]string, len(values))
	for i, v := range values {
		items[i] = fmt.Sprint(v)
	}
	return with{cf: cf, name: name, values: items}
}

type with struct {
	cf     Interface
	name   string
	values []string
}

func (cf with) GetConfiguration(name string) []string {
	if name == cf.name {
		return cf.values
	}
	if cf.cf == nil {
		return nil
	}
	return cf.cf.GetConfiguration(name)
}

func (cf with) Configured() []string {
	if cf.cf == nil {
		return []string{cf.name}
	}
	return append([]string{cf.name}, cf.cf.Configured()...)
}
