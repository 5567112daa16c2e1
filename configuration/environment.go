package configuration

import (
	"os"
	"strings"
)

// Environment reads settings from environment variables named by prefix and the setting name.  An uppercase prefix,
// like "OVERLAP_", also uppercases the name, so join_window is read from OVERLAP_JOIN_WINDOW.
func Environment(prefix string) Interface {
	return environment{prefix: prefix, upper: prefix != `` && prefix == strings.ToUpper(prefix)}
}

type environment struct {
	prefix string
	upper  bool
}

func (cf environment) variable(name string) string {
	if cf.upper {
		name = strings.ToUpper(name)
	}
	return cf.prefix + name
}

func (cf environment) GetConfiguration(name string) []string {
	value, ok := os.LookupEnv(cf.variable(name))
	if !ok {
		return nil
	}
	return []string{value}
}

func (cf environment) Configured() []string {
	var names []string
	for _, kv := range os.Environ() {
		name, ok := strings.CutPrefix(kv, cf.prefix)
		if !ok {
			continue
		}
		name, _, _ = strings.Cut(name, `=`)
		if cf.upper {
			name = strings.ToLower(name)
		}
		if name != `` {
			names = append(names, name)
		}
	}
	return names
}
