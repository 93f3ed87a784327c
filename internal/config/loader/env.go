package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// EnvLoader loads configuration from environment variables. Only variables
// named in the mapping are read.
type EnvLoader struct {
	mapping map[string]string // env var -> dotted config path
	lookup  func(string) (string, bool)
}

// NewEnvLoader creates a loader for mapping.
func NewEnvLoader(mapping map[string]string) *EnvLoader {
	return &EnvLoader{mapping: mapping, lookup: os.LookupEnv}
}

// Load returns the mapped variables that are set. An empty value counts as
// set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for env, path := range l.mapping {
		if val, ok := l.lookup(env); ok {
			setByPath(config, path, ParseValue(val))
		}
	}
	return config, nil
}

// Variables returns the mapped variable names, for help output.
func (l *EnvLoader) Variables() []string {
	names := make([]string, 0, len(l.mapping))
	for env := range l.mapping {
		names = append(names, env)
	}
	return names
}

// ParseValue converts an environment string to the TOML value it most
// likely denotes: bool, int64, float64, a JSON array, a comma separated
// list, or the string itself.
func ParseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(s, "[") {
		var v []any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
