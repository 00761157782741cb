package loader

import (
	"os"
	"strings"
)

// EnvPrefix is the prefix of environment variables read by NewEnvLoader callers.
const EnvPrefix = "STRAND_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "STRAND_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "STRAND_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		environ: os.Environ,
	}
}

// defaultEnvMapping returns the default environment variable mappings.
func defaultEnvMapping() map[string]string {
	return map[string]string{
		"STRAND_LOG_LEVEL":            "logging.level",
		"STRAND_CHUNK_SIZE":           "rope.chunkSize",
		"STRAND_AUTO_REBALANCE_DEPTH": "rope.autoRebalanceDepth",
		"STRAND_METRICS":              "metrics.enabled",
		"STRAND_WATCH_DEBOUNCE":       "watch.debounce",
	}
}

// Load reads environment variables and returns a configuration map of raw
// string values. Converting them to the setting's type, and dropping names
// that match no setting, is left to the caller. Empty values are kept.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			// STRAND_ROPE_CHUNK_SIZE -> rope.chunkSize
			path = l.envToPath(name)
		}
		setByPath(config, path, value)
	}

	return config, nil
}

// envToPath converts STRAND_ROPE_CHUNK_SIZE to rope.chunkSize: the first part
// is the section, the rest form a camelCase setting name.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")

	section := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return section
	}

	setting := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if len(part) > 0 {
			setting += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return section + "." + setting
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
