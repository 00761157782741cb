package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/strand/internal/config/loader"
	"github.com/dshills/strand/internal/logging"
	"github.com/dshills/strand/internal/rope"
)

// Config holds all strand settings.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Rope    RopeConfig    `toml:"rope"`
	Metrics MetricsConfig `toml:"metrics"`
	Watch   WatchConfig   `toml:"watch"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`
}

// RopeConfig configures how ropes are built and maintained.
type RopeConfig struct {
	// ChunkSize is the number of characters per leaf when loading files.
	ChunkSize int `toml:"chunkSize"`

	// AutoRebalanceDepth triggers a rebalance once an edited rope grows deeper
	// than this. Zero disables automatic rebalancing.
	AutoRebalanceDepth int `toml:"autoRebalanceDepth"`
}

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// WatchConfig configures file watching.
type WatchConfig struct {
	// Debounce is a Go duration string, e.g. "100ms".
	Debounce string `toml:"debounce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Rope: RopeConfig{
			ChunkSize:          rope.DefaultChunkSize,
			AutoRebalanceDepth: 64,
		},
		Metrics: MetricsConfig{Enabled: false},
		Watch:   WatchConfig{Debounce: "100ms"},
	}
}

// LogLevel returns the parsed logging level. Call Validate first; an invalid
// level falls back to info.
func (c Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}

// Debounce returns the parsed watch debounce. An invalid value yields zero.
func (c Config) Debounce() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Debounce)
	return d
}

// Validate checks every setting and returns all failures joined.
func (c Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, &ValidationError{Path: "logging.level", Message: "must be debug, info, warn, or error", Value: c.Logging.Level})
	}
	if c.Rope.ChunkSize < 1 || c.Rope.ChunkSize > rope.MaxChunkSize {
		errs = append(errs, &ValidationError{Path: "rope.chunkSize", Message: fmt.Sprintf("must be between 1 and %d", rope.MaxChunkSize), Value: c.Rope.ChunkSize})
	}
	if c.Rope.AutoRebalanceDepth < 0 {
		errs = append(errs, &ValidationError{Path: "rope.autoRebalanceDepth", Message: "must not be negative", Value: c.Rope.AutoRebalanceDepth})
	}
	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
		errs = append(errs, &ValidationError{Path: "watch.debounce", Message: "must be a non-negative duration", Value: c.Watch.Debounce})
	}

	return errors.Join(errs...)
}

// Loader assembles a Config from defaults, a file and the environment.
type Loader struct {
	fs     loader.FileSystem
	env    loader.Loader
	useEnv bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the file system config files are read from.
func WithFS(fs loader.FileSystem) Option {
	return func(l *Loader) {
		l.fs = fs
	}
}

// WithEnvLoader replaces the environment layer.
func WithEnvLoader(env loader.Loader) Option {
	return func(l *Loader) {
		l.env = env
		l.useEnv = env != nil
	}
}

// WithoutEnv disables the environment layer.
func WithoutEnv() Option {
	return func(l *Loader) {
		l.useEnv = false
	}
}

// NewLoader creates a loader reading the OS file system and STRAND_* variables.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		fs:     loader.DefaultFS(),
		env:    loader.NewEnvLoader(loader.EnvPrefix),
		useEnv: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// maxIncludeDepth bounds nested @include directives in TOML config files.
const maxIncludeDepth = 8

// Load builds the configuration. An empty path skips the file layer; a path
// that does not exist is treated the same way.
func (l *Loader) Load(path string) (Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}

	if path != "" {
		fileCfg, err := l.loadFile(path)
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, fileCfg)
	}

	if l.useEnv {
		envCfg, err := l.env.Load()
		if err != nil {
			return Config{}, fmt.Errorf("loading environment: %w", err)
		}
		if err := overlayEnv(merged, envCfg, ""); err != nil {
			return Config{}, err
		}
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile is Load for a file the caller named explicitly: a missing file is
// an error wrapping ErrConfigNotFound instead of falling back to defaults.
func (l *Loader) LoadFile(path string) (Config, error) {
	if _, err := l.fs.ReadFile(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return l.Load(path)
}

// loadFile reads one config file. TOML files may pull in others with
// "@include"; included files sit below the including file.
func (l *Loader) loadFile(path string) (map[string]any, error) {
	fl, err := loader.ForPath(l.fs, path)
	if err != nil {
		return nil, err
	}
	if tl, ok := fl.(*loader.TOMLLoader); ok {
		return tl.LoadWithIncludes(path, maxIncludeDepth)
	}
	return fl.LoadFrom(path)
}

// Load builds the configuration with the default loader.
func Load(path string) (Config, error) {
	return NewLoader().Load(path)
}

// overlayEnv copies environment values onto settings that already exist in
// dst, converting each raw string to the type of the value it replaces.
// Names that match no setting are skipped so unrelated STRAND_* variables do
// not break loading.
func overlayEnv(dst, env map[string]any, prefix string) error {
	var errs []error
	for key, val := range env {
		path := prefix + key
		cur, ok := dst[key]
		if !ok {
			continue
		}

		if sub, isMap := val.(map[string]any); isMap {
			if curMap, ok := cur.(map[string]any); ok {
				if err := overlayEnv(curMap, sub, path+"."); err != nil {
					errs = append(errs, err)
				}
			}
			continue
		}
		if _, isMap := cur.(map[string]any); isMap {
			continue
		}

		converted, err := convertLike(cur, fmt.Sprint(val))
		if err != nil {
			errs = append(errs, &ValidationError{Path: path, Message: err.Error(), Value: val})
			continue
		}
		dst[key] = converted
	}
	return errors.Join(errs...)
}

// convertLike parses s into the type of like.
func convertLike(like any, s string) (any, error) {
	switch like.(type) {
	case bool:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0", "":
			return false, nil
		}
		return nil, errors.New("must be a boolean")
	case int64:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, errors.New("must be an integer")
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, errors.New("must be a number")
		}
		return f, nil
	default:
		return s, nil
	}
}

// toMap converts a Config into the nested map form the loaders produce.
func toMap(c Config) (map[string]any, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}

// fromMap decodes a merged map into a Config, rejecting unknown settings.
func fromMap(m map[string]any) (Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return Config{}, fmt.Errorf("encoding config: %w", err)
	}

	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrUnknownSetting, strict.String())
		}
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}
