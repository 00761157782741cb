// Package config provides the configuration for strand.
//
// Configuration is assembled from three layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← STRAND_*, highest priority
//	├─────────────────────────────┤
//	│  2. Config File             │  ← strand.toml / strand.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Each layer is read into a nested map by the loader sub-package, the maps are
// deep-merged, and the result is decoded into a Config and validated.
//
// # Sub-packages
//
//   - loader: TOML, YAML and environment variable loading, DeepMerge
//   - watcher: fsnotify-based file watching with debounce
package config
