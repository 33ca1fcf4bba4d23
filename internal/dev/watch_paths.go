package dev

import (
	"path/filepath"

	"github.com/vango-dev/reconciler/internal/config"
)

// CollectWatchPaths returns the normalized, de-duplicated paths to watch
// for a run: the scenario files and, if present, the config file in
// configDir.
func CollectWatchPaths(configDir string, scenarios []string) []string {
	paths := append([]string(nil), scenarios...)
	if config.Exists(configDir) {
		paths = append(paths, filepath.Join(configDir, config.ConfigFileName))
	}

	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		unique = append(unique, clean)
	}

	return unique
}
