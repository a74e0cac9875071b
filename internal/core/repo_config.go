package core

import (
	"path"
	"strings"
)

// RepoConfig represents the structure of the .gander.yml file a repository
// can carry at its root to tune its reviews.
type RepoConfig struct {
	// Custom instructions appended to the review prompt.
	CustomInstructions []string `yaml:"custom_instructions"`

	// Exclusion of entire directories by name.
	// Example: ["dist", "vendor", "docs"]
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// Exclusion of files based on their extension.
	// The leading dot is optional. Example: [".md", "lock", ".svg"]
	ExcludeExts []string `yaml:"exclude_exts"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		CustomInstructions: []string{},
		ExcludeDirs:        []string{},
		ExcludeExts:        []string{},
	}
}

// Excludes reports whether a changed file at filePath should be left out of
// the review, either because one of its path segments is an excluded
// directory or because its extension is excluded.
func (c *RepoConfig) Excludes(filePath string) bool {
	if c == nil {
		return false
	}

	cleaned := strings.TrimPrefix(path.Clean(filePath), "./")

	if len(c.ExcludeDirs) > 0 {
		segments := strings.Split(path.Dir(cleaned), "/")
		for _, seg := range segments {
			for _, dir := range c.ExcludeDirs {
				if seg == strings.Trim(dir, "/") && seg != "." {
					return true
				}
			}
		}
	}

	ext := path.Ext(cleaned)
	for _, e := range c.ExcludeExts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.EqualFold(ext, e) {
			return true
		}
	}

	return false
}
