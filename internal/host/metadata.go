package host

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Metadata is the information parsed from a plugin's main source file header.
type Metadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Header conventions recognized in plugin source files, tried in order:
//
//	Version: 1.2.3
//	@version 1.2.3
//	define('FOO_VERSION', '1.2.3')
var (
	reHeaderVersion = regexp.MustCompile(`(?mi)^[ \t/*#@-]*Version:[ \t]*([0-9A-Za-z.+-]+)`)
	reDocVersion    = regexp.MustCompile(`(?mi)@version[ \t]+([0-9A-Za-z.+-]+)`)
	reDefineVersion = regexp.MustCompile(`(?i)define\(\s*['"][A-Z0-9_]*VERSION['"]\s*,\s*['"]([^'"]+)['"]\s*\)`)

	reHeaderName        = regexp.MustCompile(`(?mi)^[ \t/*#@-]*Plugin Name:[ \t]*(.+?)[ \t]*$`)
	reHeaderDescription = regexp.MustCompile(`(?mi)^[ \t/*#@-]*Description:[ \t]*(.+?)[ \t]*$`)
)

// sourceExtensions are the file types scanned for metadata headers.
var sourceExtensions = map[string]bool{
	".php": true,
	".js":  true,
	".ts":  true,
	".py":  true,
	".rb":  true,
	".go":  true,
}

// HasSourceExtension reports whether the filename looks like a scannable
// source file.
func HasSourceExtension(name string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(name))]
}

// ExtractVersion scans file contents for a version marker, trying each header
// convention in order.
func ExtractVersion(data []byte) (string, bool) {
	for _, re := range []*regexp.Regexp{reHeaderVersion, reDocVersion, reDefineVersion} {
		if m := re.FindSubmatch(data); m != nil {
			return string(m[1]), true
		}
	}

	return "", false
}

// ParseMetadata extracts header metadata from file contents. At minimum a
// version marker must be present for the result to be considered a plugin
// header.
func ParseMetadata(data []byte) (*Metadata, bool) {
	v, ok := ExtractVersion(data)
	if !ok {
		return nil, false
	}

	meta := &Metadata{Version: v}

	if m := reHeaderName.FindSubmatch(data); m != nil {
		meta.Name = string(m[1])
	}

	if m := reHeaderDescription.FindSubmatch(data); m != nil {
		meta.Description = string(m[1])
	}

	return meta, true
}

// ReadMetadata parses the plugin header from the file at path.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plugin file: %w", err)
	}

	meta, ok := ParseMetadata(data)
	if !ok {
		return nil, fmt.Errorf("no plugin header in %s", filepath.Base(path))
	}

	return meta, nil
}

// FindPluginFile locates the main plugin file inside dir: the first root-level
// source file carrying a parseable header, preferring a file named after the
// directory itself.
func FindPluginFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading plugin directory: %w", err)
	}

	var candidates []string

	for _, e := range entries {
		if e.IsDir() || !HasSourceExtension(e.Name()) {
			continue
		}

		candidates = append(candidates, e.Name())
	}

	base := filepath.Base(dir)

	// A file named after the directory wins over alphabetical order.
	sort.Slice(candidates, func(i, j int) bool {
		iMatch := strings.TrimSuffix(candidates[i], filepath.Ext(candidates[i])) == base
		jMatch := strings.TrimSuffix(candidates[j], filepath.Ext(candidates[j])) == base

		if iMatch != jMatch {
			return iMatch
		}

		return candidates[i] < candidates[j]
	})

	for _, name := range candidates {
		path := filepath.Join(dir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		if _, ok := ParseMetadata(data); ok {
			return path, nil
		}
	}

	return "", fmt.Errorf("no plugin file with a metadata header in %s", dir)
}
