package host

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSlugNotFound means no installed directory matched the repository name.
var ErrSlugNotFound = errors.New("host: no installed plugin matches")

// ErrSlugAmbiguous means more than one directory matched at the same rule.
var ErrSlugAmbiguous = errors.New("host: multiple installed plugins match")

// ResolveSlug maps a repository name to an installed plugin directory using an
// ordered rule list:
//
//  1. exact directory name match
//  2. "{name}-main" suffix (archive extraction artifact)
//  3. case-insensitive match
//  4. prefix match
//
// The first rule producing exactly one candidate wins; a rule producing more
// than one fails with ErrSlugAmbiguous rather than guessing.
func ResolveSlug(pluginDir, name string) (string, error) {
	entries, err := os.ReadDir(pluginDir)
	if err != nil {
		return "", fmt.Errorf("reading plugin root: %w", err)
	}

	var dirs []string

	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}

	rules := []func(dir string) bool{
		func(dir string) bool { return dir == name },
		func(dir string) bool { return dir == name+"-main" },
		func(dir string) bool { return strings.EqualFold(dir, name) },
		func(dir string) bool { return strings.HasPrefix(strings.ToLower(dir), strings.ToLower(name)) },
	}

	for _, rule := range rules {
		var matches []string

		for _, dir := range dirs {
			if rule(dir) {
				matches = append(matches, dir)
			}
		}

		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return "", fmt.Errorf("%w: %s", ErrSlugAmbiguous, strings.Join(matches, ", "))
		}
	}

	return "", fmt.Errorf("%w: %s", ErrSlugNotFound, name)
}
