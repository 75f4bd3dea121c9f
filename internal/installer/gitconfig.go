package installer

import (
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/inovacc/plugr/internal/model"
)

// managedBy reports whether the checkout at dir points at the tracked
// repository, by reading the origin URL straight out of .git/config. A
// checkout of some other remote in our target directory is a conflict, not
// something to fetch into.
func (i *Installer) managedBy(dir string, repo *model.Repository) bool {
	remote, ok := originURL(filepath.Join(dir, ".git", "config"))
	if !ok {
		return false
	}

	want := strings.ToLower(repo.Owner + "/" + repo.Name)

	remote = strings.ToLower(strings.TrimSuffix(remote, ".git"))

	return strings.HasSuffix(remote, "/"+want) || strings.HasSuffix(remote, ":"+want)
}

func originURL(configPath string) (string, bool) {
	cfg, err := ini.Load(configPath)
	if err != nil {
		return "", false
	}

	sec, err := cfg.GetSection(`remote "origin"`)
	if err != nil {
		return "", false
	}

	key, err := sec.GetKey("url")
	if err != nil {
		return "", false
	}

	return key.String(), true
}
