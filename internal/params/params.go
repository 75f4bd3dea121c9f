package params

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/inovacc/plugr/internal/application"
)

var (
	once       sync.Once
	AppdataDir string
)

func init() {
	once.Do(getAppDataDir)
}

func getAppDataDir() {
	if dir := os.Getenv("PLUGR_DATA_DIR"); dir != "" {
		AppdataDir = dir
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			panic(err)
		}

		AppdataDir = filepath.Join(dir, application.AppName)
	}

	if err := os.MkdirAll(AppdataDir, os.ModePerm); err != nil {
		panic(err)
	}
}
