package drive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ListLocal splits the top level of a local directory into file names
// and subdirectory names. Symlinks would need cycle detection to follow
// safely, so they are skipped.
func ListLocal(dir string) (files, dirs []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.Type()&os.ModeSymlink != 0 {
			logrus.WithField("path", filepath.Join(dir, e.Name())).Debug("skipping symlink")
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		} else {
			files = append(files, e.Name())
		}
	}
	return files, dirs, nil
}
