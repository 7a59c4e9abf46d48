package content

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed defaults
var defaultContent embed.FS

// WriteDefaults materializes the embedded starter content under dir.
// Existing files are left alone so user edits survive re-running init.
// Returns the number of files written.
func WriteDefaults(dir string) (int, error) {
	written := 0

	err := fs.WalkDir(defaultContent, "defaults", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel("defaults", path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)

		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		if _, err := os.Stat(target); err == nil {
			return nil
		}

		data, err := defaultContent.ReadFile(path)
		if err != nil {
			return err
		}

		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		written++
		return nil
	})
	if err != nil {
		return written, fmt.Errorf("write default content: %w", err)
	}

	return written, nil
}
