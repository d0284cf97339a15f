package probe

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeSample writes the sampled bytes to path, creating its directory. It
// overwrites the file if it already exists.
func writeSample(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save sample: %w", err)
	}
	return nil
}
