package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemOutput writes each dumped http exchange to its own file inside a
// directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput empties and recreates dir.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("clear dump dir: %w", err)
	}
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("create dump dir: %w", err)
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id+".txt"), []byte(contents), 0o600)
	if err != nil {
		slog.Warn("failed to write http dump", "id", id, "err", err)
	}
}
