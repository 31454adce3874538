package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteToFile writes the artifact to path, creating parent directories if
// needed.
func (a RunArtifact) WriteToFile(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := a.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Fprint writes the artifact to w followed by a newline.
func (a RunArtifact) Fprint(w io.Writer) error {
	data, err := a.ToJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
