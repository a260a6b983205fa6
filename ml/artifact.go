package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrArtifactMissing is returned when an artifact file does not exist.
var ErrArtifactMissing = errors.New("artifact file not found")

func readArtifact(path string, v interface{}) error {
	if path == "" {
		return errors.New("artifact path is empty")
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeArtifact(path string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func checkWidth(features []float64, width int) error {
	if len(features) != width {
		return fmt.Errorf("%w: got %d values, want %d", ErrLengthMismatch, len(features), width)
	}
	return nil
}
