// Package storage persists rendered images under a flat namespace of
// unique filenames.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a named object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Object describes one stored file.
type Object struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store writes, lists and deletes output files.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Object, error)
}

// CheckName rejects names that could escape the output root.
func CheckName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid object name %q", name)
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."):
		return fmt.Errorf("invalid object name %q", name)
	}
	return nil
}
