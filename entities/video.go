package entities

import (
	"errors"
	"github.com/google/uuid"
	"io/fs"
	"os"
)

// SourceVideo is the picked file, staged on disk for the lifetime of a session.
type SourceVideo struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Path     string    `json:"-"`
	Size     int64     `json:"size"`
	MIMEType string    `json:"mime_type"`
}

func (v *SourceVideo) Open() (*os.File, error) {
	return os.Open(v.Path)
}

// Release removes the staged copy. Calling it more than once is fine.
func (v *SourceVideo) Release() error {
	if v == nil || v.Path == "" {
		return nil
	}
	if err := os.Remove(v.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
