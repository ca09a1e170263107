package service

import (
	"fmt"
	"frame-compress/entities"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// stageSource copies the picked file into dir so ffmpeg can seek it. The
// returned video owns the staged file; callers release it.
func stageSource(dir, name string, r io.Reader, maxBytes int64) (*entities.SourceVideo, error) {
	if r == nil {
		return nil, ErrNoFileSelected
	}

	id := uuid.New()
	f, err := os.CreateTemp(dir, "source-"+id.String()+"-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return nil, fmt.Errorf("stage source video: %w", err)
	}
	video := &entities.SourceVideo{ID: id, Name: filepath.Base(name), Path: f.Name()}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = video.Release()
		return nil, fmt.Errorf("stage source video: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		_ = video.Release()
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes)
	}
	if n == 0 {
		_ = video.Release()
		return nil, ErrNoFileSelected
	}

	mime, err := mimetype.DetectFile(video.Path)
	if err != nil {
		_ = video.Release()
		return nil, fmt.Errorf("detect media type: %w", err)
	}
	if !strings.HasPrefix(mime.String(), "video/") {
		_ = video.Release()
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedMedia, video.Name, mime.String())
	}

	video.Size = n
	video.MIMEType = mime.String()
	return video, nil
}
