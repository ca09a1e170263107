package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"frame-compress/constant"
	"frame-compress/entities"
	"github.com/rs/zerolog"
	"image/jpeg"
	"math"
	"strconv"
	"time"
)

var (
	ErrLocalMedia = errors.New("local media error")
	ErrMetadata   = errors.New("failed to load video metadata")
	ErrDecode     = errors.New("failed to seek or decode video")
	ErrRaster     = errors.New("failed to encode frame")
)

// MediaError tags a failure with the extraction stage that produced it. It
// always matches ErrLocalMedia.
type MediaError struct {
	Stage error
	Err   error
}

func newMediaError(stage, err error) *MediaError {
	return &MediaError{Stage: stage, Err: err}
}

func (e *MediaError) Error() string {
	return e.Stage.Error() + ": " + e.Err.Error()
}

func (e *MediaError) Unwrap() []error {
	return []error{e.Stage, e.Err}
}

func (e *MediaError) Is(target error) bool {
	return target == ErrLocalMedia
}

// lastFrameOffset keeps a seek past the end inside [0, duration).
const lastFrameOffset = 0.1

type Config struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
	Runner      Runner
}

type Extractor struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
	runner  Runner
}

func NewExtractor(cfg Config) *Extractor {
	e := &Extractor{
		ffmpeg:  cfg.FFmpegPath,
		ffprobe: cfg.FFprobePath,
		timeout: cfg.Timeout,
		runner:  cfg.Runner,
	}
	if e.ffmpeg == "" {
		e.ffmpeg = "ffmpeg"
	}
	if e.ffprobe == "" {
		e.ffprobe = "ffprobe"
	}
	if e.runner == nil {
		e.runner = execRunner{}
	}
	return e
}

type probeResult struct {
	Width    int
	Height   int
	Duration float64
}

// ExtractFrame seeks the video to timestamp (clamped to [0, duration)) and
// encodes the frame shown there as a JPEG at the video's native size.
func (e *Extractor) ExtractFrame(ctx context.Context, video *entities.SourceVideo, timestamp float64) (*entities.ExtractedFrame, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	probe, err := e.probe(ctx, video.Path)
	if err != nil {
		return nil, newMediaError(ErrMetadata, err)
	}

	seek := clampTimestamp(timestamp, probe.Duration)
	zerolog.Ctx(ctx).Debug().
		Str("video", video.Name).
		Int("width", probe.Width).
		Int("height", probe.Height).
		Float64("duration", probe.Duration).
		Float64("seek", seek).
		Msg("extracting frame")

	output, err := e.runner.Run(ctx, e.ffmpeg,
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(seek, 'f', 3, 64),
		"-i", video.Path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-",
	)
	if err != nil {
		return nil, newMediaError(ErrDecode, err)
	}
	if len(output) == 0 {
		return nil, newMediaError(ErrRaster, fmt.Errorf("no frame data at %.3fs", seek))
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(output))
	if err != nil {
		return nil, newMediaError(ErrRaster, fmt.Errorf("invalid frame data: %w", err))
	}

	return &entities.ExtractedFrame{
		Data:      output,
		Size:      int64(len(output)),
		Format:    constant.FrameFormat,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Timestamp: seek,
	}, nil
}

func (e *Extractor) probe(ctx context.Context, path string) (*probeResult, error) {
	output, err := e.runner.Run(ctx, e.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,duration:format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Streams []struct {
			Width    int    `json:"width"`
			Height   int    `json:"height"`
			Duration string `json:"duration"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(raw.Streams) == 0 || raw.Streams[0].Width == 0 || raw.Streams[0].Height == 0 {
		return nil, errors.New("no video stream found")
	}

	stream := raw.Streams[0]
	duration, err := strconv.ParseFloat(raw.Format.Duration, 64)
	if err != nil {
		// Some containers only report it on the stream. Zero means unknown.
		duration, _ = strconv.ParseFloat(stream.Duration, 64)
	}

	return &probeResult{
		Width:    stream.Width,
		Height:   stream.Height,
		Duration: duration,
	}, nil
}

func clampTimestamp(ts, duration float64) float64 {
	if ts < 0 || math.IsNaN(ts) {
		ts = 0
	}
	if duration > 0 && ts >= duration {
		ts = math.Max(0, duration-lastFrameOffset)
	}
	return ts
}
