package compression

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"frame-compress/constant"
	"frame-compress/dto"
	"frame-compress/entities"
	"github.com/rs/zerolog"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	framePath = "/compress"
	videoPath = "/compress_video"

	maxResponseBytes = 1 << 20
)

var (
	ErrNetwork           = errors.New("compression request failed")
	ErrResponseFormat    = errors.New("unexpected response from compression service")
	// ErrSourceUnavailable is a local read failure of the file to upload; no
	// request is sent.
	ErrSourceUnavailable = errors.New("file to upload could not be read")
)

// NetworkError is a transport failure or a non-2xx answer. It always matches
// ErrNetwork.
type NetworkError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		msg := fmt.Sprintf("server error: status %d", e.StatusCode)
		if e.Message != "" {
			msg += ": " + e.Message
		}
		return msg
	}
	return "request failed: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	FrameScale int
	VideoScale int
	HTTPClient *http.Client
}

// Client talks to the external compression service. Requests are never
// retried; each call asks the service for fresh work.
type Client struct {
	baseURL    string
	frameScale int
	videoScale int
	http       *http.Client
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		frameScale: cfg.FrameScale,
		videoScale: cfg.VideoScale,
		http:       httpClient,
	}
}

type filePart struct {
	fileName    string
	contentType string
	open        func() (io.ReadCloser, error)
}

func (c *Client) CompressFrame(ctx context.Context, frame *entities.ExtractedFrame, quality entities.CompressionQuality) (*dto.CompressResponse, error) {
	part := filePart{
		fileName:    constant.FrameFileName,
		contentType: constant.FrameContentType,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(frame.Data)), nil
		},
	}
	return c.upload(ctx, framePath, part, quality, c.frameScale)
}

func (c *Client) CompressVideo(ctx context.Context, video *entities.SourceVideo, quality entities.CompressionQuality) (*dto.CompressResponse, error) {
	part := filePart{
		fileName:    filepath.Base(video.Name),
		contentType: video.MIMEType,
		open: func() (io.ReadCloser, error) {
			return video.Open()
		},
	}
	return c.upload(ctx, videoPath, part, quality, c.videoScale)
}

// Ping reports whether the service answers HTTP at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return resp.Body.Close()
}

func (c *Client) upload(ctx context.Context, path string, part filePart, quality entities.CompressionQuality, scale int) (*dto.CompressResponse, error) {
	src, err := part.open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer src.Close()
		pw.CloseWithError(writeForm(mw, part, src, quality, scale))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		pr.Close()
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	zerolog.Ctx(ctx).Debug().
		Str("endpoint", path).
		Str("file", part.fileName).
		Int("quality", quality.Int()).
		Msg("uploading to compression service")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure dto.CompressResponse
		_ = json.NewDecoder(body).Decode(&failure)
		return nil, &NetworkError{StatusCode: resp.StatusCode, Message: failure.Error}
	}

	var out dto.CompressResponse
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseFormat, err)
	}
	if out.S3URL == "" {
		return nil, fmt.Errorf("%w: missing s3_url", ErrResponseFormat)
	}
	if u, err := url.Parse(out.S3URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: s3_url %q is not a fetchable url", ErrResponseFormat, out.S3URL)
	}
	return &out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeForm(mw *multipart.Writer, part filePart, src io.Reader, quality entities.CompressionQuality, scale int) error {
	contentType := part.contentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(part.fileName)))
	h.Set("Content-Type", contentType)

	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	if err := mw.WriteField("quality", strconv.Itoa(quality.Int())); err != nil {
		return err
	}
	if scale > 0 {
		if err := mw.WriteField("scale", strconv.Itoa(scale)); err != nil {
			return err
		}
	}
	return mw.Close()
}
