package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"frame-compress/constant"
	"frame-compress/dto"
	"frame-compress/entities"
	"frame-compress/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubExtractor struct{}

func (stubExtractor) ExtractFrame(_ context.Context, _ *entities.SourceVideo, ts float64) (*entities.ExtractedFrame, error) {
	return &entities.ExtractedFrame{Data: []byte("jpeg-bytes"), Size: 1000, Format: constant.FrameFormat, Width: 64, Height: 48, Timestamp: ts}, nil
}

type stubClient struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (s *stubClient) CompressFrame(context.Context, *entities.ExtractedFrame, entities.CompressionQuality) (*dto.CompressResponse, error) {
	if s.release != nil {
		s.once.Do(func() { close(s.started) })
		<-s.release
	}
	return &dto.CompressResponse{Success: true, S3URL: "https://results/frame.jpg"}, nil
}

func (s *stubClient) CompressVideo(context.Context, *entities.SourceVideo, entities.CompressionQuality) (*dto.CompressResponse, error) {
	return &dto.CompressResponse{Success: true, S3URL: "https://results/video.mp4"}, nil
}

type stubFetcher struct{}

func (stubFetcher) ResultSize(context.Context, string) (int64, error) { return 250, nil }
func (stubFetcher) Discard(context.Context, string) error { return nil }

func mp4Content(n int) []byte {
	b := make([]byte, n)
	copy(b, []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2'})
	return b
}

func newRouter(t *testing.T, client *stubClient, maxUpload int64) (*gin.Engine, *service.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	session := service.NewSession(service.Options{
		Extractor:      stubExtractor{},
		Client:         client,
		Fetcher:        stubFetcher{},
		TempDir:        t.TempDir(),
		MaxUploadBytes: maxUpload,
	})
	t.Cleanup(func() {
		if client.release != nil {
			select {
			case <-client.release:
			default:
				close(client.release)
			}
		}
		session.Close(context.Background())
	})

	r := gin.New()
	NewSessionHandler(context.Background(), session, maxUpload).Register(r)
	return r, session
}

func upload(t *testing.T, r http.Handler, target, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) dto.SessionView {
	t.Helper()
	var v dto.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestSelectVideo(t *testing.T) {
	r, _ := newRouter(t, &stubClient{}, 0)

	w := upload(t, r, "/session/video?t=1.5", "clip.mp4", mp4Content(4096))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decodeView(t, w)
	require.NotNil(t, view.Source)
	assert.Equal(t, "clip.mp4", view.Source.Name)
	assert.Equal(t, "4 KB", view.Source.FormattedSize)
	require.NotNil(t, view.Frame)
	assert.Equal(t, 1.5, view.Frame.Timestamp)

	w = do(r, http.MethodGet, "/session/thumbnail", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constant.FrameContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg-bytes", w.Body.String())
}

func TestSelectVideoRejected(t *testing.T) {
	r, _ := newRouter(t, &stubClient{}, 1024)

	cases := []struct {
		name    string
		target  string
		file    string
		content []byte
		status  int
	}{
		{name: "missing file", target: "/session/video", status: http.StatusBadRequest},
		{name: "not a video", target: "/session/video", file: "notes.txt", content: []byte("hello world"), status: http.StatusBadRequest},
		{name: "bad timestamp", target: "/session/video?t=abc", file: "clip.mp4", content: mp4Content(512), status: http.StatusBadRequest},
		{name: "too large", target: "/session/video", file: "clip.mp4", content: mp4Content(4096), status: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := upload(t, r, tc.target, tc.file, tc.content)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.NotEmpty(t, decodeError(t, w).Error)
		})
	}

	w := do(r, http.MethodGet, "/session", "")
	assert.Nil(t, decodeView(t, w).Source)
}

func TestThumbnailAbsent(t *testing.T) {
	r, _ := newRouter(t, &stubClient{}, 0)
	w := do(r, http.MethodGet, "/session/thumbnail", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetQuality(t *testing.T) {
	r, _ := newRouter(t, &stubClient{}, 0)

	w := do(r, http.MethodPut, "/session/quality", `{"quality": 99}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.QualityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, constant.MaxQuality, resp.Quality)

	clamped := map[string]int{
		`{"quality": 99999999999999999999}`:  constant.MaxQuality,
		`{"quality": -99999999999999999999}`: constant.MinQuality,
		`{"quality": 1e400}`:                 constant.MaxQuality,
		`{"quality": 15.0}`:                  15,
		`{"quality": 7.4}`:                   7,
		`{"quality": 0}`:                     constant.MinQuality,
	}
	for body, want := range clamped {
		w = do(r, http.MethodPut, "/session/quality", body)
		require.Equal(t, http.StatusOK, w.Code, body)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, want, resp.Quality, body)
	}

	w = do(r, http.MethodPut, "/session/quality", `{"quality": 99}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPut, "/session/quality", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPut, "/session/quality", `{"quality": "high"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/session", "")
	assert.Equal(t, constant.MaxQuality, decodeView(t, w).Quality)
}

func TestCompressWithoutFile(t *testing.T) {
	r, _ := newRouter(t, &stubClient{}, 0)

	w := do(r, http.MethodPost, "/session/frame/compress", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	require.NotNil(t, resp.Session)
	assert.Equal(t, constant.ActionStatusFailed, resp.Session.FrameCompress.Status)
	require.NotNil(t, resp.Session.FrameCompress.Error)
	assert.Equal(t, constant.ErrorKindInput, resp.Session.FrameCompress.Error.Kind)
}

func TestCompressRunsInBackground(t *testing.T) {
	r, _ := newRouter(t, &stubClient{}, 0)
	require.Equal(t, http.StatusCreated, upload(t, r, "/session/video", "clip.mp4", mp4Content(2000)).Code)

	w := do(r, http.MethodPost, "/session/frame/compress", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	w = do(r, http.MethodPost, "/session/video/compress", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	var view dto.SessionView
	assert.Eventually(t, func() bool {
		view = decodeView(t, do(r, http.MethodGet, "/session", ""))
		return view.FrameCompress.Status == constant.ActionStatusSucceeded &&
			view.VideoCompress.Status == constant.ActionStatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	require.NotNil(t, view.FrameCompress.Result)
	assert.Equal(t, 75.0, view.FrameCompress.Result.ReductionPercent)
	require.NotNil(t, view.VideoCompress.Result)
	assert.Equal(t, 87.5, view.VideoCompress.Result.ReductionPercent)
	require.NotNil(t, view.Estimate)
	assert.Equal(t, int64(500), view.Estimate.Bytes)
}

func TestCompressInFlightConflict(t *testing.T) {
	client := &stubClient{started: make(chan struct{}), release: make(chan struct{})}
	r, _ := newRouter(t, client, 0)
	require.Equal(t, http.StatusCreated, upload(t, r, "/session/video", "clip.mp4", mp4Content(2000)).Code)

	require.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/session/frame/compress", "").Code)
	<-client.started

	w := do(r, http.MethodPost, "/session/frame/compress", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, constant.ActionStatusInFlight, decodeError(t, w).Session.FrameCompress.Status)
}
