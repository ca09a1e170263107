package service

import (
	"context"
	"errors"
	"frame-compress/constant"
	"frame-compress/dto"
	"frame-compress/entities"
	"frame-compress/pkg/size"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"io"
	"sync"
	"time"
)

var ErrSessionClosed = errors.New("session is closed")

type FrameExtractor interface {
	ExtractFrame(ctx context.Context, video *entities.SourceVideo, timestamp float64) (*entities.ExtractedFrame, error)
}

type CompressionClient interface {
	CompressFrame(ctx context.Context, frame *entities.ExtractedFrame, quality entities.CompressionQuality) (*dto.CompressResponse, error)
	CompressVideo(ctx context.Context, video *entities.SourceVideo, quality entities.CompressionQuality) (*dto.CompressResponse, error)
}

type ResultFetcher interface {
	ResultSize(ctx context.Context, url string) (int64, error)
	Discard(ctx context.Context, url string) error
}

type EventPublisher interface {
	PublishOutcome(ctx context.Context, evt dto.OutcomeEvent) error
}

type Options struct {
	Extractor FrameExtractor
	Client    CompressionClient
	Fetcher   ResultFetcher
	// Publisher is optional.
	Publisher EventPublisher

	TempDir        string
	Timestamp      float64
	DefaultQuality int
	MaxUploadBytes int64
}

type action struct {
	status constant.ActionStatus
	err    error
	result *entities.CompressionResult
}

// run is the input snapshot of one action, taken when it goes InFlight.
type run struct {
	token   uuid.UUID
	action  constant.ActionType
	source  *entities.SourceVideo
	frame   *entities.ExtractedFrame
	quality entities.CompressionQuality
}

type discarded struct {
	source *entities.SourceVideo
	urls   []string
}

// Session holds the state of one picked video and the two independent
// compress actions derived from it. token changes on every selection; an
// action whose token no longer matches when it completes is dropped.
type Session struct {
	extractor FrameExtractor
	client    CompressionClient
	fetcher   ResultFetcher
	publisher EventPublisher
	tempDir   string
	timestamp float64
	maxUpload int64

	mu         sync.Mutex
	token      uuid.UUID
	source     *entities.SourceVideo
	frame      *entities.ExtractedFrame
	frameErr   error
	extracting bool
	quality    entities.CompressionQuality
	actions    map[constant.ActionType]*action
	closed     bool

	// runs tracks frame extractions and actions.
	runs sync.WaitGroup
}

func NewSession(opts Options) *Session {
	quality := opts.DefaultQuality
	if quality == 0 {
		quality = constant.DefaultQuality
	}
	return &Session{
		extractor: opts.Extractor,
		client:    opts.Client,
		fetcher:   opts.Fetcher,
		publisher: opts.Publisher,
		tempDir:   opts.TempDir,
		timestamp: opts.Timestamp,
		maxUpload: opts.MaxUploadBytes,
		quality:   entities.NewCompressionQuality(quality),
		actions:   newActions(),
	}
}

func newActions() map[constant.ActionType]*action {
	return map[constant.ActionType]*action{
		constant.ActionTypeFrameCompress: {status: constant.ActionStatusIdle},
		constant.ActionTypeVideoCompress: {status: constant.ActionStatusIdle},
	}
}

// SelectVideo replaces the source with the content of r, discards everything
// derived from the previous one and extracts the frame at the configured
// timestamp. A rejected file leaves the current session untouched.
func (s *Session) SelectVideo(ctx context.Context, name string, r io.Reader) error {
	return s.SelectVideoAt(ctx, name, r, s.timestamp)
}

func (s *Session) SelectVideoAt(ctx context.Context, name string, r io.Reader, timestamp float64) error {
	log := zerolog.Ctx(ctx)

	video, err := stageSource(s.tempDir, name, r, s.maxUpload)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("rejected selected file")
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = video.Release()
		return ErrSessionClosed
	}
	token := video.ID
	previous := s.resetLocked(token, video)
	s.extracting = true
	s.runs.Add(1)
	s.mu.Unlock()
	defer s.runs.Done()

	s.discard(ctx, previous)
	log.Info().
		Str("session_id", token.String()).
		Str("file", video.Name).
		Int64("size", video.Size).
		Str("mime_type", video.MIMEType).
		Msg("video selected")

	frame, err := s.extractor.ExtractFrame(ctx, video, timestamp)

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		log.Info().Str("session_id", token.String()).Msg("session changed during frame extraction, dropping frame")
		return ErrStale
	}
	s.extracting = false
	s.frame = frame
	s.frameErr = err
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("session_id", token.String()).Msg("failed to extract frame")
		return err
	}
	log.Info().
		Str("session_id", token.String()).
		Int64("frame_size", frame.Size).
		Int("width", frame.Width).
		Int("height", frame.Height).
		Msg("frame extracted")
	return nil
}

func (s *Session) resetLocked(token uuid.UUID, video *entities.SourceVideo) discarded {
	d := discarded{source: s.source}
	for _, a := range s.actions {
		if a.result != nil {
			d.urls = append(d.urls, a.result.URL)
		}
	}

	s.token = token
	s.source = video
	s.frame = nil
	s.frameErr = nil
	s.extracting = false
	s.actions = newActions()
	return d
}

func (s *Session) discard(ctx context.Context, d discarded) {
	if err := d.source.Release(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to release staged video")
	}
	for _, url := range d.urls {
		_ = s.fetcher.Discard(ctx, url)
	}
}

// SetQuality clamps raw into the valid range and returns the stored value.
func (s *Session) SetQuality(raw int) entities.CompressionQuality {
	q := entities.NewCompressionQuality(raw)
	s.mu.Lock()
	s.quality = q
	s.mu.Unlock()
	return q
}

func (s *Session) Quality() entities.CompressionQuality {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quality
}

func (s *Session) Status(kind constant.ActionType) constant.ActionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actions[kind].status
}

// Thumbnail returns the extracted frame's JPEG bytes.
func (s *Session) Thumbnail() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, false
	}
	return s.frame.Data, true
}

func (s *Session) StartFrameCompress(ctx context.Context) (<-chan error, error) {
	return s.start(ctx, constant.ActionTypeFrameCompress)
}

func (s *Session) StartVideoCompress(ctx context.Context) (<-chan error, error) {
	return s.start(ctx, constant.ActionTypeVideoCompress)
}

func (s *Session) CompressFrame(ctx context.Context) error {
	return wait(s.StartFrameCompress(ctx))
}

func (s *Session) CompressVideo(ctx context.Context) error {
	return wait(s.StartVideoCompress(ctx))
}

func wait(done <-chan error, err error) error {
	if err != nil {
		return err
	}
	return <-done
}

// start moves the action to InFlight and runs it in the background. The
// returned channel yields the action's outcome exactly once.
func (s *Session) start(ctx context.Context, kind constant.ActionType) (<-chan error, error) {
	log := zerolog.Ctx(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	a := s.actions[kind]
	if a.status == constant.ActionStatusInFlight {
		s.mu.Unlock()
		return nil, ErrActionInFlight
	}
	if err := s.checkLocked(kind); err != nil {
		a.status = constant.ActionStatusFailed
		a.err = err
		a.result = nil
		evt := s.eventLocked(kind, a)
		s.mu.Unlock()

		log.Warn().Err(err).Str("action", kind.String()).Msg("action not started")
		s.publish(ctx, evt)
		return nil, err
	}

	a.status = constant.ActionStatusInFlight
	a.err = nil
	a.result = nil
	r := run{
		token:   s.token,
		action:  kind,
		source:  s.source,
		frame:   s.frame,
		quality: s.quality,
	}
	s.runs.Add(1)
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer s.runs.Done()
		done <- s.execute(ctx, r)
	}()
	return done, nil
}

func (s *Session) checkLocked(kind constant.ActionType) error {
	if s.source == nil {
		return ErrNoFileSelected
	}
	if kind == constant.ActionTypeFrameCompress && s.frame == nil {
		if s.frameErr != nil {
			return s.frameErr
		}
		return ErrFrameUnavailable
	}
	return nil
}

func (s *Session) execute(ctx context.Context, r run) error {
	log := zerolog.Ctx(ctx).With().
		Str("session_id", r.token.String()).
		Str("action", r.action.String()).
		Logger()
	ctx = log.WithContext(ctx)

	log.Info().Int("quality", r.quality.Int()).Msg("action started")
	result, err := s.pipeline(ctx, r)
	return s.finish(ctx, r, result, err)
}

// pipeline runs upload, result fetch and metrics strictly in order.
func (s *Session) pipeline(ctx context.Context, r run) (*entities.CompressionResult, error) {
	var (
		resp     *dto.CompressResponse
		original int64
		err      error
	)
	switch r.action {
	case constant.ActionTypeFrameCompress:
		original = r.frame.Size
		resp, err = s.client.CompressFrame(ctx, r.frame, r.quality)
	default:
		original = r.source.Size
		resp, err = s.client.CompressVideo(ctx, r.source, r.quality)
	}
	if err != nil {
		return nil, err
	}
	if !s.current(r.token) {
		return &entities.CompressionResult{URL: resp.S3URL}, ErrStale
	}

	compressed, err := s.fetcher.ResultSize(ctx, resp.S3URL)
	if err != nil {
		return nil, err
	}

	reduction, err := size.ReductionPercent(original, compressed)
	if err != nil {
		return nil, err
	}

	return &entities.CompressionResult{
		URL:              resp.S3URL,
		Size:             compressed,
		OriginalSize:     original,
		ReductionPercent: reduction,
	}, nil
}

func (s *Session) current(token uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token == token
}

func (s *Session) finish(ctx context.Context, r run, result *entities.CompressionResult, err error) error {
	log := zerolog.Ctx(ctx)

	s.mu.Lock()
	if s.token != r.token {
		s.mu.Unlock()
		log.Info().Msg("session changed, dropping action outcome")
		if result != nil {
			_ = s.fetcher.Discard(ctx, result.URL)
		}
		return ErrStale
	}
	a := s.actions[r.action]
	if err != nil {
		a.status = constant.ActionStatusFailed
		a.err = err
	} else {
		a.status = constant.ActionStatusSucceeded
		a.result = result
	}
	evt := s.eventLocked(r.action, a)
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("kind", string(Classify(err))).Msg("action failed")
	} else {
		log.Info().
			Str("url", result.URL).
			Int64("original_size", result.OriginalSize).
			Int64("compressed_size", result.Size).
			Float64("reduction_percent", result.ReductionPercent).
			Msg("action succeeded")
	}
	s.publish(ctx, evt)
	return err
}

func (s *Session) eventLocked(kind constant.ActionType, a *action) dto.OutcomeEvent {
	evt := dto.OutcomeEvent{
		SessionID:  s.token,
		Action:     kind,
		Status:     a.status,
		Quality:    s.quality.Int(),
		OccurredAt: time.Now().UTC(),
	}
	if s.source != nil {
		evt.SourceName = s.source.Name
	}
	if a.err != nil {
		evt.Error = Describe(kind, a.err)
	}
	if a.result != nil {
		reduction := a.result.ReductionPercent
		evt.ResultURL = a.result.URL
		evt.OriginalSize = a.result.OriginalSize
		evt.CompressedSize = a.result.Size
		evt.ReductionPercent = &reduction
	}
	return evt
}

func (s *Session) publish(ctx context.Context, evt dto.OutcomeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOutcome(ctx, evt); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("action", evt.Action.String()).Msg("failed to publish outcome event")
	}
}

// Close discards the session and waits for in-flight frame extractions and
// actions, whose outcomes are dropped.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	d := s.resetLocked(uuid.Nil, nil)
	s.mu.Unlock()

	s.discard(ctx, d)
	s.runs.Wait()
}
