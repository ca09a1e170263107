package server

import (
	"context"
	"frame-compress/config"
	"frame-compress/pkg/compression"
	"frame-compress/pkg/ffmpeg"
	"frame-compress/pkg/rabbitmq"
	"frame-compress/pkg/storage"
	"frame-compress/service"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"net/http"
	"time"
)

// NewSession wires a Session from cfg. The returned func closes the session
// and releases everything it was built with.
func NewSession(ctx context.Context, cfg *config.Config) (*service.Session, func()) {
	log := zerolog.Ctx(ctx)

	extractor := ffmpeg.NewExtractor(ffmpeg.Config{
		FFmpegPath:  cfg.Media.FFmpegPath,
		FFprobePath: cfg.Media.FFprobePath,
		Timeout:     cfg.Media.ExtractTimeout,
	})
	client := compression.NewClient(compression.Config{
		BaseURL:    cfg.Compression.BaseURL,
		Timeout:    cfg.Compression.Timeout,
		FrameScale: cfg.Compression.FrameScale,
		VideoScale: cfg.Compression.VideoScale,
	})
	if cfg.Compression.Probe {
		waitForService(ctx, client, cfg.Compression.BaseURL)
	}

	var store *storage.ObjectStore
	if cfg.Storage != nil {
		store = storage.NewObjectStore(cfg.Storage, cfg.StorageCleanup)
		log.Info().Str("endpoint", cfg.Storage.EndpointURL().Host).Bool("cleanup", cfg.StorageCleanup).Msg("object storage enabled")
	}
	fetcher := storage.NewFetcher(&http.Client{Timeout: cfg.Compression.Timeout}, store)

	opts := service.Options{
		Extractor:      extractor,
		Client:         client,
		Fetcher:        fetcher,
		TempDir:        cfg.Media.TempDir,
		Timestamp:      cfg.Media.Timestamp,
		DefaultQuality: cfg.Session.DefaultQuality,
		MaxUploadBytes: cfg.Session.MaxUploadMB << 20,
	}

	var publisher *rabbitmq.Publisher
	if cfg.Queue != nil && cfg.Queue.Enabled {
		publisher = newPublisher(ctx, cfg.Queue)
		if publisher != nil {
			opts.Publisher = publisher
		}
	}

	session := service.NewSession(opts)
	cleanup := func() {
		session.Close(context.WithoutCancel(ctx))
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close publisher")
			}
		}
	}
	return session, cleanup
}

// newPublisher returns nil when the broker is unreachable; outcome events are
// then skipped.
func newPublisher(ctx context.Context, cfg *config.RabbitMQ) *rabbitmq.Publisher {
	conn, err := config.NewRabbitMQConn(ctx, cfg)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
		return nil
	}
	publisher, err := rabbitmq.NewPublisher(conn, cfg)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewPublisher")
		return nil
	}
	return publisher
}

// waitForService retries a ping of the compression service for a short while.
// An unreachable service is logged, not fatal.
func waitForService(ctx context.Context, client *compression.Client, baseURL string) {
	operation := func() (struct{}, error) {
		return struct{}{}, client.Ping(ctx)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 2 * time.Second
	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(3),
		backoff.WithMaxElapsedTime(5*time.Second),
	)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("base_url", baseURL).Msg("compression service is not reachable yet")
		return
	}
	zerolog.Ctx(ctx).Info().Str("base_url", baseURL).Msg("compression service reachable")
}
