package cmd

import (
	"errors"
	"fmt"
	"frame-compress/config"
	"frame-compress/entities"
	"frame-compress/pkg/ffmpeg"
	server2 "frame-compress/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
)

var errActionsFailed = errors.New("one or more compress actions failed")

func compress(cfg *config.Config) *cobra.Command {
	var (
		file      string
		quality   string
		timestamp float64
		frame     bool
		video     bool
	)

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "extract a frame from a local video and compress it and/or the video",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := server2.NewLogger(cfg, zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
			ctx, cancel := signal.NotifyContext(logger.WithContext(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			q, err := entities.ParseCompressionQuality(quality)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			session, closeSession := server2.NewSession(ctx, cfg)
			defer closeSession()

			session.SetQuality(q.Int())
			// A frame failure still leaves the video action runnable.
			if err := session.SelectVideoAt(ctx, filepath.Base(file), f, timestamp); err != nil && !errors.Is(err, ffmpeg.ErrLocalMedia) {
				return err
			}

			if !frame && !video {
				frame, video = true, true
			}
			// Plain Group: one failing action must not cancel the other.
			var g errgroup.Group
			if frame {
				g.Go(func() error { return session.CompressFrame(ctx) })
			}
			if video {
				g.Go(func() error { return session.CompressVideo(ctx) })
			}
			runErr := g.Wait()

			if err := printView(cmd.OutOrStdout(), session.View()); err != nil {
				return err
			}
			if runErr != nil {
				return fmt.Errorf("%w: %w", errActionsFailed, runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "video file to compress")
	cmd.Flags().StringVarP(&quality, "quality", "q", strconv.Itoa(cfg.Session.DefaultQuality), "compression quality, 1 (best) to 31 (smallest); out of range values are clamped")
	cmd.Flags().Float64VarP(&timestamp, "timestamp", "t", cfg.Media.Timestamp, "seconds into the video to take the frame from")
	cmd.Flags().BoolVar(&frame, "frame", false, "compress the extracted frame")
	cmd.Flags().BoolVar(&video, "video", false, "compress the whole video")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
