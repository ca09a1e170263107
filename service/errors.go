package service

import (
	"errors"
	"frame-compress/constant"
	"frame-compress/pkg/compression"
	"frame-compress/pkg/ffmpeg"
	"frame-compress/pkg/size"
	"frame-compress/pkg/storage"
)

var (
	ErrNoFileSelected   = errors.New("no file selected")
	ErrUnsupportedMedia = errors.New("selected file is not a video")
	ErrFileTooLarge     = errors.New("selected file is too large")
	ErrFrameUnavailable = errors.New("frame has not been extracted yet")
	ErrActionInFlight   = errors.New("action is already in progress")
	ErrStale            = errors.New("session changed while the action was running")
)

// Classify maps an error from any stage of an action to its kind.
func Classify(err error) constant.ErrorKind {
	switch {
	case errors.Is(err, ErrNoFileSelected),
		errors.Is(err, ErrUnsupportedMedia),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrFrameUnavailable):
		return constant.ErrorKindInput
	case errors.Is(err, ffmpeg.ErrLocalMedia),
		errors.Is(err, compression.ErrSourceUnavailable):
		return constant.ErrorKindLocalMedia
	case errors.Is(err, compression.ErrNetwork):
		return constant.ErrorKindNetwork
	case errors.Is(err, compression.ErrResponseFormat):
		return constant.ErrorKindResponseFormat
	case errors.Is(err, storage.ErrFetch):
		return constant.ErrorKindFetch
	case errors.Is(err, size.ErrZeroOriginal):
		return constant.ErrorKindMetrics
	default:
		return constant.ErrorKindUnknown
	}
}

func noun(action constant.ActionType) string {
	if action == constant.ActionTypeVideoCompress {
		return "video"
	}
	return "frame"
}

// Describe renders err for display on the action that produced it.
func Describe(action constant.ActionType, err error) string {
	switch Classify(err) {
	case constant.ErrorKindInput:
		if errors.Is(err, ErrNoFileSelected) {
			return "No file selected: please select a video file"
		}
		return "Invalid input: " + err.Error()
	case constant.ErrorKindLocalMedia:
		if errors.Is(err, compression.ErrSourceUnavailable) {
			return "Error reading " + noun(action) + " for upload: " + err.Error()
		}
		return "Error extracting thumbnail: " + err.Error()
	case constant.ErrorKindNetwork:
		return "Error uploading and compressing " + noun(action) + ": " + err.Error()
	case constant.ErrorKindResponseFormat:
		return "Compression service returned an unusable response for the " + noun(action) + ": " + err.Error()
	case constant.ErrorKindFetch:
		return "Compressed " + noun(action) + " could not be fetched: " + err.Error()
	case constant.ErrorKindMetrics:
		return "Could not compute size reduction: " + err.Error()
	default:
		return "Error compressing " + noun(action) + ": " + err.Error()
	}
}
