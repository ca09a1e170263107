package dto

import (
	"encoding/json"
	"frame-compress/constant"
)

type SessionView struct {
	SessionID     string        `json:"sessionId,omitempty"`
	Source        *SourceView   `json:"source,omitempty"`
	Frame         *FrameView    `json:"frame,omitempty"`
	Extracting    bool          `json:"extracting"`
	FrameError    *ErrorView    `json:"frameError,omitempty"`
	Quality       int           `json:"quality"`
	FrameCompress ActionView    `json:"frameCompress"`
	VideoCompress ActionView    `json:"videoCompress"`
	Estimate      *EstimateView `json:"estimate,omitempty"`
}

type SourceView struct {
	Name          string `json:"name"`
	MIMEType      string `json:"mimeType"`
	Size          int64  `json:"size"`
	FormattedSize string `json:"formattedSize"`
}

type FrameView struct {
	Size          int64   `json:"size"`
	FormattedSize string  `json:"formattedSize"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Timestamp     float64 `json:"timestamp"`
}

type ActionView struct {
	Status constant.ActionStatus `json:"status"`
	Error  *ErrorView            `json:"error,omitempty"`
	Result *ResultView           `json:"result,omitempty"`
}

type ErrorView struct {
	Kind    constant.ErrorKind `json:"kind"`
	Message string             `json:"message"`
}

type ResultView struct {
	URL                   string  `json:"url"`
	Size                  int64   `json:"size"`
	FormattedSize         string  `json:"formattedSize"`
	OriginalSize          int64   `json:"originalSize"`
	FormattedOriginalSize string  `json:"formattedOriginalSize"`
	ReductionPercent      float64 `json:"reductionPercent"`
}

// EstimateView is the extrapolated size of the whole compressed video. Note
// always carries the approximation disclaimer.
type EstimateView struct {
	Bytes         int64  `json:"bytes"`
	FormattedSize string `json:"formattedSize"`
	Note          string `json:"note"`
}

// QualityRequest takes quality as any JSON number; it is clamped, not
// rejected, when out of range.
type QualityRequest struct {
	Quality json.Number `json:"quality" binding:"required"`
}

type QualityResponse struct {
	Quality int `json:"quality"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Session *SessionView `json:"session,omitempty"`
}
