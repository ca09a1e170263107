package dto

import (
	"frame-compress/constant"
	"github.com/google/uuid"
	"time"
)

// OutcomeEvent is published once an action reaches Succeeded or Failed.
type OutcomeEvent struct {
	SessionID        uuid.UUID             `json:"sessionId"`
	Action           constant.ActionType   `json:"action"`
	Status           constant.ActionStatus `json:"status"`
	SourceName       string                `json:"sourceName"`
	Quality          int                   `json:"quality"`
	ResultURL        string                `json:"resultUrl,omitempty"`
	OriginalSize     int64                 `json:"originalSize,omitempty"`
	CompressedSize   int64                 `json:"compressedSize,omitempty"`
	ReductionPercent *float64              `json:"reductionPercent,omitempty"`
	Error            string                `json:"error,omitempty"`
	OccurredAt       time.Time             `json:"occurredAt"`
}
