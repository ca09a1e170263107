package constant

type ActionStatus string

const (
	ActionStatusIdle      ActionStatus = "IDLE"
	ActionStatusInFlight  ActionStatus = "IN_FLIGHT"
	ActionStatusSucceeded ActionStatus = "SUCCEEDED"
	ActionStatusFailed    ActionStatus = "FAILED"
)

type ActionType string

const (
	ActionTypeFrameCompress ActionType = "frame_compress"
	ActionTypeVideoCompress ActionType = "video_compress"
)

func (a ActionType) String() string {
	return string(a)
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

// Quality bounds follow the ffmpeg -q:v / CRF convention: lower is better.
const (
	MinQuality     = 1
	MaxQuality     = 31
	DefaultQuality = 15
)

const (
	FrameFileName    = "first_frame.jpg"
	FrameContentType = "image/jpeg"
	FrameFormat      = "jpeg"
)

const EstimateNote = "Estimate only: extrapolated from the compression ratio of a single frame, actual results may differ."

type ErrorKind string

const (
	ErrorKindInput          ErrorKind = "input"
	ErrorKindLocalMedia     ErrorKind = "local_media"
	ErrorKindNetwork        ErrorKind = "network"
	ErrorKindResponseFormat ErrorKind = "response_format"
	ErrorKindFetch          ErrorKind = "fetch"
	ErrorKindMetrics        ErrorKind = "metrics"
	ErrorKindUnknown        ErrorKind = "unknown"
)
