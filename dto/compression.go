package dto

// CompressResponse is the body returned by /compress and /compress_video.
type CompressResponse struct {
	Success bool   `json:"success"`
	S3URL   string `json:"s3_url"`
	Error   string `json:"error,omitempty"`
}
