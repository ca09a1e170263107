package entities

// CompressionResult is shared by the compressed frame and the compressed video.
// ReductionPercent is relative to the extracted frame or the source video.
type CompressionResult struct {
	URL              string  `json:"url"`
	Size             int64   `json:"size"`
	OriginalSize     int64   `json:"original_size"`
	ReductionPercent float64 `json:"reduction_percent"`
}
