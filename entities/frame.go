package entities

type ExtractedFrame struct {
	Data      []byte  `json:"-"`
	Size      int64   `json:"size"`
	Format    string  `json:"format"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Timestamp float64 `json:"timestamp"`
}
