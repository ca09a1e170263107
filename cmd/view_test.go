package cmd

import (
	"bytes"
	"frame-compress/constant"
	"frame-compress/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPrintView(t *testing.T) {
	view := dto.SessionView{
		Source:  &dto.SourceView{Name: "holiday.mp4", MIMEType: "video/mp4", Size: 10 << 20, FormattedSize: "10 MB"},
		Frame:   &dto.FrameView{Width: 1280, Height: 720, FormattedSize: "10 MB"},
		Quality: 15,
		FrameCompress: dto.ActionView{
			Status: constant.ActionStatusSucceeded,
			Result: &dto.ResultView{URL: "https://results/frame.jpg", FormattedSize: "2 MB", FormattedOriginalSize: "10 MB", ReductionPercent: 80},
		},
		VideoCompress: dto.ActionView{
			Status: constant.ActionStatusFailed,
			Error:  &dto.ErrorView{Kind: constant.ErrorKindNetwork, Message: "Error uploading and compressing video: server error: status 500"},
		},
		Estimate: &dto.EstimateView{FormattedSize: "2 MB", Note: constant.EstimateNote},
	}

	var buf bytes.Buffer
	require.NoError(t, printView(&buf, view))
	out := buf.String()

	assert.Contains(t, out, "Source:   holiday.mp4 (video/mp4, 10 MB)")
	assert.Contains(t, out, "Frame:    1280x720 at 0.000s, 10 MB")
	assert.Contains(t, out, "Frame compress: SUCCEEDED")
	assert.Contains(t, out, "size:  2 MB (original 10 MB, 80.00% smaller)")
	assert.Contains(t, out, "Video compress: FAILED")
	assert.Contains(t, out, "error: Error uploading and compressing video: server error: status 500")
	assert.Contains(t, out, "Estimated compressed video size: 2 MB")
	assert.Contains(t, out, constant.EstimateNote)
}

func TestPrintViewEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printView(&buf, dto.SessionView{
		Quality:       15,
		FrameCompress: dto.ActionView{Status: constant.ActionStatusIdle},
		VideoCompress: dto.ActionView{Status: constant.ActionStatusIdle},
	}))
	assert.Contains(t, buf.String(), "No file selected")
	assert.Contains(t, buf.String(), "Frame compress: IDLE")
	assert.NotContains(t, buf.String(), "Estimated")
}
