package cmd

import (
	"fmt"
	"frame-compress/dto"
	"io"
	"strings"
)

func printView(w io.Writer, v dto.SessionView) error {
	var b strings.Builder

	if v.Source == nil {
		b.WriteString("No file selected\n")
	} else {
		fmt.Fprintf(&b, "Source:   %s (%s, %s)\n", v.Source.Name, v.Source.MIMEType, v.Source.FormattedSize)
	}
	switch {
	case v.Frame != nil:
		fmt.Fprintf(&b, "Frame:    %dx%d at %.3fs, %s\n", v.Frame.Width, v.Frame.Height, v.Frame.Timestamp, v.Frame.FormattedSize)
	case v.FrameError != nil:
		fmt.Fprintf(&b, "Frame:    %s\n", v.FrameError.Message)
	}
	fmt.Fprintf(&b, "Quality:  %d\n", v.Quality)

	writeAction(&b, "Frame compress", v.FrameCompress)
	writeAction(&b, "Video compress", v.VideoCompress)

	if v.Estimate != nil {
		fmt.Fprintf(&b, "Estimated compressed video size: %s\n", v.Estimate.FormattedSize)
		fmt.Fprintf(&b, "  %s\n", v.Estimate.Note)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeAction(b *strings.Builder, label string, a dto.ActionView) {
	fmt.Fprintf(b, "%s: %s\n", label, a.Status)
	if a.Error != nil {
		fmt.Fprintf(b, "  error: %s\n", a.Error.Message)
	}
	if a.Result != nil {
		fmt.Fprintf(b, "  url:   %s\n", a.Result.URL)
		fmt.Fprintf(b, "  size:  %s (original %s, %.2f%% smaller)\n",
			a.Result.FormattedSize, a.Result.FormattedOriginalSize, a.Result.ReductionPercent)
	}
}
