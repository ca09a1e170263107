package service

import (
	"frame-compress/constant"
	"frame-compress/dto"
	"frame-compress/pkg/size"
	"math"
)

// View is a consistent snapshot of everything the session displays.
func (s *Session) View() dto.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := dto.SessionView{
		Quality:       s.quality.Int(),
		Extracting:    s.extracting,
		FrameCompress: actionView(constant.ActionTypeFrameCompress, s.actions[constant.ActionTypeFrameCompress]),
		VideoCompress: actionView(constant.ActionTypeVideoCompress, s.actions[constant.ActionTypeVideoCompress]),
	}
	if s.source == nil {
		return v
	}

	v.SessionID = s.token.String()
	v.Source = &dto.SourceView{
		Name:          s.source.Name,
		MIMEType:      s.source.MIMEType,
		Size:          s.source.Size,
		FormattedSize: size.Format(s.source.Size),
	}
	if s.frame != nil {
		v.Frame = &dto.FrameView{
			Size:          s.frame.Size,
			FormattedSize: size.Format(s.frame.Size),
			Width:         s.frame.Width,
			Height:        s.frame.Height,
			Timestamp:     s.frame.Timestamp,
		}
	}
	if s.frameErr != nil {
		v.FrameError = &dto.ErrorView{
			Kind:    Classify(s.frameErr),
			Message: Describe(constant.ActionTypeFrameCompress, s.frameErr),
		}
	}

	// The estimate is derived on every read so it always matches its inputs.
	if fr := s.actions[constant.ActionTypeFrameCompress].result; fr != nil {
		v.Estimate = &dto.EstimateView{
			Bytes:         int64(math.Round(size.EstimateCompressedBytes(s.source.Size, fr.ReductionPercent))),
			FormattedSize: size.EstimateCompressedSize(s.source.Size, fr.ReductionPercent),
			Note:          constant.EstimateNote,
		}
	}
	return v
}

func actionView(kind constant.ActionType, a *action) dto.ActionView {
	v := dto.ActionView{Status: a.status}
	if a.err != nil {
		v.Error = &dto.ErrorView{Kind: Classify(a.err), Message: Describe(kind, a.err)}
	}
	if a.result != nil {
		v.Result = &dto.ResultView{
			URL:                   a.result.URL,
			Size:                  a.result.Size,
			FormattedSize:         size.Format(a.result.Size),
			OriginalSize:          a.result.OriginalSize,
			FormattedOriginalSize: size.Format(a.result.OriginalSize),
			ReductionPercent:      a.result.ReductionPercent,
		}
	}
	return v
}
