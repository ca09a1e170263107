package handler

import (
	"context"
	"errors"
	"frame-compress/constant"
	"frame-compress/dto"
	"frame-compress/entities"
	"frame-compress/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"net/http"
	"strconv"
)

// SessionHandler exposes one Session over HTTP. Actions started here run on
// ctx rather than the request context so they outlive the response.
type SessionHandler struct {
	ctx       context.Context
	session   *service.Session
	maxUpload int64
}

func NewSessionHandler(ctx context.Context, session *service.Session, maxUpload int64) *SessionHandler {
	return &SessionHandler{ctx: ctx, session: session, maxUpload: maxUpload}
}

func (h *SessionHandler) Register(r gin.IRouter) {
	g := r.Group("/session")
	g.GET("", h.View)
	g.POST("/video", h.SelectVideo)
	g.PUT("/quality", h.SetQuality)
	g.POST("/frame/compress", h.CompressFrame)
	g.POST("/video/compress", h.CompressVideo)
	g.GET("/thumbnail", h.Thumbnail)
}

func (h *SessionHandler) View(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.View())
}

func (h *SessionHandler) SelectVideo(c *gin.Context) {
	log := zerolog.Ctx(h.ctx)
	ctx := log.WithContext(c.Request.Context())

	if h.maxUpload > 0 {
		// Room for the multipart envelope on top of the file itself.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)
	}

	timestamp, hasTimestamp, err := parseTimestamp(c.Query("t"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, http.StatusRequestEntityTooLarge, service.ErrFileTooLarge)
			return
		}
		h.fail(c, http.StatusBadRequest, service.ErrNoFileSelected)
		return
	}
	f, err := header.Open()
	if err != nil {
		log.Error().Err(err).Msg("open uploaded file")
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()

	if hasTimestamp {
		err = h.session.SelectVideoAt(ctx, header.Filename, f, timestamp)
	} else {
		err = h.session.SelectVideo(ctx, header.Filename, f)
	}
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, h.session.View())
}

func parseTimestamp(raw string) (float64, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	ts, err := strconv.ParseFloat(raw, 64)
	if err != nil || ts < 0 {
		return 0, false, errors.New("t must be a non-negative number of seconds")
	}
	return ts, true, nil
}

func (h *SessionHandler) SetQuality(c *gin.Context) {
	var req dto.QualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	parsed, err := entities.ParseCompressionQuality(req.Quality.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	q := h.session.SetQuality(parsed.Int())
	c.JSON(http.StatusOK, dto.QualityResponse{Quality: q.Int()})
}

func (h *SessionHandler) CompressFrame(c *gin.Context) {
	h.start(c, constant.ActionTypeFrameCompress)
}

func (h *SessionHandler) CompressVideo(c *gin.Context) {
	h.start(c, constant.ActionTypeVideoCompress)
}

func (h *SessionHandler) start(c *gin.Context, kind constant.ActionType) {
	var err error
	switch kind {
	case constant.ActionTypeFrameCompress:
		_, err = h.session.StartFrameCompress(h.ctx)
	default:
		_, err = h.session.StartVideoCompress(h.ctx)
	}
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusAccepted, h.session.View())
}

func (h *SessionHandler) Thumbnail(c *gin.Context) {
	data, ok := h.session.Thumbnail()
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: service.ErrFrameUnavailable.Error()})
		return
	}
	c.Data(http.StatusOK, constant.FrameContentType, data)
}

func (h *SessionHandler) fail(c *gin.Context, status int, err error) {
	view := h.session.View()
	c.JSON(status, dto.ErrorResponse{Error: err.Error(), Session: &view})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrActionInFlight), errors.Is(err, service.ErrStale):
		return http.StatusConflict
	case errors.Is(err, service.ErrSessionClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	switch service.Classify(err) {
	case constant.ErrorKindInput:
		return http.StatusBadRequest
	case constant.ErrorKindLocalMedia:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
