package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"portfolio-rag/internal/apperr"
	"portfolio-rag/internal/metrics"
	"portfolio-rag/internal/models"
	"portfolio-rag/internal/rag"
)

type chatRequest struct {
	Message json.RawMessage `json:"message"`
	Stream  json.RawMessage `json:"stream"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// decodeChatRequest never fails: a body that is not a JSON object yields a
// nil message, which validation rejects.
func decodeChatRequest(body io.Reader) (message any, stream bool) {
	var req chatRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, false
	}
	if len(req.Message) > 0 {
		if err := json.Unmarshal(req.Message, &message); err != nil {
			message = nil
		}
	}
	return message, bytes.Equal(bytes.TrimSpace(req.Stream), []byte("true"))
}

func (s *Server) handleChat(c echo.Context) error {
	req := c.Request()
	ctx := req.Context()
	clientID := ClientIP(req)
	message, stream := decodeChatRequest(req.Body)

	sess, err := s.chat.Prepare(ctx, clientID, message)
	if err != nil {
		return s.chatError(c, err, stream)
	}

	if stream {
		return s.streamAnswer(c, sess)
	}

	answer, err := s.chat.Answer(ctx, sess)
	if err != nil {
		return s.chatError(c, err, false)
	}
	sess.Done()
	s.metrics.Chat(metrics.OutcomeOK, false)
	return c.JSON(http.StatusOK, chatResponse{Answer: answer})
}

func (s *Server) chatError(c echo.Context, err error, stream bool) error {
	switch apperr.KindOf(err) {
	case apperr.KindRateLimited:
		s.metrics.Chat(metrics.OutcomeRateLimited, stream)
		return c.JSON(http.StatusTooManyRequests, errorResponse{
			Error: models.MsgRateLimited,
			Code:  string(apperr.CodeRateLimited),
		})
	case apperr.KindValidation:
		s.metrics.Chat(metrics.OutcomeInvalid, stream)
		return c.JSON(http.StatusBadRequest, errorResponse{Error: models.MsgEmptyMessage})
	case apperr.KindUpstream:
		s.metrics.Chat(metrics.OutcomeUpstream, stream)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{
			Error: models.MsgServiceUnavailable,
			Code:  "SERVICE_UNAVAILABLE",
		})
	default:
		log.Error().Err(err).Msg("Chat API error")
		s.metrics.Chat(metrics.OutcomeError, stream)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: models.MsgInternal})
	}
}

// streamAnswer writes the reply as server-sent events. Once the headers are
// out, failures are reported as an error event instead of a status code.
func (s *Server) streamAnswer(c echo.Context, sess *rag.Session) error {
	ctx := c.Request().Context()
	resp := c.Response()
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	stream := s.chat.Stream(ctx, sess)
	defer stream.Close()

	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher.Flush()

	for stream.Next() {
		if err := writeEvent(resp, flusher, map[string]any{"chunk": stream.Text()}); err != nil {
			sess.Fail(err)
			s.metrics.Chat(metrics.OutcomeError, true)
			return nil
		}
		if ctx.Err() != nil {
			sess.Fail(ctx.Err())
			s.metrics.Chat(metrics.OutcomeError, true)
			return nil
		}
	}
	if err := stream.Err(); err != nil {
		sess.Fail(err)
		s.metrics.Chat(metrics.OutcomeUpstream, true)
		_ = writeEvent(resp, flusher, map[string]any{"error": models.MsgServiceUnavailable})
		return nil
	}

	if err := writeEvent(resp, flusher, map[string]any{"done": true}); err != nil {
		sess.Fail(err)
		s.metrics.Chat(metrics.OutcomeError, true)
		return nil
	}
	sess.Done()
	s.metrics.Chat(metrics.OutcomeOK, true)
	return nil
}

func writeEvent(w io.Writer, flusher http.Flusher, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
