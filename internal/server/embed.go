package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"portfolio-rag/internal/models"
)

const headerEmbedSecret = "x-embed-secret"

func (s *Server) handleEmbed(c echo.Context) error {
	if s.embedSecret == "" {
		log.Error().Msg("Embed secret is not configured")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: models.MsgServerConfig})
	}

	got := c.Request().Header.Get(headerEmbedSecret)
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.embedSecret)) != 1 {
		log.Warn().Str("client", ClientIP(c.Request())).Msg("Embed request rejected")
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: models.MsgUnauthorized})
	}

	summary := s.pipeline.Run(c.Request().Context())
	if !summary.Success {
		return c.JSON(http.StatusInternalServerError, summary)
	}
	return c.JSON(http.StatusOK, summary)
}
