package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/domain"
)

func respondRows(c *gin.Context, rows any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "error": message})
}

// respondErr maps domain errors to status codes. Unexpected errors are
// logged and hidden behind a generic message.
func respondErr(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownJob):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
		respondError(c, http.StatusInternalServerError, message)
	}
}
