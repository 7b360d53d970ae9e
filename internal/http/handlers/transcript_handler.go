// README: Transcript inspection handler.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"goshop/internal/modules/transcript"
)

type TranscriptHandler struct {
	transcript *transcript.Store
}

func NewTranscriptHandler(store *transcript.Store) *TranscriptHandler {
	return &TranscriptHandler{transcript: store}
}

// Recent handles GET /transcripts/:user_id?n=N, newest turns first.
func (h *TranscriptHandler) Recent(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		writeError(c, http.StatusBadRequest, "missing user_id")
		return
	}

	n := 0
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(c, http.StatusBadRequest, "invalid n")
			return
		}
		n = v
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	turns, err := h.transcript.Recent(ctx, userID, n)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"user_id": userID, "turns": turns})
}
