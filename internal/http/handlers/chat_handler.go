// README: Chat handler for the conversational widget endpoint.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"goshop/internal/modules/chat"
)

// Conversations is the slice of the engine the handler needs.
type Conversations interface {
	Advance(ctx context.Context, userID, message string) (chat.Response, error)
}

type ChatHandler struct {
	engine Conversations
}

func NewChatHandler(engine Conversations) *ChatHandler {
	return &ChatHandler{engine: engine}
}

type chatReq struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Handle handles POST /chat.
func (h *ChatHandler) Handle(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.Message = strings.TrimSpace(req.Message)
	if req.UserID == "" {
		writeError(c, http.StatusBadRequest, "missing user_id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.engine.Advance(ctx, req.UserID, req.Message)
	if err != nil {
		writeChatError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resp)
}
