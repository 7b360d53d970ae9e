package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"goshop/internal/modules/chat"
)

// stubEngine is a test double for the Conversations interface.
type stubEngine struct {
	resp    chat.Response
	err     error
	gotUser string
	gotMsg  string
}

func (s *stubEngine) Advance(_ context.Context, userID, message string) (chat.Response, error) {
	s.gotUser = userID
	s.gotMsg = message
	return s.resp, s.err
}

func newChatRouter(engine *stubEngine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/chat", NewChatHandler(engine).Handle)
	return r
}

func postChat(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatHandler_OK(t *testing.T) {
	engine := &stubEngine{resp: chat.Response{Text: "hola", Options: []string{"a", "b"}}}
	r := newChatRouter(engine)

	w := postChat(r, `{"user_id":"u1","message":"  hola  "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if engine.gotUser != "u1" {
		t.Errorf("user id = %q", engine.gotUser)
	}
	if engine.gotMsg != "hola" {
		t.Errorf("message not trimmed: %q", engine.gotMsg)
	}
	if !strings.Contains(w.Body.String(), `"text":"hola"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestChatHandler_OmitsEmptyFields(t *testing.T) {
	engine := &stubEngine{resp: chat.Response{Text: "hola"}}
	r := newChatRouter(engine)

	w := postChat(r, `{"user_id":"u1","message":"hola"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	for _, field := range []string{"options", "products", "pharmacies", "followup_text"} {
		if strings.Contains(w.Body.String(), field) {
			t.Errorf("empty field %q should be omitted, body = %s", field, w.Body.String())
		}
	}
}

func TestChatHandler_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"user_id":`},
		{"missing user id", `{"message":"hola"}`},
		{"blank user id", `{"user_id":"   ","message":"hola"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newChatRouter(&stubEngine{})
			if w := postChat(r, tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestChatHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad request from engine", chat.ErrBadRequest, http.StatusBadRequest},
		{"internal error", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newChatRouter(&stubEngine{err: tt.err})
			w := postChat(r, `{"user_id":"u1","message":"hola"}`)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
