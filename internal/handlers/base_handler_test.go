package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/coursehub/lms-service/internal/services"
	"github.com/coursehub/lms-service/internal/utils"
)

func newTestBaseHandler() BaseHandler {
	return NewBaseHandler(utils.NewSlogLogger(slog.New(slog.DiscardHandler)))
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestBaseHandler_HandleServiceError(t *testing.T) {
	h := newTestBaseHandler()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", fmt.Errorf("%w: title required", services.ErrValidationFailed), http.StatusBadRequest},
		{"validation error type", services.NewValidationError("grade", "cannot be negative", -1), http.StatusBadRequest},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", services.NewPermissionError("manage course", "not the owner"), http.StatusForbidden},
		{"not found", services.NewNotFoundError("course", 42), http.StatusNotFound},
		{"conflict", services.NewConflictError("enrollment", "already enrolled"), http.StatusConflict},
		{"locked", fmt.Errorf("%w: thread 7 accepts no new posts", services.ErrLocked), http.StatusLocked},
		{"unknown", fmt.Errorf("database exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t)

			h.handleServiceError(c, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not valid JSON: %v", err)
			}
			if body.Success {
				t.Error("error responses must have success=false")
			}
			if body.Message == "" {
				t.Error("error responses must carry a message")
			}
		})
	}
}

func TestBaseHandler_ParseIDParam(t *testing.T) {
	h := newTestBaseHandler()

	tests := []struct {
		name   string
		value  string
		wantID uint
	}{
		{"valid id", "42", 42},
		{"zero rejected", "0", 0},
		{"negative rejected", "-1", 0},
		{"text rejected", "abc", 0},
		{"overflow rejected", "99999999999999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			c.Params = gin.Params{{Key: "id", Value: tt.value}}

			got := h.parseIDParam(c, "id")
			if got != tt.wantID {
				t.Errorf("parseIDParam(%q) = %d, want %d", tt.value, got, tt.wantID)
			}
			if tt.wantID == 0 && rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400 written for %q, got %d", tt.value, rec.Code)
			}
		})
	}
}

func TestBaseHandler_Envelopes(t *testing.T) {
	h := newTestBaseHandler()

	t.Run("success envelope", func(t *testing.T) {
		c, rec := newTestContext(t)
		h.respondOK(c, "Course retrieved", gin.H{"id": 1})

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		var body SuccessResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if !body.Success || body.Message != "Course retrieved" {
			t.Errorf("unexpected envelope %+v", body)
		}
		if body.Timestamp.IsZero() {
			t.Error("expected a timestamp")
		}
	})

	t.Run("created envelope", func(t *testing.T) {
		c, rec := newTestContext(t)
		h.respondCreated(c, "Course created", nil)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", rec.Code)
		}
	})
}
