package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteJSON_EncodeFailureUsesInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	w := httptest.NewRecorder()
	writeJSON(w, logger, http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "failed to encode JSON response")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	w := httptest.NewRecorder()
	writeJSON(w, logger, http.StatusCreated, map[string]bool{"ok": true})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Empty(t, buf.String())
}
