package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "-100", req.ChatID)
		assert.Equal(t, "<b>hi</b>", req.Text)
		assert.Equal(t, "HTML", req.ParseMode)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", Token: "TOKEN", ChatID: "-100"})
	ok, err := c.Send(context.Background(), "<b>hi</b>")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "TOKEN", ChatID: "-100"})
	ok, err := c.Send(context.Background(), "<b>broken")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't parse entities")
}

func TestSend_NotOKBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "TOKEN", ChatID: "-100"})
	ok, err := c.Send(context.Background(), "x")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "chat not found")
}

func TestSend_NotConfigured(t *testing.T) {
	c := New(Config{})
	assert.False(t, c.Configured())

	ok, err := c.Send(context.Background(), "x")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSend_TimeoutHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "SECRET-TOKEN", ChatID: "-100", Timeout: 20 * time.Millisecond})
	ok, err := c.Send(context.Background(), "x")
	assert.False(t, ok)
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "SECRET-TOKEN"), "error leaks token: %v", err)
}

func TestSend_PlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream proxy unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "TOKEN", ChatID: "1"})
	ok, err := c.Send(context.Background(), "x")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream proxy unavailable")
}

func TestSend_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", "100")
		w.Write([]byte(`{"ok":tr`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "TOKEN", ChatID: "1"})
	ok, err := c.Send(context.Background(), "x")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read telegram response")
	assert.NotContains(t, err.Error(), "TOKEN")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Bad Request: chat not found", describe([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`), nil))
	assert.Equal(t, "empty response body", describe(nil, nil))
	assert.Equal(t, "oops (reading body: boom)", describe([]byte("oops"), errors.New("boom")))
	assert.Len(t, []rune(describe([]byte(strings.Repeat("é", 300)), nil)), 203)
}
