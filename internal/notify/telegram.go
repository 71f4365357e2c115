// Package notify delivers formatted reports to a Telegram chat.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Telegram Bot API.
const DefaultBaseURL = "https://api.telegram.org"

// ErrNotConfigured indicates no bot token or chat ID was supplied.
var ErrNotConfigured = errors.New("telegram delivery not configured")

// Config holds the bot credentials and endpoint.
type Config struct {
	BaseURL string
	Token   string
	ChatID  string
	Timeout time.Duration
}

// Client posts messages through the Bot API sendMessage method.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. With an empty token or chat ID the client runs
// dry: Send logs the message and reports it as not sent.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether the client can reach a chat.
func (c *Client) Configured() bool {
	return c.cfg.Token != "" && c.cfg.ChatID != ""
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// describe extracts an error description from a response body, falling back
// to the raw text when it is not a Bot API JSON reply.
func describe(raw []byte, readErr error) string {
	var api apiResponse
	desc := ""
	if err := json.Unmarshal(raw, &api); err == nil && api.Description != "" {
		desc = api.Description
	} else {
		desc = strings.TrimSpace(string(raw))
		if r := []rune(desc); len(r) > 200 {
			desc = string(r[:200]) + "..."
		}
	}
	if readErr != nil {
		if desc != "" {
			return fmt.Sprintf("%s (reading body: %v)", desc, readErr)
		}
		return fmt.Sprintf("reading body: %v", readErr)
	}
	if desc == "" {
		return "empty response body"
	}
	return desc
}

// Send posts text as an HTML-formatted message. It returns true only when
// the API accepted the message; the error explains any false result.
func (c *Client) Send(ctx context.Context, text string) (bool, error) {
	if !c.Configured() {
		slog.Info("telegram not configured, skipping delivery", "length", len(text))
		slog.Debug("undelivered report", "text", text)
		return false, ErrNotConfigured
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    c.cfg.ChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return false, fmt.Errorf("encode message: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/bot" + c.cfg.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// the URL embeds the token, so keep it out of the error
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return false, fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("telegram API error: %s: %s", resp.Status, describe(raw, readErr))
	}
	if readErr != nil {
		// the message may have been posted, but it cannot be confirmed
		return false, fmt.Errorf("read telegram response: %w", readErr)
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		slog.Warn("unreadable telegram response, assuming delivered", "status", resp.Status, "error", err)
	} else if !api.OK {
		return false, fmt.Errorf("telegram API rejected message: %s", api.Description)
	}

	slog.Info("report delivered to telegram", "chat_id", c.cfg.ChatID, "length", len(text))
	return true, nil
}
