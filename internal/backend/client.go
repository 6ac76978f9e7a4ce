// Package backend is the car-service REST API client. Every request goes through
// Client.Do, which turns transport failures and error responses into one typed error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "carservice/internal/errors"
)

// Client calls the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New builds a client. A zero timeout keeps the standard http.Client behaviour.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Call describes one API request.
type Call struct {
	Method string
	Path   string
	Token  string // sent as a bearer token when non-empty
	Query  url.Values
	Body   any // JSON-encoded when non-nil
	Action string
}

type messageBody struct {
	Message string `json:"message"`
}

// Do performs call and decodes a successful JSON response into out (if non-nil).
// A 401 becomes AuthExpired, any other error status becomes ServerRejected carrying the
// backend's message, and a request that never completed becomes NetworkFailure.
// Nothing is retried.
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	u := c.baseURL + call.Path
	if len(call.Query) > 0 {
		u += "?" + call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", call.Action, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, u, body)
	if err != nil {
		return apperrors.Network(call.Action, err)
	}
	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			"method", call.Method, "path", call.Path, "error", err)
		return apperrors.Network(call.Action, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "backend request",
		"method", call.Method, "path", call.Path, "status", resp.StatusCode,
		"duration", time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Network(call.Action, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.WarnContext(ctx, "backend rejected token", "path", call.Path)
		return apperrors.AuthExpired(call.Action)
	}
	if resp.StatusCode >= 400 {
		var msg messageBody
		_ = json.Unmarshal(raw, &msg)
		c.logger.WarnContext(ctx, "backend rejected request",
			"path", call.Path, "status", resp.StatusCode, "message", msg.Message)
		return apperrors.Rejected(resp.StatusCode, call.Action, msg.Message)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return apperrors.Rejected(resp.StatusCode, call.Action, "")
	}
	return nil
}
