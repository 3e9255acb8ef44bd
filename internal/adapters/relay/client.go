// Package relay posts contact submissions to the third-party form-relay
// endpoint.
//
// Dispatch is fire-and-forget: the response status and body are drained and
// discarded and never decide the outcome. Only a request that could not be
// sent (bad URL, DNS, connect, TLS, timeout) is reported as an error.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/artchsh/portfolio/internal/domain/contact"
	"github.com/artchsh/portfolio/internal/domain/model"
	"github.com/artchsh/portfolio/pkg/logger"
	"github.com/artchsh/portfolio/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	// maxDrainBytes bounds how much of an ignored response body is read
	// so the connection can be reused.
	maxDrainBytes = 64 * 1024
)

// Client dispatches submissions to a fixed endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds one dispatch, connect to drained body.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// New creates a Client posting to endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("relay")
	}
	return c
}

// Endpoint returns the URL submissions are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Payload builds the JSON body sent to the relay: the submission exactly as
// it passed validation.
func (c *Client) Payload(s model.ContactSubmission) ([]byte, error) {
	return json.Marshal(s)
}

// Dispatch posts s to the endpoint. It implements contact.Dispatcher.
func (c *Client) Dispatch(ctx context.Context, s model.ContactSubmission) error {
	start := time.Now()
	defer func() {
		metrics.RecordRelayLatency(float64(time.Since(start).Milliseconds()))
	}()

	body, err := c.Payload(s)
	if err != nil {
		return c.fail(ctx, "encode", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.fail(ctx, "request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, "transport", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()

	metrics.RecordRelayStatus(resp.StatusCode)
	if resp.StatusCode >= http.StatusBadRequest {
		// The relay's answer is not part of the contract; note it and move on.
		c.logger.Warn(ctx, "relay answered with an error status",
			logger.Int("status", resp.StatusCode),
			logger.String("submission_id", contact.SubmissionID(ctx)),
		)
	}
	c.logger.Debug(ctx, "submission relayed",
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (c *Client) fail(ctx context.Context, stage string, err error) error {
	metrics.RecordRelayError()
	metrics.RecordErrorByComponent("relay", stage)
	c.logger.Error(ctx, "relay dispatch failed",
		logger.String("stage", stage),
		logger.String("submission_id", contact.SubmissionID(ctx)),
		logger.Error(err),
	)
	return &contact.TransmissionError{Err: fmt.Errorf("relay %s: %w", stage, err)}
}
