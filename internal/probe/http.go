package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artchsh/portfolio/internal/domain/contact"
	"github.com/artchsh/portfolio/internal/domain/model"
)

// maxReplyBytes bounds how much of a reply is read.
const maxReplyBytes = 64 << 10

// ErrRejected is returned when the server answers with a non-2xx status.
var ErrRejected = errors.New("probe: server rejected submission")

// Reply is the server's answer to POST /api/contact.
type Reply struct {
	Status       int                  `json:"-"`
	State        string               `json:"state"`
	Notification contact.Notification `json:"notification"`
	Errors       map[string]string    `json:"errors"`
	Duplicate    bool                 `json:"duplicate"`
	Code         string               `json:"code"`
}

type request struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Message      string `json:"message"`
	SubmissionID string `json:"submission_id,omitempty"`
}

// client posts submissions to a running server.
type client struct {
	http *http.Client
	url  string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http: &http.Client{Timeout: timeout},
		url:  strings.TrimRight(baseURL, "/") + "/api/contact",
	}
}

// post sends s with id and decodes the reply. Transport failures and
// undecodable replies are errors; a non-2xx reply is returned together
// with ErrRejected.
func (c *client) post(ctx context.Context, id string, s model.ContactSubmission) (Reply, error) {
	body, err := json.Marshal(request{Name: s.Name, Email: s.Email, Message: s.Message, SubmissionID: id})
	if err != nil {
		return Reply{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("post %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	reply := Reply{Status: resp.StatusCode}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return reply, fmt.Errorf("decode reply (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return reply, fmt.Errorf("%w: HTTP %d %s", ErrRejected, resp.StatusCode, reply.Code)
	}
	return reply, nil
}
