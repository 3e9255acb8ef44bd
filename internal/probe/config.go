// Package probe implements contact-probe, a smoke test that sends one
// contact submission to a running server the way the page script does.
package probe

import (
	"time"

	"github.com/artchsh/portfolio/internal/domain/model"
)

// Config holds the probe's settings.
type Config struct {
	BaseURL      string
	Submission   model.ContactSubmission
	SubmissionID string
	// Repeat posts the same submission id this many times; every post
	// after the first should come back as a duplicate.
	Repeat  int
	Timeout time.Duration
	Verbose bool
}
