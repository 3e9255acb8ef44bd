// Package model contains domain models passed between layers.
package model

import "time"

// ContactSubmission is what a visitor enters in the contact form.
// It is built on submit, relayed once, and never stored.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// DispatchJob carries one submission from the HTTP layer to a relay worker.
// The worker sends the dispatch outcome on Result exactly once; Result must
// be buffered so a worker never blocks on a submitter that stopped waiting.
type DispatchJob struct {
	ID         string            // submission id, used for logs and dedupe
	Submission ContactSubmission // validated payload
	Enqueued   time.Time         // when the job entered the queue
	Result     chan error        // nil on dispatch, TransmissionError otherwise
}

// NewDispatchJob builds a job with a buffered result channel.
func NewDispatchJob(id string, s ContactSubmission) DispatchJob {
	return DispatchJob{
		ID:         id,
		Submission: s,
		Enqueued:   time.Now(),
		Result:     make(chan error, 1),
	}
}
