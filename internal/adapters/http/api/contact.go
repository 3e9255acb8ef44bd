package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/artchsh/portfolio/internal/app"
	"github.com/artchsh/portfolio/internal/domain/contact"
	"github.com/artchsh/portfolio/internal/domain/model"
	"github.com/artchsh/portfolio/pkg/logger"
	"github.com/artchsh/portfolio/pkg/metrics"
)

// contactRequest mirrors the OpenAPI schema for POST /api/contact.
type contactRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Message      string `json:"message"`
	SubmissionID string `json:"submission_id,omitempty"`
}

func (r contactRequest) submission() model.ContactSubmission {
	return model.ContactSubmission{Name: r.Name, Email: r.Email, Message: r.Message}
}

// contactResponse is what the page script needs to update the form: the
// state it ends in, the toast, and per-field errors.
type contactResponse struct {
	State        string                `json:"state"`
	Notification *contact.Notification `json:"notification,omitempty"`
	Errors       map[string]string     `json:"errors,omitempty"`
	Duplicate    bool                  `json:"duplicate,omitempty"`
	Code         string                `json:"code,omitempty"`
}

// ContactHandler handles contact form submissions.
type ContactHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(deps Dependencies, maxBodyBytes int64, l logger.Logger) *ContactHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &ContactHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandlePostContact handles POST /api/contact requests.
func (h *ContactHandler) HandlePostContact(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_contact"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var duplicate bool
	relay := contact.DispatcherFunc(func(ctx context.Context, s model.ContactSubmission) error {
		dup, err := h.deps.Relay(ctx, req.SubmissionID, s)
		duplicate = dup
		return err
	})
	form := contact.NewForm(relay, contact.WithLogger(h.logger))
	n, err := form.Submit(r.Context(), req.submission())

	switch {
	case err == nil && duplicate:
		_ = metrics.RecordSubmission(metrics.OutcomeDuplicate)
		writeJSON(w, http.StatusOK, contactResponse{State: form.State().String(), Notification: &n, Duplicate: true})
	case err == nil:
		_ = metrics.RecordSubmission(metrics.OutcomeSucceeded)
		writeJSON(w, http.StatusAccepted, contactResponse{State: form.State().String(), Notification: &n})
	case errors.Is(err, contact.ErrValidation):
		_ = metrics.RecordSubmission(metrics.OutcomeInvalid)
		writeJSON(w, http.StatusUnprocessableEntity, contactResponse{
			State:        form.State().String(),
			Notification: &n,
			Errors:       fieldErrors(form.Errors()),
		})
	case errors.Is(err, service.ErrBackpressure):
		_ = metrics.RecordSubmission(metrics.OutcomeRejected)
		h.logger.Warn(r.Context(), "contact rejected", logger.Error(WrapKind(op, ErrBackpressure, err)))
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, contactResponse{State: form.State().String(), Notification: &n, Code: "backpressure"})
	case abandoned(r.Context(), err):
		_ = metrics.RecordSubmission(metrics.OutcomeAbandoned)
		h.logger.Info(r.Context(), "client left before the relay answered; submission stays queued",
			logger.String("submission_id", req.SubmissionID),
		)
		writeJSON(w, http.StatusRequestTimeout, contactResponse{State: form.State().String(), Notification: &n, Code: "abandoned"})
	case errors.Is(err, service.ErrStopped), errors.Is(err, service.ErrNotStarted):
		_ = metrics.RecordSubmission(metrics.OutcomeRejected)
		h.logger.Warn(r.Context(), "contact rejected", logger.Error(WrapKind(op, ErrUnavailable, err)))
		writeJSON(w, http.StatusServiceUnavailable, contactResponse{State: form.State().String(), Notification: &n, Code: "unavailable"})
	default:
		_ = metrics.RecordSubmission(metrics.OutcomeFailed)
		h.logger.Error(r.Context(), "contact relay failed", logger.Error(WrapKind(op, ErrRelay, err)))
		writeJSON(w, http.StatusBadGateway, contactResponse{State: form.State().String(), Notification: &n, Code: "relay_failed"})
	}
}

// abandoned reports whether err comes from ctx ending, i.e. the client went
// away while the submission was queued. A relay timeout has its own context
// and does not match.
func abandoned(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err())
}

func fieldErrors(v contact.ValidationErrors) map[string]string {
	out := make(map[string]string, len(v))
	for f, msg := range v {
		metrics.RecordValidationFailure(string(f))
		out[string(f)] = msg
	}
	return out
}
