// Package site renders the portfolio page and handles the classic form post
// of the contact section.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/artchsh/portfolio/internal/adapters/http/api"
	service "github.com/artchsh/portfolio/internal/app"
	"github.com/artchsh/portfolio/internal/domain/contact"
	"github.com/artchsh/portfolio/internal/domain/model"
	"github.com/artchsh/portfolio/internal/domain/portfolio"
	"github.com/artchsh/portfolio/pkg/logger"
	"github.com/artchsh/portfolio/pkg/metrics"
)

// Error constants
var (
	ErrTemplate = errors.New("site template failed")
	ErrRender   = errors.New("site render failed")
)

const defaultMaxBodyBytes = 32 << 10

// Relayer sends a validated submission; see api.Dependencies.
type Relayer interface {
	Relay(ctx context.Context, id string, s model.ContactSubmission) (duplicate bool, err error)
}

// Handler serves the page and the form post.
type Handler struct {
	tmpl    *template.Template
	relay   Relayer
	content portfolio.Content

	siteURL            string
	analyticsScriptURL string
	analyticsWebsiteID string
	maxBodyBytes       int64

	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithSiteURL sets the canonical URL used in Open Graph tags.
func WithSiteURL(u string) Option {
	return func(h *Handler) { h.siteURL = u }
}

// WithAnalytics enables the analytics tag when both values are set.
func WithAnalytics(scriptURL, websiteID string) Option {
	return func(h *Handler) {
		h.analyticsScriptURL = scriptURL
		h.analyticsWebsiteID = websiteID
	}
}

// WithMaxBodyBytes caps the size of a form post.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithContent replaces the default portfolio content.
func WithContent(c portfolio.Content) Option {
	return func(h *Handler) { h.content = c }
}

// WithClock sets the time source used for the footer year.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithIDGenerator sets how fresh submission ids are made.
func WithIDGenerator(fn func() string) Option {
	return func(h *Handler) {
		if fn != nil {
			h.newID = fn
		}
	}
}

// WithLogger sets the handler's logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler parses the embedded templates and returns a Handler.
func NewHandler(relay Relayer, opts ...Option) (*Handler, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	h := &Handler{
		tmpl:         tmpl,
		relay:        relay,
		content:      portfolio.Default(),
		maxBodyBytes: defaultMaxBodyBytes,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("site")
	}
	return h, nil
}

// Register attaches the page, form and static routes to mux.
func Register(_ context.Context, mux *http.ServeMux, h *Handler) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
	mux.HandleFunc("/contact", api.MetricsMiddleware(h.HandleContact, "contact_form"))
	mux.HandleFunc("/", api.MetricsMiddleware(h.HandleRoot, "page"))
}

// formView is the contact form as the template sees it.
type formView struct {
	State        string
	Values       model.ContactSubmission
	Errors       map[string]string
	SubmissionID string
}

type pageData struct {
	Profile   portfolio.Profile
	Social    []portfolio.Link
	Freelance []portfolio.Link
	Columns   [][]portfolio.Category
	Projects  []portfolio.Project
	Year      int

	SiteURL            string
	AnalyticsScriptURL string
	AnalyticsWebsiteID string

	Form  formView
	Toast *contact.Notification
}

func (h *Handler) page(form formView, toast *contact.Notification) pageData {
	return pageData{
		Profile:            h.content.Profile,
		Social:             portfolio.VisibleLinks(h.content.Social),
		Freelance:          portfolio.VisibleLinks(h.content.Freelance),
		Columns:            portfolio.Columns(h.content.Categories, portfolio.SkillColumns),
		Projects:           h.content.Projects,
		Year:               h.now().Year(),
		SiteURL:            h.siteURL,
		AnalyticsScriptURL: h.analyticsScriptURL,
		AnalyticsWebsiteID: h.analyticsWebsiteID,
		Form:               form,
		Toast:              toast,
	}
}

// HandleRoot handles GET / requests.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.render(w, r, http.StatusOK, h.page(formView{
		State:        contact.StateIdle.String(),
		SubmissionID: h.newID(),
	}, nil))
}

// HandleContact handles POST /contact, the form post used when the page
// script is not running. It always answers with the whole page.
func (h *Handler) HandleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	id := r.PostFormValue("submission_id")
	in := model.ContactSubmission{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Message: r.PostFormValue("message"),
	}

	var duplicate bool
	relay := contact.DispatcherFunc(func(ctx context.Context, s model.ContactSubmission) error {
		dup, err := h.relay.Relay(ctx, id, s)
		duplicate = dup
		return err
	})
	form := contact.NewForm(relay, contact.WithLogger(h.logger))
	n, err := form.Submit(r.Context(), in)

	status, outcome := classify(r.Context(), err, duplicate)
	_ = metrics.RecordSubmission(outcome)
	switch {
	case outcome == metrics.OutcomeAbandoned:
		h.logger.Info(r.Context(), "visitor left before the relay answered; submission stays queued",
			logger.String("submission_id", id),
		)
	case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests:
		h.logger.Warn(r.Context(), "contact form post failed",
			logger.Int("status", status),
			logger.Error(err),
		)
	}

	view := formView{
		State:        form.State().String(),
		Values:       form.Values(),
		Errors:       make(map[string]string),
		SubmissionID: id,
	}
	for f, msg := range form.Errors() {
		metrics.RecordValidationFailure(string(f))
		view.Errors[string(f)] = msg
	}
	if form.State() == contact.StateSucceeded || view.SubmissionID == "" {
		view.SubmissionID = h.newID()
	}
	h.render(w, r, status, h.page(view, &n))
}

// classify maps a submit outcome to the status of the re-rendered page and
// the metrics outcome label. An error caused by ctx ending means the
// visitor left, not that the relay failed.
func classify(ctx context.Context, err error, duplicate bool) (int, string) {
	switch {
	case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return http.StatusRequestTimeout, metrics.OutcomeAbandoned
	case err == nil && duplicate:
		return http.StatusOK, metrics.OutcomeDuplicate
	case err == nil:
		return http.StatusOK, metrics.OutcomeSucceeded
	case errors.Is(err, contact.ErrValidation):
		return http.StatusUnprocessableEntity, metrics.OutcomeInvalid
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, metrics.OutcomeRejected
	case errors.Is(err, service.ErrStopped), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, metrics.OutcomeRejected
	default:
		return http.StatusBadGateway, metrics.OutcomeFailed
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) { //nolint:gocritic // hugeParam: rendered once per request
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page", data); err != nil {
		h.logger.Error(r.Context(), "render page", logger.Error(fmt.Errorf("%w: %w", ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = buf.WriteTo(w)
}
