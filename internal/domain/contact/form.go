package contact

import (
	"context"
	"errors"
	"sync"

	"github.com/artchsh/portfolio/internal/domain/model"
	"github.com/artchsh/portfolio/pkg/logger"
)

// State is the lifecycle position of a Form.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Dispatcher sends a validated submission to the relay. Only a failure to
// send at all is an error; what the relay does with it is not observed.
type Dispatcher interface {
	Dispatch(ctx context.Context, s model.ContactSubmission) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, s model.ContactSubmission) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, s model.ContactSubmission) error {
	return f(ctx, s)
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithLogger sets the form's logger.
func WithLogger(l logger.Logger) FormOption {
	return func(f *Form) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTransitionHook registers fn to be called on every state change.
// fn runs without the form lock held.
func WithTransitionHook(fn func(from, to State)) FormOption {
	return func(f *Form) { f.onTransition = fn }
}

// Form holds the state of one contact form.
type Form struct {
	mu           sync.Mutex
	state        State
	values       model.ContactSubmission
	errs         ValidationErrors
	dispatcher   Dispatcher
	onTransition func(from, to State)
	logger       logger.Logger
}

// NewForm returns an idle form that submits through d.
func NewForm(d Dispatcher, opts ...FormOption) *Form {
	f := &Form{dispatcher: d}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Get().Named("contact")
	}
	return f
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Values returns the current field values.
func (f *Form) Values() model.ContactSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns a copy of the field errors of the last attempt.
func (f *Form) Errors() ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(ValidationErrors, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

// Submitting reports whether the submit control should be disabled.
func (f *Form) Submitting() bool {
	return f.State() == StateSubmitting
}

// Submit runs one submit attempt with the entered values in.
//
// A form left in Succeeded or Failed returns to Idle first. Invalid input
// keeps the form Idle and returns a ValidationErrors. Valid input moves it
// to Submitting while the dispatcher runs; a nil dispatch result ends in
// Succeeded with the fields cleared, an error ends in Failed with the fields
// kept and a TransmissionError returned. A call made while another is
// Submitting returns ErrSubmitting and changes nothing.
func (f *Form) Submit(ctx context.Context, in model.ContactSubmission) (Notification, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return Notification{}, ErrSubmitting
	}
	var fired [][2]State
	if f.state == StateSucceeded || f.state == StateFailed {
		fired = append(fired, [2]State{f.state, StateIdle})
		f.state = StateIdle
	}
	f.values = in

	sub, err := Validate(in)
	if err != nil {
		var verrs ValidationErrors
		errors.As(err, &verrs)
		f.errs = verrs
		f.mu.Unlock()
		f.fire(fired)
		f.logger.Debug(ctx, "contact form rejected", logger.String("errors", err.Error()))
		return NotifyInvalid, err
	}

	f.errs = nil
	f.state = StateSubmitting
	fired = append(fired, [2]State{StateIdle, StateSubmitting})
	f.mu.Unlock()
	f.fire(fired)

	dispatchErr := f.dispatcher.Dispatch(ctx, sub)

	f.mu.Lock()
	if dispatchErr != nil {
		f.state = StateFailed
		f.mu.Unlock()
		f.fire([][2]State{{StateSubmitting, StateFailed}})
		f.logger.Error(ctx, "contact submission failed", logger.Error(dispatchErr))
		return NotifyFailed, AsTransmission(dispatchErr)
	}
	f.state = StateSucceeded
	f.values = model.ContactSubmission{}
	f.mu.Unlock()
	f.fire([][2]State{{StateSubmitting, StateSucceeded}})
	return NotifySent, nil
}

func (f *Form) fire(transitions [][2]State) {
	if f.onTransition == nil {
		return
	}
	for _, t := range transitions {
		f.onTransition(t[0], t[1])
	}
}
