package contact

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel kinds for contact form errors.
var (
	ErrValidation   = errors.New("contact: validation failed")
	ErrTransmission = errors.New("contact: transmission failed")
	ErrSubmitting   = errors.New("contact: submission already in progress")
)

// ValidationErrors maps each failing field to its message.
type ValidationErrors map[Field]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[Field(f)]
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (v ValidationErrors) Unwrap() error { return ErrValidation }

// Has reports whether f failed.
func (v ValidationErrors) Has(f Field) bool {
	_, ok := v[f]
	return ok
}

// TransmissionError means the submission could not be dispatched at all.
type TransmissionError struct {
	Err error
}

func (e *TransmissionError) Error() string {
	if e.Err == nil {
		return ErrTransmission.Error()
	}
	return ErrTransmission.Error() + ": " + e.Err.Error()
}

// Unwrap exposes the cause.
func (e *TransmissionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransmission) hold for every TransmissionError.
func (e *TransmissionError) Is(target error) bool { return target == ErrTransmission }

// AsTransmission wraps err in a TransmissionError unless it already is one.
func AsTransmission(err error) error {
	if err == nil {
		return nil
	}
	var te *TransmissionError
	if errors.As(err, &te) {
		return err
	}
	return &TransmissionError{Err: err}
}
