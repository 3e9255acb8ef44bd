// Package contact implements the contact form: field validation and the
// submit state machine that hands a valid submission to a Dispatcher.
package contact

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/artchsh/portfolio/internal/domain/model"
)

// Field names a form field. Values match the JSON keys of the submission.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldMessage Field = "message"
)

// Minimum lengths, counted in characters.
const (
	MinNameLength    = 2
	MinMessageLength = 10
)

// Field error messages shown next to the inputs.
const (
	MsgName    = "Name must be at least 2 characters."
	MsgEmail   = "Please enter a valid email address."
	MsgMessage = "Message must be at least 10 characters."
)

// emailPattern accepts local@label.label.tld: the local part may not end
// with a dot or quote and the TLD is alphabetic with two letters or more.
var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9_'+\-.]*[a-z0-9_+\-]@([a-z0-9][a-z0-9\-]*\.)+[a-z]{2,}$`)

// IsEmail reports whether s is shaped like an email address.
func IsEmail(s string) bool {
	if strings.HasPrefix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	return emailPattern.MatchString(s)
}

// Validate checks every field and returns the submission unchanged when all
// pass. On failure the error is a ValidationErrors holding one entry per
// failing field. Validate has no side effects.
func Validate(in model.ContactSubmission) (model.ContactSubmission, error) {
	errs := ValidationErrors{}
	if utf8.RuneCountInString(in.Name) < MinNameLength {
		errs[FieldName] = MsgName
	}
	if !IsEmail(in.Email) {
		errs[FieldEmail] = MsgEmail
	}
	if utf8.RuneCountInString(in.Message) < MinMessageLength {
		errs[FieldMessage] = MsgMessage
	}
	if len(errs) > 0 {
		return model.ContactSubmission{}, errs
	}
	return in, nil
}
