package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/artchsh/portfolio/internal/domain/contact"
	"github.com/artchsh/portfolio/internal/domain/model"
	"github.com/artchsh/portfolio/pkg/logger"
)

// ErrDuplicateMismatch is returned when a repeated post was not reported
// as a duplicate.
var ErrDuplicateMismatch = errors.New("probe: repeated submission was not deduplicated")

// Run validates cfg.Submission locally, then posts it cfg.Repeat times with
// the same submission id and prints each toast to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) error {
	log := logger.Get().Named("probe")
	c := newClient(cfg.BaseURL, cfg.Timeout)

	var last Reply
	form := contact.NewForm(contact.DispatcherFunc(func(ctx context.Context, s model.ContactSubmission) error {
		reply, err := c.post(ctx, cfg.SubmissionID, s)
		last = reply
		return err
	}), contact.WithLogger(log))

	repeat := cfg.Repeat
	if repeat < 1 {
		repeat = 1
	}
	for i := 0; i < repeat; i++ {
		last = Reply{}
		n, err := form.Submit(ctx, cfg.Submission)
		printToast(out, n)

		var verrs contact.ValidationErrors
		if errors.As(err, &verrs) {
			printFieldErrors(out, verrs)
			return err
		}
		if err != nil {
			if last.Status != 0 {
				fmt.Fprintf(out, "server answered HTTP %d (%s)\n", last.Status, last.State)
				printFieldErrors(out, fieldErrors(last.Errors))
			}
			return err
		}

		fmt.Fprintf(out, "attempt %d: HTTP %d state=%s duplicate=%t\n", i+1, last.Status, last.State, last.Duplicate)
		if cfg.Verbose {
			log.Info(ctx, "probe attempt",
				logger.Int("attempt", i+1),
				logger.Int("status", last.Status),
				logger.String("submission_id", cfg.SubmissionID),
			)
		}
		if i > 0 && cfg.SubmissionID != "" && !last.Duplicate {
			return fmt.Errorf("%w: attempt %d", ErrDuplicateMismatch, i+1)
		}
	}
	return nil
}

func printToast(out io.Writer, n contact.Notification) {
	if n.Title == "" {
		return
	}
	fmt.Fprintf(out, "[%s] %s: %s\n", n.Level, n.Title, n.Description)
}

func printFieldErrors(out io.Writer, errs contact.ValidationErrors) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(out, "  %s: %s\n", f, errs[contact.Field(f)])
	}
}

func fieldErrors(m map[string]string) contact.ValidationErrors {
	out := make(contact.ValidationErrors, len(m))
	for k, v := range m {
		out[contact.Field(k)] = v
	}
	return out
}
