package probe

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/artchsh/portfolio/pkg/logger"
)

const defaultTimeout = 15 * time.Second

// NewCommand builds the contact-probe root command.
func NewCommand() *cobra.Command {
	cfg := &Config{}
	var newID bool

	cmd := &cobra.Command{
		Use:   "contact-probe",
		Short: "Send a contact form submission to a running portfolio server",
		Long: `contact-probe validates a submission with the same rules as the site,
posts it to /api/contact, and prints the toast the visitor would see.

With --repeat N the same submission id is posted N times; every post after
the first must come back as a duplicate.`,
		Example: `  contact-probe --url http://localhost:8080 --name Artyom \
    --email artyom@example.com --message "Hello, I'd like to collaborate."`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if cfg.Verbose {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if newID && cfg.SubmissionID == "" {
				cfg.SubmissionID = uuid.NewString()
			}
			return Run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the server")
	f.StringVar(&cfg.Submission.Name, "name", "", "sender name")
	f.StringVar(&cfg.Submission.Email, "email", "", "sender email")
	f.StringVar(&cfg.Submission.Message, "message", "", "message body")
	f.StringVar(&cfg.SubmissionID, "submission-id", "", "submission id; empty with --new-id=false disables dedupe")
	f.BoolVar(&newID, "new-id", true, "generate a submission id when none is given")
	f.IntVar(&cfg.Repeat, "repeat", 1, "post the same submission this many times")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "request timeout")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log each attempt")
	return cmd
}
