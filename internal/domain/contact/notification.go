package contact

// Level is the severity of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is the transient toast shown after a submit attempt.
type Notification struct {
	Level       Level  `json:"level"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// The three toasts the form can raise.
var (
	NotifySent = Notification{
		Level:       LevelSuccess,
		Title:       "Message Sent!",
		Description: "Thanks for reaching out. I'll get back to you soon.",
	}
	NotifyInvalid = Notification{
		Level:       LevelWarning,
		Title:       "Validation Error",
		Description: "Please check the highlighted fields for errors.",
	}
	NotifyFailed = Notification{
		Level:       LevelError,
		Title:       "Submission Failed",
		Description: "Something went wrong. Please try again later.",
	}
)
