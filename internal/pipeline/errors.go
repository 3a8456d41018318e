package pipeline

import "fmt"

// Document names used in errors, warnings and progress events.
const (
	DocumentJob    = "job description"
	DocumentResume = "resume"
)

// InputError reports a document that cannot be scanned, such as empty text.
// No partial score is produced.
type InputError struct {
	Document string
	Message  string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Document, e.Message)
}
