package submit

import "fmt"

// InvalidSenderError reports a sender address normalization failure (spec
// §4.7 "A failure here is a 400 InvalidSender").
type InvalidSenderError struct {
	Chain  string
	Sender string
	Reason string
}

func (e *InvalidSenderError) Error() string {
	return fmt.Sprintf("submit: invalid sender %q for chain %q: %s", e.Sender, e.Chain, e.Reason)
}
