package cli

import (
	"fmt"

	"github.com/Adda-Baaj/gink-client/pkg/gink"
)

// CallError is a failed service call that ends the command. The result is
// dumped before the message when the command exits.
type CallError struct {
	What   string
	Result *gink.Result
}

func (e *CallError) Error() string {
	return fmt.Sprintf("Error: could not get %s: %s", e.What, e.Result.Indicator())
}

func (e *CallError) Unwrap() error {
	if e.Result == nil {
		return nil
	}
	return e.Result.Err
}

// Failed wraps a failed result in an ExitError with the given code.
func Failed(code int, what string, res *gink.Result) error {
	return &ExitError{Code: code, Err: &CallError{What: what, Result: res}}
}
