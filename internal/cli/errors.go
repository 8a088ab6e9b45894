// Package cli holds what the gink commands share: exit codes, the colored
// fatal printer and the tables they print.
package cli

import (
	"errors"
	"fmt"
)

// Exit codes of the gink commands.
const (
	ExitUsage   = 1
	ExitGateway = 2
	ExitFetch   = 3
)

// ExitError is an error that ends the process with Code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Exitf builds an ExitError from a formatted message.
func Exitf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// ExitCode returns the exit code carried by err, 1 for other errors and 0
// for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	return 1
}
