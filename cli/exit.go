package cli

import "fmt"

// Process exit codes returned through ExitError.
const (
	exitCheckFailed  = 2
	exitNotFound     = 3
	exitInvalidInput = 4
)

// ExitError is an error that carries a specific process exit code.
// RunE returns it to tell main which code to exit with.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
