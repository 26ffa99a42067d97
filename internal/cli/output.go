package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sakif/social-feed/internal/apperror"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // command succeeded
	ExitFailure      = 1 // rejected input, bad credentials, unknown post, ...
	ExitCommandError = 2 // storage could not be opened or read
)

// ExitError carries a specific exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Storage failures map to
// ExitCommandError, anything else without an ExitError to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, apperror.ErrStorageUnavailable) {
		return ExitCommandError
	}
	return ExitFailure
}

// errorCode is the machine-readable code printed in JSON error output.
func errorCode(err error) string {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return "validation_error"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, apperror.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperror.ErrDuplicateKey):
		return "conflict"
	case errors.Is(err, apperror.ErrStorageUnavailable):
		return "storage_unavailable"
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitFailure {
		return "rejected"
	}
	return "error"
}

// errorMessage prefers the user-facing AppError message over the wrapped
// chain.
func errorMessage(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err == nil {
			return exitErr.Message
		}
		return exitErr.Message + ": " + errorMessage(exitErr.Err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; defaults to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope for every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes data as JSON, or text for humans.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Error reports err. JSON output goes to Writer so scripts read one stream;
// text goes to the diagnostic writer.
func (f *OutputFormatter) Error(err error) {
	if f.Format == "json" {
		json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: errorCode(err), Message: errorMessage(err)},
		})
		return
	}
	fmt.Fprintf(f.errWriter(), "Error: %s\n", errorMessage(err))
	if f.Verbose {
		fmt.Fprintf(f.errWriter(), "Details: %v\n", err)
	}
}

// VerboseLog writes only in verbose mode, always to the diagnostic writer so
// JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
