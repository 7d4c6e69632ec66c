package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/roach88/sparqlc/internal/client"
	"github.com/roach88/sparqlc/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query failed, endpoint error, scenarios failed
	ExitCommandError = 2 // Command error (bad flags, missing endpoint, unreadable files)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the command already wrote its own error output.
	Reported bool
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// errorCode picks the code shown for err: the client's error code when the
// failure came from a request, E001 otherwise.
func errorCode(err error) string {
	var cErr *client.Error
	if errors.As(err, &cErr) {
		return string(cErr.Code)
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status    string    `json:"status"`               // "ok" or "error"
	Data      any       `json:"data,omitempty"`       // success payload
	Error     *CLIError `json:"error,omitempty"`      // error details
	RequestID string    `json:"request_id,omitempty"` // request correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "HTTP_STATUS", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// IsJSON reports whether output is JSON.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
// Text output prints data with fmt; use the text helpers for anything
// richer.
func (f *OutputFormatter) Success(data any) error {
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format. JSON goes to Writer so
// the envelope stays machine-readable; text goes to the error writer in red.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	w := f.GetErrWriter()
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(w, "Error [%s]: ", code)
	fmt.Fprintln(w, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// ReportError writes err through Error, filling code and details from the
// error chain.
func (f *OutputFormatter) ReportError(err error) error {
	var details any
	var cErr *client.Error
	if errors.As(err, &cErr) {
		d := map[string]any{"request_id": cErr.RequestID}
		if cErr.StatusCode != 0 {
			d["status_code"] = cErr.StatusCode
		}
		if len(cErr.Body) > 0 {
			d["body"] = string(cErr.Body)
		}
		details = d
	}
	return f.Error(errorCode(err), err.Error(), details)
}

// Table renders a text table with a header row.
func (f *OutputFormatter) Table(header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(f.Writer, out)
	return nil
}

// Line prints one line of text output.
func (f *OutputFormatter) Line(format string, args ...any) {
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// Pass prints a green check line.
func (f *OutputFormatter) Pass(format string, args ...any) {
	color.New(color.FgGreen).Fprint(f.Writer, "✓ ")
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// Fail prints a red cross line.
func (f *OutputFormatter) Fail(format string, args ...any) {
	color.New(color.FgRed).Fprint(f.Writer, "✗ ")
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// termText renders a cell for text output. Unbound cells are empty.
func termText(t ir.Term) string {
	return t.String()
}

// bindingTable turns bindings into table rows, one column per variable.
func bindingTable(vars []string, bindings []ir.Binding) [][]string {
	rows := make([][]string, 0, len(bindings))
	for _, b := range bindings {
		row := make([]string, len(vars))
		for i, v := range vars {
			row[i] = termText(b[v])
		}
		rows = append(rows, row)
	}
	return rows
}

// joinTerms renders a column on one line.
func joinTerms(col []ir.Term) string {
	parts := make([]string, len(col))
	for i, t := range col {
		parts[i] = termText(t)
	}
	return strings.Join(parts, " ")
}
