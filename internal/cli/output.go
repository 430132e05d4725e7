package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/dobble/internal/engine"
	"github.com/roach88/dobble/internal/session"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Test failure, non-deterministic replay, failed session
	ExitCommandError = 2 // Command error (bad config, journal not found, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // E_NOT_PERMITTED, E_GATEWAY, ...
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Error codes reported by the play command.
const (
	CodeNotPermitted = "E_NOT_PERMITTED"
	CodeGateway      = "E_GATEWAY"
	CodeUsage        = "E_USAGE"
)

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// ActionError reports a failed session action, classifying it by code.
func (f *OutputFormatter) ActionError(err error) error {
	var actionErr *engine.ActionError
	if !errors.As(err, &actionErr) {
		return f.Error(CodeUsage, err.Error(), nil)
	}
	details := map[string]string{"action": actionErr.Action.String()}
	switch {
	case engine.IsNotPermitted(err):
		return f.Error(CodeNotPermitted, err.Error(), details)
	case engine.IsGatewayError(err):
		return f.Error(CodeGateway, err.Error(), details)
	default:
		return f.Error(CodeUsage, err.Error(), nil)
	}
}

// View outputs a session view. JSON output is one response per line.
func (f *OutputFormatter) View(v session.View) error {
	if f.Format == "json" {
		return f.Success(v)
	}
	_, err := io.WriteString(f.Writer, renderView(v))
	return err
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// renderView formats a view for humans.
func renderView(v session.View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%d] %s", v.Seq, v.Session.Status)
	if v.Session.DisplayName != "" {
		fmt.Fprintf(&b, " %q", v.Session.DisplayName)
	}
	if v.Player != nil {
		fmt.Fprintf(&b, " game=%d player=%d", v.Player.GameID, v.Player.ID)
	}
	fmt.Fprintf(&b, " %s\n", v.Readiness)

	if len(v.Pair) > 0 {
		cards := make([]string, len(v.Pair))
		for i, c := range v.Pair {
			cards[i] = fmt.Sprintf("#%d %v", c.ID, c.Symbols)
		}
		fmt.Fprintf(&b, "  cards: %s\n", strings.Join(cards, " | "))
	}

	if a := v.Answer; a != nil {
		mark := "wrong"
		if a.IsCorrect {
			mark = "correct"
		}
		fmt.Fprintf(&b, "  answer: player %d said %q, %s (symbol %q)\n", a.PlayerID, a.Submitted, mark, a.Correct)
	}

	if len(v.Scores) > 0 {
		scores := make([]string, len(v.Scores))
		for i, s := range v.Scores {
			scores[i] = fmt.Sprintf("%d=%d", s.PlayerID, s.Score)
		}
		fmt.Fprintf(&b, "  scores: %s", strings.Join(scores, " "))
		if v.OwnScore != nil {
			fmt.Fprintf(&b, " (you: %d)", *v.OwnScore)
		}
		b.WriteString("\n")
	}

	if len(v.Games) > 0 {
		games := make([]string, len(v.Games))
		for i, g := range v.Games {
			games[i] = fmt.Sprintf("%d %s", g.ID, g.Status)
		}
		fmt.Fprintf(&b, "  games: %s\n", strings.Join(games, ", "))
	}

	var can []string
	if v.CanReady {
		can = append(can, "ready")
	}
	if v.CanSubmit {
		can = append(can, "answer")
	}
	if len(can) > 0 {
		fmt.Fprintf(&b, "  next: %s\n", strings.Join(can, ", "))
	}

	return b.String()
}
