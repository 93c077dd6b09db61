// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrStockNotFound    = errors.New("stock not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrRuleNotFound     = errors.New("notification rule not found")
	ErrQuoteUnavailable = errors.New("quote not available")
	ErrQuoteMalformed   = errors.New("quote malformed")
	ErrInvalidCommand   = errors.New("invalid command")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDatabaseError    = errors.New("database error")
)

// FetchError records one failed attempt to load a quote source.
type FetchError struct {
	Market  string
	Symbol  string
	URL     string
	Attempt int
	Err     error
}

func (e *FetchError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("fetch error [%s] %s attempt %d (%s): %v", e.Market, e.Symbol, e.Attempt, e.URL, e.Err)
	}
	return fmt.Sprintf("fetch error [%s] attempt %d (%s): %v", e.Market, e.Attempt, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(market, symbol, url string, attempt int, err error) *FetchError {
	return &FetchError{
		Market:  market,
		Symbol:  symbol,
		URL:     url,
		Attempt: attempt,
		Err:     err,
	}
}

// CommandError represents a chat command that could not be executed.
// Message is safe to show to the user.
type CommandError struct {
	Command string
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("command %s: %s: %v", e.Command, e.Message, e.Err)
	}
	return fmt.Sprintf("command %s: %s", e.Command, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command, message string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
