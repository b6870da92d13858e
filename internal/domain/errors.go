package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
// on a later cycle.
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// LedgerError represents a ledger-store access failure. Usually retriable:
// the cycle is skipped and the next interval tries again.
type LedgerError struct {
	Op        string // Operation that failed (e.g., "load orders", "save ledger")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *LedgerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *LedgerError) IsRetriable() bool {
	return e.Retriable
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new retriable ledger-store error
func NewLedgerError(op string, err error) *LedgerError {
	return &LedgerError{Op: op, Err: err, Retriable: true}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrUnknownParticipant is returned when a name does not resolve to a ledger. Not retriable.
	ErrUnknownParticipant = errors.New("unknown participant")

	// ErrUnknownCompany is returned when a symbol is not listed on the market. Not retriable.
	ErrUnknownCompany = errors.New("unknown company")

	// ErrOrderQueueUnavailable aborts the whole cycle; the next interval retries.
	ErrOrderQueueUnavailable = errors.New("order queue unavailable")

	// ErrConfigNotFound is returned when the configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
