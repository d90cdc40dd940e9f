package score

import "fmt"

// ErrConfiguration matches any *ConfigurationError.
// Use errors.Is(err, ErrConfiguration) to check for this error.
var ErrConfiguration = &ConfigurationError{}

// ErrState matches any *StateError.
var ErrState = &StateError{}

// ErrCorruption matches any *CorruptionError.
var ErrCorruption = &CorruptionError{}

// ConfigurationError reports a constraint that was impacted without a
// configured weight, or through a numeric overload its score type does not support.
// It is never transient: the solver configuration has to change.
type ConfigurationError struct {
	Constraint string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	if e.Constraint == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: constraint (%s) %s", e.Constraint, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)
	return ok
}

// StateError reports an operation that the current object was not built to support,
// for example asking for constraint matches from a director without match tracking.
type StateError struct {
	Capability string
	Reason     string
}

func (e *StateError) Error() string {
	if e.Capability == "" {
		return "illegal state: " + e.Reason
	}
	return fmt.Sprintf("illegal state: %s (%s)", e.Reason, e.Capability)
}

func (e *StateError) Is(target error) bool {
	_, ok := target.(*StateError)
	return ok
}

// CorruptionError reports an incrementally tracked score that disagrees with a
// from-scratch recalculation. It means a move broke the variable notification
// bracket or produced an incorrect undo move.
type CorruptionError struct {
	Working     string
	Uncorrupted string
	Context     string
}

func (e *CorruptionError) Error() string {
	msg := "Working: " + e.Working + ", uncorrupted: " + e.Uncorrupted
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *CorruptionError) Is(target error) bool {
	_, ok := target.(*CorruptionError)
	return ok
}
