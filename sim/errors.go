package sim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned (wrapped) when a nanoparticle or treatment id does not resolve.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when a treatment status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// ValidationError reports an input field that failed construction-time validation.
// Allowed is populated for enumerated fields.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Allowed []string
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid %s %q: must be one of [%s]", e.Field, e.Value, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NotFoundError wraps ErrNotFound with the kind and id of the missing record.
func NotFoundError(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
