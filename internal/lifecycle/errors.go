package lifecycle

import "fmt"

// ErrInvalidTransition is returned when a caller or the manager itself
// attempts a status transition IsValidStatusTransition rejects (spec §4.3:
// "any transition out of a terminal state is rejected with
// LifecycleError::InvalidTransition").
type ErrInvalidTransition struct {
	ID       string
	From, To string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("lifecycle: invalid transition for %s: %s -> %s", e.ID, e.From, e.To)
}
