package vista

import (
	"errors"
	"fmt"

	"github.com/BrandonKowalski/vista/pkg/vista/router"
	"github.com/BrandonKowalski/vista/pkg/vista/transition"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

var (
	// ErrNoHistory is returned by Back and Forward at either end of the stack.
	ErrNoHistory = router.ErrNoHistory

	// ErrStarted is returned when Start or Restore is called twice.
	ErrStarted = router.ErrStarted

	// ErrBusy is returned when a switch is requested while another is running.
	ErrBusy = transition.ErrBusy

	// ErrRejected is the cause reported when an interceptor vetoes a switch.
	ErrRejected = transition.ErrRejected

	// ErrNoViews is returned when the declaration source is empty.
	ErrNoViews = view.ErrNoViews
)

// InfrastructureError represents a failure while setting up the application
// (reading declarations, message files or the session store). These are
// unexpected and generally not recoverable.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("vista: %s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// NewInfrastructureError creates a new InfrastructureError.
func NewInfrastructureError(op string, err error) *InfrastructureError {
	return &InfrastructureError{Op: op, Err: err}
}

// IsInfrastructureError reports whether err is or wraps an InfrastructureError.
func IsInfrastructureError(err error) bool {
	var infraErr *InfrastructureError
	return errors.As(err, &infraErr)
}

// IsNotFound reports whether err says a view does not exist.
func IsNotFound(err error) bool {
	return view.IsNotFound(err)
}
