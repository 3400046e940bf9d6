package view

import (
	"errors"
	"fmt"
)

// ErrNoViews is returned by Registry.Init when the source declares no views.
var ErrNoViews = errors.New("view: no views declared")

// NotFoundError reports a reference to a view nobody declared.
type NotFoundError struct {
	Key Key
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("view: %q does not exist", e.Key.String())
}

// IsNotFound checks if an error reports a missing view.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
