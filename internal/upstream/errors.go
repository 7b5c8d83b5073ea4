package upstream

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the upstream holds no document for the requested
// resource (HTTP 404). This is a normal state for optional data such as a
// stakeholder's sentiment record; views render a placeholder, not an error.
var ErrNotFound = errors.New("resource not found")

// NetworkError is a transport failure or unexpected status from the upstream.
// Views that see one render a retry affordance instead of partial data.
type NetworkError struct {
	URL    string
	Status int // 0 when the request never completed
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream request %s failed with status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("upstream request %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNoData distinguishes "legitimately absent" from transport failure.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNotFound)
}
