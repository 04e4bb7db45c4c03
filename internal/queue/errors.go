package queue

import (
	"fmt"

	"github.com/grabtune/grabtune/internal/model"
)

// ValidationError rejects a request with malformed input. State is never
// mutated when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NotFoundError means no job with the given ID exists in the queue.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.ID)
}

// InvalidStateError rejects an operation that the job's current status does
// not permit, like removing a running job or retrying a completed one.
type InvalidStateError struct {
	ID     string
	Status model.Status
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s job %s in status %s", e.Op, e.ID, e.Status)
}
