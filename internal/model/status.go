package model

// Status represents the lifecycle state of a download job.
type Status string

const (
	// StatusQueued means the job is waiting for a free download slot.
	StatusQueued Status = "Queued"

	// StatusRunning means a downloader process is bound to the job.
	StatusRunning Status = "Running"

	// StatusCompleted means the downloader finished successfully.
	StatusCompleted Status = "Completed"

	// StatusFailed means the downloader could not be started or exited nonzero.
	StatusFailed Status = "Failed"

	// StatusCancelled means the job was cancelled by the user.
	StatusCancelled Status = "Cancelled"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the job reached a final state (completed,
// failed, or cancelled).
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanRetry returns true if the job may be re-queued by an explicit retry.
// Completed jobs are not retryable; a new job must be created instead.
func (s Status) CanRetry() bool {
	return s == StatusFailed || s == StatusCancelled
}
