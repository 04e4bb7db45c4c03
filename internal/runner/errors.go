package runner

import "fmt"

// SpawnError means the downloader process could not be started at all:
// binary missing, permission denied, bad working directory.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start downloader %q: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExecError means the downloader ran and exited nonzero. Detail carries the
// last error-relevant output line when one was captured.
type ExecError struct {
	ExitCode int
	Detail   string
}

func (e *ExecError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("downloader exited with code %d: %s", e.ExitCode, e.Detail)
	}
	return fmt.Sprintf("downloader exited with code %d", e.ExitCode)
}
