package runner

// Package runner launches and supervises one gytmdl process per download
// job. It builds the argument list from a configuration snapshot, streams
// the process output into progress events, and reports exactly one terminal
// event per run. Cancellation sends a termination signal first and kills
// the process after a grace period.
