package queue

// Package queue implements the download orchestrator: a FIFO job queue with
// a bounded number of concurrently running downloader processes. All public
// operations are serialized by a mutex; runner events flow through a single
// drain goroutine, so runners never call back into the orchestrator. Every
// state change triggers a scheduling pass, and each dispatch reads a fresh
// configuration snapshot.
