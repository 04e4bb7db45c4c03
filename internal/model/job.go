package model

import "time"

// Job represents a single download request and its tracked state. The ID is
// assigned at enqueue time and stays stable for the job's lifetime, across
// retries included.
type Job struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Status     Status     `json:"status"`
	Progress   Progress   `json:"progress"`
	Metadata   *Metadata  `json:"metadata,omitempty"`
	Error      string     `json:"error,omitempty"` // set only when Status is Failed
	RetryCount int        `json:"retry_count"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Metadata carries track information when the downloader reports it.
type Metadata struct {
	Title     string `json:"title,omitempty"`
	Artist    string `json:"artist,omitempty"`
	Album     string `json:"album,omitempty"`
	Duration  int    `json:"duration,omitempty"` // seconds
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ResetForRetry returns the job to the queued state, clearing everything a
// fresh run will repopulate. The retry counter is incremented.
func (j *Job) ResetForRetry() {
	j.Status = StatusQueued
	j.Progress = QueuedProgress()
	j.Error = ""
	j.StartedAt = nil
	j.CompletedAt = nil
	j.RetryCount++
}

// QueueState is a consistent point-in-time copy of the whole queue, in FIFO
// display order.
type QueueState struct {
	Jobs            []Job `json:"jobs"`
	IsPaused        bool  `json:"is_paused"`
	ConcurrentLimit int   `json:"concurrent_limit"`
}

// Stats counts jobs per status.
type Stats struct {
	Queued    int  `json:"queued"`
	Running   int  `json:"running"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
	Cancelled int  `json:"cancelled"`
	Total     int  `json:"total"`
	IsPaused  bool `json:"is_paused"`
}
