package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJob_ResetForRetry(t *testing.T) {
	started := time.Now().Add(-2 * time.Minute)
	finished := time.Now().Add(-1 * time.Minute)
	pct := 42.0

	job := Job{
		ID:     "job-1",
		URL:    "https://music.youtube.com/watch?v=abc",
		Status: StatusFailed,
		Progress: Progress{
			Stage:       StageDownloadingAudio,
			Percentage:  &pct,
			CurrentStep: "[download] 42.0% of 3.4MiB",
		},
		Error:       "process exited with code 1",
		RetryCount:  1,
		CreatedAt:   time.Now().Add(-3 * time.Minute),
		StartedAt:   &started,
		CompletedAt: &finished,
	}

	job.ResetForRetry()

	assert.Equal(t, StatusQueued, job.Status)
	assert.Empty(t, job.Error)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
	assert.Equal(t, 2, job.RetryCount)
	require.Equal(t, StageInitializing, job.Progress.Stage)
	assert.Nil(t, job.Progress.Percentage)
}

func TestCompletedProgress(t *testing.T) {
	p := CompletedProgress()

	assert.Equal(t, StageCompleted, p.Stage)
	require.NotNil(t, p.Percentage)
	assert.Equal(t, 100.0, *p.Percentage)
}
