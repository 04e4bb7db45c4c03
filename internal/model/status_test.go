package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusQueued, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.status.IsTerminal(), "Status(%s).IsTerminal()", test.status)
	}
}

func TestStatus_CanRetry(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusQueued, false},
		{StatusRunning, false},
		{StatusCompleted, false},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.status.CanRetry(), "Status(%s).CanRetry()", test.status)
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Running", StatusRunning.String())
}
