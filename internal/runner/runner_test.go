package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grabtune/grabtune/internal/config"
	"github.com/grabtune/grabtune/internal/model"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "gytmdl")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func testJob() model.Job {
	return model.Job{
		ID:     "job-1",
		URL:    "https://music.youtube.com/watch?v=abc",
		Status: model.StatusRunning,
	}
}

// collect reads events until the terminal one arrives.
func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var got []Event
	deadline := time.After(15 * time.Second)
	for {
		select {
		case ev := <-events:
			got = append(got, ev)
			if ev.Terminal {
				return got
			}
		case <-deadline:
			t.Fatalf("no terminal event after %d events", len(got))
		}
	}
}

func TestLaunchSuccess(t *testing.T) {
	bin := writeScript(t, `
echo "[download]  42.5% of 3.00MiB"
echo "Remuxing to m4a"
exit 0
`)

	events := make(chan Event, 64)
	New(bin).Launch(testJob(), config.Default(), 7, events)

	got := collect(t, events)
	require.GreaterOrEqual(t, len(got), 3)

	for _, ev := range got {
		assert.Equal(t, "job-1", ev.JobID)
		assert.Equal(t, uint64(7), ev.Gen)
	}

	// First event announces the spawn.
	require.NotNil(t, got[0].Progress)
	assert.Equal(t, model.StageInitializing, got[0].Progress.Stage)

	// Output lines arrive as progress, in order.
	require.NotNil(t, got[1].Progress)
	assert.Equal(t, model.StageDownloadingAudio, got[1].Progress.Stage)
	require.NotNil(t, got[1].Progress.Percentage)
	assert.InDelta(t, 42.5, *got[1].Progress.Percentage, 0.01)

	last := got[len(got)-1]
	assert.True(t, last.Terminal)
	assert.Equal(t, model.StatusCompleted, last.Status)
	assert.NoError(t, last.Err)
	require.NotNil(t, last.Progress)
	assert.Equal(t, model.StageCompleted, last.Progress.Stage)
}

func TestLaunchNonzeroExit(t *testing.T) {
	bin := writeScript(t, `
echo "ERROR: Sign in to confirm you are not a bot" 1>&2
exit 3
`)

	events := make(chan Event, 64)
	New(bin).Launch(testJob(), config.Default(), 1, events)

	got := collect(t, events)
	last := got[len(got)-1]

	assert.Equal(t, model.StatusFailed, last.Status)
	require.Error(t, last.Err)

	var execErr *ExecError
	require.True(t, errors.As(last.Err, &execErr))
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Contains(t, execErr.Detail, "Sign in")
}

func TestLaunchSpawnFailure(t *testing.T) {
	events := make(chan Event, 64)
	bin := filepath.Join(t.TempDir(), "does-not-exist")
	New(bin).Launch(testJob(), config.Default(), 1, events)

	got := collect(t, events)
	require.Len(t, got, 1, "spawn failure must produce only the terminal event")

	last := got[0]
	assert.Equal(t, model.StatusFailed, last.Status)

	var spawnErr *SpawnError
	require.True(t, errors.As(last.Err, &spawnErr))
	assert.Equal(t, bin, spawnErr.Binary)
}

func TestLaunchCancel(t *testing.T) {
	bin := writeScript(t, `exec sleep 30`)

	events := make(chan Event, 64)
	handle := New(bin).Launch(testJob(), config.Default(), 1, events)

	// Wait until the process is up, then cancel.
	select {
	case ev := <-events:
		require.NotNil(t, ev.Progress)
	case <-time.After(10 * time.Second):
		t.Fatal("no initial event")
	}
	handle.Cancel()

	select {
	case ev := <-events:
		assert.True(t, ev.Terminal)
		assert.Equal(t, model.StatusCancelled, ev.Status)
		assert.NoError(t, ev.Err)
	case <-time.After(10 * time.Second):
		t.Fatal("no terminal event after cancel")
	}
}

func TestCancelBeforeStartIsCancelled(t *testing.T) {
	bin := writeScript(t, `exec sleep 30`)

	// Cancelling right after Launch can land before cmd.Start runs, which
	// makes Start fail with context.Canceled. The run must still classify
	// as cancelled, never as a spawn failure.
	events := make(chan Event, 64)
	handle := New(bin).Launch(testJob(), config.Default(), 1, events)
	handle.Cancel()

	got := collect(t, events)
	last := got[len(got)-1]
	assert.True(t, last.Terminal)
	assert.Equal(t, model.StatusCancelled, last.Status)
	assert.NoError(t, last.Err)
}

func TestLocateEnvOverride(t *testing.T) {
	bin := writeScript(t, `exit 0`)
	t.Setenv(envBinary, bin)

	got, err := Locate()
	require.NoError(t, err)
	assert.Equal(t, bin, got)
}

func TestLocateEnvOverrideMissing(t *testing.T) {
	t.Setenv(envBinary, filepath.Join(t.TempDir(), "gone"))

	_, err := Locate()
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	bin := writeScript(t, `echo "gytmdl 1.2.3"`)

	got, err := Version(context.Background(), bin)
	require.NoError(t, err)
	assert.Equal(t, "gytmdl 1.2.3", got)
}
