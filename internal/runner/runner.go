package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/grabtune/grabtune/internal/config"
	"github.com/grabtune/grabtune/internal/model"
	"github.com/grabtune/grabtune/internal/progress"
)

// DefaultGrace is how long a cancelled process gets between SIGTERM and a
// hard kill.
const DefaultGrace = 5 * time.Second

// Event is what a run reports back to the queue. Progress events carry a
// Progress record; the single terminal event carries the final Status and,
// for failures, the classified error. Gen echoes the run generation the
// queue passed to Launch so stale deliveries can be dropped after a retry.
type Event struct {
	JobID    string
	Gen      uint64
	Progress *model.Progress
	Terminal bool
	Status   model.Status
	Err      error
}

// Handle controls a launched run. Cancel is asynchronous: the terminal
// event still arrives on the events channel once the process is gone.
type Handle interface {
	Cancel()
}

type processHandle struct {
	cancel context.CancelFunc
}

func (h *processHandle) Cancel() { h.cancel() }

// Runner launches gytmdl processes. It is stateless and safe for
// concurrent use; per-run state lives in the goroutine Launch spawns.
type Runner struct {
	bin    string
	grace  time.Duration
	logger zerolog.Logger
}

// New creates a runner for the given binary path.
func New(bin string) *Runner {
	return &Runner{
		bin:    bin,
		grace:  DefaultGrace,
		logger: log.With().Str("component", "runner").Logger(),
	}
}

// Launch starts a downloader process for the job in the background and
// returns immediately. Exactly one terminal event is delivered per launch,
// including when the process cannot be started at all.
func (r *Runner) Launch(job model.Job, cfg config.Config, gen uint64, events chan<- Event) Handle {
	ctx, cancel := context.WithCancel(context.Background())

	go r.run(ctx, job, cfg, gen, events)

	return &processHandle{cancel: cancel}
}

func (r *Runner) run(ctx context.Context, job model.Job, cfg config.Config, gen uint64, events chan<- Event) {
	logger := r.logger.With().Str("job_id", job.ID).Uint64("gen", gen).Logger()

	// A panic anywhere in supervision must still produce the terminal
	// event, or the queue slot leaks forever.
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("runner panicked")
			events <- Event{
				JobID:    job.ID,
				Gen:      gen,
				Terminal: true,
				Status:   model.StatusFailed,
				Err:      fmt.Errorf("internal runner failure: %v", rec),
			}
		}
	}()

	args := BuildArgs(cfg, job.URL)

	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.grace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.reportStartFailure(ctx, job, gen, events, err, logger)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.reportStartFailure(ctx, job, gen, events, err, logger)
		return
	}

	if err := cmd.Start(); err != nil {
		r.reportStartFailure(ctx, job, gen, events, err, logger)
		return
	}

	logger.Info().Int("pid", cmd.Process.Pid).Str("url", job.URL).Msg("downloader started")

	init := model.InitializingProgress()
	events <- Event{JobID: job.ID, Gen: gen, Progress: &init}

	outDone := make(chan string, 1)
	errDone := make(chan string, 1)

	go func() {
		outDone <- r.consumeStdout(stdout, job.ID, gen, events, logger)
	}()
	go func() {
		errDone <- consumeStderr(stderr, logger)
	}()

	lastErrLine := <-outDone
	if s := <-errDone; s != "" {
		lastErrLine = s
	}

	waitErr := cmd.Wait()

	switch {
	case ctx.Err() == context.Canceled:
		// Cancellation wins over whatever exit code the signal caused.
		logger.Info().Msg("downloader cancelled")
		events <- Event{
			JobID: job.ID, Gen: gen, Terminal: true,
			Status: model.StatusCancelled,
		}

	case waitErr == nil:
		logger.Info().Msg("downloader finished")
		done := model.CompletedProgress()
		events <- Event{
			JobID: job.ID, Gen: gen, Terminal: true,
			Status:   model.StatusCompleted,
			Progress: &done,
		}

	default:
		code := -1
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		logger.Warn().Int("exit_code", code).Str("detail", lastErrLine).Msg("downloader failed")
		events <- Event{
			JobID: job.ID, Gen: gen, Terminal: true,
			Status: model.StatusFailed,
			Err:    &ExecError{ExitCode: code, Detail: lastErrLine},
		}
	}
}

// reportStartFailure emits the terminal event for a run that never got past
// process startup. A cancel delivered before Start makes Start itself fail
// with context.Canceled; that run is cancelled, not failed.
func (r *Runner) reportStartFailure(ctx context.Context, job model.Job, gen uint64, events chan<- Event, err error, logger zerolog.Logger) {
	if ctx.Err() == context.Canceled {
		logger.Info().Msg("downloader cancelled before start")
		events <- Event{
			JobID: job.ID, Gen: gen, Terminal: true,
			Status: model.StatusCancelled,
		}
		return
	}

	logger.Error().Err(err).Str("binary", r.bin).Msg("failed to start downloader")
	events <- Event{
		JobID: job.ID, Gen: gen, Terminal: true,
		Status: model.StatusFailed,
		Err:    &SpawnError{Binary: r.bin, Err: err},
	}
}

// consumeStdout turns downloader output lines into progress events and
// returns the last error-looking line, if any.
func (r *Runner) consumeStdout(pipe io.Reader, jobID string, gen uint64, events chan<- Event, logger zerolog.Logger) string {
	var lastErr string

	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := progress.Sanitize(scanner.Text())
		if line == "" {
			continue
		}
		logger.Trace().Str("line", line).Msg("stdout")

		if progress.IsErrorLine(line) {
			lastErr = line
		}

		if p, ok := progress.ParseLine(line); ok {
			events <- Event{JobID: jobID, Gen: gen, Progress: &p}
		}
	}
	return lastErr
}

// consumeStderr drains stderr and returns the last error-looking line. The
// downloader logs diagnostics there; only lines that look like actual
// failures are worth surfacing to the user.
func consumeStderr(pipe io.Reader, logger zerolog.Logger) string {
	var lastErr string

	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := progress.Sanitize(scanner.Text())
		if line == "" {
			continue
		}
		logger.Trace().Str("line", line).Msg("stderr")

		if progress.IsErrorLine(line) {
			lastErr = line
		}
	}
	return lastErr
}
