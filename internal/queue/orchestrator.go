package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/grabtune/grabtune/internal/config"
	"github.com/grabtune/grabtune/internal/model"
	"github.com/grabtune/grabtune/internal/runner"
)

// eventBuffer sizes the runner event channel. Runners block on a full
// channel, which only back-pressures their output scanning.
const eventBuffer = 256

// run tracks one active downloader process. The generation number ties
// runner events to this specific run; events from an earlier run of the
// same job carry an older generation and are dropped.
type run struct {
	gen    uint64
	handle runner.Handle
}

// Orchestrator owns all queue state. Public methods lock, mutate, queue
// update snapshots, schedule, then unlock. Runner events are applied by a
// single drain goroutine, and update snapshots are delivered to the
// OnUpdate callback by a single notifier goroutine, in mutation order.
type Orchestrator struct {
	mu      sync.Mutex
	jobs    map[string]*model.Job
	order   []string // insertion-order job IDs; retry moves a job to the back
	running map[string]*run
	paused  bool
	gen     uint64

	launcher Launcher
	cfg      ConfigProvider
	events   chan runner.Event

	// pending holds update snapshots in the order the mutations happened;
	// appended under mu, drained by the notifier goroutine.
	pending  []model.Job
	wake     chan struct{}
	onUpdate func(model.Job)

	logger zerolog.Logger
	done   chan struct{}
	closed bool
}

// New creates an orchestrator and starts its event drain and update
// notifier goroutines.
func New(launcher Launcher, cfg ConfigProvider) *Orchestrator {
	o := &Orchestrator{
		jobs:     make(map[string]*model.Job),
		running:  make(map[string]*run),
		launcher: launcher,
		cfg:      cfg,
		events:   make(chan runner.Event, eventBuffer),
		wake:     make(chan struct{}, 1),
		logger:   log.With().Str("component", "queue").Logger(),
		done:     make(chan struct{}),
	}
	go o.drain()
	go o.notifyLoop()
	return o
}

// OnUpdate registers the callback fired with a copy of every job that
// changes. Deliveries come from a single goroutine, in mutation order. At
// most one callback is supported; register before any jobs are added.
func (o *Orchestrator) OnUpdate(fn func(model.Job)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onUpdate = fn
}

// Add validates the URL and appends a new queued job. Duplicate URLs are
// allowed; each Add is an independent job.
func (o *Orchestrator) Add(url string) (model.Job, error) {
	if !runner.ValidateURL(url) {
		return model.Job{}, &ValidationError{Reason: fmt.Sprintf("not a supported YouTube/YouTube Music URL: %q", url)}
	}

	job := model.Job{
		ID:        uuid.NewString(),
		URL:       url,
		Status:    model.StatusQueued,
		Progress:  model.QueuedProgress(),
		CreatedAt: time.Now(),
	}

	o.mu.Lock()
	o.jobs[job.ID] = &job
	o.order = append(o.order, job.ID)
	// Snapshot the queued state before scheduling can flip it to Running,
	// so observers see the full transition sequence.
	queued := job
	o.queueUpdate(queued)
	o.schedule()
	o.mu.Unlock()

	o.logger.Info().Str("job_id", job.ID).Str("url", url).Msg("job queued")
	return o.Get(job.ID)
}

// Get returns a copy of the job.
func (o *Orchestrator) Get(id string) (model.Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, ok := o.jobs[id]
	if !ok {
		return model.Job{}, &NotFoundError{ID: id}
	}
	return *job, nil
}

// Retry re-queues a failed or cancelled job at the back of the queue. The
// job keeps its ID; its retry counter increments and its run state resets.
func (o *Orchestrator) Retry(id string) error {
	o.mu.Lock()

	job, ok := o.jobs[id]
	if !ok {
		o.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	if !job.Status.CanRetry() {
		status := job.Status
		o.mu.Unlock()
		return &InvalidStateError{ID: id, Status: status, Op: "retry"}
	}

	job.ResetForRetry()
	retryCount := job.RetryCount
	o.moveToBack(id)
	o.queueUpdate(*job)
	o.schedule()
	o.mu.Unlock()

	o.logger.Info().Str("job_id", id).Int("retry_count", retryCount).Msg("job retried")
	return nil
}

// Cancel stops a job. A queued job is cancelled immediately; a running job
// gets its process signalled and stays Running until the runner reports the
// terminal event. Cancelling an already-terminal job is a no-op.
func (o *Orchestrator) Cancel(id string) error {
	o.mu.Lock()

	job, ok := o.jobs[id]
	if !ok {
		o.mu.Unlock()
		return &NotFoundError{ID: id}
	}

	switch job.Status {
	case model.StatusQueued:
		o.markCancelled(job)
		o.queueUpdate(*job)
		o.schedule()

	case model.StatusRunning:
		if r := o.running[id]; r != nil {
			r.handle.Cancel()
		}

	default:
		// Terminal already; nothing to do.
	}
	o.mu.Unlock()

	o.logger.Info().Str("job_id", id).Msg("cancel requested")
	return nil
}

// Remove deletes a job from the queue. Running jobs cannot be removed;
// cancel first and wait for the terminal transition.
func (o *Orchestrator) Remove(id string) error {
	o.mu.Lock()

	job, ok := o.jobs[id]
	if !ok {
		o.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	if job.Status == model.StatusRunning {
		o.mu.Unlock()
		return &InvalidStateError{ID: id, Status: model.StatusRunning, Op: "remove"}
	}

	delete(o.jobs, id)
	o.removeFromOrder(id)
	o.schedule()
	o.mu.Unlock()

	o.logger.Info().Str("job_id", id).Msg("job removed")
	return nil
}

// Pause stops dispatching new jobs. Running jobs are unaffected. Idempotent.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	o.paused = true
	o.mu.Unlock()
	o.logger.Info().Msg("queue paused")
}

// Resume re-enables dispatching and immediately runs a scheduling pass.
// Idempotent.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	o.paused = false
	o.schedule()
	o.mu.Unlock()

	o.logger.Info().Msg("queue resumed")
}

// ClearCompleted removes every job in a terminal status and returns how
// many were removed.
func (o *Orchestrator) ClearCompleted() int {
	o.mu.Lock()

	removed := 0
	kept := o.order[:0]
	for _, id := range o.order {
		if job := o.jobs[id]; job.Status.IsTerminal() {
			delete(o.jobs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	o.order = kept
	o.mu.Unlock()

	o.logger.Info().Int("removed", removed).Msg("cleared terminal jobs")
	return removed
}

// CancelAll cancels every queued job immediately and signals every running
// job's process.
func (o *Orchestrator) CancelAll() {
	o.mu.Lock()

	affected := 0
	for _, id := range o.order {
		job := o.jobs[id]
		switch job.Status {
		case model.StatusQueued:
			o.markCancelled(job)
			o.queueUpdate(*job)
			affected++
		case model.StatusRunning:
			if r := o.running[id]; r != nil {
				r.handle.Cancel()
			}
		}
	}
	o.mu.Unlock()

	o.logger.Info().Int("affected", affected).Msg("cancel all requested")
}

// RetryAllFailed re-queues every failed job, preserving their relative
// order at the back of the queue. Returns how many were re-queued.
func (o *Orchestrator) RetryAllFailed() int {
	o.mu.Lock()

	var failed []string
	for _, id := range o.order {
		if o.jobs[id].Status == model.StatusFailed {
			failed = append(failed, id)
		}
	}

	for _, id := range failed {
		job := o.jobs[id]
		job.ResetForRetry()
		o.moveToBack(id)
		o.queueUpdate(*job)
	}
	o.schedule()
	o.mu.Unlock()

	o.logger.Info().Int("retried", len(failed)).Msg("retry all failed")
	return len(failed)
}

// SetConcurrentLimit persists a new limit through the config provider and
// runs a scheduling pass so an increase takes effect immediately. A
// decrease never interrupts running jobs; the pool shrinks as they finish.
func (o *Orchestrator) SetConcurrentLimit(limit int) error {
	if limit < config.MinConcurrentLimit || limit > config.MaxConcurrentLimit {
		return &ValidationError{Reason: fmt.Sprintf("concurrent limit %d out of range %d..%d",
			limit, config.MinConcurrentLimit, config.MaxConcurrentLimit)}
	}

	cfg := o.cfg.Snapshot()
	cfg.ConcurrentLimit = limit
	if err := o.cfg.Update(cfg); err != nil {
		return err
	}

	o.logger.Info().Int("limit", limit).Msg("concurrent limit changed")
	o.Reschedule()
	return nil
}

// Reschedule runs a scheduling pass. Called after external configuration
// changes; safe to call at any time.
func (o *Orchestrator) Reschedule() {
	o.mu.Lock()
	o.schedule()
	o.mu.Unlock()
}

// Snapshot returns a consistent copy of the whole queue in display order.
func (o *Orchestrator) Snapshot() model.QueueState {
	limit := o.cfg.Snapshot().ConcurrentLimit

	o.mu.Lock()
	defer o.mu.Unlock()

	jobs := make([]model.Job, 0, len(o.order))
	for _, id := range o.order {
		jobs = append(jobs, *o.jobs[id])
	}
	return model.QueueState{
		Jobs:            jobs,
		IsPaused:        o.paused,
		ConcurrentLimit: limit,
	}
}

// Stats counts jobs per status.
func (o *Orchestrator) Stats() model.Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := model.Stats{IsPaused: o.paused, Total: len(o.order)}
	for _, id := range o.order {
		switch o.jobs[id].Status {
		case model.StatusQueued:
			s.Queued++
		case model.StatusRunning:
			s.Running++
		case model.StatusCompleted:
			s.Completed++
		case model.StatusFailed:
			s.Failed++
		case model.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// Close signals every running process and stops the event drain and
// notifier goroutines. Intended for shutdown; the orchestrator must not be
// used afterwards.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	for _, r := range o.running {
		r.handle.Cancel()
	}
	o.mu.Unlock()

	close(o.done)
	o.logger.Info().Msg("queue closed")
}

// drain applies runner events until Close.
func (o *Orchestrator) drain() {
	for {
		select {
		case ev := <-o.events:
			o.apply(ev)
		case <-o.done:
			return
		}
	}
}

// apply folds one runner event into queue state, dropping events whose
// generation does not match the job's active run.
func (o *Orchestrator) apply(ev runner.Event) {
	o.mu.Lock()

	r, ok := o.running[ev.JobID]
	if !ok || r.gen != ev.Gen {
		o.mu.Unlock()
		o.logger.Debug().Str("job_id", ev.JobID).Uint64("gen", ev.Gen).Msg("dropped stale runner event")
		return
	}

	job := o.jobs[ev.JobID]

	if !ev.Terminal {
		if ev.Progress != nil {
			job.Progress = *ev.Progress
			o.queueUpdate(*job)
		}
		o.mu.Unlock()
		return
	}

	delete(o.running, ev.JobID)
	now := time.Now()
	job.CompletedAt = &now

	switch ev.Status {
	case model.StatusCompleted:
		job.Status = model.StatusCompleted
		if ev.Progress != nil {
			job.Progress = *ev.Progress
		} else {
			job.Progress = model.CompletedProgress()
		}

	case model.StatusCancelled:
		job.Status = model.StatusCancelled
		job.Progress.CurrentStep = "Cancelled by user"

	default:
		job.Status = model.StatusFailed
		if ev.Err != nil {
			job.Error = ev.Err.Error()
		} else {
			job.Error = "download failed"
		}
		job.Progress = model.Progress{Stage: model.StageFailed, CurrentStep: job.Error}
	}

	final := job.Status
	o.queueUpdate(*job)
	o.schedule()
	o.mu.Unlock()

	o.logger.Info().Str("job_id", ev.JobID).Str("status", string(final)).Msg("job finished")
}

// schedule dispatches queued jobs in FIFO order while capacity allows,
// queueing an update snapshot for each job it starts. Caller must hold o.mu.
func (o *Orchestrator) schedule() {
	if o.closed || o.paused {
		return
	}

	limit := o.cfg.Snapshot().ConcurrentLimit

	for _, id := range o.order {
		if len(o.running) >= limit {
			break
		}
		job := o.jobs[id]
		if job.Status != model.StatusQueued {
			continue
		}

		now := time.Now()
		job.Status = model.StatusRunning
		job.StartedAt = &now
		job.Progress = model.InitializingProgress()

		o.gen++
		handle := o.launcher.Launch(*job, o.cfg.Snapshot(), o.gen, o.events)
		o.running[id] = &run{gen: o.gen, handle: handle}

		o.logger.Debug().Str("job_id", id).Uint64("gen", o.gen).Msg("job dispatched")
		o.queueUpdate(*job)
	}
}

// markCancelled finalizes a queued job as cancelled. Caller holds o.mu.
func (o *Orchestrator) markCancelled(job *model.Job) {
	now := time.Now()
	job.Status = model.StatusCancelled
	job.CompletedAt = &now
	job.Progress.CurrentStep = "Cancelled by user"
}

func (o *Orchestrator) moveToBack(id string) {
	o.removeFromOrder(id)
	o.order = append(o.order, id)
}

func (o *Orchestrator) removeFromOrder(id string) {
	for i, v := range o.order {
		if v == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			return
		}
	}
}

// queueUpdate records a job snapshot for delivery. Caller must hold o.mu,
// so pending order equals mutation order.
func (o *Orchestrator) queueUpdate(job model.Job) {
	o.pending = append(o.pending, job)
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// notifyLoop is the only goroutine that invokes the OnUpdate callback, so a
// job's updates are delivered in the order they were applied and a terminal
// update is never overtaken by the progress updates that preceded it.
func (o *Orchestrator) notifyLoop() {
	for {
		select {
		case <-o.wake:
		case <-o.done:
			return
		}

		for {
			o.mu.Lock()
			batch := o.pending
			o.pending = nil
			fn := o.onUpdate
			o.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			if fn == nil {
				continue
			}
			for _, job := range batch {
				fn(job)
			}
		}
	}
}
