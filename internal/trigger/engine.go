package trigger

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Callback is the work bound to a job. Errors are logged by the engine and
// never stop the scheduling loop.
type Callback func(ctx context.Context) error

type jobDef struct {
	id      string
	spec    Spec
	run     Callback
	entryID cron.EntryID // 0 while paused
	paused  bool
}

type task struct {
	jobID string
	run   Callback
}

// JobInfo is a read-only view of one registered job.
type JobInfo struct {
	ID      string
	Trigger string
	Paused  bool
	Next    time.Time
}

// Engine maintains the cron-backed job table and a bounded worker queue.
// The cron loop only enqueues; workers run callbacks, so one slow briefing
// never delays another job's on-time firing. All entry points are safe for
// concurrent use.
type Engine struct {
	mu   sync.Mutex
	log  *slog.Logger
	loc  *time.Location
	c    *cron.Cron
	jobs map[string]*jobDef

	timeout time.Duration
	queue   chan task
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewEngine creates an Engine firing in loc. timeout bounds each callback run.
func NewEngine(loc *time.Location, timeout time.Duration, log *slog.Logger) *Engine {
	return &Engine{
		log:     log,
		loc:     loc,
		c:       cron.New(cron.WithLocation(loc)),
		jobs:    make(map[string]*jobDef),
		timeout: timeout,
		queue:   make(chan task, 64),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the cron loop and the worker pool.
func (e *Engine) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx, i)
	}
	e.c.Start()
	e.log.Info("trigger engine started", "workers", workers, "tz", e.loc.String())
}

// Stop halts the cron loop, waits for in-flight firings, and returns.
// A fired job runs to completion; nothing is cancelled mid-flight.
func (e *Engine) Stop() {
	<-e.c.Stop().Done()
	close(e.stopCh)
	e.wg.Wait()
	e.log.Info("trigger engine stopped")
}

// Register binds jobID to spec and cb, atomically replacing any existing
// registration with the same id. Returns the next fire time.
func (e *Engine) Register(jobID string, spec Spec, cb Callback) (time.Time, error) {
	spec.Location = e.loc

	e.mu.Lock()
	defer e.mu.Unlock()

	entryID, err := e.c.AddFunc(spec.CronExpr(), func() { e.enqueue(task{jobID: jobID, run: cb}) })
	if err != nil {
		// The previous registration, if any, stays installed untouched.
		return time.Time{}, err
	}
	if old, ok := e.jobs[jobID]; ok && old.entryID != 0 {
		e.c.Remove(old.entryID)
	}
	e.jobs[jobID] = &jobDef{id: jobID, spec: spec, run: cb, entryID: entryID}

	now := time.Now().In(e.loc)
	next := spec.Next(now)
	// Cron fires only strictly-future matches. A registration landing inside
	// its own slot minute still owes that occurrence, so run it now; the
	// returned next fire time is that occurrence.
	if next.Equal(now.Truncate(time.Minute)) {
		e.enqueue(task{jobID: jobID, run: cb})
	}
	e.log.Info("job registered", "job_id", jobID, "trigger", spec.String(), "next_run", next)
	return next, nil
}

// Location is the zone all triggers fire in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// nextFire reports the next instant cron will actually fire sp: strictly
// after the current slot minute, which cron has already passed.
func (e *Engine) nextFire(sp Spec, now time.Time) time.Time {
	now = now.In(e.loc)
	next := sp.Next(now)
	if next.Equal(now.Truncate(time.Minute)) {
		next = sp.Next(next.Add(time.Minute))
	}
	return next
}

// Remove deletes the job. Returns whether it existed.
func (e *Engine) Remove(jobID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.jobs[jobID]
	if !ok {
		return false
	}
	if d.entryID != 0 {
		e.c.Remove(d.entryID)
	}
	delete(e.jobs, jobID)
	e.log.Info("job removed", "job_id", jobID)
	return true
}

// Pause suspends firing but keeps the definition. Returns whether the job exists.
func (e *Engine) Pause(jobID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.jobs[jobID]
	if !ok {
		return false
	}
	if !d.paused {
		if d.entryID != 0 {
			e.c.Remove(d.entryID)
			d.entryID = 0
		}
		d.paused = true
		e.log.Info("job paused", "job_id", jobID)
	}
	return true
}

// Resume restores firing for a paused job. The next occurrence is recomputed
// from now, so resuming never fires a missed occurrence retroactively.
func (e *Engine) Resume(jobID string) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.jobs[jobID]
	if !ok {
		return time.Time{}, false
	}
	if d.paused {
		run := d.run
		id := d.id
		entryID, err := e.c.AddFunc(d.spec.CronExpr(), func() { e.enqueue(task{jobID: id, run: run}) })
		if err != nil {
			// CronExpr output is always parseable; keep the job paused if not.
			e.log.Error("resume failed", "job_id", jobID, "err", err)
			return time.Time{}, false
		}
		d.entryID = entryID
		d.paused = false
		e.log.Info("job resumed", "job_id", jobID)
	}
	return e.nextFire(d.spec, time.Now()), true
}

// NextRun reports the next fire time. ok is false when the job is unknown;
// a paused job reports ok with a zero time.
func (e *Engine) NextRun(jobID string) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.jobs[jobID]
	if !ok {
		return time.Time{}, false
	}
	if d.paused {
		return time.Time{}, true
	}
	return e.nextFire(d.spec, time.Now()), true
}

// Info returns the job's registration view.
func (e *Engine) Info(jobID string) (JobInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.jobs[jobID]
	if !ok {
		return JobInfo{}, false
	}
	return e.infoLocked(d), true
}

// Snapshot returns every registered job's view, unordered.
func (e *Engine) Snapshot() []JobInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]JobInfo, 0, len(e.jobs))
	for _, d := range e.jobs {
		out = append(out, e.infoLocked(d))
	}
	return out
}

func (e *Engine) infoLocked(d *jobDef) JobInfo {
	info := JobInfo{ID: d.id, Trigger: d.spec.String(), Paused: d.paused}
	if !d.paused {
		info.Next = e.nextFire(d.spec, time.Now())
	}
	return info
}

func (e *Engine) enqueue(t task) {
	select {
	case e.queue <- t:
	default:
		e.log.Warn("trigger queue full; dropping firing", "job_id", t.jobID,
			"queue_cap", cap(e.queue))
	}
}

func (e *Engine) worker(ctx context.Context, idx int) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case t := <-e.queue:
			e.execOne(ctx, t)
		}
	}
}

// execOne runs a single firing. Callback errors and panics are contained
// here so one failing job never deregisters itself or stops the loop.
func (e *Engine) execOne(ctx context.Context, t task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("panic in job callback", "job_id", t.jobID,
				"panic", r, "stack", string(debug.Stack()))
		}
	}()

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := t.run(runCtx); err != nil {
		e.log.Warn("job firing failed", "job_id", t.jobID, "err", err,
			"dur_ms", time.Since(start).Milliseconds())
		return
	}
	e.log.Info("job firing completed", "job_id", t.jobID,
		"dur_ms", time.Since(start).Milliseconds())
}
