// Package jobs schedules path requests onto a fixed worker pool and hands the
// results back through a poll/wait surface, so many agents can request paths
// per simulation tick without blocking the tick goroutine.
package jobs

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"pathcraft.ai/internal/nav"
)

// Config sizes a Runner. Zero values pick the defaults.
type Config struct {
	// Workers is the fixed pool size. Defaults to max(1, NumCPU-2).
	Workers int
	// MaxTrackedJobs caps uncollected jobs; Submit returns 0 at the cap.
	// Defaults to 1024.
	MaxTrackedJobs int

	// OnComplete, when set, is invoked by the worker for every terminal
	// result after the job id is stamped, before the result becomes
	// retrievable. Audit sinks hook in here; it must not call back into the
	// runner. The duration covers the pathfinder call only, not queue time.
	OnComplete func(res nav.PathResult, elapsed time.Duration)
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() - 2
		if c.Workers < 1 {
			c.Workers = 1
		}
	}
	if c.MaxTrackedJobs <= 0 {
		c.MaxTrackedJobs = 1024
	}
}

type job struct {
	id    uint64
	agent string
	req   nav.PathRequest
	token *nav.CancelToken

	done   chan struct{}
	result nav.PathResult
}

// Runner owns the worker pool and the bounded job-tracking map. The
// bookkeeping mutex is held only for map updates, never for the duration of
// a search.
type Runner struct {
	fn  nav.PathfinderFn
	cfg Config

	mu     sync.Mutex
	jobs   map[uint64]*job
	nextID uint64
	closed bool

	work chan *job
	wg   sync.WaitGroup
}

// NewRunner starts the worker pool. fn is the externally supplied pathfinder
// composing grid, search and smoothing; it must observe the token
// cooperatively.
func NewRunner(fn nav.PathfinderFn, cfg Config) *Runner {
	cfg.applyDefaults()
	r := &Runner{
		fn:   fn,
		cfg:  cfg,
		jobs: make(map[uint64]*job),
		// Queue capacity matches the tracked-job cap, so a successful Submit
		// never blocks on the channel send.
		work: make(chan *job, cfg.MaxTrackedJobs),
	}
	for i := 0; i < cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for jb := range r.work {
		started := time.Now()
		jb.result = r.run(jb)
		jb.result.JobID = jb.id
		jb.result.AgentID = jb.agent
		if r.cfg.OnComplete != nil {
			r.cfg.OnComplete(jb.result, time.Since(started))
		}
		close(jb.done)
	}
}

// run executes one job to a terminal state. A cancellation observed before
// the search starts short-circuits; a panic in the user pathfinder becomes
// StatusFailed rather than taking down the worker.
func (r *Runner) run(jb *job) (res nav.PathResult) {
	defer func() {
		if p := recover(); p != nil {
			res = nav.PathResult{
				Status: nav.StatusFailed,
				Err:    fmt.Sprintf("pathfinder panic: %v", p),
			}
		}
	}()
	if jb.token.Cancelled() {
		return nav.PathResult{Status: nav.StatusCancelled}
	}
	return r.fn(jb.req, jb.token)
}

// Submit enqueues one request and returns its job id. Ids are unique and
// monotonically increasing; 0 means the request was not enqueued (runner
// closed, or the tracked-job cap is reached and results must be collected
// first).
func (r *Runner) Submit(req nav.PathRequest) uint64 {
	r.mu.Lock()
	if r.closed || len(r.jobs) >= r.cfg.MaxTrackedJobs {
		r.mu.Unlock()
		return 0
	}
	r.nextID++
	jb := &job{
		id:    r.nextID,
		agent: req.AgentID,
		req:   req,
		token: &nav.CancelToken{},
		done:  make(chan struct{}),
	}
	r.jobs[jb.id] = jb
	// Sent under the lock: capacity equals the tracked-job cap, so this never
	// blocks, and it cannot race a concurrent Close of the channel.
	r.work <- jb
	r.mu.Unlock()
	return jb.id
}

// SubmitBulk submits requests in order and returns their ids in the same
// order. Completion order is not guaranteed.
func (r *Runner) SubmitBulk(reqs []nav.PathRequest) []uint64 {
	ids := make([]uint64, len(reqs))
	for i, req := range reqs {
		ids[i] = r.Submit(req)
	}
	return ids
}

// Cancel sets the job's token. Best-effort: the search must observe the token
// to actually stop, and the job stays retrievable either way. Returns false
// for unknown ids.
func (r *Runner) Cancel(id uint64) bool {
	r.mu.Lock()
	jb, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	jb.token.Cancel()
	return true
}

// Poll removes and returns up to maxToCollect completed jobs without
// blocking. maxToCollect <= 0 collects every ready job. Iteration order over
// ready jobs is unspecified.
func (r *Runner) Poll(maxToCollect int) []nav.PathResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []nav.PathResult
	for id, jb := range r.jobs {
		if maxToCollect > 0 && len(out) >= maxToCollect {
			break
		}
		select {
		case <-jb.done:
			out = append(out, jb.result)
			delete(r.jobs, id)
		default:
		}
	}
	return out
}

// Wait blocks until the given job completes, then removes and returns it.
// The boolean is false for unknown ids, and for ids a concurrent Poll or
// Wait collected first: each result is delivered exactly once.
func (r *Runner) Wait(id uint64) (nav.PathResult, bool) {
	r.mu.Lock()
	jb, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return nav.PathResult{}, false
	}
	<-jb.done

	// The job may have been collected while we slept. Only the caller that
	// still finds it tracked owns the result.
	r.mu.Lock()
	_, ok = r.jobs[id]
	if ok {
		delete(r.jobs, id)
	}
	r.mu.Unlock()
	if !ok {
		return nav.PathResult{}, false
	}
	return jb.result, true
}

// TrackedJobs reports the number of uncollected jobs (queued, running or
// completed-but-unretrieved).
func (r *Runner) TrackedJobs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Close cancels every still-tracked job's token (best-effort cooperative
// shutdown) and joins the workers. Queued jobs still produce terminal
// results, so nothing is silently dropped, but no new submissions are
// accepted. Close is idempotent.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, jb := range r.jobs {
		jb.token.Cancel()
	}
	r.mu.Unlock()

	close(r.work)
	r.wg.Wait()
}
