package nav

import (
	"sync/atomic"
	"time"
)

// Vec3 is a world-space position. Y is terrain height at (X, Z).
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Cell addresses one grid cell. X runs along world X, Z along world Z.
type Cell struct {
	X int
	Z int
}

// CornerPolicy controls how diagonal steps treat their two adjacent
// orthogonal cells.
type CornerPolicy int

const (
	// CornerForbid rejects a diagonal step unless both adjacent cells are open.
	CornerForbid CornerPolicy = iota
	// CornerSqueeze allows a diagonal step when at least one adjacent cell is open.
	CornerSqueeze
	// CornerCut allows any diagonal step regardless of the adjacent cells.
	CornerCut
)

func (p CornerPolicy) String() string {
	switch p {
	case CornerForbid:
		return "forbid"
	case CornerSqueeze:
		return "squeeze"
	case CornerCut:
		return "cut"
	}
	return "unknown"
}

// Status is the terminal outcome of a path job.
type Status int

const (
	StatusSucceeded Status = iota
	StatusNotFound
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusFailed:
		return "FAILED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// PathRequest describes one path query. It is created by the caller and
// consumed once by a worker; the runner never mutates it.
type PathRequest struct {
	AgentID string
	Start   Vec3
	Goal    Vec3

	AllowDiagonal   bool
	CornerPolicy    CornerPolicy
	HeuristicWeight float64 // <= 0 means 1.0

	FindNearestIfBlocked bool
	NearestSearchRadius  int

	// Deadline, when non-zero, is enforced by the pathfinder function,
	// not by the job runner.
	Deadline time.Time
}

// PathResult is the terminal outcome of a path job. The runner owns it until
// it is retrieved via Poll/Wait; ownership then transfers to the caller.
type PathResult struct {
	JobID   uint64
	AgentID string
	Status  Status

	Waypoints []Vec3
	TotalCost float64

	// ExpandedNodes counts A* expansions, for diagnostics and the job index.
	ExpandedNodes int

	// Err carries a developer-facing message for StatusFailed and, where
	// useful, for StatusCancelled (e.g. deadline expiry).
	Err string
}

// PathfinderFn is the unit of work scheduled by the job runner. It composes
// grid, search and smoothing, and must observe tok cooperatively.
type PathfinderFn func(req PathRequest, tok *CancelToken) PathResult

// CancelToken is a shared flag enabling cooperative, non-preemptive early
// termination. One token exists per job; the search polls it periodically and
// never gets preempted.
type CancelToken struct {
	flag atomic.Bool
}

// Cancel sets the token. Safe to call from any goroutine, any number of times.
func (t *CancelToken) Cancel() {
	if t != nil {
		t.flag.Store(true)
	}
}

// Cancelled reports whether Cancel has been called. A nil token is never
// cancelled, so searches can run without one.
func (t *CancelToken) Cancelled() bool {
	return t != nil && t.flag.Load()
}
