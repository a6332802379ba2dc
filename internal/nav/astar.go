package nav

import (
	"container/heap"
	"errors"
	"math"
	"time"
)

var (
	// ErrGridNotBuilt marks use of a grid whose Build failed or never ran.
	ErrGridNotBuilt = errors.New("nav: grid not built")
	// ErrOffGrid marks a start or goal outside the grid footprint. This is
	// caller misuse, reported synchronously and distinct from NOT_FOUND.
	ErrOffGrid = errors.New("nav: start or goal outside grid")
)

const (
	costStraight = 1.0
	costDiagonal = math.Sqrt2
)

// SearchResult is the raw outcome of one search: the unsmoothed jump-point
// chain from start to goal, in grid cells.
type SearchResult struct {
	Status   Status
	Cells    []Cell
	Cost     float64
	Expanded int
}

// octile is the admissible and consistent distance estimate for 8-connected
// grids under the {straight=1, diagonal=sqrt2} cost model.
func octile(a, b Cell) float64 {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	min := dx
	if dz < min {
		min = dz
	}
	return costStraight*float64(dx+dz) + (costDiagonal-2*costStraight)*float64(min)
}

type openNode struct {
	cell    int32 // z*width+x
	g       float64
	f       float64
	heapIdx int
}

// openHeap orders by f ascending; ties prefer the larger g (nodes closer to
// the goal), then the lower cell index so equal-cost paths resolve the same
// way on every run.
type openHeap []*openNode

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g > h[j].g
	}
	return h[i].cell < h[j].cell
}
func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}
func (h *openHeap) Push(x any) {
	n := x.(*openNode)
	n.heapIdx = len(*h)
	*h = append(*h, n)
}
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// FindPath runs a best-first search over jump-point successors. It returns an
// error only for caller misuse (unbuilt grid, off-grid endpoints); an
// unreachable goal is the expected StatusNotFound outcome, and an observed
// cancellation yields StatusCancelled. Every search owns its open/closed
// state, so concurrent FindPath calls on one grid never interfere.
func FindPath(g *Grid, req PathRequest, cancelled func() bool) (SearchResult, error) {
	if g == nil || !g.Built() {
		return SearchResult{Status: StatusFailed}, ErrGridNotBuilt
	}

	sx, sz, ok := g.WorldToCell(req.Start.X, req.Start.Z)
	if !ok {
		return SearchResult{Status: StatusFailed}, ErrOffGrid
	}
	gx, gz, ok := g.WorldToCell(req.Goal.X, req.Goal.Z)
	if !ok {
		return SearchResult{Status: StatusFailed}, ErrOffGrid
	}

	start := Cell{X: sx, Z: sz}
	goal := Cell{X: gx, Z: gz}

	if !g.IsWalkable(start.X, start.Z) {
		start, ok = substituteBlocked(g, start, req)
		if !ok {
			return SearchResult{Status: StatusNotFound}, nil
		}
	}
	if !g.IsWalkable(goal.X, goal.Z) {
		goal, ok = substituteBlocked(g, goal, req)
		if !ok {
			return SearchResult{Status: StatusNotFound}, nil
		}
	}

	if start == goal {
		return SearchResult{Status: StatusSucceeded, Cells: []Cell{start}}, nil
	}

	weight := req.HeuristicWeight
	if weight <= 0 {
		weight = 1.0
	}

	e := &expander{grid: g, allowDiagonal: req.AllowDiagonal, corners: req.CornerPolicy}

	w := g.Width()
	n := w * g.Depth()
	gScore := make([]float64, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	parent := make([]int32, n)
	for i := range parent {
		parent[i] = -1
	}
	closed := make([]bool, n)
	inOpen := make([]*openNode, n)

	idx := func(c Cell) int32 { return int32(c.Z*w + c.X) }
	cellOf := func(i int32) Cell { return Cell{X: int(i) % w, Z: int(i) / w} }

	open := make(openHeap, 0, 64)
	heap.Init(&open)
	si := idx(start)
	gScore[si] = 0
	startNode := &openNode{cell: si, g: 0, f: weight * octile(start, goal)}
	heap.Push(&open, startNode)
	inOpen[si] = startNode

	expanded := 0
	gi := idx(goal)

	for open.Len() > 0 {
		if cancelled != nil && cancelled() {
			return SearchResult{Status: StatusCancelled, Expanded: expanded}, nil
		}

		cur := heap.Pop(&open).(*openNode)
		inOpen[cur.cell] = nil
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true
		expanded++

		if cur.cell == gi {
			cells := reconstruct(parent, cellOf, cur.cell)
			return SearchResult{
				Status:   StatusSucceeded,
				Cells:    cells,
				Cost:     cur.g,
				Expanded: expanded,
			}, nil
		}

		c := cellOf(cur.cell)
		inDX, inDZ := 0, 0
		if p := parent[cur.cell]; p >= 0 {
			pc := cellOf(p)
			inDX = sign(c.X - pc.X)
			inDZ = sign(c.Z - pc.Z)
		}

		for _, d := range e.prunedDirections(c.X, c.Z, inDX, inDZ) {
			jp, found := e.jump(c.X, c.Z, d.dx, d.dz, goal)
			if !found {
				continue
			}
			ji := idx(jp)
			if closed[ji] {
				continue
			}
			tentative := cur.g + octile(c, jp)
			if tentative >= gScore[ji] {
				continue
			}
			gScore[ji] = tentative
			parent[ji] = cur.cell
			f := tentative + weight*octile(jp, goal)
			if it := inOpen[ji]; it != nil {
				it.g = tentative
				it.f = f
				heap.Fix(&open, it.heapIdx)
			} else {
				it = &openNode{cell: ji, g: tentative, f: f}
				heap.Push(&open, it)
				inOpen[ji] = it
			}
		}
	}

	return SearchResult{Status: StatusNotFound, Expanded: expanded}, nil
}

// substituteBlocked looks for the nearest walkable stand-in for a blocked
// endpoint by scanning expanding Manhattan rings, bounded by the request's
// search radius. The scan order is fixed, so the substitute is deterministic.
func substituteBlocked(g *Grid, c Cell, req PathRequest) (Cell, bool) {
	if !req.FindNearestIfBlocked || req.NearestSearchRadius <= 0 {
		return Cell{}, false
	}
	for r := 1; r <= req.NearestSearchRadius; r++ {
		for dx := -r; dx <= r; dx++ {
			rem := r - abs(dx)
			for i, dz := range []int{rem, -rem} {
				if i == 1 && rem == 0 {
					continue // (dx, 0) only once
				}
				x, z := c.X+dx, c.Z+dz
				if g.IsWalkable(x, z) {
					return Cell{X: x, Z: z}, true
				}
			}
		}
	}
	return Cell{}, false
}

func reconstruct(parent []int32, cellOf func(int32) Cell, end int32) []Cell {
	cells := []Cell{cellOf(end)}
	for cur := parent[end]; cur >= 0; cur = parent[cur] {
		cells = append(cells, cellOf(cur))
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Plan is the full pipeline a worker runs for one request: search, smooth,
// convert to world-space cell centers, and re-sample Y from the live height
// sampler so waypoints track terrain edits since Build. Caller misuse and
// internal failures surface as StatusFailed with a developer-facing message.
func Plan(g *Grid, sample HeightSampler, req PathRequest, tok *CancelToken) PathResult {
	res := PathResult{AgentID: req.AgentID}

	cancelled := tok.Cancelled
	if !req.Deadline.IsZero() {
		deadline := req.Deadline
		cancelled = func() bool {
			return tok.Cancelled() || time.Now().After(deadline)
		}
	}

	sr, err := FindPath(g, req, cancelled)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err.Error()
		return res
	}

	res.Status = sr.Status
	res.TotalCost = sr.Cost
	res.ExpandedNodes = sr.Expanded
	if sr.Status == StatusCancelled && !tok.Cancelled() {
		res.Err = "deadline exceeded"
	}
	if sr.Status != StatusSucceeded {
		return res
	}

	cells := SmoothPath(g, req.AllowDiagonal, req.CornerPolicy, sr.Cells)
	res.Waypoints = make([]Vec3, len(cells))
	for i, c := range cells {
		wp := g.CellCenterWorld(c.X, c.Z)
		if sample != nil {
			wp.Y = sample(wp.X, wp.Z)
		}
		res.Waypoints[i] = wp
	}
	return res
}
