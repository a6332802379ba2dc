package nav

import "testing"

func newExpander(g *Grid, diag bool, policy CornerPolicy) *expander {
	return &expander{grid: g, allowDiagonal: diag, corners: policy}
}

func containsDir(dirs []dir, dx, dz int) bool {
	for _, d := range dirs {
		if d == (dir{dx, dz}) {
			return true
		}
	}
	return false
}

func TestCanStep_CornerPolicies(t *testing.T) {
	g := buildFlatGrid(t, 6, 6)
	g.BlockCell(1, 0) // one side of the (0,0) -> (1,1) diagonal

	if newExpander(g, true, CornerForbid).canStep(0, 0, 1, 1) {
		t.Fatalf("forbid: diagonal past one blocked side should be rejected")
	}
	if !newExpander(g, true, CornerSqueeze).canStep(0, 0, 1, 1) {
		t.Fatalf("squeeze: diagonal with one open side should be allowed")
	}
	if !newExpander(g, true, CornerCut).canStep(0, 0, 1, 1) {
		t.Fatalf("cut: diagonal should ignore adjacent cells")
	}

	g.BlockCell(0, 1) // now both sides blocked
	if newExpander(g, true, CornerSqueeze).canStep(0, 0, 1, 1) {
		t.Fatalf("squeeze: diagonal with both sides blocked should be rejected")
	}
	if !newExpander(g, true, CornerCut).canStep(0, 0, 1, 1) {
		t.Fatalf("cut: diagonal with both sides blocked should still be allowed")
	}

	if newExpander(g, false, CornerCut).canStep(2, 2, 1, 1) {
		t.Fatalf("diagonal step must be rejected when diagonals are disabled")
	}
	if !newExpander(g, true, CornerForbid).canStep(2, 2, 1, 0) {
		t.Fatalf("orthogonal step into a free cell should be allowed")
	}
}

func TestCanStep_StepHeight(t *testing.T) {
	// A one-block cliff between x<3 and x>=3.
	cliff := func(x, z float64) float64 {
		if x < 3 {
			return 1.0
		}
		return 2.0
	}
	g := NewGrid()
	if !g.Build(GridParams{Width: 6, Depth: 6, CellSize: 1, MaxStepY: 0.5}, cliff) {
		t.Fatalf("build failed")
	}

	e := newExpander(g, true, CornerCut)
	if e.canStep(2, 2, 1, 0) {
		t.Fatalf("step over a 1.0 rise should fail with max step 0.5")
	}
	if e.canStep(3, 2, -1, 0) {
		t.Fatalf("step down a 1.0 drop should fail with max step 0.5")
	}
	if e.canStep(2, 2, 1, 1) {
		t.Fatalf("diagonal over the cliff should fail too")
	}
	if !e.canStep(1, 2, 1, 0) || !e.canStep(3, 2, 1, 0) {
		t.Fatalf("steps on level ground should pass")
	}

	if !g.Build(GridParams{Width: 6, Depth: 6, CellSize: 1, MaxStepY: 0}, cliff) {
		t.Fatalf("rebuild failed")
	}
	if !newExpander(g, true, CornerCut).canStep(2, 2, 1, 0) {
		t.Fatalf("max step 0 disables the constraint")
	}
}

func TestPrunedDirections_StartNode(t *testing.T) {
	g := buildFlatGrid(t, 6, 6)

	if got := newExpander(g, true, CornerCut).prunedDirections(3, 3, 0, 0); len(got) != 8 {
		t.Fatalf("interior start with diagonals: got %d directions, want 8", len(got))
	}
	if got := newExpander(g, false, CornerCut).prunedDirections(3, 3, 0, 0); len(got) != 4 {
		t.Fatalf("interior start without diagonals: got %d directions, want 4", len(got))
	}
	if got := newExpander(g, true, CornerForbid).prunedDirections(0, 0, 0, 0); len(got) != 3 {
		t.Fatalf("corner start: got %d directions, want 3", len(got))
	}
}

func TestPrunedDirections_DiagonalArrival(t *testing.T) {
	g := buildFlatGrid(t, 6, 6)
	got := newExpander(g, true, CornerCut).prunedDirections(3, 3, 1, 1)
	want := map[dir]bool{{1, 0}: true, {0, 1}: true, {1, 1}: true}
	if len(got) != len(want) {
		t.Fatalf("diagonal arrival: got %v", got)
	}
	for _, d := range got {
		if !want[d] {
			t.Fatalf("diagonal arrival: unexpected direction %v", d)
		}
	}
}

func TestJump_StraightStopsAtGoal(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	e := newExpander(g, true, CornerCut)

	jp, ok := e.jump(0, 3, 1, 0, Cell{X: 5, Z: 3})
	if !ok || jp != (Cell{X: 5, Z: 3}) {
		t.Fatalf("straight scan to goal: got %v %v", jp, ok)
	}
	if _, ok := e.jump(0, 3, 1, 0, Cell{X: 5, Z: 5}); ok {
		t.Fatalf("straight scan past an off-ray goal should find nothing on an open grid")
	}
}

func TestJump_ForcedNeighborWithCut(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	g.BlockCell(2, 1)
	e := newExpander(g, true, CornerCut)

	// Scanning right along z=0: at (2,0) the cell above is blocked and the
	// diagonal (3,1) is open, so (2,0) is a jump point.
	jp, ok := e.jump(0, 0, 1, 0, Cell{X: 7, Z: 7})
	if !ok || jp != (Cell{X: 2, Z: 0}) {
		t.Fatalf("cut forced neighbor: got %v %v, want (2,0)", jp, ok)
	}
	dirs := e.prunedDirections(2, 0, 1, 0)
	hasDiag := false
	for _, d := range dirs {
		if d == (dir{1, 1}) {
			hasDiag = true
		}
	}
	if !hasDiag {
		t.Fatalf("cut forced neighbor: pruned set %v should include the diagonal", dirs)
	}
}

func TestJump_ForcedNeighborWithForbid(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	g.BlockCell(2, 1)
	e := newExpander(g, true, CornerForbid)

	// With the cut disallowed the detour happens one cell past the obstacle:
	// at (3,0) the cell diagonally behind is blocked and (3,1) is open, so the
	// scan stops there and offers the orthogonal turn.
	jp, ok := e.jump(0, 0, 1, 0, Cell{X: 7, Z: 7})
	if !ok || jp != (Cell{X: 3, Z: 0}) {
		t.Fatalf("forbid forced neighbor: got %v %v, want (3,0)", jp, ok)
	}
	dirs := e.prunedDirections(3, 0, 1, 0)
	hasTurn := false
	for _, d := range dirs {
		if d == (dir{0, 1}) {
			hasTurn = true
		}
	}
	if !hasTurn {
		t.Fatalf("forbid forced neighbor: pruned set %v should include the orthogonal turn", dirs)
	}
}

func TestJump_ForbidOffersDiagonalPastObstacle(t *testing.T) {
	g := buildFlatGrid(t, 6, 8)
	g.BlockCell(3, 4)
	e := newExpander(g, true, CornerForbid)

	// Scanning up the column beside the obstacle, the cell diagonally behind
	// (4,5) is blocked. The turn out of its shadow can be orthogonal or, when
	// both corner cells are open, the diagonal that was illegal a step back.
	jp, ok := e.jump(4, 0, 0, 1, Cell{X: 3, Z: 6})
	if !ok || jp != (Cell{X: 4, Z: 5}) {
		t.Fatalf("forbid column scan: got %v %v, want (4,5)", jp, ok)
	}
	dirs := e.prunedDirections(4, 5, 0, 1)
	if !containsDir(dirs, -1, 0) || !containsDir(dirs, -1, 1) {
		t.Fatalf("pruned set %v should include both turns past the obstacle", dirs)
	}
}

func TestJump_CardinalOnlyTurns(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	g.BlockCell(2, 1)
	e := newExpander(g, false, CornerForbid)

	// The vertical sub-scan up from (1,0) hits the forced cell (1,2) beside
	// the obstacle, so the horizontal scan stops at (1,0) itself.
	jp, ok := e.jump(0, 0, 1, 0, Cell{X: 7, Z: 7})
	if !ok || jp != (Cell{X: 1, Z: 0}) {
		t.Fatalf("cardinal-only sub-scan: got %v %v, want (1,0)", jp, ok)
	}

	// Both vertical turns are natural successors of a horizontal arrival.
	dirs := e.prunedDirections(1, 0, 1, 0)
	if !containsDir(dirs, 0, 1) {
		t.Fatalf("horizontal arrival without vertical successor: %v", dirs)
	}
}

func TestJump_CardinalOnlyOpenSpaceTurn(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	e := newExpander(g, false, CornerForbid)

	// No obstacles at all: the horizontal scan still stops where a vertical
	// sub-scan reaches the goal.
	jp, ok := e.jump(0, 0, 1, 0, Cell{X: 5, Z: 3})
	if !ok || jp != (Cell{X: 5, Z: 0}) {
		t.Fatalf("open-space turn column: got %v %v, want (5,0)", jp, ok)
	}
	jp, ok = e.jump(5, 0, 0, 1, Cell{X: 5, Z: 3})
	if !ok || jp != (Cell{X: 5, Z: 3}) {
		t.Fatalf("vertical scan to goal: got %v %v, want (5,3)", jp, ok)
	}
}

func TestJump_DiagonalReturnsCurrentCell(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	g.BlockCell(4, 3)
	e := newExpander(g, true, CornerCut)

	// The (1,0) sub-scan from (2,2) finds a forced neighbor at (4,2), which
	// makes the diagonal cell itself the jump point, never the sub-scan hit.
	jp, ok := e.jump(0, 0, 1, 1, Cell{X: 7, Z: 7})
	if !ok || jp != (Cell{X: 2, Z: 2}) {
		t.Fatalf("diagonal scan: got %v %v, want (2,2)", jp, ok)
	}
}

func TestJump_StopsAtObstacle(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	g.BlockCell(4, 0)
	e := newExpander(g, true, CornerCut)

	if _, ok := e.jump(0, 0, 1, 0, Cell{X: 7, Z: 0}); ok {
		t.Fatalf("scan should stop with no jump point at the obstacle")
	}
	if _, ok := e.jump(0, 0, 0, 1, Cell{X: 0, Z: -5}); ok {
		t.Fatalf("scan toward the boundary should find nothing")
	}
}
