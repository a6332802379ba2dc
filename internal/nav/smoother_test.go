package nav

import (
	"math/rand"
	"testing"
)

func TestSmoothPath_ShortInputsCopied(t *testing.T) {
	g := buildFlatGrid(t, 4, 4)

	if got := SmoothPath(g, true, CornerForbid, nil); len(got) != 0 {
		t.Fatalf("nil input: got %v", got)
	}
	in := []Cell{{0, 0}, {1, 1}}
	got := SmoothPath(g, true, CornerForbid, in)
	if len(got) != 2 || got[0] != in[0] || got[1] != in[1] {
		t.Fatalf("two-point input should pass through, got %v", got)
	}
	got[0] = Cell{9, 9}
	if in[0] == (Cell{9, 9}) {
		t.Fatalf("smoother must return a copy, not alias the input")
	}
}

func TestSmoothPath_CollapsesCollinearPoints(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	in := []Cell{{0, 0}, {2, 2}, {4, 4}, {6, 6}}

	got := SmoothPath(g, true, CornerForbid, in)
	if len(got) != 2 || got[0] != (Cell{0, 0}) || got[1] != (Cell{6, 6}) {
		t.Fatalf("open grid should collapse to endpoints, got %v", got)
	}
}

func TestSmoothPath_KeepsCornerAroundWall(t *testing.T) {
	g := buildFlatGrid(t, 5, 5)
	for z := 0; z <= 2; z++ {
		g.BlockCell(2, z)
	}
	in := []Cell{{0, 0}, {0, 4}, {4, 4}}

	got := SmoothPath(g, true, CornerForbid, in)
	if len(got) != 3 {
		t.Fatalf("wall should keep the corner waypoint, got %v", got)
	}

	for z := 0; z <= 2; z++ {
		g.UnblockCell(2, z)
	}
	got = SmoothPath(g, true, CornerForbid, in)
	if len(got) != 2 || got[1] != (Cell{4, 4}) {
		t.Fatalf("cleared wall should collapse the corner, got %v", got)
	}
}

func TestSmoothPath_RespectsCornerPolicy(t *testing.T) {
	g := buildFlatGrid(t, 5, 5)
	g.BlockCell(2, 1) // clips the (0,0) -> (4,4) line under forbid
	in := []Cell{{0, 0}, {3, 0}, {4, 1}, {4, 4}}

	forbid := SmoothPath(g, true, CornerForbid, in)
	cut := SmoothPath(g, true, CornerCut, in)
	if len(cut) >= len(forbid) {
		t.Fatalf("cut should shortcut at least as aggressively: forbid %v, cut %v", forbid, cut)
	}
}

func TestSmoothPath_CardinalStaysOrthogonal(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	in := []Cell{{0, 0}, {4, 0}, {4, 4}}

	// Without diagonals the (0,0) -> (4,4) shortcut is not traversable, so
	// the corner waypoint has to survive smoothing.
	got := SmoothPath(g, false, CornerForbid, in)
	if len(got) != 3 || got[1] != (Cell{X: 4, Z: 0}) {
		t.Fatalf("cardinal smoothing dropped the corner: %v", got)
	}

	// The same input with diagonals allowed collapses to the two endpoints.
	got = SmoothPath(g, true, CornerForbid, in)
	if len(got) != 2 {
		t.Fatalf("diagonal smoothing should shortcut: %v", got)
	}
}

func TestSmoothPath_OutputIsSubsequence(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		g := randomGrid(t, 16, 16, 0.3, rng)

		res, err := FindPath(g, diagonalRequest(0, 0, 15, 15, CornerForbid), nil)
		if err != nil {
			t.Fatalf("seed %d: find path: %v", seed, err)
		}
		if res.Status != StatusSucceeded {
			continue
		}

		out := SmoothPath(g, true, CornerForbid, res.Cells)
		if out[0] != res.Cells[0] || out[len(out)-1] != res.Cells[len(res.Cells)-1] {
			t.Fatalf("seed %d: endpoints changed: %v vs %v", seed, out, res.Cells)
		}
		j := 0
		for _, c := range out {
			for j < len(res.Cells) && res.Cells[j] != c {
				j++
			}
			if j == len(res.Cells) {
				t.Fatalf("seed %d: %v is not an in-order member of %v", seed, c, res.Cells)
			}
		}
		e := newExpander(g, true, CornerForbid)
		for i := 1; i < len(out); i++ {
			if !lineWalkable(e, out[i-1], out[i]) {
				t.Fatalf("seed %d: segment %v -> %v lost line of sight", seed, out[i-1], out[i])
			}
		}
	}
}

func TestLineWalkable_BlockedCellBreaksSight(t *testing.T) {
	g := buildFlatGrid(t, 8, 8)
	e := newExpander(g, true, CornerForbid)

	if !lineWalkable(e, Cell{0, 0}, Cell{7, 3}) {
		t.Fatalf("open grid line should be walkable")
	}
	g.BlockCell(4, 2)
	if lineWalkable(e, Cell{0, 0}, Cell{7, 3}) {
		t.Fatalf("line through a blocked cell should fail")
	}
}
