package nav

// SmoothPath string-pulls a path into a minimal line-of-sight waypoint
// sequence. Starting from the path head as the anchor, it repeatedly commits
// the furthest path point still visible from the anchor and continues from
// there. Visibility is a Bresenham-style trace that requires every traversed
// cell walkable and applies the same diagonal, corner-cutting and step-height
// rules as the search, so a cardinal-only path never gains diagonal segments.
// Every output cell is a member of the input path, in order.
func SmoothPath(g *Grid, allowDiagonal bool, policy CornerPolicy, cells []Cell) []Cell {
	if len(cells) <= 2 {
		out := make([]Cell, len(cells))
		copy(out, cells)
		return out
	}

	e := &expander{grid: g, allowDiagonal: allowDiagonal, corners: policy}

	out := make([]Cell, 0, len(cells))
	out = append(out, cells[0])
	anchor := 0
	for anchor < len(cells)-1 {
		next := anchor + 1
		for j := len(cells) - 1; j > anchor+1; j-- {
			if lineWalkable(e, cells[anchor], cells[j]) {
				next = j
				break
			}
		}
		out = append(out, cells[next])
		anchor = next
	}
	return out
}

// lineWalkable traces the Bresenham line from a to b one cell at a time,
// treating a combined x+z advance as a diagonal step subject to the corner
// policy. Each step reuses the search's edge rules via canStep.
func lineWalkable(e *expander, a, b Cell) bool {
	x, z := a.X, a.Z
	dx := abs(b.X - a.X)
	dz := abs(b.Z - a.Z)
	sx := sign(b.X - a.X)
	sz := sign(b.Z - a.Z)
	err := dx - dz

	for x != b.X || z != b.Z {
		e2 := 2 * err
		stepX, stepZ := 0, 0
		if e2 > -dz {
			err -= dz
			stepX = sx
		}
		if e2 < dx {
			err += dx
			stepZ = sz
		}
		if !e.canStep(x, z, stepX, stepZ) {
			return false
		}
		x += stepX
		z += stepZ
	}
	return true
}
