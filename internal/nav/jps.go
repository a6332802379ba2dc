package nav

// expander yields jump-point successors for the A* loop. It is stateless
// beyond the grid and its configuration, so one instance is safe to share
// across the expansions of a single search.
type expander struct {
	grid          *Grid
	allowDiagonal bool
	corners       CornerPolicy
}

type dir struct {
	dx int
	dz int
}

var cardinalDirs = []dir{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

var allDirs = []dir{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// canStep reports whether the single step from (x,z) by (dx,dz) is allowed:
// the target must be walkable, the per-edge height delta must respect
// MaxStepY, and diagonal steps must satisfy the corner-cutting policy against
// the two adjacent orthogonal cells.
func (e *expander) canStep(x, z, dx, dz int) bool {
	tx, tz := x+dx, z+dz
	if !e.grid.IsWalkable(tx, tz) {
		return false
	}
	if maxStep := e.grid.params.MaxStepY; maxStep > 0 {
		dh := e.grid.CellHeight(tx, tz) - e.grid.CellHeight(x, z)
		if dh < 0 {
			dh = -dh
		}
		if dh > maxStep {
			return false
		}
	}
	if dx != 0 && dz != 0 {
		if !e.allowDiagonal {
			return false
		}
		sideA := e.grid.IsWalkable(x+dx, z)
		sideB := e.grid.IsWalkable(x, z+dz)
		switch e.corners {
		case CornerForbid:
			if !sideA || !sideB {
				return false
			}
		case CornerSqueeze:
			if !sideA && !sideB {
				return false
			}
		case CornerCut:
			// No adjacent-cell constraint.
		}
	}
	return true
}

// prunedDirections returns the directions worth scanning from (x,z) given the
// direction of arrival. A zero incoming direction marks the start node, which
// gets every permissible direction.
func (e *expander) prunedDirections(x, z, inDX, inDZ int) []dir {
	out := make([]dir, 0, 8)

	if inDX == 0 && inDZ == 0 {
		dirs := cardinalDirs
		if e.allowDiagonal {
			dirs = allDirs
		}
		for _, d := range dirs {
			if e.canStep(x, z, d.dx, d.dz) {
				out = append(out, d)
			}
		}
		return out
	}

	if inDX != 0 && inDZ != 0 {
		// Diagonal arrival: the diagonal itself, its two orthogonal
		// components, and the forced turns past a blocked cell behind.
		if e.canStep(x, z, inDX, 0) {
			out = append(out, dir{inDX, 0})
		}
		if e.canStep(x, z, 0, inDZ) {
			out = append(out, dir{0, inDZ})
		}
		if e.canStep(x, z, inDX, inDZ) {
			out = append(out, dir{inDX, inDZ})
		}
		if !e.grid.IsWalkable(x-inDX, z) && e.canStep(x, z, -inDX, inDZ) {
			out = append(out, dir{-inDX, inDZ})
		}
		if !e.grid.IsWalkable(x, z-inDZ) && e.canStep(x, z, inDX, -inDZ) {
			out = append(out, dir{inDX, -inDZ})
		}
		return out
	}

	// Straight arrival: continue, plus the forced successors.
	if e.canStep(x, z, inDX, inDZ) {
		out = append(out, dir{inDX, inDZ})
	}
	if !e.allowDiagonal && inDX != 0 {
		// Without diagonals the horizontal axis is primary: jump runs both
		// vertical sub-scans at every horizontal cell, so vertical turns are
		// natural here, not forced.
		for _, s := range e.sidesOf(inDX, inDZ) {
			if e.canStep(x, z, s.dx, s.dz) {
				out = append(out, dir{s.dx, s.dz})
			}
		}
		return out
	}
	noCut := !e.allowDiagonal || e.corners != CornerCut
	for _, s := range e.sidesOf(inDX, inDZ) {
		sideBlocked := !e.grid.IsWalkable(x+s.dx, z+s.dz)
		behindBlocked := !e.grid.IsWalkable(x-inDX+s.dx, z-inDZ+s.dz)
		if ((e.allowDiagonal && sideBlocked) || (noCut && behindBlocked)) &&
			e.canStep(x, z, inDX+s.dx, inDZ+s.dz) {
			out = append(out, dir{inDX + s.dx, inDZ + s.dz})
		}
		if noCut && behindBlocked && e.canStep(x, z, s.dx, s.dz) {
			out = append(out, dir{s.dx, s.dz})
		}
	}
	return out
}

// sidesOf returns the two directions orthogonal to a straight direction.
func (e *expander) sidesOf(dx, dz int) [2]dir {
	if dx != 0 {
		return [2]dir{{0, 1}, {0, -1}}
	}
	return [2]dir{{1, 0}, {-1, 0}}
}

// hasForcedNeighbor reports whether a cell reached by the straight direction
// (dx,dz) has a forced successor, which makes it a jump point. With corner
// cutting allowed that is the classic rule: a side cell is blocked and the
// diagonal past it is open. When the cut is not available, either because
// diagonals are off or the corner policy disallows it, the detour happens one
// cell later: the side cell diagonally behind is blocked, and the turn out of
// its shadow is legal here, either orthogonally to the open side or on the
// diagonal that was illegal one step back.
func (e *expander) hasForcedNeighbor(x, z, dx, dz int) bool {
	noCut := !e.allowDiagonal || e.corners != CornerCut
	for _, s := range e.sidesOf(dx, dz) {
		sideBlocked := !e.grid.IsWalkable(x+s.dx, z+s.dz)
		behindBlocked := !e.grid.IsWalkable(x-dx+s.dx, z-dz+s.dz)
		if ((e.allowDiagonal && sideBlocked) || (noCut && behindBlocked)) &&
			e.canStep(x, z, dx+s.dx, dz+s.dz) {
			return true
		}
		if noCut && behindBlocked && e.canStep(x, z, s.dx, s.dz) {
			return true
		}
	}
	return false
}

// hasForcedDiagonal reports whether a cell reached by the diagonal direction
// (dx,dz) has a forced turn: a cell behind is blocked and the anti-diagonal
// past it is open, so the detour around that obstacle runs through here.
func (e *expander) hasForcedDiagonal(x, z, dx, dz int) bool {
	if !e.grid.IsWalkable(x-dx, z) && e.canStep(x, z, -dx, dz) {
		return true
	}
	if !e.grid.IsWalkable(x, z-dz) && e.canStep(x, z, dx, -dz) {
		return true
	}
	return false
}

// jump scans from (x,z) along (dx,dz) and returns the next jump point, if
// any. Straight scans stop at the goal or at a cell with a forced neighbor.
// Diagonal scans stop at the goal, at a forced turn, and otherwise run the
// two orthogonal sub-scans at every step
// and, when either succeeds, the current diagonal cell itself is the jump
// point (never the sub-scan's result). When diagonals are off, horizontal
// scans take over the diagonal's primary role and run the two vertical
// sub-scans at every step the same way. The scan aborts with no point as soon
// as the next step is disallowed. Step height is enforced on every step of
// the scan, not only on the final jump-point edge.
func (e *expander) jump(x, z, dx, dz int, goal Cell) (Cell, bool) {
	if !e.canStep(x, z, dx, dz) {
		return Cell{}, false
	}
	cx, cz := x+dx, z+dz
	diagonal := dx != 0 && dz != 0
	primary := !e.allowDiagonal && dz == 0

	for {
		if cx == goal.X && cz == goal.Z {
			return Cell{X: cx, Z: cz}, true
		}
		if diagonal {
			if e.hasForcedDiagonal(cx, cz, dx, dz) {
				return Cell{X: cx, Z: cz}, true
			}
			if _, ok := e.jump(cx, cz, dx, 0, goal); ok {
				return Cell{X: cx, Z: cz}, true
			}
			if _, ok := e.jump(cx, cz, 0, dz, goal); ok {
				return Cell{X: cx, Z: cz}, true
			}
		} else {
			if e.hasForcedNeighbor(cx, cz, dx, dz) {
				return Cell{X: cx, Z: cz}, true
			}
			if primary {
				if _, ok := e.jump(cx, cz, 0, 1, goal); ok {
					return Cell{X: cx, Z: cz}, true
				}
				if _, ok := e.jump(cx, cz, 0, -1, goal); ok {
					return Cell{X: cx, Z: cz}, true
				}
			}
		}
		if !e.canStep(cx, cz, dx, dz) {
			return Cell{}, false
		}
		cx += dx
		cz += dz
	}
}
