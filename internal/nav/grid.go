package nav

import "math"

// HeightSampler reports terrain height at a world-space (x, z). It is supplied
// by the terrain owner; the grid only samples it during Build, and path
// reconstruction samples it again per waypoint so Y stays in sync with
// terrain edits.
type HeightSampler func(x, z float64) float64

// GridParams describe the footprint and passability rules of a navigation
// grid.
type GridParams struct {
	Width int // cells along X
	Depth int // cells along Z

	CellSize float64
	OriginX  float64 // world X of the (0,0) cell's min corner
	OriginZ  float64 // world Z of the (0,0) cell's min corner

	SeaLevel    float64
	MaxSlopeDeg float64 // <= 0 disables the slope constraint
	MaxStepY    float64 // <= 0 disables the per-edge step constraint
}

// Grid is a discrete passability view over continuous terrain. Queries are
// O(1). The grid has no internal locking: Build/BlockCell/UnblockCell belong
// to the owning simulation goroutine, searches only read, and a
// dimension-changing Build must not overlap in-flight searches.
type Grid struct {
	params GridParams

	walkable []bool // static, set by Build
	blocked  []bool // dynamic, toggled by BlockCell/UnblockCell
	height   []float64

	built bool
}

func NewGrid() *Grid { return &Grid{} }

// Build samples the terrain and derives static walkability. Cells at or below
// sea level are rejected; so are cells whose local gradient, estimated with
// central differences among cardinal neighbors (one-sided at edges), exceeds
// tan(MaxSlopeDeg). Returns false on degenerate parameters, in which case the
// grid must not be used.
func (g *Grid) Build(p GridParams, sample HeightSampler) bool {
	if p.Width <= 0 || p.Depth <= 0 || p.CellSize <= 0 || sample == nil {
		return false
	}

	n := p.Width * p.Depth
	g.params = p
	g.walkable = make([]bool, n)
	g.blocked = make([]bool, n)
	g.height = make([]float64, n)

	for z := 0; z < p.Depth; z++ {
		for x := 0; x < p.Width; x++ {
			c := g.cellCenter(x, z)
			g.height[z*p.Width+x] = sample(c.X, c.Z)
		}
	}

	maxGrad := math.Inf(1)
	if p.MaxSlopeDeg > 0 {
		maxGrad = math.Tan(p.MaxSlopeDeg * math.Pi / 180.0)
	}

	for z := 0; z < p.Depth; z++ {
		for x := 0; x < p.Width; x++ {
			i := z*p.Width + x
			h := g.height[i]
			if h <= p.SeaLevel {
				continue
			}
			gx, gz := g.gradientAt(x, z)
			if math.Sqrt(gx*gx+gz*gz) > maxGrad {
				continue
			}
			g.walkable[i] = true
		}
	}

	g.built = true
	return true
}

// gradientAt estimates dh/dx and dh/dz at a cell from its cardinal neighbors,
// falling back to one-sided differences at the grid edges.
func (g *Grid) gradientAt(x, z int) (gx, gz float64) {
	w := g.params.Width
	d := g.params.Depth
	cs := g.params.CellSize

	x0, x1 := x-1, x+1
	if x0 < 0 {
		x0 = x
	}
	if x1 >= w {
		x1 = x
	}
	z0, z1 := z-1, z+1
	if z0 < 0 {
		z0 = z
	}
	if z1 >= d {
		z1 = z
	}

	if x1 != x0 {
		gx = (g.height[z*w+x1] - g.height[z*w+x0]) / (float64(x1-x0) * cs)
	}
	if z1 != z0 {
		gz = (g.height[z1*w+x] - g.height[z0*w+x]) / (float64(z1-z0) * cs)
	}
	return gx, gz
}

func (g *Grid) Built() bool { return g.built }

func (g *Grid) Width() int { return g.params.Width }
func (g *Grid) Depth() int { return g.params.Depth }

func (g *Grid) Params() GridParams { return g.params }

func (g *Grid) InBounds(x, z int) bool {
	return x >= 0 && x < g.params.Width && z >= 0 && z < g.params.Depth
}

// IsWalkable reports whether a cell is currently traversable: statically
// walkable and not dynamically blocked. Out-of-bounds cells are not walkable.
func (g *Grid) IsWalkable(x, z int) bool {
	if !g.built || !g.InBounds(x, z) {
		return false
	}
	i := z*g.params.Width + x
	return g.walkable[i] && !g.blocked[i]
}

// BlockCell sets the transient obstacle bit, independent of the static flag.
func (g *Grid) BlockCell(x, z int) {
	if g.built && g.InBounds(x, z) {
		g.blocked[z*g.params.Width+x] = true
	}
}

// UnblockCell clears the transient obstacle bit.
func (g *Grid) UnblockCell(x, z int) {
	if g.built && g.InBounds(x, z) {
		g.blocked[z*g.params.Width+x] = false
	}
}

// CellHeight returns the height sampled at Build time. The per-edge step
// constraint |h(dst)-h(src)| <= MaxStepY is evaluated against these cached
// values, because step height is a property of an edge, not of a single cell.
func (g *Grid) CellHeight(x, z int) float64 {
	if !g.built || !g.InBounds(x, z) {
		return 0
	}
	return g.height[z*g.params.Width+x]
}

// WorldToCell maps a world position to its containing cell. The boolean is
// false when the position falls outside the grid.
func (g *Grid) WorldToCell(wx, wz float64) (int, int, bool) {
	if !g.built {
		return 0, 0, false
	}
	x := int(math.Floor((wx - g.params.OriginX) / g.params.CellSize))
	z := int(math.Floor((wz - g.params.OriginZ) / g.params.CellSize))
	if !g.InBounds(x, z) {
		return 0, 0, false
	}
	return x, z, true
}

// CellCenterWorld returns the world-space center of a cell, with Y taken from
// the height cached at Build time.
func (g *Grid) CellCenterWorld(x, z int) Vec3 {
	c := g.cellCenter(x, z)
	if g.built && g.InBounds(x, z) {
		c.Y = g.height[z*g.params.Width+x]
	}
	return c
}

func (g *Grid) cellCenter(x, z int) Vec3 {
	return Vec3{
		X: g.params.OriginX + (float64(x)+0.5)*g.params.CellSize,
		Z: g.params.OriginZ + (float64(z)+0.5)*g.params.CellSize,
	}
}
