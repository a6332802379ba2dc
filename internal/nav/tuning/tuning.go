// Package tuning loads the navigation stack's operational parameters from
// yaml. Missing values fall back to defaults; invalid combinations are
// rejected up front so a bad file never produces a degenerate grid.
package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pathcraft.ai/internal/nav"
)

type Tuning struct {
	Grid   GridTuning   `yaml:"grid"`
	Search SearchTuning `yaml:"search"`
	Jobs   JobsTuning   `yaml:"jobs"`
}

type GridTuning struct {
	WidthCells int     `yaml:"width_cells"`
	DepthCells int     `yaml:"depth_cells"`
	CellSize   float64 `yaml:"cell_size"`
	OriginX    float64 `yaml:"origin_x"`
	OriginZ    float64 `yaml:"origin_z"`

	SeaLevel    float64 `yaml:"sea_level"`
	MaxSlopeDeg float64 `yaml:"max_slope_deg"`
	MaxStepY    float64 `yaml:"max_step_y"`
}

type SearchTuning struct {
	AllowDiagonal        *bool   `yaml:"allow_diagonal"` // default true
	CornerPolicy         string  `yaml:"corner_policy"`  // forbid | squeeze | cut
	HeuristicWeight      float64 `yaml:"heuristic_weight"`
	FindNearestIfBlocked bool    `yaml:"find_nearest_if_blocked"`
	NearestSearchRadius  int     `yaml:"nearest_search_radius"`
}

type JobsTuning struct {
	Workers        int `yaml:"workers"` // 0 = max(1, NumCPU-2)
	MaxTrackedJobs int `yaml:"max_tracked_jobs"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

func (t *Tuning) applyDefaults() {
	if t.Grid.WidthCells <= 0 {
		t.Grid.WidthCells = 256
	}
	if t.Grid.DepthCells <= 0 {
		t.Grid.DepthCells = 256
	}
	if t.Grid.CellSize <= 0 {
		t.Grid.CellSize = 1.0
	}
	if t.Grid.MaxSlopeDeg < 0 {
		t.Grid.MaxSlopeDeg = 0
	}
	if t.Search.AllowDiagonal == nil {
		v := true
		t.Search.AllowDiagonal = &v
	}
	if strings.TrimSpace(t.Search.CornerPolicy) == "" {
		t.Search.CornerPolicy = "forbid"
	}
	if t.Search.HeuristicWeight <= 0 {
		t.Search.HeuristicWeight = 1.0
	}
	if t.Search.NearestSearchRadius <= 0 {
		t.Search.NearestSearchRadius = 4
	}
	if t.Jobs.MaxTrackedJobs <= 0 {
		t.Jobs.MaxTrackedJobs = 1024
	}
}

func (t Tuning) Validate() error {
	if t.Grid.WidthCells <= 0 || t.Grid.DepthCells <= 0 {
		return fmt.Errorf("grid dimensions must be > 0")
	}
	if t.Grid.CellSize <= 0 {
		return fmt.Errorf("grid cell_size must be > 0")
	}
	if t.Grid.MaxSlopeDeg >= 90 {
		return fmt.Errorf("grid max_slope_deg must be < 90")
	}
	if _, err := t.CornerPolicy(); err != nil {
		return err
	}
	if t.Jobs.Workers < 0 {
		return fmt.Errorf("jobs workers must be >= 0")
	}
	return nil
}

// CornerPolicy maps the yaml string onto the search policy.
func (t Tuning) CornerPolicy() (nav.CornerPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(t.Search.CornerPolicy)) {
	case "forbid":
		return nav.CornerForbid, nil
	case "squeeze":
		return nav.CornerSqueeze, nil
	case "cut":
		return nav.CornerCut, nil
	}
	return nav.CornerForbid, fmt.Errorf("search corner_policy %q: want forbid, squeeze or cut", t.Search.CornerPolicy)
}

// GridParams assembles the Build parameters for the configured grid.
func (t Tuning) GridParams() nav.GridParams {
	return nav.GridParams{
		Width:       t.Grid.WidthCells,
		Depth:       t.Grid.DepthCells,
		CellSize:    t.Grid.CellSize,
		OriginX:     t.Grid.OriginX,
		OriginZ:     t.Grid.OriginZ,
		SeaLevel:    t.Grid.SeaLevel,
		MaxSlopeDeg: t.Grid.MaxSlopeDeg,
		MaxStepY:    t.Grid.MaxStepY,
	}
}

// RequestDefaults seeds a PathRequest with the configured search behavior.
func (t Tuning) RequestDefaults() nav.PathRequest {
	policy, _ := t.CornerPolicy()
	return nav.PathRequest{
		AllowDiagonal:        t.Search.AllowDiagonal == nil || *t.Search.AllowDiagonal,
		CornerPolicy:         policy,
		HeuristicWeight:      t.Search.HeuristicWeight,
		FindNearestIfBlocked: t.Search.FindNearestIfBlocked,
		NearestSearchRadius:  t.Search.NearestSearchRadius,
	}
}
