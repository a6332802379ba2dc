// pathbench soaks the planning stack offline: it builds a grid from the
// tuning file, submits a batch of random start/goal requests through the job
// runner and reports latency and expansion statistics per terminal status.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"pathcraft.ai/internal/nav"
	"pathcraft.ai/internal/nav/jobs"
	"pathcraft.ai/internal/nav/tuning"
	"pathcraft.ai/internal/terrain"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		seed       = flag.Int64("seed", 1337, "terrain + request seed")
		count      = flag.Int("count", 1000, "number of path requests")
		workers    = flag.Int("workers", 0, "worker pool size (0 = tuning/default)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[pathbench] ", log.LstdFlags)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	if *workers > 0 {
		tune.Jobs.Workers = *workers
	}
	if tune.Jobs.MaxTrackedJobs < *count {
		tune.Jobs.MaxTrackedJobs = *count
	}

	sample := nav.HeightSampler(terrain.DemoSampler(*seed))
	grid := nav.NewGrid()
	params := tune.GridParams()
	if !grid.Build(params, sample) {
		logger.Fatalf("grid build failed")
	}

	var elapsed sync.Map // job id -> time.Duration
	runner := jobs.NewRunner(
		func(req nav.PathRequest, tok *nav.CancelToken) nav.PathResult {
			return nav.Plan(grid, sample, req, tok)
		},
		jobs.Config{
			Workers:        tune.Jobs.Workers,
			MaxTrackedJobs: tune.Jobs.MaxTrackedJobs,
			OnComplete: func(res nav.PathResult, d time.Duration) {
				elapsed.Store(res.JobID, d)
			},
		},
	)
	defer runner.Close()

	rng := rand.New(rand.NewSource(*seed))
	randomWorld := func() nav.Vec3 {
		return nav.Vec3{
			X: params.OriginX + rng.Float64()*float64(params.Width)*params.CellSize,
			Z: params.OriginZ + rng.Float64()*float64(params.Depth)*params.CellSize,
		}
	}

	base := tune.RequestDefaults()
	reqs := make([]nav.PathRequest, *count)
	for i := range reqs {
		req := base
		req.AgentID = fmt.Sprintf("bench_%d", i)
		req.Start = randomWorld()
		req.Goal = randomWorld()
		reqs[i] = req
	}

	wall := time.Now()
	ids := runner.SubmitBulk(reqs)

	statusCount := map[nav.Status]int{}
	var durations []time.Duration
	var totalExpanded int
	for _, id := range ids {
		if id == 0 {
			logger.Fatalf("submit failed at the tracked-job cap; raise max_tracked_jobs")
		}
		res, ok := runner.Wait(id)
		if !ok {
			logger.Fatalf("job %d vanished", id)
		}
		statusCount[res.Status]++
		totalExpanded += res.ExpandedNodes
		if d, ok := elapsed.Load(id); ok {
			durations = append(durations, d.(time.Duration))
		}
	}
	wallTotal := time.Since(wall)

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	pct := func(p float64) time.Duration {
		if len(durations) == 0 {
			return 0
		}
		i := int(p * float64(len(durations)-1))
		return durations[i]
	}

	logger.Printf("%d requests in %v (%.0f req/s)", *count, wallTotal.Round(time.Millisecond),
		float64(*count)/wallTotal.Seconds())
	for _, st := range []nav.Status{nav.StatusSucceeded, nav.StatusNotFound, nav.StatusFailed, nav.StatusCancelled} {
		if n := statusCount[st]; n > 0 {
			logger.Printf("  %-10s %d", st, n)
		}
	}
	logger.Printf("expanded nodes: %d total, %.1f avg", totalExpanded, float64(totalExpanded)/float64(len(ids)))
	logger.Printf("latency: p50=%v p90=%v p99=%v max=%v", pct(0.50), pct(0.90), pct(0.99), pct(1.0))
}
