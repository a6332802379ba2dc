package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pathcraft.ai/internal/nav"
	"pathcraft.ai/internal/nav/jobs"
	"pathcraft.ai/internal/nav/tuning"
	"pathcraft.ai/internal/persistence/jobdb"
	"pathcraft.ai/internal/persistence/joblog"
	"pathcraft.ai/internal/protocol"
	"pathcraft.ai/internal/terrain"
	"pathcraft.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		seed       = flag.Int64("seed", 1337, "demo terrain seed")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite job index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[pathd] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	sample := nav.HeightSampler(terrain.DemoSampler(*seed))
	grid := nav.NewGrid()
	if !grid.Build(tune.GridParams(), sample) {
		logger.Fatalf("grid build failed: check grid tuning (%dx%d cells, cell_size=%v)",
			tune.Grid.WidthCells, tune.Grid.DepthCells, tune.Grid.CellSize)
	}
	logger.Printf("grid built: %dx%d cells, cell_size=%v", grid.Width(), grid.Depth(), tune.Grid.CellSize)

	_ = os.MkdirAll(*dataDir, 0o755)

	audit := joblog.New(*dataDir)
	defer audit.Close()

	var index *jobdb.DB
	if !*disableDB {
		index, err = jobdb.Open(filepath.Join(*dataDir, "index", "jobs.db"))
		if err != nil {
			logger.Fatalf("open job index: %v", err)
		}
	}

	// The scheduled unit of work. Audit sinks hang off the runner's
	// completion hook so the planner itself stays free of persistence
	// concerns.
	fn := func(req nav.PathRequest, tok *nav.CancelToken) nav.PathResult {
		return nav.Plan(grid, sample, req, tok)
	}
	onComplete := func(res nav.PathResult, elapsed time.Duration) {
		entry := joblog.Entry{
			JobID:         res.JobID,
			AgentID:       res.AgentID,
			Status:        res.Status.String(),
			TotalCost:     res.TotalCost,
			ExpandedNodes: res.ExpandedNodes,
			Waypoints:     len(res.Waypoints),
			DurationMs:    elapsed.Milliseconds(),
			Error:         res.Err,
			CompletedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := audit.WriteJob(entry); err != nil {
			logger.Printf("job log: %v", err)
		}
		if index != nil {
			index.RecordJob(jobdb.Record{
				JobID:         entry.JobID,
				AgentID:       entry.AgentID,
				Status:        entry.Status,
				TotalCost:     entry.TotalCost,
				ExpandedNodes: entry.ExpandedNodes,
				Waypoints:     entry.Waypoints,
				DurationMs:    entry.DurationMs,
				Error:         entry.Error,
				CompletedAt:   entry.CompletedAt,
			})
		}
	}

	runner := jobs.NewRunner(fn, jobs.Config{
		Workers:        tune.Jobs.Workers,
		MaxTrackedJobs: tune.Jobs.MaxTrackedJobs,
		OnComplete:     onComplete,
	})

	wsServer := ws.NewServer(runner, protocol.GridParams{
		WidthCells: tune.Grid.WidthCells,
		DepthCells: tune.Grid.DepthCells,
		CellSize:   tune.Grid.CellSize,
		OriginX:    tune.Grid.OriginX,
		OriginZ:    tune.Grid.OriginZ,
	}, tune.RequestDefaults(), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", wsServer.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/debug/pprof/", pprof.Index)

	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	// Runner first (joins workers, so the sinks see their last writes), then
	// the sinks.
	runner.Close()
	if index != nil {
		_ = index.Close()
	}
}
