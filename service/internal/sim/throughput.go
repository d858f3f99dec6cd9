// internal/sim/throughput.go
package sim

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jgwest/fridai/service/internal/store"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

type workerStats struct {
	nodes   int64
	elapsed time.Duration
}

// Throughput accumulates search nodes expanded and time spent per worker.
// It is safe for concurrent use.
type Throughput struct {
	mu      sync.Mutex
	workers map[int]*workerStats
}

// NewThroughput returns an empty aggregator.
func NewThroughput() *Throughput {
	return &Throughput{workers: make(map[int]*workerStats)}
}

// Add records nodes expanded by worker over d.
func (t *Throughput) Add(worker, nodes int, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ws := t.workers[worker]
	if ws == nil {
		ws = &workerStats{}
		t.workers[worker] = ws
	}
	ws.nodes += int64(nodes)
	ws.elapsed += d
}

// WorkerRate is the throughput of one worker.
type WorkerRate struct {
	Worker    int
	Nodes     int64
	Seconds   float64
	PerSecond int
}

// Report summarises the throughput so far.
type Report struct {
	Workers        []WorkerRate // ordered by worker
	TotalSeconds   float64      // summed over workers
	TotalPerSecond int          // sum of the per-worker rates
	Mean, StdDev   float64      // of the per-worker rates
}

// Report returns the current totals.
func (t *Throughput) Report() Report {
	t.mu.Lock()
	var r Report
	for w, ws := range t.workers {
		wr := WorkerRate{Worker: w, Nodes: ws.nodes, Seconds: ws.elapsed.Seconds()}
		if wr.Seconds > 0 {
			wr.PerSecond = int(float64(ws.nodes) / wr.Seconds)
		}
		r.Workers = append(r.Workers, wr)
	}
	t.mu.Unlock()

	slices.SortFunc(r.Workers, func(a, b WorkerRate) int { return a.Worker - b.Worker })
	rates := make([]float64, len(r.Workers))
	for i, wr := range r.Workers {
		r.TotalSeconds += wr.Seconds
		r.TotalPerSecond += wr.PerSecond
		rates[i] = float64(wr.PerSecond)
	}
	switch len(rates) {
	case 0:
	case 1:
		r.Mean = rates[0]
	default:
		r.Mean, r.StdDev = stat.MeanStdDev(rates, nil)
	}
	return r
}

// Log writes the current throughput, one entry per worker and a total.
func (t *Throughput) Log(log *logrus.Entry) {
	r := t.Report()
	for _, wr := range r.Workers {
		log.WithFields(logrus.Fields{
			"worker":    wr.Worker,
			"processed": wr.Nodes,
			"perSecond": wr.PerSecond,
		}).Info("Worker throughput")
	}
	log.WithFields(logrus.Fields{
		"perSecond": r.TotalPerSecond,
		"mean":      fmt.Sprintf("%.0f", r.Mean),
		"stddev":    fmt.Sprintf("%.0f", r.StdDev),
	}).Info("Total throughput")
}

// PerfLine returns the perf file line: totalSeconds,totalPerSecond.
func (r Report) PerfLine() string {
	return fmt.Sprintf("%v,%d", r.TotalSeconds, r.TotalPerSecond)
}

// WritePerf appends the average throughput to the perf file.
func (t *Throughput) WritePerf(path string) error {
	return store.AppendLine(path, t.Report().PerfLine())
}
