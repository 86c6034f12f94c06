package profiler

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/engine/logger"
	"github.com/sirupsen/logrus"
)

// PassStats is the accumulated encode time of one render graph pass over a reporting interval.
type PassStats struct {
	Name    string
	Calls   int
	Total   time.Duration
	Average time.Duration
}

// Profiler tracks frame rate, per-pass encode times and memory statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	passes map[string]*PassStats
	now    func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		passes:         make(map[string]*PassStats),
		now:            time.Now,
	}
}

// RecordPass adds one encode of the named pass to the current interval.
// Its signature matches the render graph pass observer.
//
// Parameters:
//   - name: the pass name
//   - elapsed: how long the pass took to encode
func (p *Profiler) RecordPass(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.passes[name]
	if !ok {
		s = &PassStats{Name: name}
		p.passes[name] = s
	}
	s.Calls++
	s.Total += elapsed
}

// Passes returns the per-pass stats of the current interval, slowest first.
func (p *Profiler) Passes() []PassStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Profiler) snapshotLocked() []PassStats {
	out := make([]PassStats, 0, len(p.passes))
	for _, s := range p.passes {
		cp := *s
		if cp.Calls > 0 {
			cp.Average = cp.Total / time.Duration(cp.Calls)
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory
// and the average encode time of every pass recorded since the last report.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	log := logger.WithComponent("profiler")
	log.WithFields(logrus.Fields{
		"fps":           fps,
		"heap_mb":       allocMB,
		"alloc_rate_mb": allocRateMB,
		"gc":            gcCount,
		"gc_last_us":    lastPauseUs,
		"gc_max_us":     maxPauseUs,
		"sys_mb":        sysMB,
	}).Info("frame stats")

	for _, s := range p.snapshotLocked() {
		log.WithFields(logrus.Fields{
			"pass":   s.Name,
			"calls":  s.Calls,
			"avg_us": s.Average.Microseconds(),
		}).Info("pass stats")
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.passes)
	return true
}
