// Package profiler records how long named operations take over a run.
package profiler

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// TimeTracker tracks timing statistics for one operation.
type TimeTracker struct {
	Name      string
	Count     int
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// Average returns the mean duration, or zero when nothing was recorded.
func (t TimeTracker) Average() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.TotalTime / time.Duration(t.Count)
}

// Profiler aggregates operation timings. It is safe for concurrent use.
type Profiler struct {
	mu             sync.Mutex
	operationTimes map[string]*TimeTracker
}

// New creates an empty profiler.
func New() *Profiler {
	return &Profiler{operationTimes: make(map[string]*TimeTracker)}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Record adds one completed operation of the given duration.
func (p *Profiler) Record(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operationTimes[name]
	if !exists {
		tracker = &TimeTracker{
			Name:    name,
			MinTime: duration,
			MaxTime: duration,
		}
		p.operationTimes[name] = tracker
	}

	tracker.TotalTime += duration
	tracker.Count++

	if duration < tracker.MinTime {
		tracker.MinTime = duration
	}
	if duration > tracker.MaxTime {
		tracker.MaxTime = duration
	}
}

// Stats returns a copy of every tracker, sorted by name.
func (p *Profiler) Stats() []TimeTracker {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make([]TimeTracker, 0, len(p.operationTimes))
	for _, tracker := range p.operationTimes {
		stats = append(stats, *tracker)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Report logs one debug line per operation.
func (p *Profiler) Report(logger *log.Logger) {
	for _, s := range p.Stats() {
		logger.Debug("Operation timing",
			"op", s.Name,
			"count", s.Count,
			"avg", s.Average().Truncate(time.Microsecond),
			"min", s.MinTime.Truncate(time.Microsecond),
			"max", s.MaxTime.Truncate(time.Microsecond),
		)
	}
}
