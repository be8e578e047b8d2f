package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects counters and apply latencies for one election run. Recording is safe from any goroutine, so the
// same collector can be shared by the dispatcher and the intake queue.
type Metrics struct {
	mu sync.RWMutex

	// Time spent applying each recognized command
	applyLatencies []time.Duration
	// Commands seen per tag
	byTag map[string]uint64
	// Rejections per error kind
	rejections map[string]uint64

	applied  atomic.Uint64
	rejected atomic.Uint64
	skipped  atomic.Uint64
	queued   atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		applyLatencies: make([]time.Duration, 0, 1024),
		byTag:          make(map[string]uint64),
		rejections:     make(map[string]uint64),
		startTime:      time.Now(),
	}
}

// RecordApplied records a command that completed
func (m *Metrics) RecordApplied(tag string, latency time.Duration) {
	m.applied.Add(1)

	m.mu.Lock()
	m.byTag[tag]++
	m.applyLatencies = append(m.applyLatencies, latency)
	m.mu.Unlock()
}

// RecordRejected records a command that failed with a domain error of the given kind
func (m *Metrics) RecordRejected(tag, kind string, latency time.Duration) {
	m.rejected.Add(1)

	m.mu.Lock()
	m.byTag[tag]++
	m.rejections[kind]++
	m.applyLatencies = append(m.applyLatencies, latency)
	m.mu.Unlock()
}

// RecordSkipped counts a line that was not a recognized command
func (m *Metrics) RecordSkipped() {
	m.skipped.Add(1)
}

// RecordQueued counts a line accepted by the intake queue
func (m *Metrics) RecordQueued() {
	m.queued.Add(1)
}

// LatencyStats contains percentile statistics for latencies
type LatencyStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min_us"`
	Max    float64 `json:"max_us"`
	Mean   float64 `json:"mean_us"`
	P50    float64 `json:"p50_us"`
	P95    float64 `json:"p95_us"`
	P99    float64 `json:"p99_us"`
	StdDev float64 `json:"stddev_us"`
}

// GetLatencyStats computes percentile statistics, in microseconds, from the recorded apply latencies
func (m *Metrics) GetLatencyStats() LatencyStats {
	m.mu.RLock()
	latencies := make([]time.Duration, len(m.applyLatencies))
	copy(latencies, m.applyLatencies)
	m.mu.RUnlock()

	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	latenciesUs := make([]float64, len(latencies))
	var sum float64
	for i, lat := range latencies {
		us := float64(lat.Nanoseconds()) / 1000.0
		latenciesUs[i] = us
		sum += us
	}

	mean := sum / float64(len(latenciesUs))

	var variance float64
	for _, lat := range latenciesUs {
		diff := lat - mean
		variance += diff * diff
	}
	stddev := math.Sqrt(variance / float64(len(latenciesUs)))

	return LatencyStats{
		Count:  len(latencies),
		Min:    latenciesUs[0],
		Max:    latenciesUs[len(latenciesUs)-1],
		Mean:   mean,
		P50:    percentile(latenciesUs, 50),
		P95:    percentile(latenciesUs, 95),
		P99:    percentile(latenciesUs, 99),
		StdDev: stddev,
	}
}

// percentile calculates the nth percentile from sorted data
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	// Linear interpolation
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// GetThroughput returns the number of recognized commands processed per second since the collector was created
func (m *Metrics) GetThroughput() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.applied.Load()+m.rejected.Load()) / elapsed
}

// Report is a summary of one run
type Report struct {
	ElectionID string    `json:"election_id"`
	Variant    string    `json:"variant"`
	Duration   float64   `json:"duration_seconds"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`

	Applied    uint64            `json:"applied"`
	Rejected   uint64            `json:"rejected"`
	Skipped    uint64            `json:"skipped"`
	Queued     uint64            `json:"queued"`
	ByTag      map[string]uint64 `json:"by_tag"`
	Rejections map[string]uint64 `json:"rejections"`

	ThroughputCmdSec float64      `json:"throughput_cmd_per_sec"`
	ApplyLatency     LatencyStats `json:"apply_latency"`
}

// GetReport snapshots the collector into a Report
func (m *Metrics) GetReport(electionID, variant string) Report {
	endTime := time.Now()

	m.mu.RLock()
	byTag := make(map[string]uint64, len(m.byTag))
	for k, v := range m.byTag {
		byTag[k] = v
	}
	rejections := make(map[string]uint64, len(m.rejections))
	for k, v := range m.rejections {
		rejections[k] = v
	}
	m.mu.RUnlock()

	return Report{
		ElectionID:       electionID,
		Variant:          variant,
		Duration:         endTime.Sub(m.startTime).Seconds(),
		StartTime:        m.startTime,
		EndTime:          endTime,
		Applied:          m.applied.Load(),
		Rejected:         m.rejected.Load(),
		Skipped:          m.skipped.Load(),
		Queued:           m.queued.Load(),
		ByTag:            byTag,
		Rejections:       rejections,
		ThroughputCmdSec: m.GetThroughput(),
		ApplyLatency:     m.GetLatencyStats(),
	}
}

// PrintReport writes the report in a human-readable format
func (r *Report) PrintReport(w io.Writer) {
	fmt.Fprintln(w, "\nELECTION RUN REPORT")
	fmt.Fprintf(w, "  Election: %s (%s)\n", r.ElectionID, r.Variant)
	fmt.Fprintf(w, "  Duration: %.3f seconds\n", r.Duration)

	fmt.Fprintf(w, "\nCommands:\n")
	fmt.Fprintf(w, "  Applied: %d\n", r.Applied)
	fmt.Fprintf(w, "  Rejected: %d\n", r.Rejected)
	fmt.Fprintf(w, "  Skipped: %d\n", r.Skipped)
	fmt.Fprintf(w, "  Queued: %d\n", r.Queued)
	for _, tag := range sortedKeys(r.ByTag) {
		fmt.Fprintf(w, "  %s: %d\n", tag, r.ByTag[tag])
	}

	if len(r.Rejections) > 0 {
		fmt.Fprintf(w, "\nRejections:\n")
		for _, kind := range sortedKeys(r.Rejections) {
			fmt.Fprintf(w, "  %s: %d\n", kind, r.Rejections[kind])
		}
	}

	fmt.Fprintf(w, "\nApply Latency:\n")
	if r.ApplyLatency.Count > 0 {
		fmt.Fprintf(w, "  Count: %d\n", r.ApplyLatency.Count)
		fmt.Fprintf(w, "  Mean: %.3f us\n", r.ApplyLatency.Mean)
		fmt.Fprintf(w, "  P50: %.3f us\n", r.ApplyLatency.P50)
		fmt.Fprintf(w, "  P99: %.3f us\n", r.ApplyLatency.P99)
		fmt.Fprintf(w, "  Max: %.3f us\n", r.ApplyLatency.Max)
	} else {
		fmt.Fprintf(w, "  No data collected\n")
	}
}

// WriteJSON writes the report as indented JSON
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
