// Package store owns the in-memory telemetry model: the live plot
// buffers, the full recording history and the current-values snapshot.
// It contains no transport or rendering concerns so it can be tested
// in isolation.
package store

import (
	"math"
	"sync"
	"time"

	"github.com/lh2uav/groundlink/internal/filter"
	"github.com/lh2uav/groundlink/internal/protocol"
	"github.com/lh2uav/groundlink/internal/ring"
)

// WindowMode selects the live-buffer retention policy.
type WindowMode string

const (
	WindowPoints  WindowMode = "points"  // bounded by sample count
	WindowSeconds WindowMode = "seconds" // bounded by elapsed time
)

// CurrentValues is the latest raw sample. All float fields are NaN and
// HasData is false until the first frame arrives.
type CurrentValues struct {
	T0C       float64
	T1C       float64
	PkPa      float64
	HeaterPct float64
	ValvePct  float64
	TelemMs   uint64
	HasData   bool
}

func emptyCurrent() CurrentValues {
	nan := math.NaN()
	return CurrentValues{T0C: nan, T1C: nan, PkPa: nan, HeaterPct: nan, ValvePct: nan}
}

// Series is a consistent point-in-time copy of the live plot buffers.
// All slices share one length and are index-aligned.
type Series struct {
	TimeS []float64
	T0Raw []float64
	T1Raw []float64
	PRaw  []float64
	T0F   []float64
	T1F   []float64
	PF    []float64
}

// Len returns the number of live samples.
func (s Series) Len() int { return len(s.TimeS) }

const liveCols = 7

const (
	colTime = iota
	colT0Raw
	colT1Raw
	colPRaw
	colT0F
	colT1F
	colPF
)

// liveBuffers abstracts the two retention policies over the seven
// index-aligned live columns.
type liveBuffers interface {
	push(sample [liveCols]float64)
	// trimBefore drops samples with time < tmin. Points mode ignores it.
	trimBefore(tmin float64)
	columns() [liveCols][]float64
	length() int
	lastTime() (float64, bool)
}

type pointsBuffers struct {
	cols [liveCols]*ring.Ring
}

func newPointsBuffers(capacity int) *pointsBuffers {
	b := &pointsBuffers{}
	for i := range b.cols {
		b.cols[i] = ring.New(capacity)
	}
	return b
}

func (b *pointsBuffers) push(sample [liveCols]float64) {
	for i := range b.cols {
		b.cols[i].Push(sample[i])
	}
}

func (b *pointsBuffers) trimBefore(float64) {}

func (b *pointsBuffers) columns() [liveCols][]float64 {
	var out [liveCols][]float64
	for i := range b.cols {
		out[i] = b.cols[i].Values()
	}
	return out
}

func (b *pointsBuffers) length() int { return b.cols[colTime].Len() }

func (b *pointsBuffers) lastTime() (float64, bool) {
	n := b.cols[colTime].Len()
	if n == 0 {
		return 0, false
	}
	return b.cols[colTime].At(n - 1), true
}

type secondsBuffers struct {
	cols [liveCols][]float64
}

func (b *secondsBuffers) push(sample [liveCols]float64) {
	for i := range b.cols {
		b.cols[i] = append(b.cols[i], sample[i])
	}
}

func (b *secondsBuffers) trimBefore(tmin float64) {
	drop := 0
	for drop < len(b.cols[colTime]) && b.cols[colTime][drop] < tmin {
		drop++
	}
	if drop == 0 {
		return
	}
	for i := range b.cols {
		b.cols[i] = append(b.cols[i][:0], b.cols[i][drop:]...)
	}
}

func (b *secondsBuffers) columns() [liveCols][]float64 {
	var out [liveCols][]float64
	for i := range b.cols {
		out[i] = append([]float64(nil), b.cols[i]...)
	}
	return out
}

func (b *secondsBuffers) length() int { return len(b.cols[colTime]) }

func (b *secondsBuffers) lastTime() (float64, bool) {
	n := len(b.cols[colTime])
	if n == 0 {
		return 0, false
	}
	return b.cols[colTime][n-1], true
}

// record is the full recorded history; unbounded while recording is
// enabled. Columns are index-aligned.
type record struct {
	timeS     []float64
	telemMs   []uint64
	t0Raw     []float64
	t1Raw     []float64
	pRaw      []float64
	heaterPct []float64
	valvePct  []float64
	t0F       []float64
	t1F       []float64
	pF        []float64
}

func (r *record) clear() { *r = record{} }

// Options configure a new Store.
type Options struct {
	WindowMode  WindowMode
	PlotPoints  int
	PlotSeconds int
	Filter      filter.Config
}

// DefaultOptions mirrors the host defaults.
func DefaultOptions() Options {
	return Options{
		WindowMode:  WindowPoints,
		PlotPoints:  5000,
		PlotSeconds: 1000,
		Filter:      filter.DefaultConfig(),
	}
}

// Store holds live plot buffers, recording history and the current
// snapshot. Methods are safe for concurrent use: ingestion is single-
// writer, readers take consistent copies.
type Store struct {
	mu sync.Mutex

	origin time.Time

	engine *filter.Engine

	mode        WindowMode
	plotPoints  int
	plotSeconds int
	live        liveBuffers

	recEnabled bool
	rec        record

	current CurrentValues
}

func New(opts Options) *Store {
	if opts.PlotPoints < 1 {
		opts.PlotPoints = 1
	}
	if opts.PlotSeconds < 1 {
		opts.PlotSeconds = 1
	}
	s := &Store{
		origin:      time.Now(),
		engine:      filter.NewEngine(opts.Filter),
		mode:        opts.WindowMode,
		plotPoints:  opts.PlotPoints,
		plotSeconds: opts.PlotSeconds,
		recEnabled:  true,
		current:     emptyCurrent(),
	}
	if s.mode == WindowSeconds {
		s.live = &secondsBuffers{}
	} else {
		s.mode = WindowPoints
		s.live = newPointsBuffers(s.plotPoints)
	}
	return s
}

// AddTelem ingests one telemetry frame: appends raw values, advances
// the filter, appends filtered values, applies the seconds-mode trim
// and — only while recording is enabled — extends the recording
// history. The current snapshot is updated unconditionally.
func (s *Store) AddTelem(f protocol.TelemetryFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowS := time.Since(s.origin).Seconds()
	pkPa := f.PkPa()

	y0, y1, yp := s.engine.Update(f.T0C, f.T1C, pkPa)
	s.live.push([liveCols]float64{nowS, f.T0C, f.T1C, pkPa, y0, y1, yp})

	if s.mode == WindowSeconds {
		s.live.trimBefore(nowS - float64(s.plotSeconds))
	}

	if s.recEnabled {
		s.rec.timeS = append(s.rec.timeS, nowS)
		s.rec.telemMs = append(s.rec.telemMs, f.TMs)
		s.rec.t0Raw = append(s.rec.t0Raw, f.T0C)
		s.rec.t1Raw = append(s.rec.t1Raw, f.T1C)
		s.rec.pRaw = append(s.rec.pRaw, pkPa)
		s.rec.heaterPct = append(s.rec.heaterPct, f.HeaterPct)
		s.rec.valvePct = append(s.rec.valvePct, f.ValvePct)
		s.rec.t0F = append(s.rec.t0F, y0)
		s.rec.t1F = append(s.rec.t1F, y1)
		s.rec.pF = append(s.rec.pF, yp)
	}

	s.current = CurrentValues{
		T0C:       f.T0C,
		T1C:       f.T1C,
		PkPa:      pkPa,
		HeaterPct: f.HeaterPct,
		ValvePct:  f.ValvePct,
		TelemMs:   f.TMs,
		HasData:   true,
	}
}

// SetPlotWindowPoints switches to points mode with the given capacity,
// rebuilding the buffers and keeping only the most recent samples.
func (s *Store) SetPlotWindowPoints(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cols := s.live.columns()
	next := newPointsBuffers(n)
	start := 0
	if keep := len(cols[colTime]) - n; keep > 0 {
		start = keep
	}
	for i := start; i < len(cols[colTime]); i++ {
		var sample [liveCols]float64
		for c := range sample {
			sample[c] = cols[c][i]
		}
		next.push(sample)
	}
	s.mode = WindowPoints
	s.plotPoints = n
	s.live = next
}

// SetPlotWindowSeconds switches to seconds mode with the given window
// and trims existing samples against it immediately.
func (s *Store) SetPlotWindowSeconds(windowS int) {
	if windowS < 1 {
		windowS = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cols := s.live.columns()
	next := &secondsBuffers{}
	for i := range cols[colTime] {
		var sample [liveCols]float64
		for c := range sample {
			sample[c] = cols[c][i]
		}
		next.push(sample)
	}
	s.mode = WindowSeconds
	s.plotSeconds = windowS
	if last, ok := next.lastTime(); ok {
		next.trimBefore(last - float64(windowS))
	}
	s.live = next
}

// WindowMode returns the active retention policy.
func (s *Store) WindowMode() WindowMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetFilterConfig replaces the filter configuration and recomputes the
// filtered live series from the current raw live buffers. Recording
// history keeps the values captured under earlier configurations.
func (s *Store) SetFilterConfig(cfg filter.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.SetConfig(cfg)
	s.recomputeLiveFilteredLocked()
}

func (s *Store) recomputeLiveFilteredLocked() {
	cols := s.live.columns()
	f0, f1, fp := s.engine.RecomputeSeries(cols[colT0Raw], cols[colT1Raw], cols[colPRaw])

	// Rebuild the buffers wholesale so the filtered columns are fully
	// replaced, never partially stale.
	var next liveBuffers
	if s.mode == WindowPoints {
		next = newPointsBuffers(s.plotPoints)
	} else {
		next = &secondsBuffers{}
	}
	for i := range cols[colTime] {
		next.push([liveCols]float64{
			cols[colTime][i],
			cols[colT0Raw][i], cols[colT1Raw][i], cols[colPRaw][i],
			f0[i], f1[i], fp[i],
		})
	}
	s.live = next
}

// FilterConfig returns the active filter configuration.
func (s *Store) FilterConfig() filter.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Config()
}

// ToggleRecording flips the recording flag and returns the new value.
// Live buffering and filtering continue either way.
func (s *Store) ToggleRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recEnabled = !s.recEnabled
	return s.recEnabled
}

// Recording reports whether new samples extend the recording history.
func (s *Store) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recEnabled
}

// Clear resets the time origin to now, the filter state, both live and
// recorded buffers, and the current snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.origin = time.Now()
	s.engine.Reset()
	s.rec.clear()
	if s.mode == WindowPoints {
		s.live = newPointsBuffers(s.plotPoints)
	} else {
		s.live = &secondsBuffers{}
	}
	s.current = emptyCurrent()
}

// PlotSeries returns a copy of the live buffers.
func (s *Store) PlotSeries() Series {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols := s.live.columns()
	return Series{
		TimeS: cols[colTime],
		T0Raw: cols[colT0Raw],
		T1Raw: cols[colT1Raw],
		PRaw:  cols[colPRaw],
		T0F:   cols[colT0F],
		T1F:   cols[colT1F],
		PF:    cols[colPF],
	}
}

// Current returns the latest snapshot.
func (s *Store) Current() CurrentValues {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// RecPoints returns the number of recorded samples.
func (s *Store) RecPoints() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rec.timeS)
}

// RecDuration returns last minus first recorded elapsed time, or 0
// with fewer than two samples.
func (s *Store) RecDuration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.rec.timeS)
	if n < 2 {
		return 0
	}
	return s.rec.timeS[n-1] - s.rec.timeS[0]
}
