// Package filter implements causal smoothing for the three telemetry
// channels (T0, T1, pressure). State is per channel and owned by one
// Engine; channels never share or alias state.
package filter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lh2uav/groundlink/internal/ring"
)

// Mode selects the smoothing algorithm applied to every channel.
type Mode string

const (
	ModeNone      Mode = "None"
	ModeEMA       Mode = "EMA"
	ModeSMA       Mode = "SMA"
	ModeMedian    Mode = "Median"
	ModeMedianEMA Mode = "Median+EMA"
)

// ParseMode maps a stored mode label back to a Mode, case-insensitively.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return ModeNone, true
	case "ema":
		return ModeEMA, true
	case "sma":
		return ModeSMA, true
	case "median":
		return ModeMedian, true
	case "median+ema", "medianema":
		return ModeMedianEMA, true
	default:
		return ModeEMA, false
	}
}

// Config is the filter configuration shared by all channels.
type Config struct {
	Mode    Mode
	Alpha   float64 // EMA smoothing factor, (0,1)
	WindowN int     // window length for SMA/Median, >= 1
}

// DefaultConfig mirrors the gateway host defaults.
func DefaultConfig() Config {
	return Config{Mode: ModeEMA, Alpha: 0.20, WindowN: 9}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeNone, ModeEMA, ModeSMA, ModeMedian, ModeMedianEMA:
	default:
		return fmt.Errorf("filter: unknown mode %q", c.Mode)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("filter: alpha %v outside (0,1)", c.Alpha)
	}
	if c.WindowN < 1 {
		return fmt.Errorf("filter: window_n %d < 1", c.WindowN)
	}
	return nil
}

func (c Config) windowN() int {
	if c.WindowN < 1 {
		return 1
	}
	return c.WindowN
}

// channelState is the causal state for one signal channel. Windows are
// allocated lazily so SetConfig can change their capacity via reset.
type channelState struct {
	emaY    float64
	emaInit bool
	win     *ring.Ring // SMA/Median window
	winSum  float64
	medWin  *ring.Ring // median stage of Median+EMA
}

func (s *channelState) reset() {
	s.emaY = 0
	s.emaInit = false
	s.win = nil
	s.winSum = 0
	s.medWin = nil
}

// Engine applies one Config identically and independently to each of
// the three channels.
type Engine struct {
	cfg Config
	t0  channelState
	t1  channelState
	p   channelState
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the active configuration.
func (e *Engine) Config() Config { return e.cfg }

// SetConfig replaces the configuration and clears all channel state.
// Callers holding derived series must recompute them afterwards.
func (e *Engine) SetConfig(cfg Config) {
	e.cfg = cfg
	e.Reset()
}

// Reset clears all three channel states.
func (e *Engine) Reset() {
	e.t0.reset()
	e.t1.reset()
	e.p.reset()
}

// Update advances all three channels with one raw sample each and
// returns the filtered outputs. A non-finite input yields NaN for that
// channel and leaves its state untouched; the next valid sample
// continues from the last good state.
func (e *Engine) Update(x0, x1, xp float64) (float64, float64, float64) {
	switch e.cfg.Mode {
	case ModeEMA:
		return e.updateEMA(&e.t0, x0), e.updateEMA(&e.t1, x1), e.updateEMA(&e.p, xp)
	case ModeSMA:
		return e.updateSMA(&e.t0, x0), e.updateSMA(&e.t1, x1), e.updateSMA(&e.p, xp)
	case ModeMedian:
		return e.updateMedian(&e.t0, x0), e.updateMedian(&e.t1, x1), e.updateMedian(&e.p, xp)
	case ModeMedianEMA:
		return e.updateMedianEMA(&e.t0, x0), e.updateMedianEMA(&e.t1, x1), e.updateMedianEMA(&e.p, xp)
	default: // ModeNone and anything unrecognized: passthrough
		return x0, x1, xp
	}
}

// RecomputeSeries resets state and replays Update over the three raw
// sequences in lock-step, producing fresh output slices of matching
// length. The result depends only on the inputs and the active config,
// so repeated calls are identical.
func (e *Engine) RecomputeSeries(r0, r1, rp []float64) ([]float64, []float64, []float64) {
	e.Reset()
	n := len(r0)
	if len(r1) < n {
		n = len(r1)
	}
	if len(rp) < n {
		n = len(rp)
	}
	o0 := make([]float64, 0, n)
	o1 := make([]float64, 0, n)
	op := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y0, y1, yp := e.Update(r0[i], r1[i], rp[i])
		o0 = append(o0, y0)
		o1 = append(o1, y1)
		op = append(op, yp)
	}
	return o0, o1, op
}

func (e *Engine) updateEMA(st *channelState, x float64) float64 {
	if !isFinite(x) {
		return math.NaN()
	}
	if !st.emaInit {
		st.emaY = x
		st.emaInit = true
	} else {
		st.emaY = e.cfg.Alpha*x + (1.0-e.cfg.Alpha)*st.emaY
	}
	return st.emaY
}

func (e *Engine) updateSMA(st *channelState, x float64) float64 {
	if !isFinite(x) {
		return math.NaN()
	}
	if st.win == nil {
		st.win = ring.New(e.cfg.windowN())
		st.winSum = 0
	}
	if ev, evicted := st.win.Push(x); evicted {
		st.winSum -= ev
	}
	st.winSum += x
	return st.winSum / float64(st.win.Len())
}

func (e *Engine) updateMedian(st *channelState, x float64) float64 {
	if !isFinite(x) {
		return math.NaN()
	}
	if st.win == nil {
		st.win = ring.New(e.cfg.windowN())
	}
	st.win.Push(x)
	return median(st.win.Values())
}

func (e *Engine) updateMedianEMA(st *channelState, x float64) float64 {
	if !isFinite(x) {
		return math.NaN()
	}
	if st.medWin == nil {
		st.medWin = ring.New(e.cfg.windowN())
	}
	st.medWin.Push(x)
	med := median(st.medWin.Values())
	if !st.emaInit {
		st.emaY = med
		st.emaInit = true
	} else {
		st.emaY = e.cfg.Alpha*med + (1.0-e.cfg.Alpha)*st.emaY
	}
	return st.emaY
}

// median sorts in place; callers pass a fresh copy.
func median(s []float64) float64 {
	n := len(s)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(s)
	mid := n / 2
	if n%2 == 1 {
		return s[mid]
	}
	return 0.5 * (s[mid-1] + s[mid])
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
