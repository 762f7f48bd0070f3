package filter

import (
	"math"
	"testing"
)

func feed(e *Engine, xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		y, _, _ := e.Update(x, x, x)
		out = append(out, y)
	}
	return out
}

func TestEMA(t *testing.T) {
	e := NewEngine(Config{Mode: ModeEMA, Alpha: 0.2, WindowN: 9})
	got := feed(e, []float64{10, 20})
	want := []float64{10.0, 12.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("EMA: got %v want %v", got, want)
		}
	}
}

func TestSMAWindowFilling(t *testing.T) {
	e := NewEngine(Config{Mode: ModeSMA, Alpha: 0.2, WindowN: 3})
	got := feed(e, []float64{1, 2, 3, 4})
	want := []float64{1.0, 1.5, 2.0, 3.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("SMA: got %v want %v", got, want)
		}
	}
}

func TestMedianWindow(t *testing.T) {
	e := NewEngine(Config{Mode: ModeMedian, Alpha: 0.2, WindowN: 3})
	got := feed(e, []float64{5, 1, 3, 9})
	want := []float64{5.0, 3.0, 3.0, 3.0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Median: got %v want %v", got, want)
		}
	}
}

func TestMedianEvenWindowAveragesCenter(t *testing.T) {
	e := NewEngine(Config{Mode: ModeMedian, Alpha: 0.2, WindowN: 4})
	got := feed(e, []float64{1, 3, 5, 7})
	// windows: {1} {1,3} {1,3,5} {1,3,5,7}
	want := []float64{1.0, 2.0, 3.0, 4.0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Median even: got %v want %v", got, want)
		}
	}
}

func TestMedianEMAChainsStages(t *testing.T) {
	e := NewEngine(Config{Mode: ModeMedianEMA, Alpha: 0.5, WindowN: 3})
	got := feed(e, []float64{4, 6, 5})
	// medians of {4},{4,6},{4,6,5}: 4, 5, 5
	// ema: y0=4; y1=0.5*5+0.5*4=4.5; y2=0.5*5+0.5*4.5=4.75
	exp := []float64{4.0, 4.5, 4.75}
	for i := range exp {
		if math.Abs(got[i]-exp[i]) > 1e-12 {
			t.Fatalf("Median+EMA: got %v want %v", got, exp)
		}
	}
}

func TestNonePassthrough(t *testing.T) {
	e := NewEngine(Config{Mode: ModeNone, Alpha: 0.2, WindowN: 3})
	y0, y1, yp := e.Update(1.5, -2.5, 99)
	if y0 != 1.5 || y1 != -2.5 || yp != 99 {
		t.Fatalf("passthrough: %v %v %v", y0, y1, yp)
	}
}

func TestNaNInputLeavesStateUntouched(t *testing.T) {
	e := NewEngine(Config{Mode: ModeEMA, Alpha: 0.2, WindowN: 9})
	feed(e, []float64{10})
	got := feed(e, []float64{math.NaN()})
	if !math.IsNaN(got[0]) {
		t.Fatalf("NaN in should be NaN out, got %v", got[0])
	}
	// Next valid sample continues from the pre-NaN EMA value (10), not
	// from the NaN: 0.2*20 + 0.8*10 = 12.
	got = feed(e, []float64{20})
	if math.Abs(got[0]-12.0) > 1e-12 {
		t.Fatalf("state corrupted by NaN: got %v want 12", got[0])
	}
}

func TestInfInputIsRejectedLikeNaN(t *testing.T) {
	e := NewEngine(Config{Mode: ModeSMA, Alpha: 0.2, WindowN: 2})
	feed(e, []float64{2})
	got := feed(e, []float64{math.Inf(1)})
	if !math.IsNaN(got[0]) {
		t.Fatalf("Inf in should be NaN out, got %v", got[0])
	}
	got = feed(e, []float64{4})
	if got[0] != 3.0 { // window {2,4}
		t.Fatalf("window corrupted by Inf: got %v want 3", got[0])
	}
}

func TestChannelsDoNotShareState(t *testing.T) {
	e := NewEngine(Config{Mode: ModeEMA, Alpha: 0.5, WindowN: 9})
	y0, y1, yp := e.Update(10, 100, 1000)
	if y0 != 10 || y1 != 100 || yp != 1000 {
		t.Fatalf("first sample: %v %v %v", y0, y1, yp)
	}
	y0, y1, yp = e.Update(20, 200, 2000)
	if y0 != 15 || y1 != 150 || yp != 1500 {
		t.Fatalf("cross-contaminated state: %v %v %v", y0, y1, yp)
	}
}

func TestRecomputeSeriesIdempotent(t *testing.T) {
	e := NewEngine(Config{Mode: ModeMedianEMA, Alpha: 0.3, WindowN: 3})
	r0 := []float64{1, 5, 2, 8, 3}
	r1 := []float64{2, 6, 3, 9, 4}
	rp := []float64{3, 7, 4, 10, 5}
	a0, a1, ap := e.RecomputeSeries(r0, r1, rp)
	b0, b1, bp := e.RecomputeSeries(r0, r1, rp)
	if len(a0) != len(r0) || len(a1) != len(r1) || len(ap) != len(rp) {
		t.Fatalf("length mismatch: %d %d %d", len(a0), len(a1), len(ap))
	}
	for i := range a0 {
		if a0[i] != b0[i] || a1[i] != b1[i] || ap[i] != bp[i] {
			t.Fatalf("recompute not idempotent at %d", i)
		}
	}
}

func TestSetConfigResetsState(t *testing.T) {
	e := NewEngine(Config{Mode: ModeEMA, Alpha: 0.2, WindowN: 9})
	feed(e, []float64{10, 20})
	e.SetConfig(Config{Mode: ModeEMA, Alpha: 0.5, WindowN: 9})
	got := feed(e, []float64{40})
	if got[0] != 40 { // first valid sample after reset seeds the EMA
		t.Fatalf("SetConfig did not reset: got %v", got[0])
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []Config{
		{Mode: "Kalman", Alpha: 0.2, WindowN: 3},
		{Mode: ModeEMA, Alpha: 0, WindowN: 3},
		{Mode: ModeEMA, Alpha: 1, WindowN: 3},
		{Mode: ModeSMA, Alpha: 0.2, WindowN: 0},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"none":       ModeNone,
		"EMA":        ModeEMA,
		"sma":        ModeSMA,
		"Median":     ModeMedian,
		"median+ema": ModeMedianEMA,
	}
	for in, want := range cases {
		got, ok := ParseMode(in)
		if !ok || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseMode("butterworth"); ok {
		t.Fatalf("unknown mode accepted")
	}
}
