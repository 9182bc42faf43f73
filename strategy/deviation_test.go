package strategy

import (
	"math"
	"testing"
)

func TestBpsDiffSymmetry(t *testing.T) {
	pairs := [][2]float64{
		{100.0, 100.05},
		{99.95, 100.05},
		{0.0001234, 0.0001235},
		{43000, 43021.5},
	}
	for _, pr := range pairs {
		ab := BpsDiff(pr[0], pr[1])
		ba := BpsDiff(pr[1], pr[0])
		if math.Abs(ab-ba) > 1e-12 {
			t.Errorf("BpsDiff(%v,%v)=%v != BpsDiff(%v,%v)=%v", pr[0], pr[1], ab, pr[1], pr[0], ba)
		}
	}
}

func TestBpsDiffValues(t *testing.T) {
	// 100 -> 101 约为 1% ≈ 99.5 bps（以均值 100.5 为基准）
	got := BpsDiff(100, 101)
	want := 1.0 / 100.5 * 10000
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("BpsDiff(100,101) = %v, want %v", got, want)
	}
	if BpsDiff(100, 100) != 0 {
		t.Errorf("BpsDiff(100,100) = %v, want 0", BpsDiff(100, 100))
	}
}

func TestBpsDiffSentinelPrice(t *testing.T) {
	// 初始挂单价为 -1，对比结果必须触发重挂
	if got := BpsDiff(100, -1); got != math.MaxFloat64 {
		t.Errorf("BpsDiff(100,-1) = %v, want MaxFloat64", got)
	}
}

func TestNeedsRequote(t *testing.T) {
	tests := []struct {
		name                 string
		targetPx, targetSz   float64
		restingPx, restingSz float64
		maxBps               int
		want                 bool
	}{
		{"identical", 100.0, 1.0, 100.0, 1.0, 10, false},
		{"price drift within band", 100.0, 1.0, 100.05, 1.0, 10, false},
		{"price drift beyond band", 100.0, 1.0, 100.2, 1.0, 10, true},
		{"size drift", 100.0, 1.0, 100.0, 0.6, 10, true},
		{"size drift below epsilon", 100.0, 1.0, 100.0, 1.0 + 1e-9, 10, false},
		{"no resting order yet", 100.0, 1.0, -1.0, 0.0, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NeedsRequote(tt.targetPx, tt.targetSz, tt.restingPx, tt.restingSz, tt.maxBps)
			if got != tt.want {
				t.Errorf("NeedsRequote(%v,%v,%v,%v,%d) = %v, want %v",
					tt.targetPx, tt.targetSz, tt.restingPx, tt.restingSz, tt.maxBps, got, tt.want)
			}
		})
	}
}
