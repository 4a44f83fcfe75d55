package core

import (
	"math"
	"testing"
)

func TestDeriveConfidence(t *testing.T) {
	tests := []struct {
		name         string
		completeness float64
		want         Confidence
	}{
		{name: "full profile", completeness: 1.0, want: ConfidenceHigh},
		{name: "exactly at high boundary", completeness: 0.70, want: ConfidenceHigh},
		{name: "just below high boundary", completeness: 0.69, want: ConfidenceMedium},
		{name: "exactly at medium boundary", completeness: 0.50, want: ConfidenceMedium},
		{name: "just below medium boundary", completeness: 0.49, want: ConfidenceLow},
		{name: "empty profile", completeness: 0, want: ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveConfidence(tt.completeness); got != tt.want {
				t.Errorf("DeriveConfidence(%v) = %v, want %v", tt.completeness, got, tt.want)
			}
		})
	}
}

func TestNewPrediction(t *testing.T) {
	tests := []struct {
		name         string
		revenue      float64
		completeness float64
		wantConf     Confidence
		wantLow      float64
		wantHigh     float64
	}{
		{
			name:         "high confidence gets tight band",
			revenue:      1000000,
			completeness: 0.9,
			wantConf:     ConfidenceHigh,
			wantLow:      800000,
			wantHigh:     1200000,
		},
		{
			name:         "medium confidence widens band",
			revenue:      1000000,
			completeness: 0.6,
			wantConf:     ConfidenceMedium,
			wantLow:      650000,
			wantHigh:     1350000,
		},
		{
			name:         "low confidence widest band",
			revenue:      1000000,
			completeness: 0.1,
			wantConf:     ConfidenceLow,
			wantLow:      500000,
			wantHigh:     1500000,
		},
		{
			name:         "lower bound floored at zero",
			revenue:      -100,
			completeness: 0.1,
			wantConf:     ConfidenceLow,
			wantLow:      0,
			wantHigh:     -150,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrediction(tt.revenue, tt.completeness)
			if p.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", p.Confidence, tt.wantConf)
			}
			if math.Abs(p.Low-tt.wantLow) > 1e-6 {
				t.Errorf("Low = %v, want %v", p.Low, tt.wantLow)
			}
			if math.Abs(p.High-tt.wantHigh) > 1e-6 {
				t.Errorf("High = %v, want %v", p.High, tt.wantHigh)
			}
			if p.Revenue != tt.revenue {
				t.Errorf("Revenue = %v, want %v", p.Revenue, tt.revenue)
			}
		})
	}
}
