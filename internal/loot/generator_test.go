package loot

import (
	"testing"
	"time"
)

func TestGenerateBoundaryCases(t *testing.T) {
	cases := []struct {
		name string
		prob float64
		want int
	}{
		{"half", 0.5, 1},
		{"certain", 1.0, 2},
		{"never", 0.0, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := New(5*time.Second, c.prob)
			got := g.Generate(5*time.Second, 0, 2)
			if got != c.want {
				t.Fatalf("Generate() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestGenerateSubtractsCurrentLoot(t *testing.T) {
	g := New(5*time.Second, 1.0)
	got := g.Generate(5*time.Second, 1, 2)
	if got != 1 {
		t.Fatalf("Generate() = %d, want 1 (2 - 1 current)", got)
	}
}

func TestGenerateNeverNegative(t *testing.T) {
	g := New(5*time.Second, 0.1)
	got := g.Generate(1*time.Second, 100, 2)
	if got != 0 {
		t.Fatalf("Generate() = %d, want 0 (clamped)", got)
	}
}

func TestGenerateZeroDogsIsNoop(t *testing.T) {
	g := New(5*time.Second, 1.0)
	if got := g.Generate(5*time.Second, 0, 0); got != 0 {
		t.Fatalf("Generate() = %d, want 0 with no dogs", got)
	}
}
