package render

import (
	"math"
	"testing"

	"storyglow/internal/timeline"
)

func planOrDie(t *testing.T, narration float64, pad timeline.Padding) []timeline.Phase {
	t.Helper()
	phases, err := timeline.Plan(narration, pad)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return phases
}

func TestWarmthTransitionMidpoint(t *testing.T) {
	// hook 0-4, build 4-8, transition 8-11, narration 11-32.5, ...
	phases := planOrDie(t, 21.5, timeline.Padding{Hook: 4, Build: 4, Transition: 3, Emotional: 5, CTA: 10})

	got := Warmth(phases, 9.5)
	want := 0.5 * warmTarget
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Warmth(9.5) = %v, want %v", got, want)
	}
}

func TestWarmthPerPhase(t *testing.T) {
	phases := planOrDie(t, 10, timeline.Padding{Hook: 2, Build: 2, Transition: 4, Emotional: 3, CTA: 5})

	tests := []struct {
		name string
		t    float64
		want float64
	}{
		{"hook is cold", 1, 0},
		{"build is cold", 3, 0},
		{"transition start", 4, 0},
		{"transition quarter", 5, 0.25 * warmTarget},
		{"narration holds target", 12, warmTarget},
		{"emotional holds target", 19, warmTarget},
		{"cta settles lower", 22, ctaWarmth},
		{"end of video", timeline.Total(phases), ctaWarmth},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Warmth(phases, tc.t); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Warmth(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestWarmthMonotonicThroughTransition(t *testing.T) {
	phases := planOrDie(t, 5, timeline.Padding{Hook: 1, Build: 1, Transition: 2, Emotional: 1, CTA: 1})
	prev := -1.0
	for x := 2.0; x <= 4.0; x += 0.1 {
		w := Warmth(phases, x)
		if w < prev-1e-9 {
			t.Fatalf("warmth decreased during transition at t=%v: %v < %v", x, w, prev)
		}
		if w < 0 || w > warmTarget {
			t.Fatalf("warmth out of range at t=%v: %v", x, w)
		}
		prev = w
	}
}

func TestWarmthClampsOutsideTimeline(t *testing.T) {
	phases := planOrDie(t, 5, timeline.Padding{CTA: 2})
	if got := Warmth(phases, -1); got != 0 {
		t.Errorf("Warmth(-1) = %v, want 0", got)
	}
	if got := Warmth(phases, timeline.Total(phases)+5); got != ctaWarmth {
		t.Errorf("Warmth(past end) = %v, want %v", got, ctaWarmth)
	}
}
