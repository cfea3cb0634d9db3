package timeline

import (
	"math"
	"strings"
	"testing"
)

func TestPlanPhasesAreContiguous(t *testing.T) {
	pad := Padding{Hook: 4, Build: 4, Transition: 3, Emotional: 5, CTA: 10}

	phases, err := Plan(21.5, pad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(phases) != 6 {
		t.Fatalf("len=%d, want 6; got %v", len(phases), phases)
	}
	if phases[0].Start != 0 {
		t.Errorf("first phase starts at %v, want 0", phases[0].Start)
	}
	for i := 1; i < len(phases); i++ {
		if phases[i].Start != phases[i-1].End {
			t.Errorf("gap between %q and %q: %v != %v",
				phases[i-1].Name, phases[i].Name, phases[i-1].End, phases[i].Start)
		}
	}
	if got, want := Total(phases), 47.5; got != want {
		t.Errorf("Total=%v, want %v", got, want)
	}
	if got := FrameCount(phases, 30); got != 1425 {
		t.Errorf("FrameCount=%d, want 1425", got)
	}
}

func TestPlanOrdering(t *testing.T) {
	phases, err := Plan(10, Padding{Hook: 1, Build: 2, Transition: 3, Emotional: 4, CTA: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOrder := []string{PhaseHook, PhaseBuild, PhaseTransition, PhaseNarration, PhaseEmotional, PhaseCTA}
	for i, name := range wantOrder {
		if phases[i].Name != name {
			t.Errorf("[%d] name=%q, want %q", i, phases[i].Name, name)
		}
	}
	if n, ok := Find(phases, PhaseNarration); !ok || n.Duration() != 10 {
		t.Errorf("narration phase = %+v, ok=%v; want 10s phase", n, ok)
	}
}

func TestPlanSkipsZeroPadding(t *testing.T) {
	phases, err := Plan(5, Padding{Hook: 2, CTA: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOrder := []string{PhaseHook, PhaseNarration, PhaseCTA}
	if len(phases) != len(wantOrder) {
		t.Fatalf("len=%d, want %d; got %v", len(phases), len(wantOrder), phases)
	}
	for i, name := range wantOrder {
		if phases[i].Name != name {
			t.Errorf("[%d] name=%q, want %q", i, phases[i].Name, name)
		}
	}
	if got := Total(phases); got != 10 {
		t.Errorf("Total=%v, want 10", got)
	}
}

func TestPlanRejectsInvalidDurations(t *testing.T) {
	tests := []struct {
		name      string
		narration float64
		pad       Padding
		wantErr   string
	}{
		{"zero narration", 0, Padding{}, "positive"},
		{"negative narration", -3, Padding{}, "positive"},
		{"nan narration", math.NaN(), Padding{}, "finite"},
		{"inf narration", math.Inf(1), Padding{}, "finite"},
		{"negative padding", 5, Padding{Hook: -1}, "hook"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Plan(tc.narration, tc.pad)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestPhaseAtCoversEveryFrame(t *testing.T) {
	const fps = 30
	phases, err := Plan(21.5, Padding{Hook: 4, Build: 4, Transition: 3, Emotional: 5, CTA: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frames := FrameCount(phases, fps)
	for f := 0; f < frames; f++ {
		tSec := float64(f) / fps
		p, ok := PhaseAt(phases, tSec)
		if !ok {
			t.Fatalf("frame %d (t=%.4f) selected no phase", f, tSec)
		}
		if tSec < p.Start || (tSec >= p.End && tSec != Total(phases)) {
			t.Fatalf("frame %d (t=%.4f) outside selected phase %+v", f, tSec, p)
		}
	}

	// The final instant belongs to the closing phase.
	last := phases[len(phases)-1]
	if p, ok := PhaseAt(phases, Total(phases)); !ok || p.Name != last.Name {
		t.Errorf("PhaseAt(total) = %+v, ok=%v; want %q", p, ok, last.Name)
	}

	if _, ok := PhaseAt(phases, Total(phases)+0.1); ok {
		t.Error("PhaseAt past the end should select nothing")
	}
}
