package timeline

import (
	"fmt"
	"math"
)

// Canonical phase names in playback order. PhaseAt dispatches on these and the
// renderer maps them to text blocks and warmth targets.
const (
	PhaseHook       = "hook"
	PhaseBuild      = "build"
	PhaseTransition = "transition"
	PhaseNarration  = "narration"
	PhaseEmotional  = "emotional"
	PhaseCTA        = "cta"
)

// Phase is a named, contiguous interval of the video timeline in seconds.
type Phase struct {
	Name  string  `json:"name"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the phase length in seconds.
func (p Phase) Duration() float64 {
	return p.End - p.Start
}

// Padding holds the fixed phase lengths that surround the narration. All
// values are seconds and must be non-negative.
type Padding struct {
	Hook       float64 `yaml:"hook"`
	Build      float64 `yaml:"build"`
	Transition float64 `yaml:"transition"`
	Emotional  float64 `yaml:"emotional"`
	CTA        float64 `yaml:"cta"`
}

// Plan lays out the full phase sequence around a narration of the given
// length. Narration duration usually comes from probing synthesized audio, so
// a zero or non-finite value means the upstream call failed and planning must
// abort rather than emit a zero-length phase.
func Plan(narrationSeconds float64, pad Padding) ([]Phase, error) {
	if math.IsNaN(narrationSeconds) || math.IsInf(narrationSeconds, 0) {
		return nil, fmt.Errorf("narration duration is not a finite number")
	}
	if narrationSeconds <= 0 {
		return nil, fmt.Errorf("narration duration must be positive, got %.3fs", narrationSeconds)
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"hook", pad.Hook},
		{"build", pad.Build},
		{"transition", pad.Transition},
		{"emotional", pad.Emotional},
		{"cta", pad.CTA},
	} {
		if v.val < 0 || math.IsNaN(v.val) {
			return nil, fmt.Errorf("padding %s must be non-negative, got %v", v.name, v.val)
		}
	}

	lengths := []struct {
		name string
		dur  float64
	}{
		{PhaseHook, pad.Hook},
		{PhaseBuild, pad.Build},
		{PhaseTransition, pad.Transition},
		{PhaseNarration, narrationSeconds},
		{PhaseEmotional, pad.Emotional},
		{PhaseCTA, pad.CTA},
	}

	phases := make([]Phase, 0, len(lengths))
	cursor := 0.0
	for _, l := range lengths {
		if l.dur == 0 {
			continue
		}
		phases = append(phases, Phase{Name: l.name, Start: cursor, End: cursor + l.dur})
		cursor += l.dur
	}
	return phases, nil
}

// Total returns the end of the final phase, which equals the full video
// duration.
func Total(phases []Phase) float64 {
	if len(phases) == 0 {
		return 0
	}
	return phases[len(phases)-1].End
}

// PhaseAt selects the phase containing time t. Every phase owns the half-open
// interval [Start, End) except the final phase, which is closed at both ends
// so the last frame of the video still resolves.
func PhaseAt(phases []Phase, t float64) (Phase, bool) {
	for i, p := range phases {
		if t >= p.Start && t < p.End {
			return p, true
		}
		if i == len(phases)-1 && t == p.End {
			return p, true
		}
	}
	return Phase{}, false
}

// Find returns the first phase with the given name.
func Find(phases []Phase, name string) (Phase, bool) {
	for _, p := range phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// FrameCount returns the number of discrete frames covering the timeline at
// the given frame rate.
func FrameCount(phases []Phase, fps int) int {
	return int(math.Round(Total(phases) * float64(fps)))
}
