package render

import "storyglow/internal/timeline"

// Warmth targets. The transition phase ramps linearly from cold toward
// warmTarget; narration and the emotional beat hold it; the call-to-action
// settles slightly cooler so the closing card reads differently.
const (
	warmTarget = 1.0
	ctaWarmth  = 0.7
)

// Warmth computes the gradient cross-fade intensity in [0,1] for time t.
// Times outside the timeline clamp to the nearest end state.
func Warmth(phases []timeline.Phase, t float64) float64 {
	p, ok := timeline.PhaseAt(phases, t)
	if !ok {
		if t < 0 {
			return 0
		}
		return ctaWarmth
	}

	switch p.Name {
	case timeline.PhaseHook, timeline.PhaseBuild:
		return 0
	case timeline.PhaseTransition:
		if p.Duration() <= 0 {
			return warmTarget
		}
		return (t - p.Start) / p.Duration() * warmTarget
	case timeline.PhaseNarration, timeline.PhaseEmotional:
		return warmTarget
	case timeline.PhaseCTA:
		return ctaWarmth
	}
	return 0
}
