// Package particles animates the decorative sprite layers (snow, sparkle,
// bokeh) drawn behind and over the frame text. One Pool type covers every
// layer; the per-layer differences are captured entirely by LayerConfig.
package particles

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/fogleman/gg"
)

// exitMargin is how far past the canvas edge a particle may travel before it
// wraps (horizontal) or resets (vertical).
const exitMargin = 16.0

// LayerConfig parameterizes a particle layer. Ranges are sampled uniformly on
// every reset.
type LayerConfig struct {
	Count      int
	SizeMin    float64
	SizeMax    float64
	SpeedMin   float64
	SpeedMax   float64
	DriftMax   float64 // max horizontal velocity magnitude per frame
	SwayAmp    float64 // amplitude of the sinusoidal horizontal sway
	OpacityMin float64
	OpacityMax float64
	Color      color.Color
	Twinkle    bool // modulate alpha with the oscillation phase
}

// Snow returns the slow-falling background layer configuration.
func Snow(c color.Color) LayerConfig {
	return LayerConfig{
		Count:      48,
		SizeMin:    2,
		SizeMax:    8,
		SpeedMin:   0.5,
		SpeedMax:   2.0,
		DriftMax:   0.4,
		SwayAmp:    0.3,
		OpacityMin: 0.3,
		OpacityMax: 0.9,
		Color:      c,
	}
}

// Sparkle returns the small twinkling layer drawn only while the frame is
// warm.
func Sparkle(c color.Color) LayerConfig {
	return LayerConfig{
		Count:      24,
		SizeMin:    1,
		SizeMax:    3,
		SpeedMin:   0.2,
		SpeedMax:   0.8,
		DriftMax:   0.2,
		SwayAmp:    0.5,
		OpacityMin: 0.4,
		OpacityMax: 1.0,
		Color:      c,
		Twinkle:    true,
	}
}

// Bokeh returns the large soft-circle layer used by dreamier palettes.
func Bokeh(c color.Color) LayerConfig {
	return LayerConfig{
		Count:      16,
		SizeMin:    12,
		SizeMax:    36,
		SpeedMin:   0.1,
		SpeedMax:   0.5,
		DriftMax:   0.3,
		SwayAmp:    0.6,
		OpacityMin: 0.05,
		OpacityMax: 0.25,
		Color:      c,
		Twinkle:    true,
	}
}

type particle struct {
	x, y    float64
	size    float64
	speed   float64
	drift   float64
	phase   float64
	opacity float64
}

// Pool holds a fixed-size set of independently animated particles. Particles
// are never destroyed; leaving the bottom of the canvas re-randomizes the same
// slot. The pool is driven by its own seeded source so a run is reproducible
// for a given seed.
type Pool struct {
	cfg       LayerConfig
	width     float64
	height    float64
	rng       *rand.Rand
	particles []particle
}

// NewPool creates a pool sized for the given canvas. The initial population is
// scattered across the full canvas so the first frame is not empty.
func NewPool(cfg LayerConfig, width, height int, seed int64) *Pool {
	p := &Pool{
		cfg:       cfg,
		width:     float64(width),
		height:    float64(height),
		rng:       rand.New(rand.NewSource(seed)),
		particles: make([]particle, cfg.Count),
	}
	for i := range p.particles {
		p.reset(&p.particles[i])
		// Scatter vertically on initial fill only; resets spawn above the top.
		p.particles[i].y = p.rng.Float64()*(p.height+exitMargin) - exitMargin
	}
	return p
}

func (p *Pool) reset(pt *particle) {
	cfg := p.cfg
	pt.x = p.rng.Float64() * p.width
	pt.y = -p.rng.Float64() * exitMargin
	pt.size = cfg.SizeMin + p.rng.Float64()*(cfg.SizeMax-cfg.SizeMin)
	pt.speed = cfg.SpeedMin + p.rng.Float64()*(cfg.SpeedMax-cfg.SpeedMin)
	pt.drift = (p.rng.Float64()*2 - 1) * cfg.DriftMax
	pt.phase = p.rng.Float64() * 2 * math.Pi
	pt.opacity = cfg.OpacityMin + p.rng.Float64()*(cfg.OpacityMax-cfg.OpacityMin)
}

// Step advances every particle by one frame. Vertical exit triggers a full
// reset; horizontal exit wraps to the opposite edge without touching vertical
// state, which keeps the wind-blown look of the original layers.
func (p *Pool) Step() {
	for i := range p.particles {
		pt := &p.particles[i]
		pt.phase += 0.05 + pt.speed*0.01
		pt.y += pt.speed
		pt.x += pt.drift + math.Sin(pt.phase)*p.cfg.SwayAmp

		if pt.y > p.height+exitMargin {
			p.reset(pt)
			continue
		}
		if pt.x < -exitMargin {
			pt.x = p.width + exitMargin
		} else if pt.x > p.width+exitMargin {
			pt.x = -exitMargin
		}
	}
}

// Draw renders the pool onto the context. intensity scales the whole layer's
// opacity; callers pass 1 for always-on layers and the current warmth for
// layers that should only show up in warm phases.
func (p *Pool) Draw(dc *gg.Context, intensity float64) {
	if intensity <= 0 {
		return
	}
	if intensity > 1 {
		intensity = 1
	}
	r, g, b, _ := p.cfg.Color.RGBA()
	cr := float64(r) / 0xffff
	cg := float64(g) / 0xffff
	cb := float64(b) / 0xffff

	for i := range p.particles {
		pt := &p.particles[i]
		alpha := pt.opacity * intensity
		if p.cfg.Twinkle {
			alpha *= 0.5 + 0.5*math.Sin(pt.phase)
		}
		if alpha <= 0 {
			continue
		}
		dc.SetRGBA(cr, cg, cb, alpha)
		dc.DrawCircle(pt.x, pt.y, pt.size/2)
		dc.Fill()
	}
}

// Count returns the pool size.
func (p *Pool) Count() int {
	return len(p.particles)
}
