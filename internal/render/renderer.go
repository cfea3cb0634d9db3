// Package render draws the procedural frames of a storyglow video: a
// warmth-blended gradient background, the decorative particle layers, and the
// word-wrapped phase text.
package render

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"storyglow/internal/config"
	"storyglow/internal/particles"
	"storyglow/internal/timeline"
)

type phaseStyle struct {
	lines    []string
	fontSize float64
	anchor   float64
	color    color.RGBA
}

// Renderer produces one raster frame per call. The particle pools advance one
// simulation step per frame, so frames must be requested in strictly
// increasing order; RenderFrame enforces this.
type Renderer struct {
	width      int
	height     int
	fps        int
	lineHeight float64
	wrapWidth  float64
	fontFile   string

	phases []timeline.Phase
	styles map[string]phaseStyle

	coldTop    color.RGBA
	coldBottom color.RGBA
	warmTop    color.RGBA
	warmBottom color.RGBA

	base    *particles.Pool
	sparkle *particles.Pool

	faces map[float64]font.Face
	next  int
}

// New builds a renderer for one video. Colors are parsed up front so palette
// typos fail before any frame is drawn.
func New(cfg config.Config, spec config.VideoSpec, phases []timeline.Phase) (*Renderer, error) {
	if len(phases) == 0 {
		return nil, fmt.Errorf("empty timeline")
	}

	r := &Renderer{
		width:      cfg.Video.Width,
		height:     cfg.Video.Height,
		fps:        cfg.Video.FPS,
		lineHeight: cfg.Render.LineHeight,
		wrapWidth:  float64(cfg.Video.Width) * cfg.Render.TextWidth,
		fontFile:   cfg.Render.FontFile,
		phases:     phases,
		styles:     make(map[string]phaseStyle, len(spec.Phases)),
		faces:      make(map[float64]font.Face),
	}

	var err error
	if r.coldTop, err = ParseHex(spec.Palette.ColdTop); err != nil {
		return nil, fmt.Errorf("palette cold_top: %w", err)
	}
	if r.coldBottom, err = ParseHex(spec.Palette.ColdBottom); err != nil {
		return nil, fmt.Errorf("palette cold_bottom: %w", err)
	}
	if r.warmTop, err = ParseHex(spec.Palette.WarmTop); err != nil {
		return nil, fmt.Errorf("palette warm_top: %w", err)
	}
	if r.warmBottom, err = ParseHex(spec.Palette.WarmBottom); err != nil {
		return nil, fmt.Errorf("palette warm_bottom: %w", err)
	}

	for name, pt := range spec.Phases {
		c, err := ParseHex(pt.Color)
		if err != nil {
			return nil, fmt.Errorf("phase %q color: %w", name, err)
		}
		r.styles[name] = phaseStyle{
			lines:    pt.Lines,
			fontSize: pt.FontSize,
			anchor:   pt.Anchor,
			color:    c,
		}
	}

	particleColor, err := ParseHex(spec.Particles.Color)
	if err != nil {
		return nil, fmt.Errorf("particle color: %w", err)
	}
	seed := spec.Seed
	if seed == 0 {
		h := fnv.New64a()
		h.Write([]byte(spec.ID))
		seed = int64(h.Sum64())
	}

	var layer particles.LayerConfig
	switch spec.Particles.Style {
	case "bokeh":
		layer = particles.Bokeh(particleColor)
	default:
		layer = particles.Snow(particleColor)
	}
	r.base = particles.NewPool(layer, r.width, r.height, seed)

	if spec.Particles.Sparkle {
		sparkleColor, err := ParseHex(spec.Particles.SparkleColor)
		if err != nil {
			return nil, fmt.Errorf("sparkle color: %w", err)
		}
		r.sparkle = particles.NewPool(particles.Sparkle(sparkleColor), r.width, r.height, seed+1)
	}

	return r, nil
}

// TotalFrames returns the number of frames the renderer will produce.
func (r *Renderer) TotalFrames() int {
	return timeline.FrameCount(r.phases, r.fps)
}

// RenderFrame draws frame f. Frames must be requested in increasing order
// because particle motion is stateful in simulated time.
func (r *Renderer) RenderFrame(f int) (image.Image, error) {
	if f != r.next {
		return nil, fmt.Errorf("frames must be rendered in order: got %d, want %d", f, r.next)
	}
	r.next++

	t := float64(f) / float64(r.fps)
	phase, ok := timeline.PhaseAt(r.phases, t)
	if !ok {
		return nil, fmt.Errorf("frame %d (t=%.3fs) is outside the timeline", f, t)
	}
	warmth := Warmth(r.phases, t)

	dc := gg.NewContext(r.width, r.height)
	r.drawBackground(dc, warmth)

	r.base.Step()
	r.base.Draw(dc, 1)
	if r.sparkle != nil {
		r.sparkle.Step()
		r.sparkle.Draw(dc, warmth)
	}

	if style, ok := r.styles[phase.Name]; ok {
		if err := r.drawText(dc, style); err != nil {
			return nil, err
		}
	}

	return dc.Image(), nil
}

func (r *Renderer) drawBackground(dc *gg.Context, warmth float64) {
	top := Lerp(r.coldTop, r.warmTop, warmth)
	bottom := Lerp(r.coldBottom, r.warmBottom, warmth)

	grad := gg.NewLinearGradient(0, 0, 0, float64(r.height))
	grad.AddColorStop(0, top)
	grad.AddColorStop(1, bottom)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(r.width), float64(r.height))
	dc.Fill()
}

func (r *Renderer) drawText(dc *gg.Context, style phaseStyle) error {
	if len(style.lines) == 0 {
		return nil
	}
	if r.fontFile != "" {
		face, err := r.face(style.fontSize)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
	}

	measure := func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	}
	var lines []string
	for _, raw := range style.lines {
		lines = append(lines, WrapWords(raw, r.wrapWidth, measure)...)
	}
	if len(lines) == 0 {
		return nil
	}

	spacing := style.fontSize * r.lineHeight
	blockHeight := spacing * float64(len(lines))
	anchorY := style.anchor * float64(r.height)
	startY := anchorY - blockHeight/2 + spacing/2

	dc.SetColor(style.color)
	cx := float64(r.width) / 2
	for i, line := range lines {
		dc.DrawStringAnchored(line, cx, startY+float64(i)*spacing, 0.5, 0.5)
	}
	return nil
}

func (r *Renderer) face(size float64) (font.Face, error) {
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := gg.LoadFontFace(r.fontFile, size)
	if err != nil {
		return nil, fmt.Errorf("load font %s at %.0fpt: %w", r.fontFile, size, err)
	}
	r.faces[size] = f
	return f, nil
}
