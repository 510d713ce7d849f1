package editor

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/bryanchriswhite/ShotMark/internal/model"
	"github.com/gogpu/gg"
)

// ErrBusy is returned when the stack or session is called from inside
// another call on it, such as from a redraw callback or a post-capture action
var ErrBusy = errors.New("operation stack is busy")

// painter carries the state of one replay
type painter struct {
	dc   *gg.Context
	base *image.RGBA
	// pix is the context's pixel buffer, written directly by pixelate and blur
	pix   []uint8
	fonts *fontCache

	bubbles int
	labels  []string
}

// Execute paints base into dc, replays the committed operations in order, and
// then the in-progress operation when live is set. dc must be the size of
// base. The same base and operations always produce the same pixels.
func (s *OperationStack) Execute(base *image.RGBA, dc *gg.Context, live bool) error {
	if !s.enter("Execute") {
		return ErrBusy
	}
	defer s.leave()

	_, err := s.replay(base, dc, live)
	return err
}

func (s *OperationStack) replay(base *image.RGBA, dc *gg.Context, live bool) (*painter, error) {
	base = originAligned(base)
	bounds := base.Bounds()
	if dc.Width() != bounds.Dx() || dc.Height() != bounds.Dy() {
		return nil, fmt.Errorf("context is %dx%d but image is %dx%d", dc.Width(), dc.Height(), bounds.Dx(), bounds.Dy())
	}

	pix := dc.ResizeTarget().Data()
	rowLen := bounds.Dx() * 4
	for y := 0; y < bounds.Dy(); y++ {
		i := base.PixOffset(0, y)
		copy(pix[y*rowLen:(y+1)*rowLen], base.Pix[i:i+rowLen])
	}

	if s.fonts == nil {
		s.fonts = newFontCache()
	}
	p := &painter{
		dc:    dc,
		base:  base,
		pix:   pix,
		fonts: s.fonts,
	}

	for i, op := range s.operations {
		if err := op.render(p); err != nil {
			return p, fmt.Errorf("render operation %d (%s): %w", i, op.Tool(), err)
		}
	}

	if live && s.current != nil {
		if err := s.current.render(p); err != nil {
			return p, fmt.Errorf("render in-progress %s: %w", s.current.Tool(), err)
		}
	}

	return p, nil
}

// Render replays the stack over base into a new image
func (s *OperationStack) Render(base *image.RGBA, live bool) (*image.RGBA, error) {
	if !s.enter("Render") {
		return nil, ErrBusy
	}
	defer s.leave()
	return s.renderImage(base, live)
}

func (s *OperationStack) renderImage(base *image.RGBA, live bool) (*image.RGBA, error) {
	bounds := base.Bounds()
	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	defer dc.Close()

	if _, err := s.replay(base, dc, live); err != nil {
		return nil, err
	}
	return dc.ResizeTarget().ToImage(), nil
}

// originAligned returns img, or a copy of it whose bounds start at 0,0
func originAligned(img *image.RGBA) *image.RGBA {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func (p *painter) stroke(c model.Colour, width float64) error {
	p.dc.SetColor(c.NRGBA())
	p.dc.SetLineWidth(width)
	return p.dc.Stroke()
}

func (p *painter) fill(c model.Colour) error {
	p.dc.SetColor(c.NRGBA())
	return p.dc.Fill()
}

func (l *Line) render(p *painter) error {
	p.dc.DrawLine(l.Start.X, l.Start.Y, l.End.X, l.End.Y)
	return p.stroke(l.Colour, l.Width)
}

func (a *Arrow) render(p *painter) error {
	p.dc.DrawLine(a.Start.X, a.Start.Y, a.End.X, a.End.Y)
	if err := p.stroke(a.Colour, a.Width); err != nil {
		return err
	}
	if a.Start == a.End {
		return nil
	}

	angle := math.Atan2(a.End.Y-a.Start.Y, a.End.X-a.Start.X)
	size := 6 + a.Width*3
	for _, side := range []float64{math.Pi / 6, -math.Pi / 6} {
		x := a.End.X - math.Cos(angle+side)*size
		y := a.End.Y - math.Sin(angle+side)*size
		p.dc.DrawLine(a.End.X, a.End.Y, x, y)
	}
	return p.stroke(a.Colour, a.Width)
}

func (b *Box) render(p *painter) error {
	r := b.Bounds()
	if b.Fill.Alpha > 0 {
		p.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
		if err := p.fill(b.Fill); err != nil {
			return err
		}
	}
	p.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	return p.stroke(b.Outline, b.Width)
}

func (e *Ellipse) render(p *painter) error {
	r := e.Bounds()
	if r.Empty() {
		return nil
	}
	c := r.Center()
	if e.Fill.Alpha > 0 {
		p.dc.DrawEllipse(c.X, c.Y, r.W/2, r.H/2)
		if err := p.fill(e.Fill); err != nil {
			return err
		}
	}
	p.dc.DrawEllipse(c.X, c.Y, r.W/2, r.H/2)
	return p.stroke(e.Outline, e.Width)
}

func (h *Highlight) render(p *painter) error {
	r := h.Bounds()
	if r.Empty() {
		return nil
	}
	p.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	return p.fill(h.Colour)
}

func (px *Pixelate) render(p *painter) error {
	pixelate(p.base, p.pix, px.Bounds().Image(), px.BlockSize)
	return nil
}

func (b *Blur) render(p *painter) error {
	blur(p.base, p.pix, b.Bounds().Image(), b.Radius)
	return nil
}

func (b *Bubble) render(p *painter) error {
	p.bubbles++
	label := strconv.Itoa(p.bubbles)
	p.labels = append(p.labels, label)

	p.dc.DrawCircle(b.Start.X, b.Start.Y, b.Radius)
	if err := p.fill(b.Colour); err != nil {
		return err
	}

	face, err := p.fonts.face(FontDescription{Family: "Sans", Bold: true, Size: b.Radius})
	if err != nil {
		return err
	}
	ink := model.White
	if b.Colour.Luminance() > 0.5 {
		ink = model.Black
	}

	p.dc.SetFont(face)
	p.dc.SetColor(ink.NRGBA())
	w, _ := p.dc.MeasureString(label)
	m := face.Metrics()
	p.dc.DrawString(label, b.Start.X-w/2, b.Start.Y+(m.Ascent-m.Descent)/2)
	return nil
}

func (t *Text) render(p *painter) error {
	if t.Text == "" {
		return nil
	}
	face, err := p.fonts.face(t.Font)
	if err != nil {
		return err
	}

	p.dc.SetFont(face)
	p.dc.SetColor(t.Colour.NRGBA())
	m := face.Metrics()
	for i, line := range strings.Split(t.Text, "\n") {
		p.dc.DrawString(line, t.Start.X, t.Start.Y+m.Ascent+float64(i)*m.LineHeight())
	}
	return nil
}
