package editor

import (
	"image"
	"image/color"
	"testing"

	"github.com/bryanchriswhite/ShotMark/internal/model"
	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c model.Colour) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{c.Red, c.Green, c.Blue, c.Alpha})
		}
	}
	return img
}

// gradientImage has a distinct colour at almost every pixel
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 5), uint8(y * 7), uint8((x * y) % 251), 255})
		}
	}
	return img
}

func drag(s *OperationStack, tool Tool, from, to model.Point) {
	s.SetCurrentTool(tool)
	s.StartOperationAt(from)
	s.UpdateCurrentOperationEndCoordinate(to.X, to.Y)
	s.FinishCurrentOperation()
}

func TestRenderWithoutOperationsCopiesBase(t *testing.T) {
	base := gradientImage(20, 10)
	out, err := NewOperationStack().Render(base, true)
	require.NoError(t, err)
	assert.Equal(t, base.Pix, out.Pix)
	assert.NotSame(t, base, out)
}

func TestRenderHandlesOffsetBase(t *testing.T) {
	full := gradientImage(20, 20)
	sub := full.SubImage(image.Rect(5, 5, 15, 15)).(*image.RGBA)

	out, err := NewOperationStack().Render(sub, false)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
	assert.Equal(t, full.RGBAAt(5, 5), out.RGBAAt(0, 0))
}

func TestExecuteRejectsMismatchedContext(t *testing.T) {
	dc := gg.NewContext(4, 4)
	defer dc.Close()
	err := NewOperationStack().Execute(gradientImage(5, 5), dc, false)
	assert.Error(t, err)
}

func TestRenderIsDeterministic(t *testing.T) {
	base := gradientImage(120, 90)
	s := NewOperationStack()

	drag(s, ToolLine, model.Point{X: 5, Y: 5}, model.Point{X: 100, Y: 60})
	drag(s, ToolArrow, model.Point{X: 10, Y: 80}, model.Point{X: 60, Y: 20})
	drag(s, ToolRectangle, model.Point{X: 70, Y: 70}, model.Point{X: 20, Y: 30})
	drag(s, ToolEllipse, model.Point{X: 30, Y: 30}, model.Point{X: 90, Y: 80})
	s.SetPrimaryColour(model.Colour{Red: 255, Green: 255, Alpha: 100})
	drag(s, ToolHighlight, model.Point{X: 0, Y: 0}, model.Point{X: 50, Y: 20})
	drag(s, ToolPixelate, model.Point{X: 60, Y: 10}, model.Point{X: 110, Y: 50})
	drag(s, ToolBlur, model.Point{X: 0, Y: 50}, model.Point{X: 40, Y: 90})
	drag(s, ToolAutoincrementBubble, model.Point{X: 80, Y: 40}, model.Point{X: 80, Y: 40})
	s.SetCurrentTool(ToolText)
	s.StartOperationAt(model.Point{X: 10, Y: 10})
	s.SetText("note\nsecond line")

	first, err := s.Render(base, false)
	require.NoError(t, err)
	second, err := s.Render(base, false)
	require.NoError(t, err)

	assert.Equal(t, first.Pix, second.Pix)
	assert.NotEqual(t, base.Pix, first.Pix)
}

func TestRenderDoesNotModifyBase(t *testing.T) {
	base := gradientImage(40, 40)
	before := append([]uint8(nil), base.Pix...)

	s := NewOperationStack()
	drag(s, ToolBlur, model.Point{X: 0, Y: 0}, model.Point{X: 40, Y: 40})
	drag(s, ToolLine, model.Point{X: 0, Y: 0}, model.Point{X: 40, Y: 40})

	_, err := s.Render(base, false)
	require.NoError(t, err)
	assert.Equal(t, before, base.Pix)
}

func TestLiveIncludesInProgress(t *testing.T) {
	base := solidImage(30, 30, model.White)
	s := NewOperationStack()
	s.SetCurrentTool(ToolRectangle)
	s.SetSecondaryColour(model.Colour{Blue: 255, Alpha: 255})
	s.StartOperationAt(model.Point{X: 5, Y: 5})
	s.UpdateCurrentOperationEndCoordinate(25, 25)

	committed, err := s.Render(base, false)
	require.NoError(t, err)
	live, err := s.Render(base, true)
	require.NoError(t, err)

	assert.Equal(t, base.Pix, committed.Pix)
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, live.RGBAAt(15, 15))
}

func TestBoxWithoutFillLeavesInterior(t *testing.T) {
	base := solidImage(30, 30, model.White)
	s := NewOperationStack()
	drag(s, ToolRectangle, model.Point{X: 5, Y: 5}, model.Point{X: 25, Y: 25})

	out, err := s.Render(base, false)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(15, 15))
	assert.NotEqual(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(5, 15))
}

func TestBubbleNumbersFollowCommitOrder(t *testing.T) {
	base := solidImage(200, 100, model.White)
	s := NewOperationStack()

	for i := 0; i < 5; i++ {
		x := float64(20 + i*35)
		drag(s, ToolAutoincrementBubble, model.Point{X: x, Y: 30}, model.Point{X: x, Y: 30})
		drag(s, ToolLine, model.Point{X: x, Y: 60}, model.Point{X: x + 10, Y: 90})
		if i == 2 {
			drag(s, ToolPixelate, model.Point{X: 0, Y: 0}, model.Point{X: 10, Y: 10})
		}
	}

	dc := gg.NewContext(200, 100)
	defer dc.Close()
	p, err := s.replay(base, dc, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, p.labels)

	// numbering restarts on every replay
	p, err = s.replay(base, dc, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, p.labels)
}

func TestLiveBubbleContinuesNumbering(t *testing.T) {
	base := solidImage(100, 100, model.White)
	s := NewOperationStack()
	drag(s, ToolAutoincrementBubble, model.Point{X: 20, Y: 20}, model.Point{X: 20, Y: 20})
	s.StartOperationAt(model.Point{X: 60, Y: 60})

	dc := gg.NewContext(100, 100)
	defer dc.Close()
	p, err := s.replay(base, dc, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, p.labels)
}

func TestPixelateAndBlurDoNotCompound(t *testing.T) {
	for _, tool := range []Tool{ToolPixelate, ToolBlur} {
		t.Run(tool.String(), func(t *testing.T) {
			base := gradientImage(60, 60)

			live := NewOperationStack()
			live.SetCurrentTool(tool)
			live.StartOperationAt(model.Point{X: 0, Y: 0})
			live.UpdateCurrentOperationEndCoordinate(50, 50)
			_, err := live.Render(base, true)
			require.NoError(t, err)
			live.UpdateCurrentOperationEndCoordinate(30, 30)
			shrunk, err := live.Render(base, true)
			require.NoError(t, err)

			fresh := NewOperationStack()
			drag(fresh, tool, model.Point{X: 0, Y: 0}, model.Point{X: 30, Y: 30})
			want, err := fresh.Render(base, false)
			require.NoError(t, err)

			assert.Equal(t, want.Pix, shrunk.Pix)
			assert.Equal(t, base.RGBAAt(40, 40), shrunk.RGBAAt(40, 40))
			assert.NotEqual(t, base.RGBAAt(3, 3), shrunk.RGBAAt(3, 3))
		})
	}
}

func TestStackedPixelateSamplesBase(t *testing.T) {
	base := gradientImage(40, 40)

	once := NewOperationStack()
	drag(once, ToolPixelate, model.Point{X: 0, Y: 0}, model.Point{X: 40, Y: 40})
	want, err := once.Render(base, false)
	require.NoError(t, err)

	twice := NewOperationStack()
	drag(twice, ToolPixelate, model.Point{X: 0, Y: 0}, model.Point{X: 40, Y: 40})
	drag(twice, ToolPixelate, model.Point{X: 0, Y: 0}, model.Point{X: 40, Y: 40})
	got, err := twice.Render(base, false)
	require.NoError(t, err)

	assert.Equal(t, want.Pix, got.Pix)
}

func TestPixelateBlockAverage(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 2, 1))
	base.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})
	base.SetRGBA(1, 0, color.RGBA{200, 100, 50, 255})

	dst := make([]uint8, len(base.Pix))
	pixelate(base, dst, base.Bounds(), 2)
	assert.Equal(t, []uint8{100, 50, 25, 255, 100, 50, 25, 255}, dst)
}

func TestBlurUniformRegionUnchanged(t *testing.T) {
	base := solidImage(16, 16, model.Colour{Red: 10, Green: 20, Blue: 30, Alpha: 255})
	dst := make([]uint8, len(base.Pix))
	blur(base, dst, image.Rect(2, 2, 14, 14), 3)

	i := base.PixOffset(8, 8)
	assert.Equal(t, base.Pix[i:i+4], dst[i:i+4])
	// outside the box nothing is written
	assert.Equal(t, []uint8{0, 0, 0, 0}, dst[0:4])
}

func TestEffectsClipToImage(t *testing.T) {
	base := gradientImage(10, 10)
	dst := make([]uint8, len(base.Pix))
	assert.NotPanics(t, func() {
		pixelate(base, dst, image.Rect(-5, -5, 50, 50), 4)
		blur(base, dst, image.Rect(8, 8, 30, 30), 2)
		blur(base, dst, image.Rect(20, 20, 30, 30), 2)
	})
}

func TestParseFontDescription(t *testing.T) {
	tests := []struct {
		in   string
		want FontDescription
	}{
		{"", DefaultFont()},
		{"Sans Bold 14", FontDescription{Family: "Sans", Bold: true, Size: 14}},
		{"Mono Bold Italic 9.5", FontDescription{Family: "Mono", Bold: true, Italic: true, Size: 9.5}},
		{"Serif", FontDescription{Family: "Serif", Size: DefaultFont().Size}},
		{"Go Mono 12", FontDescription{Family: "Go Mono", Size: 12}},
	}
	for _, tt := range tests {
		got, err := ParseFontDescription(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFontDescription("Sans -3")
	assert.Error(t, err)

	assert.Equal(t, "Sans Bold Italic 14", FontDescription{Family: "Sans", Bold: true, Italic: true, Size: 14}.String())
}

func TestFontCacheReusesSources(t *testing.T) {
	c := newFontCache()
	_, err := c.face(FontDescription{Family: "Sans", Size: 10})
	require.NoError(t, err)
	_, err = c.face(FontDescription{Family: "Sans", Size: 20})
	require.NoError(t, err)
	_, err = c.face(FontDescription{Family: "Mono", Size: 10})
	require.NoError(t, err)
	assert.Len(t, c.sources, 2)
}
