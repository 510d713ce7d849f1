package display

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math/bits"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
)

// TakeScreenshot captures the root window of the screen holding the pointer.
//
// The captured pixels are written to a temporary PNG and read back into a
// fresh image instead of being kept as a server-backed surface. A live
// surface follows the server: after a virtual desktop switch it shows the
// new desktop rather than the one that was captured.
func (g *Gateway) TakeScreenshot() (*image.RGBA, error) {
	const op = "take screenshot"
	log := logger.WithComponent("display")

	conn, err := g.connect(op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	screen, err := pointerScreen(conn, setup, op)
	if err != nil {
		return nil, err
	}

	geom, err := xproto.GetGeometry(conn, xproto.Drawable(screen.Root)).Reply()
	if err != nil {
		return nil, newError(ProtocolFailure, op, fmt.Errorf("get geometry: %w", err))
	}

	visual, ok := FindVisual(setup, screen.RootVisual)
	if !ok {
		return nil, newError(ResourceUnavailable, op, fmt.Errorf("no visual type for root visual 0x%x", screen.RootVisual))
	}

	reply, err := xproto.GetImage(
		conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(screen.Root),
		0, 0,
		geom.Width, geom.Height,
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, newError(ProtocolFailure, op, fmt.Errorf("get image: %w", err))
	}

	log.Debug().
		Uint16("width", geom.Width).
		Uint16("height", geom.Height).
		Uint8("depth", reply.Depth).
		Int("bytes", len(reply.Data)).
		Msg("Captured root window")

	format, ok := pixmapFormat(setup, reply.Depth)
	if !ok {
		return nil, newError(ResourceUnavailable, op, fmt.Errorf("no pixmap format for depth %d", reply.Depth))
	}

	captured, err := decodeZPixmap(reply.Data, int(geom.Width), int(geom.Height), format, visual, setup.ImageByteOrder)
	if err != nil {
		return nil, newError(KindOf(err), op, err)
	}

	img, err := materialize(captured)
	if err != nil {
		return nil, newError(IoFailure, op, err)
	}

	log.Info().
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Screenshot taken")

	return img, nil
}

// pixmapFormat finds the server's pixmap format for a depth
func pixmapFormat(setup *xproto.SetupInfo, depth byte) (xproto.Format, bool) {
	for _, format := range setup.PixmapFormats {
		if format.Depth == depth {
			return format, true
		}
	}
	return xproto.Format{}, false
}

// decodeZPixmap converts ZPixmap data to RGBA using the visual's channel
// masks. Rows are padded to the format's scanline pad.
func decodeZPixmap(data []byte, width, height int, format xproto.Format, visual *xproto.VisualInfo, byteOrder byte) (*image.RGBA, error) {
	bpp := int(format.BitsPerPixel)
	if bpp != 16 && bpp != 24 && bpp != 32 {
		return nil, &Error{Kind: ResourceUnavailable, Err: fmt.Errorf("unsupported bits per pixel: %d", bpp)}
	}
	bytesPerPixel := bpp / 8

	pad := int(format.ScanlinePad)
	if pad == 0 {
		pad = 8
	}
	stride := ((width*bpp + pad - 1) / pad) * pad / 8

	if len(data) < stride*height {
		return nil, &Error{Kind: ProtocolFailure, Err: fmt.Errorf("short image data: got %d bytes, want %d", len(data), stride*height)}
	}

	red := newChannel(visual.RedMask)
	green := newChannel(visual.GreenMask)
	blue := newChannel(visual.BlueMask)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			px := readPixel(row[x*bytesPerPixel:x*bytesPerPixel+bytesPerPixel], byteOrder)
			i := img.PixOffset(x, y)
			img.Pix[i+0] = red.extract(px)
			img.Pix[i+1] = green.extract(px)
			img.Pix[i+2] = blue.extract(px)
			img.Pix[i+3] = 0xff
		}
	}

	return img, nil
}

func readPixel(b []byte, byteOrder byte) uint32 {
	var v uint32
	if byteOrder == xproto.ImageOrderMSBFirst {
		for _, c := range b {
			v = v<<8 | uint32(c)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}

// channel extracts one colour component from a pixel value
type channel struct {
	mask  uint32
	shift int
	max   uint32
}

func newChannel(mask uint32) channel {
	if mask == 0 {
		return channel{}
	}
	shift := bits.TrailingZeros32(mask)
	return channel{
		mask:  mask,
		shift: shift,
		max:   mask >> uint(shift),
	}
}

func (c channel) extract(px uint32) uint8 {
	if c.max == 0 {
		return 0
	}
	v := (px & c.mask) >> uint(c.shift)
	if c.max == 0xff {
		return uint8(v)
	}
	return uint8(v * 0xff / c.max)
}

// materialize round-trips the image through a temporary PNG file and returns
// the reloaded copy. The file is removed before returning.
func materialize(img image.Image) (*image.RGBA, error) {
	f, err := os.CreateTemp("", "screenshot.*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reopen temp file: %w", err)
	}
	defer r.Close()

	decoded, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}

	return toRGBA(decoded), nil
}

// toRGBA returns img as an *image.RGBA anchored at the origin
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
