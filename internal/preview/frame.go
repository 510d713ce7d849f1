package preview

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/image/draw"
)

// putImageHeader is the fixed part of a PutImage request in bytes
const putImageHeader = 24

// FitSize scales src down to fit within limit keeping its aspect ratio.
// Images that already fit are returned unchanged.
func FitSize(src, limit image.Point) image.Point {
	if src.X <= 0 || src.Y <= 0 {
		return image.Point{}
	}
	if src.X <= limit.X && src.Y <= limit.Y {
		return src
	}
	return fitRect(src, limit).Size()
}

// fitRect returns the largest rectangle with src's aspect ratio centred
// inside a box of the given size
func fitRect(src, box image.Point) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 || box.X <= 0 || box.Y <= 0 {
		return image.Rectangle{}
	}

	scale := float64(box.X) / float64(src.X)
	if sy := float64(box.Y) / float64(src.Y); sy < scale {
		scale = sy
	}

	w := int(float64(src.X) * scale)
	h := int(float64(src.Y) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x := (box.X - w) / 2
	y := (box.Y - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// compose letterboxes img onto a black canvas of the given size
func compose(img image.Image, size image.Point) *image.RGBA {
	out := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(out, out.Bounds(), image.Black, image.Point{}, draw.Src)

	dst := fitRect(img.Bounds().Size(), size)
	if dst.Empty() {
		return out
	}
	draw.ApproxBiLinear.Scale(out, dst, img, img.Bounds(), draw.Src, nil)
	return out
}

// pixelLayout describes how the server expects ZPixmap data for the window
type pixelLayout struct {
	bitsPerPixel int
	scanlinePad  int
	byteOrder    byte
	red          uint32
	green        uint32
	blue         uint32
}

func (l pixelLayout) stride(width int) int {
	pad := l.scanlinePad
	if pad == 0 {
		pad = 8
	}
	return ((width*l.bitsPerPixel + pad - 1) / pad) * pad / 8
}

// encodeZPixmap packs img into the server's pixel layout
func encodeZPixmap(img *image.RGBA, layout pixelLayout) ([]byte, error) {
	bpp := layout.bitsPerPixel
	if bpp != 16 && bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported bits per pixel: %d", bpp)
	}
	bytesPerPixel := bpp / 8

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	stride := layout.stride(width)
	data := make([]byte, stride*height)

	red := newChannel(layout.red)
	green := newChannel(layout.green)
	blue := newChannel(layout.blue)

	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			i := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			px := red.pack(img.Pix[i]) | green.pack(img.Pix[i+1]) | blue.pack(img.Pix[i+2])
			writePixel(row[x*bytesPerPixel:x*bytesPerPixel+bytesPerPixel], px, layout.byteOrder)
		}
	}
	return data, nil
}

func writePixel(b []byte, px uint32, byteOrder byte) {
	n := len(b)
	for i := 0; i < n; i++ {
		v := byte(px >> (8 * uint(i)))
		if byteOrder == xproto.ImageOrderMSBFirst {
			b[n-1-i] = v
		} else {
			b[i] = v
		}
	}
}

type channel struct {
	shift int
	max   uint32
}

func newChannel(mask uint32) channel {
	if mask == 0 {
		return channel{}
	}
	shift := bits.TrailingZeros32(mask)
	return channel{shift: shift, max: mask >> uint(shift)}
}

func (c channel) pack(v uint8) uint32 {
	if c.max == 0 {
		return 0
	}
	scaled := uint32(v)
	if c.max != 0xff {
		scaled = (uint32(v)*c.max + 0x7f) / 0xff
	}
	return scaled << uint(c.shift)
}

// bands splits height rows into runs that each fit in one request.
// maxRequest is the server's maximum request length in bytes.
func bands(height, stride, maxRequest int) [][2]int {
	rows := height
	if stride > 0 && maxRequest > putImageHeader {
		rows = (maxRequest - putImageHeader) / stride
	}
	if rows < 1 {
		rows = 1
	}

	var out [][2]int
	for y := 0; y < height; y += rows {
		end := y + rows
		if end > height {
			end = height
		}
		out = append(out, [2]int{y, end})
	}
	return out
}
