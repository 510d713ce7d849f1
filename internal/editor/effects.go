package editor

import (
	"image"
)

// blurPasses repeated box blurs approximate a gaussian
const blurPasses = 3

// pixelate fills r in dst with block averages of the same pixels in base.
// dst is a tightly packed RGBA buffer the size of base.
func pixelate(base *image.RGBA, dst []uint8, r image.Rectangle, block int) {
	r = r.Intersect(base.Bounds())
	if r.Empty() {
		return
	}
	if block < 1 {
		block = 1
	}
	stride := base.Bounds().Dx() * 4

	for by := r.Min.Y; by < r.Max.Y; by += block {
		for bx := r.Min.X; bx < r.Max.X; bx += block {
			cell := image.Rect(bx, by, bx+block, by+block).Intersect(r)

			var sum [4]int
			for y := cell.Min.Y; y < cell.Max.Y; y++ {
				i := base.PixOffset(cell.Min.X, y)
				for x := cell.Min.X; x < cell.Max.X; x++ {
					sum[0] += int(base.Pix[i+0])
					sum[1] += int(base.Pix[i+1])
					sum[2] += int(base.Pix[i+2])
					sum[3] += int(base.Pix[i+3])
					i += 4
				}
			}

			n := cell.Dx() * cell.Dy()
			var avg [4]uint8
			for c := range avg {
				avg[c] = uint8((sum[c] + n/2) / n)
			}

			for y := cell.Min.Y; y < cell.Max.Y; y++ {
				i := y*stride + cell.Min.X*4
				for x := cell.Min.X; x < cell.Max.X; x++ {
					copy(dst[i:i+4], avg[:])
					i += 4
				}
			}
		}
	}
}

// blur fills r in dst with a box-blurred copy of the same pixels in base.
// Samples outside r are never read; edges are clamped.
func blur(base *image.RGBA, dst []uint8, r image.Rectangle, radius int) {
	r = r.Intersect(base.Bounds())
	if r.Empty() {
		return
	}
	w, h := r.Dx(), r.Dy()
	rowLen := w * 4

	buf := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		i := base.PixOffset(r.Min.X, r.Min.Y+y)
		copy(buf[y*rowLen:(y+1)*rowLen], base.Pix[i:i+rowLen])
	}

	if radius > 0 {
		tmp := make([]uint8, len(buf))
		for pass := 0; pass < blurPasses; pass++ {
			for y := 0; y < h; y++ {
				boxBlurLine(buf, tmp, y*rowLen, w, 4, radius)
			}
			for x := 0; x < w; x++ {
				boxBlurLine(tmp, buf, x*4, h, rowLen, radius)
			}
		}
	}

	stride := base.Bounds().Dx() * 4
	for y := 0; y < h; y++ {
		i := (r.Min.Y+y)*stride + r.Min.X*4
		copy(dst[i:i+rowLen], buf[y*rowLen:(y+1)*rowLen])
	}
}

// boxBlurLine blurs n pixels of src into dst, starting at start and stepping
// by step bytes per pixel, using a running sum over a 2*radius+1 window
func boxBlurLine(src, dst []uint8, start, n, step, radius int) {
	div := 2*radius + 1
	for c := 0; c < 4; c++ {
		at := func(i int) int {
			if i < 0 {
				i = 0
			} else if i >= n {
				i = n - 1
			}
			return int(src[start+i*step+c])
		}

		sum := 0
		for i := -radius; i <= radius; i++ {
			sum += at(i)
		}
		for i := 0; i < n; i++ {
			dst[start+i*step+c] = uint8((sum + div/2) / div)
			sum += at(i+radius+1) - at(i-radius)
		}
	}
}
