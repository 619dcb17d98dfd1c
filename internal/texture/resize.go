package texture

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample shrinks an image so neither dimension exceeds maxDim,
// preserving aspect ratio. Alpha is premultiplied before filtering to
// avoid dark halos at transparent edges, then unpremultiplied.
func Downsample(img *image.NRGBA, maxDim int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dw := int(float64(w)*scale + 0.5)
	dh := int(float64(h)*scale + 0.5)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	// Premultiply alpha
	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			premul.Pix[di] = uint8(float64(img.Pix[si])*a + 0.5)
			premul.Pix[di+1] = uint8(float64(img.Pix[si+1])*a + 0.5)
			premul.Pix[di+2] = uint8(float64(img.Pix[si+2])*a + 0.5)
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	// Unpremultiply alpha
	result := image.NewNRGBA(dst.Bounds())
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			si := dst.PixOffset(x, y)
			di := result.PixOffset(x, y)
			a := dst.Pix[si+3]
			if a == 0 {
				continue
			}
			af := 255.0 / float64(a)
			result.Pix[di] = clamp8(float64(dst.Pix[si]) * af)
			result.Pix[di+1] = clamp8(float64(dst.Pix[si+1]) * af)
			result.Pix[di+2] = clamp8(float64(dst.Pix[si+2]) * af)
			result.Pix[di+3] = a
		}
	}
	return result
}

func clamp8(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v + 0.5)
}
