package image

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img so neither side exceeds maxDim, keeping the aspect
// ratio. Smaller images and maxDim <= 0 return img unchanged.
func Downsample(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) || w == 0 || h == 0 {
		return img
	}

	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
