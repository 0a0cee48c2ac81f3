// Package rotate provides lossless quadrant rotation and arbitrary-angle
// rotation with canvas expansion for page images.
package rotate

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Quadrant rotates src clockwise by cw degrees (one of 0/90/180/270) using an
// exact pixel mapping; no resampling or quality loss. Other values fall back
// to Arbitrary.
func Quadrant(src image.Image, cw int) image.Image {
	cw = ((cw % 360) + 360) % 360
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch cw {
	case 0:
		return src
	case 90:
		dst := image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Set(h-1-y, x, src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	case 180:
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Set(w-1-x, h-1-y, src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	case 270:
		dst := image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Set(y, w-1-x, src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	}
	return Arbitrary(src, float64(cw))
}

// Arbitrary rotates src clockwise by deg degrees with bilinear resampling.
// The canvas expands so no content is clipped and new margin pixels are
// filled white.
func Arbitrary(src image.Image, deg float64) image.Image {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)

	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	nw := int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin)))
	nh := int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos)))
	if nw < 1 { nw = 1 }
	if nh < 1 { nh = 1 }

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	// src-to-dst affine transform: rotate about the source center, then
	// translate to the destination center. In image coordinates (y down) a
	// positive angle reads as a clockwise rotation on screen.
	cxSrc := float64(b.Min.X) + w/2
	cySrc := float64(b.Min.Y) + h/2
	cxDst := float64(nw) / 2
	cyDst := float64(nh) / 2

	m := f64.Aff3{
		cos, -sin, cxDst - cos*cxSrc + sin*cySrc,
		sin, cos, cyDst - sin*cxSrc - cos*cySrc,
	}
	xdraw.BiLinear.Transform(dst, m, src, b, xdraw.Over, nil)
	return dst
}
