package textures

import (
	"image"

	"golang.org/x/image/draw"
)

// ToRGBA copies img into a tightly packed RGBA image with origin at (0, 0).
// With flipY the last row comes first, the way GL expects texture data.
func ToRGBA(img image.Image, flipY bool) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	if flipY {
		stride := rgba.Stride
		tmp := make([]byte, stride)
		for top, bottom := 0, b.Dy()-1; top < bottom; top, bottom = top+1, bottom-1 {
			rowTop := rgba.Pix[top*stride : (top+1)*stride]
			rowBottom := rgba.Pix[bottom*stride : (bottom+1)*stride]
			copy(tmp, rowTop)
			copy(rowTop, rowBottom)
			copy(rowBottom, tmp)
		}
	}
	return rgba
}

// Thumbnail scales img to fit into size x size keeping proportions
func Thumbnail(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := size, size
	if b.Dx() > b.Dy() {
		h = size * b.Dy() / b.Dx()
	} else if b.Dy() > b.Dx() {
		w = size * b.Dx() / b.Dy()
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
