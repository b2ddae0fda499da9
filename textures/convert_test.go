package textures

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 8))
	src.Set(5, 5, color.NRGBA{R: 255, A: 255})
	src.Set(6, 7, color.NRGBA{B: 255, A: 255})

	rgba := ToRGBA(src, false)
	assert.Equal(t, image.Rect(0, 0, 2, 3), rgba.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, rgba.RGBAAt(1, 2))

	flipped := ToRGBA(src, true)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, flipped.RGBAAt(0, 2))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, flipped.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{}, flipped.RGBAAt(1, 1))
}

func TestThumbnail(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 100))
	assert.Equal(t, image.Rect(0, 0, 64, 16), Thumbnail(src, 64).Bounds())

	tall := image.NewRGBA(image.Rect(0, 0, 10, 1000))
	assert.Equal(t, image.Rect(0, 0, 1, 64), Thumbnail(tall, 64).Bounds())
}
