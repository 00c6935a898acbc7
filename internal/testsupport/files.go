package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// MakePNG renders a width x height PNG with a simple gradient so resized
// output stays visually non-uniform.
func MakePNG(t testing.TB, width, height int) []byte {
	t.Helper()
	return encodeImage(t, width, height, func(buf *bytes.Buffer, img *image.RGBA) error {
		return png.Encode(buf, img)
	})
}

// MakeJPEG renders a width x height JPEG gradient.
func MakeJPEG(t testing.TB, width, height int) []byte {
	t.Helper()
	return encodeImage(t, width, height, func(buf *bytes.Buffer, img *image.RGBA) error {
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	})
}

func encodeImage(t testing.TB, width, height int, encode func(*bytes.Buffer, *image.RGBA) error) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / max(width, 1)),
				G: uint8(y * 255 / max(height, 1)),
				B: 128,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("encode fixture image: %v", err)
	}
	return buf.Bytes()
}
