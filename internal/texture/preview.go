package texture

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/chewxy/math32"
	"golang.org/x/image/tiff"
)

// Converts an RGBA32F texture into an 8 bit image. Fully zero texels stay transparent, any other texel
// is drawn opaque since the alpha channel of the atlas textures carries data rather than coverage.
func RGBAImage(size int, data []float32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < size*size; i++ {
		r, g, b, a := data[i*4], data[i*4+1], data[i*4+2], data[i*4+3]
		if r == 0 && g == 0 && b == 0 && a == 0 {
			continue
		}
		img.SetNRGBA(i%size, i/size, color.NRGBA{R: toByte(r), G: toByte(g), B: toByte(b), A: 255})
	}
	return img
}

// Converts a single channel texture in [0,1] into a 16 bit grey image
func GrayImage(size int, data []float32) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, size, size))
	for i := 0; i < size*size; i++ {
		v := clamp01(data[i])
		img.SetGray16(i%size, i/size, color.Gray16{Y: uint16(math32.Round(v * 65535))})
	}
	return img
}

// Writes a deflate compressed TIFF preview of a texture
func WritePreviewTIFF(filePath string, tex *Texture) error {
	var img image.Image
	switch tex.Format {
	case FormatRGBA32F:
		img = RGBAImage(tex.Size, tex.Data)
	case FormatR32F:
		img = GrayImage(tex.Size, tex.Data)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, tex.Format)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toByte(v float32) uint8 {
	return uint8(math32.Round(clamp01(v) * 255))
}

func clamp01(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	return math32.Max(0, math32.Min(1, v))
}
