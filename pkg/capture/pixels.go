package capture

import (
	"image"
	"time"

	"github.com/user/designstage/pkg/ports"
)

// toFrame copies img into a tightly packed frame buffer in format.
// The copy gives the frame its own backing array.
func toFrame(img *image.RGBA, format ports.PixelFormat, ts time.Duration) ports.Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := w * 4
	pix := make([]byte, stride*h)

	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+stride]
		dst := pix[y*stride : (y+1)*stride]
		if format == ports.PixelFormatRGBA32 {
			copy(dst, src)
			continue
		}
		for x := 0; x < stride; x += 4 {
			dst[x+0] = src[x+2]
			dst[x+1] = src[x+1]
			dst[x+2] = src[x+0]
			dst[x+3] = src[x+3]
		}
	}

	return ports.Frame{
		Pix:       pix,
		Stride:    stride,
		Width:     w,
		Height:    h,
		Format:    format,
		Timestamp: ts,
	}
}
