package winsurface

import (
	"image"

	"golang.org/x/image/draw"
)

// premultipliedBGRA lays img out as a w×h top-down premultiplied BGRA
// buffer, the format UpdateLayeredWindow expects. Fully transparent pixels
// keep an alpha of 1 so the window still receives input over them.
func premultipliedBGRA(img image.Image, w, h int) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if img != nil {
		draw.Copy(dst, image.Point{}, img, img.Bounds(), draw.Src, nil)
	}

	pix := dst.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
		if pix[i+3] == 0 {
			pix[i+3] = 1
		}
	}
	return pix
}
