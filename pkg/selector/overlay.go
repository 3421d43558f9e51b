package selector

import (
	"fmt"
	"image"
	"image/color"

	"github.com/user/designstage/pkg/ports"
)

var (
	outlineColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelBgColor = color.RGBA{R: 0, G: 0, B: 0, A: 160}
)

// Label formats a region's size as shown above the rectangle.
func Label(r ports.Region) string {
	return fmt.Sprintf("%d × %d", r.Width, r.Height)
}

// presentLocked renders the overlay for the current drag state and hands
// it to the surface.
func (s *Selector) presentLocked() {
	img := s.renderOverlay()
	if err := s.surface.Present(img); err != nil {
		s.logger.Warn("Overlay present failed: %s", err.Error())
	}

	if s.sink != nil && s.sink.Enabled() {
		if err := s.sink.SaveSelectionFrame(s.frames, img); err != nil {
			s.logger.Warn("Debug sink write failed: %s", err.Error())
		}
	}
	s.frames++
}

// renderOverlay draws the dim layer around the selection, its outline and
// the size label, in surface pixels with a top-left origin.
func (s *Selector) renderOverlay() image.Image {
	w, h := s.bounds.Dx(), s.bounds.Dy()
	canvas := s.renderer.CreateCanvas(w, h, color.Transparent)
	dim := color.RGBA{A: uint8(s.opts.DimOpacity * 255)}

	if !s.dragging || s.rect.Empty() {
		canvas.DrawRect(0, 0, w, h, dim)
		return canvas.ToImage()
	}

	r := s.rect
	x, y := r.X-s.bounds.Min.X, r.Y-s.bounds.Min.Y

	// Dim everything except the selection.
	canvas.DrawRect(0, 0, w, y, dim)
	canvas.DrawRect(0, y+r.Height, w, h-y-r.Height, dim)
	canvas.DrawRect(0, y, x, r.Height, dim)
	canvas.DrawRect(x+r.Width, y, w-x-r.Width, r.Height, dim)

	canvas.DrawRectStroke(x, y, r.Width, r.Height, outlineColor, 2)

	style := ports.TextStyle{
		FontSize: s.opts.FontSize,
		Color:    labelColor,
		Align:    ports.AlignCenter,
	}
	text := Label(r)
	tw, th := canvas.MeasureText(text, style)
	cx := x + r.Width/2
	cy := y - s.opts.LabelOffset - int(th)/2

	pad := 4
	canvas.DrawRect(cx-int(tw)/2-pad, cy-int(th)/2-pad, int(tw)+2*pad, int(th)+2*pad, labelBgColor)
	canvas.DrawText(text, cx, cy, style)

	return canvas.ToImage()
}
