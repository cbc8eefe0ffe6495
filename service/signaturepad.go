package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
)

// Signature pad canvas bounds, matching the dashboard's drawing surface.
const (
	PadWidth  = 600
	PadHeight = 250
)

var penColor = color.RGBA{R: 0x00, G: 0xFF, B: 0x94, A: 0xFF}

// Point is one sample of a freehand stroke, in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SignaturePad renders a signature onto a fixed-size canvas, either from
// freehand strokes or from an uploaded raster image. An untouched canvas
// is rejected at submit time, before any network call.
type SignaturePad struct {
	canvas *image.RGBA
	drawn  bool
}

func NewSignaturePad() *SignaturePad {
	pad := &SignaturePad{}
	pad.Clear()
	return pad
}

// Clear resets the canvas to its empty state.
func (p *SignaturePad) Clear() {
	p.canvas = image.NewRGBA(image.Rect(0, 0, PadWidth, PadHeight))
	p.drawn = false
}

// Empty reports whether nothing has been drawn or loaded yet.
func (p *SignaturePad) Empty() bool {
	return !p.drawn
}

// DrawStrokes renders freehand strokes onto the canvas. Points outside the
// canvas are clipped; a stroke with a single point draws a dot.
func (p *SignaturePad) DrawStrokes(strokes [][]Point) {
	for _, stroke := range strokes {
		if len(stroke) == 0 {
			continue
		}
		p.drawDot(stroke[0])
		for i := 1; i < len(stroke); i++ {
			p.drawSegment(stroke[i-1], stroke[i])
		}
		p.drawn = true
	}
}

// LoadImage decodes an uploaded raster image and draws it scaled to fit
// the canvas, preserving aspect ratio and centered. A non-image payload is
// rejected without touching the canvas.
func (p *SignaturePad) LoadImage(data []byte) error {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("unsupported file type %s: please upload an image file", contentType)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	srcW := float64(img.Bounds().Dx())
	srcH := float64(img.Bounds().Dy())
	if srcW == 0 || srcH == 0 {
		return fmt.Errorf("image has no pixels")
	}

	width, height := srcW, srcH
	if width > PadWidth {
		height = (PadWidth / width) * height
		width = PadWidth
	}
	if height > PadHeight {
		width = (PadHeight / height) * width
		height = PadHeight
	}

	x := (PadWidth - int(width)) / 2
	y := (PadHeight - int(height)) / 2
	dst := image.Rect(x, y, x+int(width), y+int(height))

	xdraw.ApproxBiLinear.Scale(p.canvas, dst, img, img.Bounds(), xdraw.Over, nil)
	p.drawn = true
	return nil
}

// DataURL encodes the canvas as a PNG data URL, the format the signature
// upload endpoint expects.
func (p *SignaturePad) DataURL() (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.canvas); err != nil {
		return "", fmt.Errorf("failed to encode signature: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// PNG returns the raw PNG bytes of the canvas, for archival.
func (p *SignaturePad) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.canvas); err != nil {
		return nil, fmt.Errorf("failed to encode signature: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *SignaturePad) drawSegment(from, to Point) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		p.drawDot(to)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p.drawDot(Point{X: from.X + dx*t, Y: from.Y + dy*t})
	}
}

// drawDot paints a 2px-radius pen dot, clipped to the canvas.
func (p *SignaturePad) drawDot(pt Point) {
	cx := int(math.Round(pt.X))
	cy := int(math.Round(pt.Y))
	for x := cx - 1; x <= cx+1; x++ {
		for y := cy - 1; y <= cy+1; y++ {
			if x >= 0 && x < PadWidth && y >= 0 && y < PadHeight {
				p.canvas.SetRGBA(x, y, penColor)
			}
		}
	}
}
