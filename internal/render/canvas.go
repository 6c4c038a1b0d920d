package render

import (
	"image"
	"image/color"
	"math"
)

// Canvas writes simple primitives straight into an RGBA pixel buffer.
// It skips gg.Context path building for the background, grid and bullets,
// which make up most of the pixels in a frame.
type Canvas struct {
	buffer []byte
	width  int
	height int
	stride int
}

// NewCanvas wraps img's pixels. Drawing on the canvas mutates img.
func NewCanvas(img *image.RGBA) *Canvas {
	b := img.Bounds()
	return &Canvas{
		buffer: img.Pix,
		width:  b.Dx(),
		height: b.Dy(),
		stride: img.Stride,
	}
}

// Clear fills the entire buffer with a solid color
func (c *Canvas) Clear(col color.RGBA) {
	for i := 0; i+3 < len(c.buffer); i += 4 {
		c.buffer[i] = col.R
		c.buffer[i+1] = col.G
		c.buffer[i+2] = col.B
		c.buffer[i+3] = col.A
	}
}

// At returns the pixel at x, y (zero outside the canvas)
func (c *Canvas) At(x, y int) color.RGBA {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return color.RGBA{}
	}
	idx := y*c.stride + x*4
	return color.RGBA{c.buffer[idx], c.buffer[idx+1], c.buffer[idx+2], c.buffer[idx+3]}
}

func (c *Canvas) blend(idx int, col color.RGBA) {
	switch col.A {
	case 255:
		c.buffer[idx] = col.R
		c.buffer[idx+1] = col.G
		c.buffer[idx+2] = col.B
		c.buffer[idx+3] = 255
	case 0:
	default:
		// result = src * srcA + dst * (1 - srcA)
		srcA := float64(col.A) / 255.0
		invA := 1.0 - srcA
		c.buffer[idx] = uint8(float64(col.R)*srcA + float64(c.buffer[idx])*invA)
		c.buffer[idx+1] = uint8(float64(col.G)*srcA + float64(c.buffer[idx+1])*invA)
		c.buffer[idx+2] = uint8(float64(col.B)*srcA + float64(c.buffer[idx+2])*invA)
		c.buffer[idx+3] = 255 // destination is always opaque
	}
}

// FillRect draws a filled, alpha blended rectangle clipped to the canvas
func (c *Canvas) FillRect(x, y, w, h int, col color.RGBA) {
	x1 := max(0, x)
	y1 := max(0, y)
	x2 := min(c.width, x+w)
	y2 := min(c.height, y+h)

	for py := y1; py < y2; py++ {
		rowStart := py * c.stride
		for px := x1; px < x2; px++ {
			c.blend(rowStart+px*4, col)
		}
	}
}

// FillCircle draws a filled, alpha blended circle
func (c *Canvas) FillCircle(cx, cy int, radius float64, col color.RGBA) {
	rad := int(radius + 0.5)
	radSq := radius * radius

	y1 := max(0, cy-rad)
	y2 := min(c.height, cy+rad+1)

	for py := y1; py < y2; py++ {
		dy := float64(py - cy)
		dySq := dy * dy
		if dySq > radSq {
			continue
		}
		xExtent := math.Sqrt(radSq - dySq)
		x1 := max(0, cx-int(xExtent+0.5))
		x2 := min(c.width, cx+int(xExtent+0.5)+1)

		rowStart := py * c.stride
		for px := x1; px < x2; px++ {
			dx := float64(px - cx)
			if dx*dx+dySq <= radSq {
				c.blend(rowStart+px*4, col)
			}
		}
	}
}

// HLine draws a horizontal line from x1 to x2 inclusive
func (c *Canvas) HLine(x1, x2, y int, col color.RGBA) {
	if y < 0 || y >= c.height {
		return
	}
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	x1 = max(0, x1)
	x2 = min(c.width-1, x2)

	rowStart := y * c.stride
	for x := x1; x <= x2; x++ {
		c.blend(rowStart+x*4, col)
	}
}

// VLine draws a vertical line from y1 to y2 inclusive
func (c *Canvas) VLine(x, y1, y2 int, col color.RGBA) {
	if x < 0 || x >= c.width {
		return
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	y1 = max(0, y1)
	y2 = min(c.height-1, y2)

	for y := y1; y <= y2; y++ {
		c.blend(y*c.stride+x*4, col)
	}
}
