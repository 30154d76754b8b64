package session

import (
	"errors"
	"time"
)

// Pin is a feedback annotation anchored to percentage coordinates on the canvas.
type Pin struct {
	ID       int64   `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Feedback string  `json:"feedback"`
}

// Point is a pointer position in host coordinates (pixels, terminal cells).
type Point struct {
	X float64
	Y float64
}

// Box is the canvas bounding box in the same coordinate space as Point.
type Box struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Contains reports whether p falls inside the box.
func (b Box) Contains(p Point) bool {
	return p.X >= b.Left && p.X < b.Left+b.Width && p.Y >= b.Top && p.Y < b.Top+b.Height
}

var ErrEmptyBox = errors.New("session: canvas box has no area")

// Normalize converts a pointer position to canvas percentages.
// Results are not clamped: a pin may sit slightly outside [0,100] when the
// canvas is resized after placement.
func Normalize(p Point, b Box) (x, y float64, err error) {
	if b.Width <= 0 || b.Height <= 0 {
		return 0, 0, ErrEmptyBox
	}
	x = (p.X - b.Left) / b.Width * 100
	y = (p.Y - b.Top) / b.Height * 100
	return x, y, nil
}

// NextPinID returns a creation-timestamp id (unix millis) that is not already
// used by pins. Two pins created in the same millisecond get consecutive ids.
func NextPinID(pins []Pin, now time.Time) int64 {
	id := now.UnixMilli()
	for _, p := range pins {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	return id
}

// ClampPct bounds a percentage to [0,100] for rendering.
func ClampPct(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
