// Package canvas routes pointer input on the canvas surface: hit testing
// resolves which element a click belongs to, and Handler runs the pin
// editing state machine on top of it.
package canvas

import (
	"math"

	"github.com/jask/claritycanvas/internal/render"
	"github.com/jask/claritycanvas/internal/session"
)

// TargetKind is what a click landed on.
type TargetKind int

const (
	// TargetOutside is any point outside the canvas box.
	TargetOutside TargetKind = iota
	// TargetCanvas is empty canvas area or non-interactive layout content.
	TargetCanvas
	// TargetPin is a pin marker.
	TargetPin
	// TargetControl is an interactive element inside the rendered layout.
	TargetControl
)

func (k TargetKind) String() string {
	switch k {
	case TargetCanvas:
		return "canvas"
	case TargetPin:
		return "pin"
	case TargetControl:
		return "control"
	}
	return "outside"
}

// Target is the resolved receiver of a click. X and Y are canvas
// percentages, set for canvas and pin targets.
type Target struct {
	Kind    TargetKind
	PinID   int64
	X, Y    float64
	Control render.Region
}

// Marker is the cell a pin is drawn at.
type Marker struct {
	PinID int64
	Col   int
	Line  int
}

// Surface is a snapshot of what is drawn on the canvas, in host cells.
type Surface struct {
	Box      session.Box
	Doc      render.Document
	Markers  []Marker
	ScrollY  int
	pinsByID map[int64]session.Pin
}

// NewSurface positions pin markers inside box. Markers are clamped to the
// box so pins that overflow after a resize stay reachable.
func NewSurface(box session.Box, doc render.Document, pins []session.Pin) Surface {
	s := Surface{Box: box, Doc: doc, pinsByID: make(map[int64]session.Pin, len(pins))}
	for _, p := range pins {
		col, line := MarkerCell(box, p)
		s.Markers = append(s.Markers, Marker{PinID: p.ID, Col: col, Line: line})
		s.pinsByID[p.ID] = p
	}
	return s
}

// MarkerCell maps pin percentages to a cell relative to the box origin.
func MarkerCell(box session.Box, p session.Pin) (col, line int) {
	w := max(int(box.Width), 1)
	h := max(int(box.Height), 1)
	col = int(math.Round(session.ClampPct(p.X) / 100 * float64(w-1)))
	line = int(math.Round(session.ClampPct(p.Y) / 100 * float64(h-1)))
	return col, line
}

// HitTest resolves pt to the innermost element under it. Pins are on top
// (the most recently added first), then layout controls, then the canvas.
// A control claims the click and the canvas never sees it.
func (s Surface) HitTest(pt session.Point) Target {
	if !s.Box.Contains(pt) {
		return Target{Kind: TargetOutside}
	}
	col := int(pt.X - s.Box.Left)
	line := int(pt.Y - s.Box.Top)

	for i := len(s.Markers) - 1; i >= 0; i-- {
		m := s.Markers[i]
		if m.Col == col && m.Line == line {
			p := s.pinsByID[m.PinID]
			return Target{Kind: TargetPin, PinID: m.PinID, X: p.X, Y: p.Y}
		}
	}
	if r, ok := s.Doc.ControlAt(col, line+s.ScrollY); ok {
		return Target{Kind: TargetControl, Control: r}
	}
	x, y, err := session.Normalize(pt, s.Box)
	if err != nil {
		return Target{Kind: TargetOutside}
	}
	return Target{Kind: TargetCanvas, X: x, Y: y}
}
