package canvas

import (
	"errors"

	"github.com/jask/claritycanvas/internal/session"
)

// Mode is the state of the pin editing machine.
type Mode int

const (
	Idle Mode = iota
	// Editing means a pin popover is open with a draft.
	Editing
	// Confirming means a click outside hit a divergent draft and the host
	// must answer Resolve before anything else happens.
	Confirming
)

func (m Mode) String() string {
	switch m {
	case Editing:
		return "editing"
	case Confirming:
		return "confirming"
	}
	return "idle"
}

// Pins is the pin model the handler drives.
type Pins interface {
	AddPinAt(x, y float64) (session.Pin, error)
	UpdateFeedback(id int64, text string) error
	RemovePin(id int64) error
	Pin(id int64) (session.Pin, bool)
}

// DiscardQuestion is asked before a divergent draft is thrown away.
const DiscardQuestion = "You have unsaved changes. Are you sure you want to close?"

// Handler is the Idle / Editing / Confirming machine. Hosts with a blocking
// dialog set Confirm; others leave it nil and answer Resolve later.
type Handler struct {
	pins    Pins
	Confirm func(question string) bool

	mode  Mode
	pinID int64
	draft string
}

func NewHandler(p Pins) *Handler {
	return &Handler{pins: p}
}

var ErrNotEditing = errors.New("canvas: no pin is being edited")

func (h *Handler) Mode() Mode    { return h.mode }
func (h *Handler) PinID() int64  { return h.pinID }
func (h *Handler) Draft() string { return h.draft }
func (h *Handler) Editing() bool { return h.mode != Idle }

// Diverged reports whether the draft differs from the stored feedback.
func (h *Handler) Diverged() bool {
	if h.mode == Idle {
		return false
	}
	p, ok := h.pins.Pin(h.pinID)
	if !ok {
		return false
	}
	return p.Feedback != h.draft
}

// Click routes a resolved target. While editing, anything but the open
// pin's own marker counts as a click outside the popover and is consumed.
func (h *Handler) Click(t Target) (session.Pin, bool, error) {
	switch h.mode {
	case Confirming:
		return session.Pin{}, false, nil
	case Editing:
		if t.Kind == TargetPin && t.PinID == h.pinID {
			return session.Pin{}, false, nil
		}
		h.ClickOutside()
		return session.Pin{}, false, nil
	}

	switch t.Kind {
	case TargetCanvas:
		p, err := h.pins.AddPinAt(t.X, t.Y)
		if err != nil {
			return session.Pin{}, false, err
		}
		return p, true, nil
	case TargetPin:
		h.Open(t.PinID)
	}
	return session.Pin{}, false, nil
}

// Open starts editing pin id with its stored feedback as the draft.
func (h *Handler) Open(id int64) bool {
	p, ok := h.pins.Pin(id)
	if !ok {
		return false
	}
	h.mode = Editing
	h.pinID = id
	h.draft = p.Feedback
	return true
}

// SetDraft replaces the draft text of the open pin.
func (h *Handler) SetDraft(text string) {
	if h.mode == Editing {
		h.draft = text
	}
}

// Save writes the draft to the pin model and closes the popover.
func (h *Handler) Save() error {
	if h.mode != Editing {
		return ErrNotEditing
	}
	if err := h.pins.UpdateFeedback(h.pinID, h.draft); err != nil {
		return err
	}
	h.reset()
	return nil
}

// Cancel discards the draft and closes the popover.
func (h *Handler) Cancel() {
	if h.mode == Editing {
		h.reset()
	}
}

// Delete removes the open pin.
func (h *Handler) Delete() error {
	if h.mode != Editing {
		return ErrNotEditing
	}
	if err := h.pins.RemovePin(h.pinID); err != nil {
		return err
	}
	h.reset()
	return nil
}

// ClickOutside closes an unchanged popover at once. A divergent draft needs
// confirmation: through Confirm when set, otherwise by entering Confirming.
func (h *Handler) ClickOutside() {
	if h.mode != Editing {
		return
	}
	if !h.Diverged() {
		h.reset()
		return
	}
	if h.Confirm != nil {
		h.Resolve(h.Confirm(DiscardQuestion))
		return
	}
	h.mode = Confirming
}

// Resolve answers a pending discard question. true discards the draft and
// closes the popover; false keeps editing.
func (h *Handler) Resolve(discard bool) {
	if h.mode == Idle {
		return
	}
	if discard {
		h.reset()
		return
	}
	h.mode = Editing
}

// Reset drops any open popover, e.g. after the canvas was cleared.
func (h *Handler) Reset() { h.reset() }

func (h *Handler) reset() {
	h.mode = Idle
	h.pinID = 0
	h.draft = ""
}
