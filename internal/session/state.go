package session

// State is the composed session value. Transitions never mutate a State in
// place; they return a new value that shares nothing with the receiver's
// pin slice.
type State struct {
	LayoutContent string `json:"layoutContent"`
	Pins          []Pin  `json:"pins"`
	IncognitoMode bool   `json:"incognitoMode"`
	IsLocked      bool   `json:"isLocked"`
}

func (s State) clonePins(extra int) []Pin {
	out := make([]Pin, len(s.Pins), len(s.Pins)+extra)
	copy(out, s.Pins)
	return out
}

// Pin returns the pin with id.
func (s State) Pin(id int64) (Pin, bool) {
	for _, p := range s.Pins {
		if p.ID == id {
			return p, true
		}
	}
	return Pin{}, false
}

// AddPin appends p; insertion order is display and z-order.
// A pin whose id is already present is ignored.
func AddPin(s State, p Pin) State {
	if _, ok := s.Pin(p.ID); ok {
		return s
	}
	pins := s.clonePins(1)
	s.Pins = append(pins, p)
	return s
}

// UpdateFeedback replaces the feedback text of pin id. Unknown ids are a no-op.
func UpdateFeedback(s State, id int64, text string) State {
	if _, ok := s.Pin(id); !ok {
		return s
	}
	pins := s.clonePins(0)
	for i := range pins {
		if pins[i].ID == id {
			pins[i].Feedback = text
		}
	}
	s.Pins = pins
	return s
}

// RemovePin drops pin id. Unknown ids are a no-op.
func RemovePin(s State, id int64) State {
	if _, ok := s.Pin(id); !ok {
		return s
	}
	pins := make([]Pin, 0, len(s.Pins)-1)
	for _, p := range s.Pins {
		if p.ID != id {
			pins = append(pins, p)
		}
	}
	s.Pins = pins
	return s
}

// SetLayout replaces the layout content; pins are left alone.
func SetLayout(s State, content string) State {
	s.LayoutContent = content
	return s
}

// ClearCanvas empties layout content and pins, keeping the flags.
func ClearCanvas(s State) State {
	s.LayoutContent = ""
	s.Pins = nil
	return s
}

func SetIncognito(s State, on bool) State {
	if on {
		s = ClearCanvas(s)
	}
	s.IncognitoMode = on
	return s
}

func SetLocked(s State, locked bool) State {
	s.IsLocked = locked
	return s
}

// FeedbackTexts returns the non-empty feedback strings in pin order.
func (s State) FeedbackTexts() []string {
	var out []string
	for _, p := range s.Pins {
		if p.Feedback != "" {
			out = append(out, p.Feedback)
		}
	}
	return out
}

// SameContent reports whether a and b hold the same layout and pins.
// Flags are not compared.
func SameContent(a, b State) bool {
	if a.LayoutContent != b.LayoutContent || len(a.Pins) != len(b.Pins) {
		return false
	}
	for i := range a.Pins {
		if a.Pins[i] != b.Pins[i] {
			return false
		}
	}
	return true
}
