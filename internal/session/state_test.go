package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPinTransitionsKeepIDsUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := time.UnixMilli(1_700_000_000_000)
	var st State
	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			// same clock reading on purpose
			st = AddPin(st, Pin{ID: NextPinID(st.Pins, now), X: rng.Float64() * 100, Y: rng.Float64() * 100})
		case 1:
			if len(st.Pins) > 0 {
				st = RemovePin(st, st.Pins[rng.Intn(len(st.Pins))].ID)
			}
		case 2:
			if len(st.Pins) > 0 {
				st = UpdateFeedback(st, st.Pins[rng.Intn(len(st.Pins))].ID, "note")
			}
		}
		seen := map[int64]bool{}
		for _, p := range st.Pins {
			require.False(t, seen[p.ID], "duplicate id %d", p.ID)
			seen[p.ID] = true
		}
	}
}

func TestUnknownPinIsNoOp(t *testing.T) {
	st := AddPin(State{}, Pin{ID: 1, X: 10, Y: 20, Feedback: "keep"})
	require.Equal(t, st, UpdateFeedback(st, 99, "x"))
	require.Equal(t, st, RemovePin(st, 99))
}

func TestTransitionsDoNotAlias(t *testing.T) {
	a := AddPin(State{}, Pin{ID: 1})
	b := UpdateFeedback(a, 1, "changed")
	require.Equal(t, "", a.Pins[0].Feedback)
	require.Equal(t, "changed", b.Pins[0].Feedback)

	c := AddPin(b, Pin{ID: 2})
	require.Len(t, b.Pins, 1)
	require.Len(t, c.Pins, 2)
}

func TestAddPinIgnoresDuplicateID(t *testing.T) {
	st := AddPin(State{}, Pin{ID: 5, Feedback: "first"})
	st = AddPin(st, Pin{ID: 5, Feedback: "second"})
	require.Len(t, st.Pins, 1)
	require.Equal(t, "first", st.Pins[0].Feedback)
}

func TestClearCanvasIdempotent(t *testing.T) {
	st := State{LayoutContent: "<p>x</p>", Pins: []Pin{{ID: 1}}, IsLocked: true}
	once := ClearCanvas(st)
	twice := ClearCanvas(once)
	require.Equal(t, once, twice)
	require.Empty(t, once.LayoutContent)
	require.Empty(t, once.Pins)
	require.True(t, once.IsLocked)
}

func TestSetIncognitoClearsCanvas(t *testing.T) {
	st := State{LayoutContent: "x", Pins: []Pin{{ID: 1}}}
	on := SetIncognito(st, true)
	require.True(t, on.IncognitoMode)
	require.Empty(t, on.LayoutContent)
	require.Empty(t, on.Pins)

	off := SetIncognito(SetLayout(on, "y"), false)
	require.Equal(t, "y", off.LayoutContent)
}

func TestNextPinID(t *testing.T) {
	now := time.UnixMilli(1000)
	require.Equal(t, int64(1000), NextPinID(nil, now))
	require.Equal(t, int64(1001), NextPinID([]Pin{{ID: 1000}}, now))
	require.Equal(t, int64(2001), NextPinID([]Pin{{ID: 2000}, {ID: 5}}, now))
}

func TestNormalize(t *testing.T) {
	box := Box{Left: 10, Top: 20, Width: 200, Height: 100}
	x, y, err := Normalize(Point{X: 110, Y: 70}, box)
	require.NoError(t, err)
	require.InDelta(t, 50, x, 1e-9)
	require.InDelta(t, 50, y, 1e-9)

	x, _, err = Normalize(Point{X: 230, Y: 70}, box)
	require.NoError(t, err)
	require.InDelta(t, 110, x, 1e-9)

	_, _, err = Normalize(Point{}, Box{})
	require.ErrorIs(t, err, ErrEmptyBox)
}

func TestFeedbackTextsSkipsBlanks(t *testing.T) {
	st := State{Pins: []Pin{{ID: 1, Feedback: "A"}, {ID: 2}, {ID: 3, Feedback: "B"}}}
	require.Equal(t, []string{"A", "B"}, st.FeedbackTexts())
}

func TestSameContentIgnoresFlags(t *testing.T) {
	a := State{LayoutContent: "x", Pins: []Pin{{ID: 1}}}
	b := a
	b.IsLocked = true
	b.IncognitoMode = true
	require.True(t, SameContent(a, b))
	require.False(t, SameContent(a, UpdateFeedback(a, 1, "n")))
}
