package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/claritycanvas/internal/export"
	"github.com/jask/claritycanvas/internal/llm"
)

type fakeProvider struct {
	layout    string
	summary   string
	err       error
	summaries [][]string
	prompts   []string
}

func (f *fakeProvider) GenerateLayout(_ context.Context, req llm.GenerateLayoutRequest) (llm.GenerateLayoutResponse, error) {
	f.prompts = append(f.prompts, req.Prompt)
	return llm.GenerateLayoutResponse{LayoutSuggestion: f.layout}, f.err
}

func (f *fakeProvider) SummarizeFeedback(_ context.Context, req llm.SummarizeFeedbackRequest) (llm.SummarizeFeedbackResponse, error) {
	f.summaries = append(f.summaries, req.Feedback)
	return llm.SummarizeFeedbackResponse{Summary: f.summary}, f.err
}

type harness struct {
	ctrl     *Controller
	backend  *MemoryBackend
	provider *fakeProvider
	notices  []Notice
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{backend: NewMemoryBackend(), provider: &fakeProvider{}}
	clock := time.UnixMilli(1_700_000_000_000)
	h.ctrl = NewController(context.Background(), NewStore(h.backend), llm.NewGateway(h.provider), Options{
		LockPIN: "1234",
		Notify:  func(n Notice) { h.notices = append(h.notices, n) },
		Now: func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		},
	})
	require.NoError(t, h.ctrl.Load())
	return h
}

func (h *harness) lastNotice() Notice {
	if len(h.notices) == 0 {
		return Notice{}
	}
	return h.notices[len(h.notices)-1]
}

func TestGenerateLoginForm(t *testing.T) {
	h := newHarness(t)
	h.provider.layout = "```html\n<form><input type=\"email\"><button>Sign in</button></form>\n```"
	pin, err := h.ctrl.AddPinAt(30, 40)
	require.NoError(t, err)

	require.NoError(t, h.ctrl.GenerateLayout(context.Background(), "a login form"))
	st := h.ctrl.State()
	require.Equal(t, `<form><input type="email"><button>Sign in</button></form>`, st.LayoutContent)
	require.Equal(t, []Pin{pin}, st.Pins)
	require.Equal(t, []string{"a login form"}, h.provider.prompts)
	require.Equal(t, "Layout Generated", h.lastNotice().Title)
}

func TestGenerateFailureKeepsCanvas(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SetLayout("<p>before</p>"))
	h.provider.err = errors.New("boom")

	err := h.ctrl.GenerateLayout(context.Background(), "anything")
	var ge *llm.GenerationError
	require.ErrorAs(t, err, &ge)
	require.Equal(t, "<p>before</p>", h.ctrl.State().LayoutContent)
	require.Equal(t, LevelError, h.lastNotice().Level)

	err = h.ctrl.GenerateLayout(context.Background(), "   ")
	require.ErrorIs(t, err, llm.ErrEmptyPrompt)
	require.Equal(t, "Prompt is empty", h.lastNotice().Title)
}

func TestSummarizeFiltersEmptyFeedback(t *testing.T) {
	h := newHarness(t)
	h.provider.summary = "two comments"
	for _, text := range []string{"A", "", "B"} {
		p, err := h.ctrl.AddPinAt(10, 10)
		require.NoError(t, err)
		require.NoError(t, h.ctrl.UpdateFeedback(p.ID, text))
	}

	summary, err := h.ctrl.SummarizeFeedback(context.Background())
	require.NoError(t, err)
	require.Equal(t, "two comments", summary)
	require.Equal(t, [][]string{{"A", "B"}}, h.provider.summaries)
	require.Equal(t, "two comments", h.ctrl.Summary())
}

func TestSummarizeWithoutFeedback(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctrl.AddPinAt(10, 10)
	require.NoError(t, err)

	_, err = h.ctrl.SummarizeFeedback(context.Background())
	require.ErrorIs(t, err, llm.ErrNoContent)
	require.Empty(t, h.provider.summaries)
	require.Equal(t, "No Feedback", h.lastNotice().Title)
}

func TestUnlock(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Lock()
	require.True(t, h.ctrl.State().IsLocked)

	require.ErrorIs(t, h.ctrl.Unlock("0000"), ErrIncorrectPin)
	require.True(t, h.ctrl.State().IsLocked)
	require.Equal(t, "Incorrect PIN", h.lastNotice().Title)

	require.NoError(t, h.ctrl.Unlock("1234"))
	require.False(t, h.ctrl.State().IsLocked)
}

func TestLockedRejectsMutations(t *testing.T) {
	h := newHarness(t)
	p, err := h.ctrl.AddPinAt(1, 1)
	require.NoError(t, err)
	h.ctrl.Lock()

	_, err = h.ctrl.AddPinAt(2, 2)
	require.ErrorIs(t, err, ErrLocked)
	require.ErrorIs(t, h.ctrl.UpdateFeedback(p.ID, "x"), ErrLocked)
	require.ErrorIs(t, h.ctrl.RemovePin(p.ID), ErrLocked)
	require.ErrorIs(t, h.ctrl.SetLayout("x"), ErrLocked)
	require.ErrorIs(t, h.ctrl.ClearCanvas(), ErrLocked)
	require.ErrorIs(t, h.ctrl.ToggleIncognito(true), ErrLocked)
	_, err = h.ctrl.ExportSnapshot(export.FormatHTML)
	require.ErrorIs(t, err, ErrLocked)
	require.Len(t, h.ctrl.State().Pins, 1)
}

func TestAutosaveAndReload(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SetLayout("<p>hello</p>"))
	p, err := h.ctrl.AddPinAt(25, 75)
	require.NoError(t, err)
	require.NoError(t, h.ctrl.UpdateFeedback(p.ID, "bigger"))

	again := NewController(context.Background(), NewStore(h.backend), llm.NewGateway(h.provider), Options{LockPIN: "1234"})
	require.NoError(t, again.Load())
	st := again.State()
	require.Equal(t, "<p>hello</p>", st.LayoutContent)
	require.Equal(t, []Pin{{ID: p.ID, X: 25, Y: 75, Feedback: "bigger"}}, st.Pins)
	require.False(t, again.Dirty())
}

func TestLoadCorruptStartsEmpty(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Put(context.Background(), KeyContent, []byte("{{")))
	var notices []Notice
	c := NewController(context.Background(), NewStore(b), llm.NewGateway(&fakeProvider{}), Options{
		Notify: func(n Notice) { notices = append(notices, n) },
	})

	var de *DeserializationError
	require.ErrorAs(t, c.Load(), &de)
	require.Equal(t, State{}, c.State())
	require.Len(t, notices, 1)
	require.Equal(t, "Error loading data", notices[0].Title)
}

func TestIncognitoClearsPersistedState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SetLayout("secret"))
	require.NoError(t, h.ctrl.ToggleIncognito(true))
	require.Equal(t, 0, h.backend.Len())
	require.Empty(t, h.ctrl.State().LayoutContent)

	require.NoError(t, h.ctrl.SetLayout("not saved"))
	require.Equal(t, 0, h.backend.Len())

	fresh := NewStore(h.backend)
	st, found, err := fresh.Load(context.Background())
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, State{}, st)

	require.NoError(t, h.ctrl.ToggleIncognito(false))
	st, found, err = fresh.Load(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "not saved", st.LayoutContent)
}

func TestClearCanvasTwice(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SetLayout("x"))
	_, err := h.ctrl.AddPinAt(1, 1)
	require.NoError(t, err)

	require.NoError(t, h.ctrl.ClearCanvas())
	once := h.ctrl.State()
	require.NoError(t, h.ctrl.ClearCanvas())
	require.Equal(t, once, h.ctrl.State())
	require.Equal(t, 0, h.backend.Len())
}

func TestExportClearsDirty(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.ctrl.CanLeave())
	require.NoError(t, h.ctrl.SetLayout("<p>draft</p><script>x()</script>"))
	require.True(t, h.ctrl.Dirty())
	d := h.ctrl.BeforeLeave()
	require.True(t, d.Cancelable)
	require.NotEmpty(t, d.Reason)

	a, err := h.ctrl.ExportSnapshot(export.FormatHTML)
	require.NoError(t, err)
	require.Equal(t, "clarity-canvas-export.html", a.Filename)
	require.Equal(t, "text/html", a.MIMEType)
	require.NotContains(t, string(a.Body), "script")
	require.True(t, h.ctrl.Dirty())

	h.ctrl.MarkExported()
	require.False(t, h.ctrl.Dirty())
	require.True(t, h.ctrl.CanLeave())
	require.Equal(t, "Exported", h.lastNotice().Title)
}

func TestLateResultsDroppedWhileLocked(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SetLayout("<p>before</p>"))
	h.ctrl.Lock()

	require.ErrorIs(t, h.ctrl.ApplyGenerated("<p>late</p>", nil), ErrLocked)
	_, err := h.ctrl.ApplySummary("late summary", nil)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, h.ctrl.Unlock("1234"))
	require.Equal(t, "<p>before</p>", h.ctrl.State().LayoutContent)
	require.Empty(t, h.ctrl.Summary())
}

func TestIncognitoNeverBlocksLeave(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ToggleIncognito(true))
	require.NoError(t, h.ctrl.SetLayout("x"))
	require.True(t, h.ctrl.CanLeave())
}

func TestUnknownPinOperationsAreSilent(t *testing.T) {
	h := newHarness(t)
	before := len(h.notices)
	require.NoError(t, h.ctrl.UpdateFeedback(42, "x"))
	require.NoError(t, h.ctrl.RemovePin(42))
	require.Len(t, h.notices, before)
	require.Empty(t, h.ctrl.State().Pins)
}

type brokenBackend struct{ *MemoryBackend }

func (brokenBackend) Put(context.Context, string, []byte) error { return errors.New("quota") }

func TestPersistFailureIsReported(t *testing.T) {
	var notices []Notice
	c := NewController(context.Background(), NewStore(brokenBackend{NewMemoryBackend()}), llm.NewGateway(&fakeProvider{}), Options{
		Notify: func(n Notice) { notices = append(notices, n) },
	})
	require.NoError(t, c.Load())
	require.NoError(t, c.SetLayout("kept in memory"))
	require.Equal(t, "kept in memory", c.State().LayoutContent)

	var pe *PersistError
	require.ErrorAs(t, c.LastPersistError(), &pe)
	require.Equal(t, "Error saving data", notices[len(notices)-1].Title)
}
