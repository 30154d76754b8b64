package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jask/claritycanvas/internal/export"
	"github.com/jask/claritycanvas/internal/llm"
)

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notice is a toast-style message for the user.
type Notice struct {
	Title  string
	Detail string
	Level  Level
}

// Options configure a Controller.
type Options struct {
	AppName string
	LockPIN string
	Notify  func(Notice)
	Now     func() time.Time
}

// LeaveDecision is the answer of the navigation guard. When Cancelable is
// true the host should ask before closing the session.
type LeaveDecision struct {
	Cancelable bool
	Reason     string
}

// Controller owns the session state and is its only writer. Callers must
// serialize access (the TUI update loop, or a mutex in the HTTP server).
type Controller struct {
	ctx     context.Context
	opts    Options
	store   *Store
	gateway *llm.Gateway

	state      State
	baseline   State
	summary    string
	persistErr error
}

func NewController(ctx context.Context, store *Store, gw *llm.Gateway, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notify == nil {
		opts.Notify = func(Notice) {}
	}
	if opts.AppName == "" {
		opts.AppName = "Clarity Canvas"
	}
	c := &Controller{ctx: ctx, opts: opts, store: store, gateway: gw}
	c.state.IncognitoMode = store.Incognito()
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	s := c.state
	s.Pins = c.state.clonePins(0)
	return s
}

func (c *Controller) Gateway() *llm.Gateway { return c.gateway }
func (c *Controller) AppName() string       { return c.opts.AppName }
func (c *Controller) Summary() string       { return c.summary }

// LastPersistError is the error of the most recent failed write, nil after a
// successful one.
func (c *Controller) LastPersistError() error { return c.persistErr }

// Load restores the persisted snapshot. Corrupt data is reported and leaves
// an empty canvas; the session keeps running either way.
func (c *Controller) Load() error {
	st, found, err := c.store.Load(c.ctx)
	if err != nil {
		log.Printf("warn: load session: %v", err)
		c.state = ClearCanvas(c.state)
		c.baseline = c.state
		c.notifyErr("Error loading data", "Could not load your saved session.")
		return err
	}
	if found {
		c.state.LayoutContent = st.LayoutContent
		c.state.Pins = st.Pins
	}
	c.baseline = c.state
	return nil
}

// Dirty reports whether layout or pins changed since load or the last export.
func (c *Controller) Dirty() bool {
	return !SameContent(c.state, c.baseline)
}

// BeforeLeave is the navigation guard.
func (c *Controller) BeforeLeave() LeaveDecision {
	if c.state.IncognitoMode || !c.Dirty() {
		return LeaveDecision{}
	}
	return LeaveDecision{Cancelable: true, Reason: "You have unsaved changes that have not been exported."}
}

func (c *Controller) CanLeave() bool { return !c.BeforeLeave().Cancelable }

// Pin looks up a pin by id.
func (c *Controller) Pin(id int64) (Pin, bool) { return c.state.Pin(id) }

// AddPinAt creates a pin with empty feedback at canvas percentages.
func (c *Controller) AddPinAt(x, y float64) (Pin, error) {
	if c.state.IsLocked {
		return Pin{}, ErrLocked
	}
	p := Pin{ID: NextPinID(c.state.Pins, c.opts.Now()), X: x, Y: y}
	c.apply(AddPin(c.state, p))
	c.notify("Feedback pin added", "Click the pin to add your feedback.")
	return p, nil
}

// UpdateFeedback stores text on pin id. Unknown ids are ignored.
func (c *Controller) UpdateFeedback(id int64, text string) error {
	if c.state.IsLocked {
		return ErrLocked
	}
	if _, ok := c.state.Pin(id); !ok {
		return nil
	}
	c.apply(UpdateFeedback(c.state, id, text))
	c.notify("Feedback saved", "Your feedback has been updated.")
	return nil
}

// RemovePin deletes pin id. Unknown ids are ignored.
func (c *Controller) RemovePin(id int64) error {
	if c.state.IsLocked {
		return ErrLocked
	}
	if _, ok := c.state.Pin(id); !ok {
		return nil
	}
	c.apply(RemovePin(c.state, id))
	c.notify("Pin removed", "The feedback pin has been deleted.")
	return nil
}

// SetLayout replaces the canvas content with user-authored markup or text.
func (c *Controller) SetLayout(content string) error {
	if c.state.IsLocked {
		return ErrLocked
	}
	c.apply(SetLayout(c.state, content))
	return nil
}

// GenerateLayout asks the gateway for a layout and applies it. Blocks for
// the duration of the remote call.
func (c *Controller) GenerateLayout(ctx context.Context, prompt string) error {
	if c.state.IsLocked {
		return ErrLocked
	}
	markup, err := c.gateway.GenerateLayout(ctx, prompt)
	return c.ApplyGenerated(markup, err)
}

// ApplyGenerated finishes a generation started elsewhere. On error the
// canvas is left untouched and the error is reported.
// Results that arrive while the session is locked are dropped.
func (c *Controller) ApplyGenerated(markup string, err error) error {
	if err != nil {
		c.reportGateway(err)
		return err
	}
	if c.state.IsLocked {
		log.Printf("warn: generated layout dropped, session locked")
		return ErrLocked
	}
	c.apply(SetLayout(c.state, markup))
	c.notify("Layout Generated", "Your new layout is ready on the canvas.")
	return nil
}

// FeedbackTexts is every pin's feedback in pin order, blanks included; the
// gateway does the filtering.
func (c *Controller) FeedbackTexts() []string {
	out := make([]string, len(c.state.Pins))
	for i, p := range c.state.Pins {
		out[i] = p.Feedback
	}
	return out
}

// SummarizeFeedback summarizes the feedback of all pins.
func (c *Controller) SummarizeFeedback(ctx context.Context) (string, error) {
	if c.state.IsLocked {
		return "", ErrLocked
	}
	summary, err := c.gateway.SummarizeFeedback(ctx, c.FeedbackTexts())
	return c.ApplySummary(summary, err)
}

// ApplySummary records a summary produced elsewhere. Like ApplyGenerated it
// drops a result that arrives while locked.
func (c *Controller) ApplySummary(summary string, err error) (string, error) {
	if err != nil {
		c.reportGateway(err)
		return "", err
	}
	if c.state.IsLocked {
		log.Printf("warn: feedback summary dropped, session locked")
		return "", ErrLocked
	}
	c.summary = summary
	return summary, nil
}

// ToggleIncognito switches persistence. Turning it on wipes the canvas and
// the stored snapshot; turning it off saves from now on and restores nothing.
func (c *Controller) ToggleIncognito(on bool) error {
	if c.state.IsLocked {
		return ErrLocked
	}
	if on {
		c.state = SetIncognito(c.state, true)
		c.store.SetIncognito(true)
		if err := c.store.Clear(c.ctx); err != nil {
			c.persistFailed(err)
		}
		c.notify("Canvas Cleared", "Your canvas and feedback pins have been reset.")
		c.notify("Incognito Mode On", "Your session will not be saved.")
		return nil
	}
	c.state = SetIncognito(c.state, false)
	c.store.SetIncognito(false)
	c.persist()
	c.notify("Incognito Mode Off", "Your session will now be saved automatically.")
	return nil
}

// Lock raises the PIN overlay.
func (c *Controller) Lock() {
	c.state = SetLocked(c.state, true)
}

// Unlock lowers the overlay when attempt matches the configured PIN.
func (c *Controller) Unlock(attempt string) error {
	if !c.state.IsLocked {
		return nil
	}
	if attempt != c.opts.LockPIN {
		c.notifyErr("Incorrect PIN", "Please try again.")
		return ErrIncorrectPin
	}
	c.state = SetLocked(c.state, false)
	c.notify("Unlocked", "Welcome back!")
	return nil
}

// ClearCanvas empties the canvas and removes the stored snapshot unless
// incognito. Calling it twice is the same as calling it once.
func (c *Controller) ClearCanvas() error {
	if c.state.IsLocked {
		return ErrLocked
	}
	c.state = ClearCanvas(c.state)
	if !c.state.IncognitoMode {
		if err := c.store.Clear(c.ctx); err != nil {
			c.persistFailed(err)
		} else {
			c.persistErr = nil
		}
	}
	c.notify("Canvas Cleared", "Your canvas and feedback pins have been reset.")
	return nil
}

// ExportSnapshot builds the export artifact. The unsaved flag stays set
// until the host has delivered it and calls MarkExported.
func (c *Controller) ExportSnapshot(f export.Format) (export.Artifact, error) {
	if c.state.IsLocked {
		return export.Artifact{}, ErrLocked
	}
	a, err := export.Build(c.opts.AppName, c.state.LayoutContent, f)
	if err != nil {
		c.notifyErr("Export failed", err.Error())
		return export.Artifact{}, err
	}
	return a, nil
}

// MarkExported records that the current content reached the user.
func (c *Controller) MarkExported() {
	c.baseline = c.State()
	c.notify("Exported", "Your canvas content has been downloaded.")
}

func (c *Controller) apply(next State) {
	c.state = next
	c.persist()
}

func (c *Controller) persist() {
	if c.state.IncognitoMode {
		return
	}
	if err := c.store.Save(c.ctx, c.state); err != nil {
		c.persistFailed(err)
		return
	}
	c.persistErr = nil
}

func (c *Controller) persistFailed(err error) {
	c.persistErr = err
	log.Printf("warn: persist session: %v", err)
	c.notifyErr("Error saving data", "Your changes are kept in this session but could not be stored.")
}

func (c *Controller) reportGateway(err error) {
	var genErr *llm.GenerationError
	var sumErr *llm.SummarizationError
	switch {
	case errors.Is(err, llm.ErrEmptyPrompt):
		c.notifyErr("Prompt is empty", llm.Describe(err))
	case errors.Is(err, llm.ErrNoContent):
		c.notifyErr("No Feedback", llm.Describe(err))
	case errors.As(err, &genErr), errors.As(err, &sumErr):
		log.Printf("warn: ai gateway: %v", err)
		c.notifyErr("Error", llm.Describe(err))
	default:
		c.notifyErr("Error", llm.Describe(err))
	}
}

func (c *Controller) notify(title, detail string) {
	c.opts.Notify(Notice{Title: title, Detail: detail})
}

func (c *Controller) notifyErr(title, detail string) {
	c.opts.Notify(Notice{Title: title, Detail: detail, Level: LevelError})
}
