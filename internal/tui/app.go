package tui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/claritycanvas/internal/canvas"
	"github.com/jask/claritycanvas/internal/database/repository"
	"github.com/jask/claritycanvas/internal/export"
	"github.com/jask/claritycanvas/internal/render"
	"github.com/jask/claritycanvas/internal/session"
)

const (
	sidebarWidth = 34
	toastTTL     = 4 * time.Second
)

// ExportRecorder keeps a history of written exports.
type ExportRecorder interface {
	Record(ctx context.Context, filename, mimeType string, size int) error
	Recent(ctx context.Context, limit int) ([]repository.ExportRecord, error)
}

const recentExports = 5

// Options wire the App to its surroundings.
type Options struct {
	ExportDir string
	Exports   ExportRecorder
}

// App is the Bubble Tea host of a session controller.
type App struct {
	ctx     context.Context
	ctrl    *session.Controller
	handler *canvas.Handler
	notices *Notices
	opts    Options
	keys    keyMap

	prompt textarea.Model
	draft  textarea.Model
	pin    textinput.Model

	width, height int
	focus         focusArea
	modal         modalState
	modalText     string
	scroll        int

	surface  canvas.Surface
	doc      render.Document
	docKey   string
	docWidth int
	popover  string
	popX     int
	popY     int

	toast     *session.Notice
	toastSeq  int
	unread    int
	exportLog []repository.ExportRecord
}

type focusArea int

const (
	focusPrompt focusArea = iota
	focusCanvas
)

type modalState string

const (
	modalNone          modalState = ""
	modalConfirmClear  modalState = "confirmClear"
	modalConfirmQuit   modalState = "confirmQuit"
	modalSummary       modalState = "summary"
	modalNotifications modalState = "notifications"
)

type generatedMsg struct {
	markup string
	err    error
}

type summarizedMsg struct {
	summary string
	err     error
}

type toastExpiredMsg struct{ seq int }

func New(ctx context.Context, ctrl *session.Controller, notices *Notices, opts Options) *App {
	if notices == nil {
		notices = NewNotices()
	}
	prompt := textarea.New()
	prompt.Placeholder = "Describe a layout, e.g. a login form"
	prompt.ShowLineNumbers = false
	prompt.SetWidth(sidebarWidth - 4)
	prompt.SetHeight(5)
	prompt.Focus()

	draft := textarea.New()
	draft.Placeholder = "Your feedback"
	draft.ShowLineNumbers = false
	draft.SetWidth(32)
	draft.SetHeight(4)

	pin := textinput.New()
	pin.Placeholder = "PIN"
	pin.EchoMode = textinput.EchoPassword
	pin.EchoCharacter = '•'
	pin.CharLimit = 4
	pin.Width = 6

	return &App{
		ctx:     ctx,
		ctrl:    ctrl,
		handler: canvas.NewHandler(ctrl),
		notices: notices,
		opts:    opts,
		keys:    defaultKeys(),
		prompt:  prompt,
		draft:   draft,
		pin:     pin,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.flushNotices())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	a.refresh()
	return a, cmd
}

func (a *App) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return nil
	case generatedMsg:
		if err := a.ctrl.ApplyGenerated(msg.markup, msg.err); err == nil {
			a.scroll = 0
		}
		return a.flushNotices()
	case summarizedMsg:
		if _, err := a.ctrl.ApplySummary(msg.summary, msg.err); err == nil {
			a.openModal(modalSummary, a.ctrl.Summary())
		}
		return a.flushNotices()
	case toastExpiredMsg:
		if msg.seq == a.toastSeq {
			a.toast = nil
		}
		return nil
	case tea.MouseMsg:
		a.handleMouse(msg)
		return a.flushNotices()
	case tea.KeyMsg:
		cmd := a.handleKey(msg)
		return tea.Batch(cmd, a.flushNotices())
	}
	return a.forward(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.ForceQuit) {
		return a.requestQuit()
	}
	if a.modal == modalConfirmQuit {
		return a.modalKey(msg)
	}
	if a.ctrl.State().IsLocked {
		return a.lockKey(msg)
	}
	if a.modal != modalNone {
		return a.modalKey(msg)
	}
	switch a.handler.Mode() {
	case canvas.Confirming:
		switch {
		case key.Matches(msg, a.keys.Yes):
			a.handler.Resolve(true)
			a.draft.Blur()
		case key.Matches(msg, a.keys.No):
			a.handler.Resolve(false)
		}
		return nil
	case canvas.Editing:
		return a.popoverKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Generate):
		return a.generate()
	case key.Matches(msg, a.keys.Summarize):
		return a.summarize()
	case key.Matches(msg, a.keys.Lock):
		a.lock()
		return textinput.Blink
	case key.Matches(msg, a.keys.Export):
		a.export(export.FormatHTML)
		return nil
	case key.Matches(msg, a.keys.ExportMD):
		a.export(export.FormatMarkdown)
		return nil
	case key.Matches(msg, a.keys.Clear):
		a.openModal(modalConfirmClear, "Clear the canvas and all feedback pins?")
		return nil
	case key.Matches(msg, a.keys.Incognito):
		a.toggleIncognito()
		return nil
	case key.Matches(msg, a.keys.Notifications):
		a.unread = 0
		a.loadExportLog()
		a.openModal(modalNotifications, "")
		return nil
	case key.Matches(msg, a.keys.Focus):
		a.switchFocus()
		return nil
	}

	if a.focus == focusCanvas {
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a.requestQuit()
		case key.Matches(msg, a.keys.ScrollUp):
			a.scrollBy(-1)
		case key.Matches(msg, a.keys.ScrollDown):
			a.scrollBy(1)
		}
		return nil
	}
	if key.Matches(msg, a.keys.Cancel) {
		a.switchFocus()
		return nil
	}
	var cmd tea.Cmd
	a.prompt, cmd = a.prompt.Update(msg)
	return cmd
}

func (a *App) lockKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.Submit) {
		attempt := a.pin.Value()
		a.pin.Reset()
		if err := a.ctrl.Unlock(attempt); err == nil {
			a.pin.Blur()
			if a.focus == focusPrompt {
				return a.prompt.Focus()
			}
		}
		return nil
	}
	var cmd tea.Cmd
	a.pin, cmd = a.pin.Update(msg)
	return cmd
}

func (a *App) modalKey(msg tea.KeyMsg) tea.Cmd {
	switch a.modal {
	case modalConfirmClear:
		if key.Matches(msg, a.keys.Yes) {
			a.closeModal()
			if err := a.ctrl.ClearCanvas(); err == nil {
				a.handler.Reset()
				a.scroll = 0
			}
			return nil
		}
	case modalConfirmQuit:
		if key.Matches(msg, a.keys.Yes) {
			return tea.Quit
		}
	}
	if key.Matches(msg, a.keys.No) || key.Matches(msg, a.keys.Submit) || key.Matches(msg, a.keys.Quit) {
		a.closeModal()
	}
	return nil
}

func (a *App) popoverKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Save):
		a.handler.SetDraft(a.draft.Value())
		if err := a.handler.Save(); err != nil {
			log.Printf("warn: save feedback: %v", err)
		}
		a.closePopover()
		return nil
	case key.Matches(msg, a.keys.Delete):
		if err := a.handler.Delete(); err != nil {
			log.Printf("warn: delete pin: %v", err)
		}
		a.closePopover()
		return nil
	case key.Matches(msg, a.keys.Cancel):
		a.handler.Cancel()
		a.closePopover()
		return nil
	}
	var cmd tea.Cmd
	a.draft, cmd = a.draft.Update(msg)
	a.handler.SetDraft(a.draft.Value())
	return cmd
}

func (a *App) handleMouse(msg tea.MouseMsg) {
	if a.ctrl.State().IsLocked || a.modal != modalNone || msg.Action != tea.MouseActionPress {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.scrollBy(-1)
		return
	case tea.MouseButtonWheelDown:
		a.scrollBy(1)
		return
	case tea.MouseButtonLeft:
	default:
		return
	}
	if a.handler.Mode() == canvas.Confirming {
		return
	}
	if a.handler.Mode() == canvas.Editing && a.insidePopover(msg.X, msg.Y) {
		return
	}

	// cell centre, so a click maps inside the cell it hit
	pt := session.Point{X: float64(msg.X) + 0.5, Y: float64(msg.Y) + 0.5}
	t := a.surface.HitTest(pt)
	wasEditing := a.handler.Editing()
	if t.Kind == canvas.TargetOutside && !wasEditing {
		if msg.X < sidebarWidth && a.focus != focusPrompt {
			a.switchFocus()
		}
		return
	}
	if !wasEditing && a.focus != focusCanvas {
		a.switchFocus()
	}
	if _, _, err := a.handler.Click(t); err != nil {
		log.Printf("warn: canvas click: %v", err)
	}
	switch {
	case !wasEditing && a.handler.Editing():
		a.draft.SetValue(a.handler.Draft())
		a.draft.Focus()
	case wasEditing && !a.handler.Editing():
		a.draft.Blur()
	}
}

func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case a.ctrl.State().IsLocked:
		a.pin, cmd = a.pin.Update(msg)
	case a.handler.Mode() == canvas.Editing:
		a.draft, cmd = a.draft.Update(msg)
	case a.focus == focusPrompt:
		a.prompt, cmd = a.prompt.Update(msg)
	}
	return cmd
}

func (a *App) generate() tea.Cmd {
	gw := a.ctrl.Gateway()
	prompt := a.prompt.Value()
	ctx := a.ctx
	return func() tea.Msg {
		markup, err := gw.GenerateLayout(ctx, prompt)
		return generatedMsg{markup: markup, err: err}
	}
}

func (a *App) summarize() tea.Cmd {
	gw := a.ctrl.Gateway()
	texts := a.ctrl.FeedbackTexts()
	ctx := a.ctx
	return func() tea.Msg {
		summary, err := gw.SummarizeFeedback(ctx, texts)
		return summarizedMsg{summary: summary, err: err}
	}
}

func (a *App) lock() {
	a.handler.Reset()
	a.draft.Blur()
	a.prompt.Blur()
	a.closeModal()
	a.ctrl.Lock()
	a.pin.Reset()
	a.pin.Focus()
}

func (a *App) export(f export.Format) {
	art, err := a.ctrl.ExportSnapshot(f)
	if err != nil {
		return
	}
	path, err := export.WriteFile(a.opts.ExportDir, art)
	if err != nil {
		log.Printf("warn: write export: %v", err)
		a.notices.Push(session.Notice{Title: "Export failed", Detail: err.Error(), Level: session.LevelError})
		return
	}
	a.ctrl.MarkExported()
	log.Printf("exported %s (%d bytes)", path, len(art.Body))
	if a.opts.Exports != nil {
		if err := a.opts.Exports.Record(a.ctx, art.Filename, art.MIMEType, len(art.Body)); err != nil {
			log.Printf("warn: record export: %v", err)
		}
	}
}

func (a *App) loadExportLog() {
	a.exportLog = nil
	if a.opts.Exports == nil {
		return
	}
	recs, err := a.opts.Exports.Recent(a.ctx, recentExports)
	if err != nil {
		log.Printf("warn: export history: %v", err)
		return
	}
	a.exportLog = recs
}

func (a *App) toggleIncognito() {
	on := !a.ctrl.State().IncognitoMode
	if err := a.ctrl.ToggleIncognito(on); err == nil && on {
		a.handler.Reset()
		a.draft.Blur()
		a.scroll = 0
	}
}

func (a *App) requestQuit() tea.Cmd {
	if a.modal == modalConfirmQuit {
		return tea.Quit
	}
	d := a.ctrl.BeforeLeave()
	if !d.Cancelable {
		return tea.Quit
	}
	a.openModal(modalConfirmQuit, d.Reason+" Quit anyway?")
	return nil
}

func (a *App) switchFocus() {
	if a.focus == focusPrompt {
		a.focus = focusCanvas
		a.prompt.Blur()
		return
	}
	a.focus = focusPrompt
	a.prompt.Focus()
}

func (a *App) openModal(m modalState, text string) {
	a.modal = m
	a.modalText = text
}

func (a *App) closeModal() {
	a.modal = modalNone
	a.modalText = ""
}

func (a *App) closePopover() {
	a.draft.Blur()
	a.draft.Reset()
}

func (a *App) scrollBy(d int) {
	a.scroll = max(0, min(a.scroll+d, len(a.doc.Lines)-1))
}

// flushNotices moves drained notices into the toast line.
func (a *App) flushNotices() tea.Cmd {
	drained := a.notices.Drain()
	if len(drained) == 0 {
		return nil
	}
	last := drained[len(drained)-1]
	a.toast = &last
	a.unread += len(drained)
	a.toastSeq++
	seq := a.toastSeq
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}
