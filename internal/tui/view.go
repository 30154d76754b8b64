package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/claritycanvas/internal/canvas"
	"github.com/jask/claritycanvas/internal/render"
	"github.com/jask/claritycanvas/internal/session"
)

const emptyCanvasText = "Your canvas is empty. Describe a layout in the prompt and press ctrl+g."

// canvasBox is the drawable area inside the canvas pane border, in screen cells.
func (a *App) canvasBox() session.Box {
	return session.Box{
		Left:   float64(sidebarWidth + 1),
		Top:    2,
		Width:  float64(max(a.width-sidebarWidth-2, 1)),
		Height: float64(max(a.height-4, 1)),
	}
}

// refresh rebuilds the hit-testing surface and the popover after a change.
func (a *App) refresh() {
	if a.width == 0 || a.height == 0 {
		return
	}
	st := a.ctrl.State()
	box := a.canvasBox()
	w := int(box.Width)
	if st.LayoutContent != a.docKey || w != a.docWidth {
		a.doc = render.Layout(st.LayoutContent, w)
		a.docKey, a.docWidth = st.LayoutContent, w
		a.scroll = min(a.scroll, max(len(a.doc.Lines)-1, 0))
	}
	a.surface = canvas.NewSurface(box, a.doc, st.Pins)
	a.surface.ScrollY = a.scroll

	a.popover = ""
	if a.handler.Mode() != canvas.Editing {
		return
	}
	a.popover = popoverStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("Feedback"),
		a.draft.View(),
		helpLine(a.keys.Save, a.keys.Delete, a.keys.Cancel),
	))
	p, ok := a.ctrl.Pin(a.handler.PinID())
	if !ok {
		return
	}
	col, line := canvas.MarkerCell(box, p)
	lines := strings.Split(a.popover, "\n")
	pw, ph := widest(lines), len(lines)
	a.popX = int(box.Left) + col + 2
	if a.popX+pw > a.width {
		a.popX = max(int(box.Left)+col-pw-1, 0)
	}
	a.popY = min(int(box.Top)+line, max(a.height-1-ph, 0))
}

func (a *App) insidePopover(x, y int) bool {
	if a.popover == "" {
		return false
	}
	lines := strings.Split(a.popover, "\n")
	return x >= a.popX && x < a.popX+widest(lines) && y >= a.popY && y < a.popY+len(lines)
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading…"
	}
	st := a.ctrl.State()
	header := a.renderHeader(st)
	if st.IsLocked {
		view := header + "\n" + a.renderLock()
		if a.modal == modalConfirmQuit {
			view = centerDialog(view, a.modalBody(), a.width, a.height)
		}
		return view
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, a.renderSidebar(st), a.renderCanvas(st))
	view := strings.Join([]string{header, body, a.renderFooter()}, "\n")
	view = strings.Join(fitLines(view, a.height), "\n")

	switch a.handler.Mode() {
	case canvas.Editing:
		view = placeAt(view, a.popover, a.popX, a.popY, a.width, a.height)
	case canvas.Confirming:
		view = centerDialog(view, canvas.DiscardQuestion+"\n\n"+helpLine(a.keys.Yes, a.keys.No), a.width, a.height)
	}
	if a.modal != modalNone {
		view = centerDialog(view, a.modalBody(), a.width, a.height)
	}
	return view
}

func (a *App) renderHeader(st session.State) string {
	left := titleStyle.Render(" " + a.ctrl.AppName() + " ")
	var badges []string
	if st.IsLocked {
		badges = append(badges, secureStyle.Render("Secure Mode"))
	} else if a.unread > 0 {
		badges = append(badges, badgeStyle.Render(fmt.Sprintf("● %d", a.unread)))
	}
	if st.IncognitoMode {
		badges = append(badges, errBadgeStyle.Render("Incognito"))
	}
	right := strings.Join(badges, " ")
	gap := max(a.width-ansi.StringWidth(left)-ansi.StringWidth(right), 0)
	return headerBarStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (a *App) renderSidebar(st session.State) string {
	inner := sidebarWidth - 2
	var b strings.Builder
	persist := "Autosave on"
	if st.IncognitoMode {
		persist = "Incognito: not saved"
	}
	b.WriteString(mutedStyle.Render(persist) + "\n\n")
	b.WriteString(labelStyle.Render("Prompt") + "\n")
	b.WriteString(a.prompt.View() + "\n")
	gw := a.ctrl.Gateway()
	switch {
	case gw.Generating():
		b.WriteString(mutedStyle.Render("Generating layout…") + "\n")
	case gw.Summarizing():
		b.WriteString(mutedStyle.Render("Summarizing feedback…") + "\n")
	default:
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n%s %d\n", labelStyle.Render("Pins"), len(st.Pins)))
	if a.ctrl.Dirty() {
		b.WriteString(mutedStyle.Render("Not exported yet") + "\n")
	}
	b.WriteString("\n")
	for _, k := range a.keys.sidebarHelp() {
		h := k.Help()
		b.WriteString(keyStyle.Render(fmt.Sprintf("%-7s", h.Key)) + " " + mutedStyle.Render(h.Desc) + "\n")
	}
	style := paneStyle
	if a.focus == focusPrompt {
		style = focusPaneStyle
	}
	return style.Width(inner).Height(max(a.height-4, 1)).Render(strings.TrimRight(b.String(), "\n"))
}

func (a *App) renderCanvas(st session.State) string {
	box := a.canvasBox()
	w, h := int(box.Width), int(box.Height)
	rows := make([]string, h)
	for i := range rows {
		if n := a.scroll + i; n < len(a.doc.Lines) {
			rows[i] = padANSI(a.doc.Lines[n], w)
		} else {
			rows[i] = strings.Repeat(" ", w)
		}
	}
	if len(a.doc.Lines) == 0 && len(st.Pins) == 0 {
		msg := ansi.Truncate(emptyCanvasText, w, "…")
		col := max((w-ansi.StringWidth(msg))/2, 0)
		rows[h/2] = padANSI(strings.Repeat(" ", col)+msg, w)
	}
	// markers are placed on plain rows; styling is applied per cell below
	marks := make(map[int]map[int]string)
	for _, m := range a.surface.Markers {
		if m.Line < 0 || m.Line >= h {
			continue
		}
		glyph := markerStyle.Render("●")
		if a.handler.Editing() && m.PinID == a.handler.PinID() {
			glyph = openStyle.Render("◉")
		}
		if marks[m.Line] == nil {
			marks[m.Line] = map[int]string{}
		}
		marks[m.Line][m.Col] = glyph
	}
	for line, cols := range marks {
		rows[line] = placeMarkers(rows[line], cols)
	}
	style := paneStyle
	if a.focus == focusCanvas {
		style = focusPaneStyle
	}
	return style.Render(strings.Join(rows, "\n"))
}

// placeMarkers splices styled glyphs into a plain row, right to left so
// earlier columns stay valid.
func placeMarkers(row string, cols map[int]string) string {
	order := make([]int, 0, len(cols))
	for c := range cols {
		order = append(order, c)
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && order[j] > order[j-1]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	for _, c := range order {
		row = setCell(row, c, cols[c])
	}
	return row
}

func (a *App) renderFooter() string {
	var line string
	if a.toast != nil {
		style := toastStyle
		if a.toast.Level == session.LevelError {
			style = toastErrStyle
		}
		line = style.Render(" " + a.toast.Title + ": " + a.toast.Detail + " ")
	} else {
		line = mutedStyle.Render(" click the canvas to drop a pin, click a pin to edit it")
	}
	return footerStyle.Render(padANSI(line, a.width))
}

func (a *App) renderLock() string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		labelStyle.Render("Session Locked"),
		"",
		mutedStyle.Render("Enter your 4-digit PIN to unlock."),
		"",
		a.pin.View(),
		"",
		helpLine(a.keys.Submit),
	)
	card := dialogStyle.Render(body)
	return lipgloss.Place(a.width, max(a.height-1, 1), lipgloss.Center, lipgloss.Center, card)
}

func (a *App) modalBody() string {
	switch a.modal {
	case modalConfirmClear, modalConfirmQuit:
		return a.modalText + "\n\n" + helpLine(a.keys.Yes, a.keys.No)
	case modalSummary:
		text := lipgloss.NewStyle().Width(min(60, max(a.width-10, 20))).Render(a.modalText)
		return labelStyle.Render("Feedback Summary") + "\n\n" + text + "\n\n" + mutedStyle.Render("esc close")
	case modalNotifications:
		var b strings.Builder
		b.WriteString(labelStyle.Render("Notifications") + "\n\n")
		hist := a.notices.History()
		if len(hist) == 0 {
			b.WriteString(mutedStyle.Render("Nothing yet.") + "\n")
		}
		for i := len(hist) - 1; i >= 0; i-- {
			n := hist[i]
			style := toastStyle
			if n.Level == session.LevelError {
				style = toastErrStyle
			}
			b.WriteString(style.Render(n.Title) + " " + mutedStyle.Render(n.Detail) + "\n")
		}
		if len(a.exportLog) > 0 {
			b.WriteString("\n" + labelStyle.Render("Recent exports") + "\n")
			for _, rec := range a.exportLog {
				line := fmt.Sprintf("%s  %d bytes", rec.Filename, rec.SizeBytes)
				if !rec.ExportedAt.IsZero() {
					line = rec.ExportedAt.Local().Format("Jan 2 15:04") + "  " + line
				}
				b.WriteString(mutedStyle.Render(line) + "\n")
			}
		}
		b.WriteString("\n" + mutedStyle.Render("esc close"))
		return b.String()
	}
	return ""
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, keyStyle.Render(h.Key)+" "+mutedStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
