package tui

import (
	"sync"

	"github.com/jask/claritycanvas/internal/session"
)

const noticeHistory = 20

// Notices collects controller notices until the UI drains them. Pass Push as
// session.Options.Notify.
type Notices struct {
	mu      sync.Mutex
	pending []session.Notice
	history []session.Notice
}

func NewNotices() *Notices { return &Notices{} }

func (n *Notices) Push(notice session.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, notice)
	n.history = append(n.history, notice)
	if len(n.history) > noticeHistory {
		n.history = n.history[len(n.history)-noticeHistory:]
	}
}

// Drain returns and forgets the notices pushed since the last call.
func (n *Notices) Drain() []session.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}

// History returns the most recent notices, oldest first.
func (n *Notices) History() []session.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]session.Notice(nil), n.history...)
}
