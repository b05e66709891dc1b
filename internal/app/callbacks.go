package app

import tea "github.com/charmbracelet/bubbletea"

// CallbackQueue carries completions from background goroutines onto the
// bubbletea update loop. Its Post method is the gateway poster.
type CallbackQueue struct {
	ch chan func()
}

// NewCallbackQueue returns a queue buffering up to size completions before
// Post blocks.
func NewCallbackQueue(size int) *CallbackQueue {
	if size < 1 {
		size = 1
	}
	return &CallbackQueue{ch: make(chan func(), size)}
}

// Post enqueues fn. It is safe to call from any goroutine.
func (q *CallbackQueue) Post(fn func()) {
	q.ch <- fn
}

// next waits for one queued completion.
func (q *CallbackQueue) next() tea.Cmd {
	if q == nil {
		return nil
	}
	return func() tea.Msg {
		fn, ok := <-q.ch
		if !ok {
			return nil
		}
		return callbackMsg{fn: fn}
	}
}
