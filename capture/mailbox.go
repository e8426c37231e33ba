package capture

import "context"

// mailbox hands work from background goroutines to the render thread.
// Posters block while the box is full; Pump drains it.
type mailbox struct {
	ctx context.Context
	ch  chan func()
}

func newMailbox(ctx context.Context, size int) *mailbox {
	if size <= 0 {
		size = 16
	}
	return &mailbox{ctx: ctx, ch: make(chan func(), size)}
}

// post returns false when the owner has shut down.
func (m *mailbox) post(fn func()) bool {
	if m.ctx.Err() != nil {
		return false
	}
	select {
	case m.ch <- fn:
		return true
	case <-m.ctx.Done():
		return false
	}
}

// drain runs every queued func without blocking and reports how many ran.
func (m *mailbox) drain() int {
	n := 0
	for {
		select {
		case fn := <-m.ch:
			fn()
			n++
		default:
			return n
		}
	}
}
