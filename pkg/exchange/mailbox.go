package exchange

// Mailbox holds at most one value; a newer Put replaces an unread one.
// It supports one writer and any number of readers.
type Mailbox[T any] struct {
	ch chan T
}

// NewMailbox creates an empty mailbox
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, 1)}
}

// Put stores v, discarding any value not yet taken. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	for {
		select {
		case m.ch <- v:
			return
		default:
		}
		// Full: drop the stale value and retry
		select {
		case <-m.ch:
		default:
		}
	}
}

// Take returns the pending value, if any, without blocking
func (m *Mailbox[T]) Take() (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Ready returns a channel that yields the next value, for select loops
func (m *Mailbox[T]) Ready() <-chan T {
	return m.ch
}
