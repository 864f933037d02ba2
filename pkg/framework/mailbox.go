package framework

import "sync"

// Mailbox is a single-slot, latest-wins holder for a pending value.
// Posting into a full mailbox replaces the held value; a consumer
// that falls behind sees only the most recent result instead of a
// growing backlog.
type Mailbox struct {
	lock sync.Mutex
	val  interface{}
	full bool
}

// Post stores a value, replacing any value still pending.
// It reports whether a pending value was replaced.
func (m *Mailbox) Post(v interface{}) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	replaced := m.full
	m.val, m.full = v, true
	return replaced
}

// Take removes and returns the pending value, if any.
func (m *Mailbox) Take() (interface{}, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if !m.full {
		return nil, false
	}
	v := m.val
	m.val, m.full = nil, false
	return v, true
}

// Peek returns the pending value without consuming it.
func (m *Mailbox) Peek() (interface{}, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.val, m.full
}

// Full reports whether a value is pending.
func (m *Mailbox) Full() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.full
}
