package scanner

import "time"

// DefaultDebounce is how long a repeated value stays quiet.
const DefaultDebounce = 1500 * time.Millisecond

// Debouncer decides whether a decoded value is a new scan. A value is
// distinct when it differs from the last accepted one or when more than
// window has passed since then. It is not safe for concurrent use.
type Debouncer struct {
	window    time.Duration
	lastValue string
	lastTime  time.Time
	now       func() time.Time
}

// NewDebouncer creates a debouncer with the given window. now may be nil.
func NewDebouncer(window time.Duration, now func() time.Time) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	if now == nil {
		now = time.Now
	}
	return &Debouncer{window: window, now: now}
}

// Accept reports whether value is distinct and, if so, remembers it.
func (d *Debouncer) Accept(value string) bool {
	now := d.now()
	if value == d.lastValue && !d.lastTime.IsZero() && now.Sub(d.lastTime) <= d.window {
		return false
	}
	d.lastValue = value
	d.lastTime = now
	return true
}
