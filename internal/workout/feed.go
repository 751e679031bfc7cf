package workout

import (
	"sync"

	"backend-fittrack/internal/motion"
)

// Feed is a FixSource fed by its owner through Deliver, e.g. an HTTP handler
// relaying fixes posted by a device.
type Feed struct {
	mu      sync.Mutex
	handler FixHandler
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) Subscribe(h FixHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *Feed) Unsubscribe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = nil
}

func (f *Feed) Subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler != nil
}

// Deliver hands fix to the current subscriber. It reports false when nobody
// is listening or the subscriber discarded the fix.
func (f *Feed) Deliver(fix motion.RawFix) (motion.Decision, bool) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()

	if h == nil {
		return motion.Decision{}, false
	}
	return h(fix)
}
