package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/notification-sync/internal/model"
)

// FakeTransport is a scriptable notification service. Each Func field
// overrides one call; unset fields answer from Records. Call counts are
// recorded for every method.
type FakeTransport struct {
	ListFunc        func(ctx context.Context) ([]model.Notification, error)
	MarkReadFunc    func(ctx context.Context, id string) error
	MarkAllReadFunc func(ctx context.Context) error
	UnreadCountFunc func(ctx context.Context) (int, error)

	mu           sync.Mutex
	Records      []model.Notification
	listCalls    int
	markCalls    []string
	markAllCalls int
	countCalls   int
}

// NewFakeTransport returns a fake serving a copy of records.
func NewFakeTransport(records ...model.Notification) *FakeTransport {
	cp := make([]model.Notification, len(records))
	copy(cp, records)
	return &FakeTransport{Records: cp}
}

func (f *FakeTransport) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	f.listCalls++
	fn := f.ListFunc
	out := make([]model.Notification, len(f.Records))
	copy(out, f.Records)
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return out, nil
}

func (f *FakeTransport) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	f.markCalls = append(f.markCalls, id)
	fn := f.MarkReadFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Records {
		if f.Records[i].ID == id {
			f.Records[i].Read = true
		}
	}
	return nil
}

func (f *FakeTransport) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	f.markAllCalls++
	fn := f.MarkAllReadFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Records {
		f.Records[i].Read = true
	}
	return nil
}

func (f *FakeTransport) UnreadCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	f.countCalls++
	fn := f.UnreadCountFunc
	unread := 0
	for _, r := range f.Records {
		if !r.Read {
			unread++
		}
	}
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return unread, nil
}

// SetRecords replaces what the fake serves.
func (f *FakeTransport) SetRecords(records ...model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records = append([]model.Notification(nil), records...)
}

// ListCalls returns how often ListNotifications was called.
func (f *FakeTransport) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// MarkReadCalls returns the ids passed to MarkRead, in call order.
func (f *FakeTransport) MarkReadCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.markCalls...)
}

// MarkAllCalls returns how often MarkAllRead was called.
func (f *FakeTransport) MarkAllCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markAllCalls
}

// CountCalls returns how often UnreadCount was called.
func (f *FakeTransport) CountCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countCalls
}

// ManualTicker is a Ticker driven by the test. Tick blocks until the
// poller receives the tick.
type ManualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

// NewManualTicker returns a ticker with an unbuffered channel.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time)}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }

func (m *ManualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Stopped reports whether Stop was called.
func (m *ManualTicker) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Tick delivers one tick.
func (m *ManualTicker) Tick() {
	m.ch <- time.Now()
}
