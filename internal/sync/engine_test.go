package sync_test

import (
	"context"
	"errors"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-sync/internal/metrics"
	"github.com/nhle/notification-sync/internal/model"
	appsync "github.com/nhle/notification-sync/internal/sync"
	"github.com/nhle/notification-sync/tests/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var (
	alice = model.Identity{UserID: "alice", Token: "token-a"}
	bob   = model.Identity{UserID: "bob", Token: "token-b"}
)

// harness wires an engine to per-user fake transports and a manual ticker.
type harness struct {
	engine     *appsync.Engine
	transports map[string]*testutil.FakeTransport
	ticker     *testutil.ManualTicker
	tickers    atomic.Int32
	connects   atomic.Int32

	mu     gosync.Mutex
	counts []int
}

func newHarness(t *testing.T, transports map[string]*testutil.FakeTransport) *harness {
	t.Helper()

	h := &harness{
		transports: transports,
		ticker:     testutil.NewManualTicker(),
	}

	connect := func(id model.Identity) appsync.Transport {
		h.connects.Add(1)
		return h.transports[id.UserID]
	}

	h.engine = appsync.NewEngine(connect,
		appsync.WithInterval(time.Hour),
		appsync.WithTickerFunc(func(time.Duration) appsync.Ticker {
			h.tickers.Add(1)
			return h.ticker
		}),
	)

	unsubscribe := h.engine.Bridge().Subscribe(func(count int) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.counts = append(h.counts, count)
	})
	t.Cleanup(func() {
		unsubscribe()
		h.engine.Deactivate()
	})

	return h
}

// emitted returns the counts seen on the bridge so far.
func (h *harness) emitted() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.counts...)
}

// activate starts a session and waits for its first refresh to land.
func (h *harness) activate(t *testing.T, id model.Identity) {
	t.Helper()

	h.engine.Activate(id)
	require.Eventually(t, func() bool {
		return !h.engine.Poller().Status().LastSync.IsZero()
	}, waitFor, tick, "first refresh did not complete")
}

func TestEngine_ActivateLoadsNotifications(t *testing.T) {
	fake := testutil.NewFakeTransport(
		testutil.Notification("A", false, 0),
		testutil.Notification("B", true, 60),
		testutil.Notification("C", false, 120),
	)
	h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})

	h.activate(t, alice)

	s := h.engine.Store()
	assert.Equal(t, 2, s.UnreadCount())
	unread, read := s.Partitioned()
	assert.Equal(t, []string{"A", "C"}, ids(unread))
	assert.Equal(t, []string{"B"}, ids(read))
	assert.Equal(t, alice, h.engine.Identity())
	assert.Contains(t, h.emitted(), 2)
}

func TestEngine_StartTwiceRunsOneLoop(t *testing.T) {
	fake := testutil.NewFakeTransport(testutil.Notification("A", false, 0))
	h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})

	h.activate(t, alice)
	h.engine.Activate(alice)
	assert.False(t, h.engine.Poller().Start(), "second start must be a no-op")

	const ticks = 3
	for i := 0; i < ticks; i++ {
		h.ticker.Tick()
	}

	require.Eventually(t, func() bool {
		return fake.ListCalls() == ticks+1
	}, waitFor, tick)
	assert.Never(t, func() bool {
		return fake.ListCalls() > ticks+1
	}, 50*time.Millisecond, tick)
	assert.Equal(t, int32(1), h.tickers.Load(), "only one ticker may be created")
}

func TestEngine_DeactivateClearsAndStops(t *testing.T) {
	fake := testutil.NewFakeTransport(testutil.Notification("A", false, 0))
	h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})
	h.activate(t, alice)

	h.engine.Deactivate()

	assert.False(t, h.engine.Poller().Running())
	assert.True(t, h.engine.Identity().IsZero())
	assert.Equal(t, 0, h.engine.Store().Len())
	assert.Equal(t, 0, h.engine.Store().UnreadCount())
	assert.Equal(t, 0, h.emitted()[len(h.emitted())-1])
	require.Eventually(t, h.ticker.Stopped, waitFor, tick)

	err := h.engine.Refresh(context.Background())
	assert.ErrorIs(t, err, appsync.ErrNotActive)
	assert.Equal(t, 1, fake.ListCalls())
}

func TestEngine_SameIdentityKeepsStore(t *testing.T) {
	fake := testutil.NewFakeTransport(testutil.Notification("A", false, 0))
	h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})
	h.activate(t, alice)

	refreshed := model.Identity{UserID: "alice", Token: "rotated"}
	h.engine.Activate(refreshed)

	assert.Equal(t, 1, h.engine.Store().Len())
	assert.Equal(t, "rotated", h.engine.Identity().Token)
	assert.Equal(t, int32(2), h.connects.Load())
}

func TestEngine_IdentitySwitchDiscardsStaleFetch(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	aliceFake := testutil.NewFakeTransport(testutil.Notification("alice-1", false, 0))
	aliceFake.ListFunc = func(ctx context.Context) ([]model.Notification, error) {
		close(entered)
		<-release
		return []model.Notification{testutil.Notification("alice-1", false, 0)}, nil
	}
	bobFake := testutil.NewFakeTransport(
		testutil.Notification("bob-1", false, 0),
		testutil.Notification("bob-2", true, 5),
	)
	h := newHarness(t, map[string]*testutil.FakeTransport{
		"alice": aliceFake,
		"bob":   bobFake,
	})

	h.engine.Activate(alice)
	<-entered

	h.activate(t, bob)
	close(release)

	assert.Never(t, func() bool {
		_, ok := h.engine.Store().Get("alice-1")
		return ok
	}, 100*time.Millisecond, tick, "a response for alice must not land after switching to bob")
	assert.Equal(t, []string{"bob-1", "bob-2"}, ids(h.engine.Store().All()))
	assert.Equal(t, 1, h.engine.Store().UnreadCount())
}

func TestEngine_FetchFailureKeepsStore(t *testing.T) {
	fake := testutil.NewFakeTransport(testutil.Notification("A", false, 0))
	h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})
	h.activate(t, alice)

	fake.ListFunc = func(context.Context) ([]model.Notification, error) {
		return nil, errors.New("connection refused")
	}

	err := h.engine.Refresh(context.Background())

	var fetchErr *appsync.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 1, h.engine.Store().Len())
	assert.Equal(t, 1, h.engine.Store().UnreadCount())
	assert.Equal(t, appsync.SyncError, h.engine.Poller().Status().State)
}

func TestEngine_MalformedResponseRejected(t *testing.T) {
	tests := []struct {
		name    string
		records []model.Notification
	}{
		{
			name: "duplicate ids",
			records: []model.Notification{
				testutil.Notification("X", false, 0),
				testutil.Notification("X", true, 1),
			},
		},
		{
			name:    "missing id",
			records: []model.Notification{testutil.Notification("", false, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeTransport(testutil.Notification("A", false, 0))
			h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})
			h.activate(t, alice)

			fake.SetRecords(tt.records...)
			err := h.engine.Refresh(context.Background())

			assert.Error(t, err)
			assert.Equal(t, []string{"A"}, ids(h.engine.Store().All()))
		})
	}
}

func TestEngine_TriggerRefresh(t *testing.T) {
	fake := testutil.NewFakeTransport(testutil.Notification("A", false, 0))
	h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})
	h.activate(t, alice)

	fake.SetRecords(testutil.Notification("A", false, 0), testutil.Notification("B", false, 1))
	h.engine.TriggerRefresh()

	require.Eventually(t, func() bool {
		return h.engine.Store().UnreadCount() == 2
	}, waitFor, tick)
}

func TestEngine_ServerUnreadCountDrift(t *testing.T) {
	fake := testutil.NewFakeTransport(testutil.Notification("A", false, 0))
	h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})
	h.activate(t, alice)

	count, err := h.engine.ServerUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, fake.ListCalls(), "no refresh when counts agree")

	fake.SetRecords(testutil.Notification("A", false, 0), testutil.Notification("B", false, 1))
	count, err = h.engine.ServerUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Eventually(t, func() bool {
		return h.engine.Store().UnreadCount() == 2
	}, waitFor, tick)
}

func TestEngine_NotActive(t *testing.T) {
	h := newHarness(t, map[string]*testutil.FakeTransport{})
	ctx := context.Background()

	assert.ErrorIs(t, h.engine.Refresh(ctx), appsync.ErrNotActive)
	assert.ErrorIs(t, h.engine.MarkRead(ctx, "A"), appsync.ErrNotActive)
	assert.ErrorIs(t, h.engine.MarkAllRead(ctx), appsync.ErrNotActive)
	_, err := h.engine.ServerUnreadCount(ctx)
	assert.ErrorIs(t, err, appsync.ErrNotActive)
}

func TestEngine_ActivateNotification(t *testing.T) {
	unreadRec := testutil.Notification("A", false, 0)
	unreadRec.RelatedEntityRef = "request:7"
	readRec := testutil.Notification("B", true, 5)
	readRec.RelatedEntityRef = "request:8"

	fake := testutil.NewFakeTransport(unreadRec, readRec)
	h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})
	h.activate(t, alice)
	ctx := context.Background()

	ref, err := h.engine.ActivateNotification(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "request:7", ref)
	assert.Equal(t, 0, h.engine.Store().UnreadCount())

	ref, err = h.engine.ActivateNotification(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "request:8", ref)
	assert.Equal(t, []string{"A"}, fake.MarkReadCalls(), "read records are not marked again")

	_, err = h.engine.ActivateNotification(ctx, "missing")
	assert.ErrorIs(t, err, appsync.ErrUnknownNotification)
}

func TestEngine_ActivateNotificationMarkFails(t *testing.T) {
	rec := testutil.Notification("A", false, 0)
	rec.RelatedEntityRef = "request:7"
	fake := testutil.NewFakeTransport(rec)
	fake.MarkReadFunc = func(context.Context, string) error {
		return errors.New("service unavailable")
	}
	h := newHarness(t, map[string]*testutil.FakeTransport{"alice": fake})
	h.activate(t, alice)

	ref, err := h.engine.ActivateNotification(context.Background(), "A")

	assert.Equal(t, "request:7", ref)
	var mutErr *appsync.MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, "A", mutErr.ID)
	assert.Equal(t, 1, h.engine.Store().UnreadCount())
}

func TestEngine_WithoutPolling(t *testing.T) {
	fake := testutil.NewFakeTransport(testutil.Notification("A", false, 0))
	e := appsync.NewEngine(
		func(model.Identity) appsync.Transport { return fake },
		appsync.WithoutPolling(),
	)

	e.Activate(alice)
	assert.False(t, e.Poller().Running())
	assert.Equal(t, 0, fake.ListCalls())

	require.NoError(t, e.Refresh(context.Background()))
	assert.Equal(t, 1, e.Store().UnreadCount())
	assert.Equal(t, 1, fake.ListCalls())
}

// unreadGauge reads notifysync_unread from the collector's registry.
func unreadGauge(t *testing.T, c *metrics.Collector) float64 {
	t.Helper()

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "notifysync_unread" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("notifysync_unread not gathered")
	return 0
}

func TestEngine_ResetZeroesUnreadGauge(t *testing.T) {
	collector := metrics.New()
	fakes := map[string]*testutil.FakeTransport{
		"alice": testutil.NewFakeTransport(
			testutil.Notification("A", false, 0),
			testutil.Notification("B", false, 1),
		),
		"bob": testutil.NewFakeTransport(),
	}

	e := appsync.NewEngine(
		func(id model.Identity) appsync.Transport { return fakes[id.UserID] },
		appsync.WithMetrics(collector),
		appsync.WithoutPolling(),
	)

	e.Activate(alice)
	require.NoError(t, e.Refresh(context.Background()))
	require.Equal(t, 2.0, unreadGauge(t, collector))

	e.Activate(bob)
	assert.Equal(t, 0.0, unreadGauge(t, collector), "switching identity")

	e.Activate(alice)
	require.NoError(t, e.Refresh(context.Background()))
	require.Equal(t, 2.0, unreadGauge(t, collector))

	e.Deactivate()
	assert.Equal(t, 0.0, unreadGauge(t, collector), "logout")
}

func TestEngine_TriggerReachesOnlyLiveLoop(t *testing.T) {
	aliceFake := testutil.NewFakeTransport(testutil.Notification("A", false, 0))
	bobFake := testutil.NewFakeTransport(testutil.Notification("B", false, 0))
	h := newHarness(t, map[string]*testutil.FakeTransport{
		"alice": aliceFake,
		"bob":   bobFake,
	})
	h.activate(t, alice)

	h.engine.Deactivate()
	h.engine.TriggerRefresh()

	h.activate(t, bob)
	assert.Never(t, func() bool {
		return bobFake.ListCalls() > 1
	}, 50*time.Millisecond, tick, "a trigger made while stopped must not run")

	h.engine.TriggerRefresh()
	require.Eventually(t, func() bool {
		return bobFake.ListCalls() == 2
	}, waitFor, tick, "the new loop must receive the trigger")
	assert.Equal(t, 1, aliceFake.ListCalls())
}
