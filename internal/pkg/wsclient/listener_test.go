package wsclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wecare/escalas-backend/internal/domain/notification"
)

type fakeServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	mu       sync.Mutex
	sessions int
	tokens   []string
	subs     []notification.Frame
	wg       sync.WaitGroup
}

func frame(id string, kind notification.Kind) notification.Frame {
	return notification.Frame{
		Type: notification.FrameNotification,
		Notification: &notification.WireNotification{
			ID:        id,
			Kind:      kind,
			Title:     "t",
			Message:   "m",
			CreatedAt: time.Now().UTC(),
		},
	}
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.wg.Add(1)
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var sub notification.Frame
	if err := conn.ReadJSON(&sub); err != nil {
		return
	}

	s.mu.Lock()
	s.sessions++
	session := s.sessions
	s.tokens = append(s.tokens, r.URL.Query().Get("token"))
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	_ = conn.WriteJSON(notification.Frame{Type: notification.FrameConnection})
	_ = conn.WriteJSON(notification.Frame{Type: notification.FrameSubscriptionConfirmed, NotificationTypes: sub.NotificationTypes})

	if session == 1 {
		_ = conn.WriteJSON(frame("n1", notification.KindCheckInPending))
		_ = conn.WriteJSON(frame("n1", notification.KindCheckInPending))
		_ = conn.WriteJSON(notification.Frame{Type: "mystery"})
		_ = conn.WriteJSON(frame("bad", notification.Kind("leave_request")))
		// drop the connection to force a reconnect
		return
	}

	// the same event redelivered after reconnecting is still dropped
	_ = conn.WriteJSON(frame("n1", notification.KindCheckInPending))
	_ = conn.WriteJSON(frame("n2", notification.KindSystemAlert))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestListener_ReconnectsAndDedupes(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := &fakeServer{t: t}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	var mu sync.Mutex
	var got []notification.Event
	received := make(chan struct{}, 10)

	l := New(Config{
		URL:          "ws" + strings.TrimPrefix(ts.URL, "http"),
		Token:        "secret",
		MinBackoff:   10 * time.Millisecond,
		MaxBackoff:   40 * time.Millisecond,
		PingInterval: time.Hour,
	}, func(_ context.Context, e notification.Event) error {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		received <- struct{}{}
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for notifications")
		}
	}
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	srv.wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "n1", got[0].ID)
	assert.Equal(t, "n2", got[1].ID)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.GreaterOrEqual(t, srv.sessions, 2)
	assert.Equal(t, "secret", srv.tokens[0])
	assert.Equal(t, notification.FrameSubscribe, srv.subs[0].Type)
	assert.Equal(t, notification.AllKinds(), srv.subs[0].NotificationTypes)
}

func TestListener_BackoffWhenServerDown(t *testing.T) {
	defer goleak.VerifyNone(t)

	ts := httptest.NewServer(http.NotFoundHandler())
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	ts.Close()

	l := New(Config{URL: wsURL, MinBackoff: 5 * time.Millisecond, MaxBackoff: 20 * time.Millisecond}, func(context.Context, notification.Event) error {
		return nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Run(ctx), context.DeadlineExceeded)
}

func TestSeenSet_Evicts(t *testing.T) {
	s := newSeenSet(2)
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.True(t, s.Add("c"))
	assert.True(t, s.Add("a"), "oldest id was evicted")
	assert.False(t, s.Add("c"))
}

func TestNew_Defaults(t *testing.T) {
	l := New(Config{URL: "ws://example"}, nil, nil)
	assert.Equal(t, DefaultMinBackoff, l.cfg.MinBackoff)
	assert.Equal(t, DefaultMaxBackoff, l.cfg.MaxBackoff)
	assert.Equal(t, DefaultPingInterval, l.cfg.PingInterval)
	assert.Len(t, l.cfg.Kinds, 5)
}
