// Package wsclient keeps a websocket subscription to the notification server
// open, reconnecting with exponential backoff.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wecare/escalas-backend/internal/domain/notification"
)

const (
	DefaultMinBackoff   = 5 * time.Second
	DefaultMaxBackoff   = time.Minute
	DefaultPingInterval = 30 * time.Second
	defaultSeenCapacity = 1024
	writeTimeout        = 10 * time.Second
)

// Handler receives each notification once.
type Handler func(ctx context.Context, e notification.Event) error

type Config struct {
	URL          string
	Token        string
	Kinds        []notification.Kind
	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	PingInterval time.Duration
	Dialer       *websocket.Dialer
}

type Listener struct {
	cfg     Config
	handler Handler
	seen    *seenSet
	logger  *slog.Logger
}

func New(cfg Config, handler Handler, logger *slog.Logger) *Listener {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = DefaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = max(DefaultMaxBackoff, cfg.MinBackoff)
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = notification.AllKinds()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		cfg:     cfg,
		handler: handler,
		seen:    newSeenSet(defaultSeenCapacity),
		logger:  logger.With("component", "wsclient"),
	}
}

// Run connects and reads until ctx is done. It returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.cfg.MinBackoff
	for {
		connected, err := l.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = l.cfg.MinBackoff
		}
		l.logger.Warn("notification channel disconnected", "error", err, "retry_in", backoff)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, l.cfg.MaxBackoff)
	}
}

func (l *Listener) endpoint() (string, error) {
	u, err := url.Parse(l.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid notification url: %w", err)
	}
	if l.cfg.Token != "" {
		q := u.Query()
		q.Set("token", l.cfg.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// session runs one connection. connected reports whether the handshake
// succeeded so Run can reset its backoff.
func (l *Listener) session(ctx context.Context) (connected bool, err error) {
	endpoint, err := l.endpoint()
	if err != nil {
		return false, err
	}

	conn, resp, err := l.cfg.Dialer.DialContext(ctx, endpoint, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("failed to dial notification server: %w", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	defer func() {
		close(done)
		conn.Close()
		wg.Wait()
	}()

	var writeMu sync.Mutex
	write := func(f notification.Frame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteJSON(f)
	}

	if err := write(notification.SubscribeFrame(l.cfg.Kinds)); err != nil {
		return true, fmt.Errorf("failed to send subscribe frame: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(l.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				// unblocks ReadMessage below
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				if err := write(notification.Frame{Type: notification.FramePing}); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		if err := l.dispatch(ctx, data, write); err != nil {
			l.logger.Error("failed to handle notification frame", "error", err)
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, data []byte, write func(notification.Frame) error) error {
	var frame notification.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}

	switch frame.Type {
	case notification.FrameNotification:
		if frame.Notification == nil {
			return errors.New("notification frame without payload")
		}
		e := frame.Notification.Event()
		if !e.Kind.Valid() {
			return fmt.Errorf("%w: %q", notification.ErrInvalidKind, e.Kind)
		}
		if e.ID != "" && !l.seen.Add(e.ID) {
			l.logger.Debug("duplicate notification dropped", "id", e.ID)
			return nil
		}
		return l.handler(ctx, e)
	case notification.FrameConnection:
		l.logger.Info("connected to notification server")
	case notification.FrameSubscriptionConfirmed:
		l.logger.Info("notification subscription confirmed", "types", frame.NotificationTypes)
	case notification.FramePing:
		return write(notification.Frame{Type: notification.FramePong})
	case notification.FramePong:
	default:
		l.logger.Debug("unknown notification frame", "type", frame.Type)
	}
	return nil
}

// seenSet remembers the most recent IDs up to a fixed capacity.
type seenSet struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	order []string
	next  int
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		ids:   make(map[string]struct{}, capacity),
		order: make([]string, capacity),
	}
}

// Add records id and reports whether it was new.
func (s *seenSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false
	}
	if old := s.order[s.next]; old != "" {
		delete(s.ids, old)
	}
	s.order[s.next] = id
	s.next = (s.next + 1) % len(s.order)
	s.ids[id] = struct{}{}
	return true
}
