package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wecare/escalas-backend/internal/domain/notification"
	"github.com/wecare/escalas-backend/internal/pkg/sse"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 2 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type service struct {
	repo      notification.Repository
	hub       *sse.Hub
	publisher notification.Publisher
	config    Config
	now       func() time.Time

	queue     chan notification.Event
	wg        sync.WaitGroup
	stopCh    chan struct{}
	closeOnce sync.Once
	closed    chan struct{}
}

// NewNotificationService starts the background workers. publisher may be nil
// when no broker is configured.
func NewNotificationService(repo notification.Repository, hub *sse.Hub, publisher notification.Publisher, cfg Config) notification.Service {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:      repo,
		hub:       hub,
		publisher: publisher,
		config:    cfg,
		now:       time.Now,
		queue:     make(chan notification.Event, cfg.QueueSize),
		stopCh:    make(chan struct{}),
		closed:    make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Notification service started",
		"workers", cfg.WorkerCount, "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)

	return s
}

func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.Event, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.repo.CreateBatch(ctx, batch); err != nil {
			slog.Error("Failed to persist notifications", "worker", id, "count", len(batch), "error", err)
		} else {
			slog.Debug("Persisted notifications", "worker", id, "count", len(batch))
			for _, e := range batch {
				s.fanOut(ctx, e)
			}
		}

		batch = batch[:0]
	}

	for {
		select {
		case e := <-s.queue:
			batch = append(batch, e)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// drain what is already queued
			for {
				select {
				case e := <-s.queue:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *service) fanOut(ctx context.Context, e notification.Event) {
	s.hub.Publish(e.RecipientID, sse.Event{
		ID:          e.ID,
		RecipientID: e.RecipientID,
		Name:        "notification",
		Data:        notification.NewResponse(e),
	})

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, e); err != nil {
			slog.Error("Failed to forward notification to broker", "id", e.ID, "error", err)
		}
	}
}

func (s *service) newEvent(req notification.CreateRequest) notification.Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return notification.Event{
		ID:          id.String(),
		Kind:        req.Kind,
		RecipientID: req.RecipientID,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		CreatedAt:   s.now().UTC(),
	}
}

// Queue implements notification.Service.
func (s *service) Queue(ctx context.Context, req notification.CreateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	select {
	case <-s.closed:
		return notification.ErrServiceClosed
	default:
	}

	e := s.newEvent(req)
	select {
	case s.queue <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// queue full, write through
		return s.directInsert(ctx, e)
	}
}

// QueueMany implements notification.Service.
func (s *service) QueueMany(ctx context.Context, reqs []notification.CreateRequest) error {
	for _, req := range reqs {
		if err := s.Queue(ctx, req); err != nil {
			slog.Error("Failed to queue notification", "recipient_id", req.RecipientID, "kind", req.Kind, "error", err)
		}
	}
	return nil
}

func (s *service) directInsert(ctx context.Context, e notification.Event) error {
	if err := s.repo.CreateBatch(ctx, []notification.Event{e}); err != nil {
		return err
	}
	s.fanOut(ctx, e)
	return nil
}

// Deliver implements notification.Service.
func (s *service) Deliver(ctx context.Context, e notification.Event) error {
	if !e.Kind.Valid() {
		return notification.ErrInvalidKind
	}
	if e.RecipientID == "" {
		return notification.ErrMissingRecipient
	}
	s.hub.Publish(e.RecipientID, sse.Event{
		ID:          e.ID,
		RecipientID: e.RecipientID,
		Name:        "notification",
		Data:        notification.NewResponse(e),
	})
	return nil
}

// List implements notification.Service.
func (s *service) List(ctx context.Context, recipientID string, limit int) (notification.ListResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	events, err := s.repo.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return notification.ListResponse{}, err
	}

	responses := make([]notification.Response, 0, len(events))
	for _, e := range events {
		responses = append(responses, notification.NewResponse(e))
	}
	return notification.ListResponse{Notifications: responses, Total: len(responses)}, nil
}

// Close implements notification.Service.
func (s *service) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		close(s.stopCh)
		s.wg.Wait()
		slog.Info("Notification service stopped")
	})
}
