package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/notes-approval-api/internal/models"
	"github.com/noah-isme/notes-approval-api/pkg/jobs"
)

// Notifier publishes note.status_changed events for the external
// notification dispatcher. Dispatch is fire-and-forget through a
// background queue: a failed publish is logged and retried by the
// queue, and never touches the committed mutation.
type Notifier struct {
	queue   *jobs.Queue
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NotifierConfig tunes the dispatch queue.
type NotifierConfig struct {
	Channel    string
	Workers    int
	BufferSize int
	MaxRetries int
}

// NewNotifier builds the notifier; Start must be called before events
// are accepted.
func NewNotifier(client *redis.Client, cfg NotifierConfig, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Channel == "" {
		cfg.Channel = "notes.status_changed"
	}
	n := &Notifier{
		client:  client,
		channel: cfg.Channel,
		logger:  logger,
	}
	n.queue = jobs.NewQueue("note-events", n.publish, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return n
}

// Start launches the dispatch workers.
func (n *Notifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the workers.
func (n *Notifier) Stop() {
	n.queue.Stop()
}

// NotifyStatusChanged enqueues one event. Never blocks the caller on
// delivery and never returns an error to it.
func (n *Notifier) NotifyStatusChanged(event models.NoteStatusChangedEvent) {
	job := jobs.Job{
		ID:      fmt.Sprintf("%s:%s->%s", event.NoteID, event.OldStatus, event.NewStatus),
		Type:    "note.status_changed",
		Payload: event,
	}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("failed to enqueue status event",
			zap.String("note_id", event.NoteID),
			zap.Error(err))
	}
}

func (n *Notifier) publish(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NoteStatusChangedEvent)
	if !ok {
		n.logger.Error("dropping malformed event payload", zap.String("job_id", job.ID))
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("dropping unencodable event", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	if err := n.client.Publish(ctx, n.channel, body).Err(); err != nil {
		return fmt.Errorf("publish status event: %w", err)
	}
	return nil
}
