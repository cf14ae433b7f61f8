package job

import (
	"context"
	"time"

	"orderpay/internal/config"
	"orderpay/internal/logger"
	"orderpay/internal/model"

	"go.uber.org/zap"
)

type OutboxQueue interface {
	GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	MarkAsSent(ctx context.Context, id int64) error
	IncrementRetryCount(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key, value string) error
}

// OutboxSender relays PENDING outbox rows to Kafka. A row that keeps
// failing is parked as FAILED after maxRetry attempts.
type OutboxSender struct {
	queue     OutboxQueue
	publisher Publisher
	stopCh    chan struct{}
	interval  time.Duration
	batchSize int
	maxRetry  int
}

func NewOutboxSender(queue OutboxQueue, publisher Publisher, cfg *config.BusinessConfig) *OutboxSender {
	s := &OutboxSender{
		queue:     queue,
		publisher: publisher,
		stopCh:    make(chan struct{}),
		interval:  cfg.OutboxInterval,
		batchSize: cfg.OutboxBatchSize,
		maxRetry:  cfg.OutboxMaxRetry,
	}
	if s.interval <= 0 {
		s.interval = time.Second
	}
	if s.batchSize <= 0 {
		s.batchSize = 100
	}
	if s.maxRetry <= 0 {
		s.maxRetry = 5
	}
	return s
}

// Start blocks until ctx is done or Stop is called.
func (s *OutboxSender) Start(ctx context.Context) {
	log := logger.L().With(zap.String("job", "outbox_sender"))
	log.Info("outbox sender started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox sender stopped", zap.Error(ctx.Err()))
			return
		case <-s.stopCh:
			log.Info("outbox sender stopped")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

// processPendingMessages returns how many messages were published.
func (s *OutboxSender) processPendingMessages(ctx context.Context) int {
	messages, err := s.queue.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		logger.L().Error("query pending outbox messages", zap.Error(err))
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}
		if s.sendMessage(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) bool {
	log := logger.L().With(
		zap.Int64("outbox_id", msg.ID),
		zap.String("topic", msg.Topic),
		zap.String("key", msg.MessageKey),
	)

	err := s.publisher.Publish(ctx, msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if err := s.queue.MarkAsSent(ctx, msg.ID); err != nil {
			// Re-sent on the next tick; consumers dedupe on event_id.
			log.Error("mark outbox message sent", zap.Error(err))
		}
		return true
	}

	log.Warn("publish outbox message", zap.Int("retry_count", msg.RetryCount), zap.Error(err))

	if err := s.queue.IncrementRetryCount(ctx, msg.ID); err != nil {
		log.Error("increment outbox retry count", zap.Error(err))
	}

	if msg.RetryCount+1 >= s.maxRetry {
		if err := s.queue.MarkAsFailed(ctx, msg.ID); err != nil {
			log.Error("mark outbox message failed", zap.Error(err))
		} else {
			log.Error("outbox message exceeded max retries", zap.Int("max_retry", s.maxRetry))
		}
	}
	return false
}
