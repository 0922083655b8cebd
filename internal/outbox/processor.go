package outbox

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"wallet/internal/domain"
	kafka_infra "wallet/internal/infrastructure/kafka"
	"wallet/internal/repository/outbox_repo"
)

const pollBatchSize = 10

// Processor drains pending outbox rows to Kafka. Publishing happens after the
// originating transaction committed, so consumers may see an event at-least
// once but never for a transfer that rolled back.
type Processor struct {
	db           *sql.DB
	outboxRepo   outbox_repo.OutboxRepository
	producer     kafka_infra.Producer
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *zap.Logger
}

func NewProcessor(
	db *sql.DB,
	outboxRepo outbox_repo.OutboxRepository,
	producer kafka_infra.Producer,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:           db,
		outboxRepo:   outboxRepo,
		producer:     producer,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       logger,
	}
}

func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("Starting outbox processor...")
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopping.")
			return
		case <-ticker.C:
			p.processPendingMessages(ctx)
		}
	}
}

func (p *Processor) processPendingMessages(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	messages, err := p.outboxRepo.GetPendingMessages(queryCtx, p.db, pollBatchSize)
	if err != nil {
		p.logger.Error("Failed to get pending outbox messages", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}

	p.logger.Debug("Found pending outbox messages", zap.Int("count", len(messages)))

	for _, msg := range messages {
		if err := p.producer.Produce(ctx, msg.Key, msg.Payload); err != nil {
			p.logger.Error("Failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}

		if err := p.outboxRepo.UpdateMessageStatusTx(ctx, p.db, msg.ID, domain.OutboxStatusSent); err != nil {
			p.logger.Error("Failed to mark outbox message as sent",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}

		p.logger.Debug("Outbox message published",
			zap.String("message_id", msg.ID),
			zap.String("message_type", msg.MessageType))
	}
}
