package service

import (
	"context"

	"docvault-be/internal/pkg/logger"
	"docvault-be/pkg/events"
	"docvault-be/pkg/nats"
)

type IAuditService interface {
	Start() error
}

// auditService tails the audit stream and writes structured log lines, so
// denials and deliveries are inspectable without a NATS client.
type auditService struct {
	subscriber *nats.Subscriber
	sysLogger  logger.ILogger
}

func NewAuditService(subscriber *nats.Subscriber, sysLogger logger.ILogger) IAuditService {
	return &auditService{
		subscriber: subscriber,
		sysLogger:  sysLogger,
	}
}

func (as *auditService) Start() error {
	return as.subscriber.Subscribe("audit.>", "audit-logger", func(ctx context.Context, event events.Event) error {
		as.sysLogger.Info("audit", event.EventType(), event.Payload())
		return nil
	})
}
