package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/bsc-kit/scorecard-api/internal/events"
)

// AuditService writes an audit trail for authentication events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserEvent)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleUserEvent)
	a.dispatcher.Subscribe(events.EventUserUpdated, a.handleUserEvent)
	a.dispatcher.Subscribe(events.EventUserDeleted, a.handleUserEvent)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventTokenRevoked, a.handleTokenRevoked)
}

func (a *AuditService) handleUserEvent(_ context.Context, event events.Event) error {
	fields := append(a.baseFields(event), zap.Any("payload", event.Payload))
	a.logger.Info(string(event.Type), fields...)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("email", p.Email), zap.String("reason", string(p.Reason)))
	}
	a.logger.Warn(string(event.Type), fields...)
	return nil
}

func (a *AuditService) handleTokenRevoked(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.TokenRevokedPayload); ok {
		fields = append(fields, zap.String("token_id", p.TokenID), zap.Time("expires_at", p.ExpiresAt))
	}
	a.logger.Info(string(event.Type), fields...)
	return nil
}

func (a *AuditService) baseFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Time("at", event.Timestamp),
	}
	if event.Actor.UserID != nil {
		fields = append(fields, zap.Int64("actor_id", *event.Actor.UserID), zap.String("actor_role", event.Actor.Role))
	}
	return fields
}
