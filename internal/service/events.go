package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/campus_food/pkg/logging"
)

const (
	EventUserRegistered = "user_registered"
	EventUserLoggedIn   = "user_logged_in"
	EventUserLoggedOut  = "user_logged_out"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type UserEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"userId,omitempty"`
	Username   string    `json:"username,omitempty"`
	Role       string    `json:"role,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (s *AuthService) publish(ctx context.Context, typ string, userID uint, username, role string) {
	if s.Events == nil {
		return
	}
	ev := UserEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		Username:   username,
		Role:       role,
		OccurredAt: s.now(),
	}
	if err := s.Events.PublishEvent(ctx, s.topic(), strconv.FormatUint(uint64(userID), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "type", typ, "error", err)
	}
}
