package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
)

// MessageSender is the part of the FCM client the push sink uses.
type MessageSender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// NewFirebaseSender builds an FCM client from a service account file.
func NewFirebaseSender(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return client, nil
}

// UserTopic is the FCM topic a user's devices subscribe to.
func UserTopic(userID int32) string {
	return fmt.Sprintf("user-%d", userID)
}

// PushSink sends one FCM message per recipient to the recipient's topic.
type PushSink struct {
	sender MessageSender
}

func NewPushSink(sender MessageSender) *PushSink {
	return &PushSink{sender: sender}
}

func (s *PushSink) Name() string { return "push" }

func (s *PushSink) Deliver(ctx context.Context, ev domain.EngineEvent) error {
	msg := Render(ev)
	for _, userID := range ev.Recipients {
		topic := UserTopic(userID)
		logger.ExternalServiceCall("fcm", "Send", "topic", topic, "type", ev.Type)
		_, err := s.sender.Send(ctx, &messaging.Message{
			Topic: topic,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Attributes,
		})
		logger.ExternalServiceResult("fcm", "Send", err, "topic", topic)
		if err != nil {
			return fmt.Errorf("push to %s: %w", topic, err)
		}
	}
	return nil
}

// LogSender stands in for FCM when no credentials are configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg *messaging.Message) (string, error) {
	logger.Info("Push notification (log only)", "topic", msg.Topic, "title", msg.Notification.Title)
	return "log-only", nil
}
