package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yigit/certtrack/internal/pkg/email"
	"github.com/yigit/certtrack/internal/pkg/websocket"
)

// Mailer is the subset of the email service the email sink needs
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
	SendStatusUpdateEmail(ctx context.Context, msg email.StatusUpdate) error
}

// EmailSink mails the affected user
type EmailSink struct {
	mailer Mailer
}

// NewEmailSink creates an EmailSink
func NewEmailSink(mailer Mailer) *EmailSink {
	return &EmailSink{mailer: mailer}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(ctx context.Context, event Event) error {
	if event.UserEmail == "" {
		return nil
	}
	switch event.Kind {
	case KindWelcome:
		return s.mailer.SendWelcomeEmail(ctx, event.UserEmail, event.UserName)
	case KindStatusChanged:
		return s.mailer.SendStatusUpdateEmail(ctx, email.StatusUpdate{
			ToEmail:         event.UserEmail,
			ToName:          event.UserName,
			CertificateType: event.CertificateType,
			Status:          event.Status,
			Comment:         event.Comment,
		})
	default:
		return nil
	}
}

// EventPublisher is the subset of the Kafka publisher the Kafka sink needs
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// KafkaSink publishes status changes keyed by request id
type KafkaSink struct {
	publisher EventPublisher
}

// NewKafkaSink creates a KafkaSink
func NewKafkaSink(publisher EventPublisher) *KafkaSink {
	return &KafkaSink{publisher: publisher}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Deliver(ctx context.Context, event Event) error {
	if event.Kind != KindStatusChanged {
		return nil
	}
	return s.publisher.PublishEvent(ctx, strconv.FormatInt(event.RequestID, 10), event)
}

// LiveFeed is the subset of the websocket hub the hub sink needs
type LiveFeed interface {
	SendToUser(message *websocket.Message) bool
}

// HubSink pushes status changes to the student's open websocket connections
type HubSink struct {
	feed LiveFeed
}

// NewHubSink creates a HubSink
func NewHubSink(feed LiveFeed) *HubSink {
	return &HubSink{feed: feed}
}

func (s *HubSink) Name() string { return "websocket" }

func (s *HubSink) Deliver(_ context.Context, event Event) error {
	if event.Kind != KindStatusChanged {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal live event: %w", err)
	}
	if !s.feed.SendToUser(&websocket.Message{
		Type:      string(event.Kind),
		UserID:    event.UserID,
		Payload:   payload,
		Timestamp: event.OccurredAt,
	}) {
		return fmt.Errorf("live feed backlog full")
	}
	return nil
}
