// Package messaging publishes pipeline lifecycle events to EventBridge: one
// PutEvents call per event, fire-and-forget. A publish failure is logged,
// never propagated, since notification is not on the vectorize request's
// critical path.
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

const eventSource = "mindmap3d.pipeline"

// TextVectorizedEvent is emitted after a text has been successfully
// vectorized and persisted.
type TextVectorizedEvent struct {
	TextID     string    `json:"text_id"`
	UserID     string    `json:"user_id"`
	GroupCount int       `json:"group_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher sends pipeline events to an EventBridge bus.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// New creates a Publisher targeting eventBusName.
func New(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, eventBusName: eventBusName, logger: logger}
}

// PublishTextVectorized fires a TextVectorizedEvent. Failures are logged,
// not returned, so they never fail the request that triggered them.
func (p *Publisher) PublishTextVectorized(ctx context.Context, textID, userID string, groupCount int) {
	event := TextVectorizedEvent{
		TextID:     textID,
		UserID:     userID,
		GroupCount: groupCount,
		Timestamp:  time.Now().UTC(),
	}

	detail, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal vectorized event", zap.Error(err))
		return
	}

	_, err = p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.eventBusName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String("TextVectorized"),
				Detail:       aws.String(string(detail)),
				Time:         aws.Time(event.Timestamp),
			},
		},
	})
	if err != nil {
		p.logger.Warn("failed to publish text vectorized event",
			zap.Error(err), zap.String("textID", event.TextID))
	}
}
