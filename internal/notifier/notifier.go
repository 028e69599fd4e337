package notifier

import (
	"context"
	"log"

	"PriceSentinel/internal/model"
)

// Sink delivers alerts. Display and delivery guarantees belong to the sink.
type Sink interface {
	Notify(ctx context.Context, n model.Notification) error
}

// LogNotifier writes alerts to the log. Used when Telegram is not configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (l *LogNotifier) Notify(_ context.Context, n model.Notification) error {
	log.Printf("[INFO] alert #%d: %s | %s", n.StableID, n.Title, n.Body)
	return nil
}
