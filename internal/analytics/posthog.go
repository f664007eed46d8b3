package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/posthog/posthog-go"
	"go.uber.org/zap"
)

// PostHog queues events on the posthog-go client, which batches them in the
// background. Close flushes whatever is still queued.
type PostHog struct {
	client posthog.Client
	logger *zap.Logger
}

// NewPostHog creates a collector sending to the given PostHog host.
func NewPostHog(key, host string, logger *zap.Logger) (*PostHog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("analytics")

	client, err := posthog.NewWithConfig(key, posthog.Config{
		Endpoint: strings.TrimSuffix(host, "/"),
		Logger:   zapLogger{logger.Sugar()},
		Callback: deliveryLogger{logger},
	})
	if err != nil {
		return nil, fmt.Errorf("analytics: failed to create posthog client: %w", err)
	}
	return &PostHog{client: client, logger: logger}, nil
}

func (p *PostHog) Identify(ctx context.Context, distinctID string, props map[string]any) {
	p.enqueue(posthog.Identify{
		DistinctId: distinctID,
		Properties: posthog.Properties(props),
	})
}

// Reset only drops local identity in browser SDKs; server-side there is
// nothing to send.
func (p *PostHog) Reset(ctx context.Context, distinctID string) {
	p.logger.Debug("identity reset", zap.String("distinct_id", distinctID))
}

func (p *PostHog) Capture(ctx context.Context, distinctID, event string, props map[string]any) {
	p.enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: posthog.Properties(props),
	})
}

// Close flushes queued events and stops the client.
func (p *PostHog) Close() {
	if err := p.client.Close(); err != nil {
		p.logger.Warn("closing posthog client", zap.Error(err))
	}
}

func (p *PostHog) enqueue(msg posthog.Message) {
	if err := p.client.Enqueue(msg); err != nil {
		p.logger.Warn("event not queued", zap.Error(err))
	}
}

// zapLogger routes the client's own logging into zap.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l zapLogger) Logf(format string, args ...any)   { l.s.Infof(format, args...) }
func (l zapLogger) Warnf(format string, args ...any)  { l.s.Warnf(format, args...) }
func (l zapLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

// deliveryLogger reports batches the client gave up on.
type deliveryLogger struct {
	logger *zap.Logger
}

func (deliveryLogger) Success(posthog.APIMessage) {}

func (d deliveryLogger) Failure(msg posthog.APIMessage, err error) {
	d.logger.Warn("event not delivered", zap.Any("message", msg), zap.Error(err))
}
