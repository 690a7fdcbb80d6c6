// pkg/pubsub/client.go
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultPublishTimeout = 10 * time.Second

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopic           = errors.New("pubsub analytics topic is required")
)

// NewClient creates a Pub/Sub v2 client and ensures the analytics topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: gcp.ProjectID,
		cfg:       cfg,
	}

	if err := c.ensureTopicExists(ctx, cfg.AnalyticsTopic); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", cfg.AnalyticsTopic), "pubsub client initialized")
	}

	return c, nil
}

func (c *Client) ensureTopicExists(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return errNoTopic
	}
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return fmt.Errorf("topic %q not configured", name)
	}

	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	if err != nil {
		// v2 uses gRPC errors; NotFound means the topic doesn't exist.
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", name)
		}
		return fmt.Errorf("checking topic %q: %w", name, err)
	}
	return nil
}

// Publisher returns a publisher handle for the given topic ID/resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return nil
	}
	return c.client.Publisher(fullName)
}

// AnalyticsPublisher returns an EventPublisher for the configured analytics topic.
func (c *Client) AnalyticsPublisher(logg *logger.Logger) *EventPublisher {
	pub := c.Publisher(c.cfg.AnalyticsTopic)
	if pub == nil {
		return nil
	}
	return NewEventPublisher(pub, logg)
}

// Ping verifies Pub/Sub connectivity by checking the analytics topic exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.ensureTopicExists(ctx, c.cfg.AnalyticsTopic)
}

// Close releases the Pub/Sub client resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) topicResourceName(name string) string {
	if c == nil {
		return ""
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(c.projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", p, n)
}

// EventPublisher hands messages to the SDK's batching publisher without
// waiting for the server; delivery failures are logged.
type EventPublisher struct {
	pub     *pubsub.Publisher
	logg    *logger.Logger
	timeout time.Duration
}

func NewEventPublisher(pub *pubsub.Publisher, logg *logger.Logger) *EventPublisher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &EventPublisher{pub: pub, logg: logg, timeout: defaultPublishTimeout}
}

func (p *EventPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) {
	result := p.pub.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	if result == nil {
		return
	}
	logCtx := p.logg.WithFields(context.WithoutCancel(ctx), map[string]any{
		"event_type": attrs["event_type"],
		"event_id":   attrs["event_id"],
	})
	go func() {
		waitCtx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if _, err := result.Get(waitCtx); err != nil {
			p.logg.Error(logCtx, "pubsub.publish_failed", err)
		}
	}()
}

// Stop flushes buffered messages.
func (p *EventPublisher) Stop() {
	if p == nil || p.pub == nil {
		return
	}
	p.pub.Stop()
}
