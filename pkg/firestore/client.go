package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client wraps the Firestore connection shared by the remote collections.
type Client struct {
	client    *firestore.Client
	projectID string
}

// New opens a Firestore client. Application default credentials are used
// when no credentials file is configured; FIRESTORE_EMULATOR_HOST is honored
// by the SDK.
func New(ctx context.Context, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	var opts []option.ClientOption
	if gcp.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(gcp.CredentialsFile))
	}

	fs, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "project_id", projectID), "firestore client initialized")
	}
	return &Client{client: fs, projectID: projectID}, nil
}

// Firestore returns the SDK client.
func (c *Client) Firestore() *firestore.Client {
	if c == nil {
		return nil
	}
	return c.client
}

func (c *Client) ProjectID() string {
	return c.projectID
}

// Ping lists at most one root collection to prove the backend answers.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("firestore client not initialized")
	}
	it := c.client.Collections(ctx)
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

// Close releases the client connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
