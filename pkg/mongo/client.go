// Package mongo wraps the shared MongoDB connection holding content records.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vidora/vidora-backend/pkg/config"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/logger"
)

// Client owns the driver client and the selected database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects and verifies the primary is reachable.
func New(ctx context.Context, cfg config.MongoConfig, logg *logger.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "database", cfg.Database), "mongo connection established")
	}
	return &Client{client: client, db: client.Database(cfg.Database)}, nil
}

// Database returns the configured database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Collection is shorthand for Database().Collection(name).
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// EnsureIndexes creates the lookup indexes used by the media lifecycle.
// Creating an index that already exists is a no-op on the server.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		models.VideosCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		models.TweetsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		models.LikesCollection: {
			{Keys: bson.D{{Key: "video", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "tweet", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "comment", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		models.CommentsCollection: {
			{Keys: bson.D{{Key: "video", Value: 1}}},
		},
	}
	for name, indexes := range specs {
		if _, err := c.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", name, err)
		}
	}
	return nil
}
