package session

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig describes the session database. Zero pool and timeout values
// fall back to the driver settings the server was tuned with.
type MongoConfig struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

func (c MongoConfig) clientOptions() *options.ClientOptions {
	pool := c.MaxPoolSize
	if pool == 0 {
		pool = 20
	}
	connect := c.ConnectTimeout
	if connect <= 0 {
		connect = 10 * time.Second
	}
	selection := c.ServerSelectionTimeout
	if selection <= 0 {
		selection = 5 * time.Second
	}

	return options.Client().
		ApplyURI(c.URI).
		SetAppName("pos-server").
		SetConnectTimeout(connect).
		SetServerSelectionTimeout(selection).
		SetMaxPoolSize(pool)
}

// ConnectMongoDB opens and pings the session database. The caller disconnects
// through db.Client().
func ConnectMongoDB(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(cfg.Database), nil
}
