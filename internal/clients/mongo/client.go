// Package mongo holds the process-wide MongoDB connection and the repositories
// of users, categories and notes built on it.
package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"note-taker/internal/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrNotInitialized is returned by Shutdown when Init never produced a client.
	ErrNotInitialized = errors.New("mongo client not initialized")
	// ErrShutdown is returned by every Shutdown after the first.
	ErrShutdown = errors.New("mongo client already shut down")
)

const (
	connectTimeout    = 10 * time.Second
	disconnectTimeout = 5 * time.Second
)

var (
	conn connector = liveConnector{}

	mu      sync.Mutex
	client  *mongo.Client
	db      *mongo.Database
	initErr error

	initOnce     sync.Once
	shutdownOnce sync.Once
)

// Init connects once per process; every call returns the outcome of the first.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	initOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		cli, err := dial(ctx, cfg)
		if err != nil {
			log.Error("mongo unavailable", "err", err)
			initErr = err
			return
		}
		detectReplicaSet(ctx, cli, log)

		mu.Lock()
		client, db = cli, cli.Database(cfg.MongoDBName)
		mu.Unlock()

		log.Info("connected to mongo", "db", cfg.MongoDBName, "replica_set", ReplicaSetName())
	})

	mu.Lock()
	defer mu.Unlock()
	return client, db, initErr
}

func dial(ctx context.Context, cfg config.Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(connectTimeout).
		SetAppName("note-taker")

	cli, err := conn.Connect(opts)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx, cli); err != nil {
		_ = conn.Disconnect(ctx, cli)
		return nil, err
	}
	return cli, nil
}

// Client returns the connected client, nil before Init or after Shutdown.
func Client() *mongo.Client {
	mu.Lock()
	defer mu.Unlock()
	return client
}

// DB returns the configured database, nil before Init or after Shutdown.
func DB() *mongo.Database {
	mu.Lock()
	defer mu.Unlock()
	return db
}

// Shutdown disconnects. Only the first call does any work.
func Shutdown(ctx context.Context) error {
	err := ErrShutdown
	shutdownOnce.Do(func() {
		mu.Lock()
		cli := client
		client, db = nil, nil
		mu.Unlock()

		if cli == nil {
			err = ErrNotInitialized
			return
		}
		ctx, cancel := context.WithTimeout(ctx, disconnectTimeout)
		defer cancel()
		err = conn.Disconnect(ctx, cli)
	})
	return err
}
