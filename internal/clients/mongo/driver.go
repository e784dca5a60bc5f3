package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// connector opens and closes the server connection. Tests replace it.
type connector interface {
	Connect(opts *options.ClientOptions) (*mongo.Client, error)
	Ping(ctx context.Context, cli *mongo.Client) error
	Disconnect(ctx context.Context, cli *mongo.Client) error
}

type liveConnector struct{}

func (liveConnector) Connect(opts *options.ClientOptions) (*mongo.Client, error) {
	cli, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return cli, nil
}

func (liveConnector) Ping(ctx context.Context, cli *mongo.Client) error {
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping primary: %w", err)
	}
	return nil
}

func (liveConnector) Disconnect(ctx context.Context, cli *mongo.Client) error {
	if err := cli.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// replicaSetName is empty on a stand-alone server.
var replicaSetName atomic.Pointer[string]

// IsReplicaSet reports whether Init found a replica set, which the cascading
// category deletes need for their transactions. It is a cached hint.
func IsReplicaSet() bool { return ReplicaSetName() != "" }

// ReplicaSetName returns the set name reported by the server's hello.
func ReplicaSetName() string {
	if p := replicaSetName.Load(); p != nil {
		return *p
	}
	return ""
}

func detectReplicaSet(ctx context.Context, cli *mongo.Client, log *slog.Logger) {
	var hello struct {
		SetName string `bson:"setName"`
	}
	err := cli.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		log.Warn("hello failed, assuming stand-alone mongo", "err", err)
		return
	}
	replicaSetName.Store(&hello.SetName)
}
