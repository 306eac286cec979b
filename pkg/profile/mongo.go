package profile

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConfig holds connection parameters for the Mongo-backed profile
// store.
type MongoConfig struct {
	ConnectionURL   string        `env:"PROFILE_MONGO_URL,required"`
	Database        string        `env:"PROFILE_MONGO_DATABASE" envDefault:"authkit"`
	Collection      string        `env:"PROFILE_MONGO_COLLECTION" envDefault:"profiles"`
	ConnectTimeout  time.Duration `env:"PROFILE_MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize     uint64        `env:"PROFILE_MONGO_MAX_POOL_SIZE" envDefault:"100"`
	MinPoolSize     uint64        `env:"PROFILE_MONGO_MIN_POOL_SIZE" envDefault:"0"`
	MaxConnIdleTime time.Duration `env:"PROFILE_MONGO_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	RetryAttempts   int           `env:"PROFILE_MONGO_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval   time.Duration `env:"PROFILE_MONGO_RETRY_INTERVAL" envDefault:"5s"`
}

// ConnectMongo establishes a Mongo client and verifies the connection
// with a ping, retrying a configurable number of times.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	for i := 0; i < cfg.RetryAttempts; i++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}

		time.Sleep(cfg.RetryInterval)
	}

	return nil, ErrConnectionFailed
}
