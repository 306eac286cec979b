package profile

import (
	"context"
	"errors"

	"github.com/opensearch-project/opensearch-go/v2"
)

// SearchConfig holds OpenSearch connection parameters for the profile
// search index.
type SearchConfig struct {
	Addresses    []string `env:"PROFILE_OPENSEARCH_ADDRESSES,required"`
	Username     string   `env:"PROFILE_OPENSEARCH_USERNAME"`
	Password     string   `env:"PROFILE_OPENSEARCH_PASSWORD"`
	Index        string   `env:"PROFILE_OPENSEARCH_INDEX" envDefault:"profiles"`
	MaxRetries   int      `env:"PROFILE_OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry bool     `env:"PROFILE_OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
}

// ConnectSearch creates an OpenSearch client and verifies cluster
// connectivity before returning it.
func ConnectSearch(ctx context.Context, cfg SearchConfig) (*opensearch.Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.DisableRetry,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	if _, err := client.Info(client.Info.WithContext(ctx)); err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return client, nil
}
