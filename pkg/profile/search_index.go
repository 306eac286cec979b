package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2"
)

// SearchIndex decorates a Store with an OpenSearch-backed free-text
// search. Writes go to the wrapped store first and are then mirrored
// into the index; Search is served from the index while every other
// read delegates to the wrapped store.
//
// The index is the derived copy: if an index write fails after the
// store write succeeded, the error is returned but the durable record
// stands, and the next Save for the same ID re-mirrors it.
type SearchIndex struct {
	Store

	client *opensearch.Client
	index  string
}

// NewSearchIndex wraps base with OpenSearch-backed search on the named
// index.
func NewSearchIndex(base Store, client *opensearch.Client, index string) *SearchIndex {
	return &SearchIndex{
		Store:  base,
		client: client,
		index:  index,
	}
}

// indexDoc is the indexed projection of a Profile. The write-only
// secret never reaches the index.
type indexDoc struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Verified    bool   `json:"verified"`
}

// Save persists the profile and mirrors it into the search index.
func (s *SearchIndex) Save(ctx context.Context, p Profile) error {
	if err := s.Store.Save(ctx, p); err != nil {
		return err
	}

	doc, err := json.Marshal(indexDoc{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Verified:    p.Verified,
	})
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	res, err := s.client.Index(s.index, bytes.NewReader(doc),
		s.client.Index.WithDocumentID(p.ID),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Join(ErrSaveFailed, fmt.Errorf("index profile %s: %s", p.ID, res.Status()))
	}

	return nil
}

// UpdateVerification updates the flag in the store and patches the
// indexed document.
func (s *SearchIndex) UpdateVerification(ctx context.Context, id string, verified bool) error {
	if err := s.Store.UpdateVerification(ctx, id, verified); err != nil {
		return err
	}

	body := fmt.Sprintf(`{"doc":{"verified":%t}}`, verified)
	res, err := s.client.Update(s.index, id, bytes.NewReader([]byte(body)),
		s.client.Update.WithContext(ctx),
		s.client.Update.WithRefresh("true"),
	)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Join(ErrSaveFailed, fmt.Errorf("update indexed profile %s: %s", id, res.Status()))
	}

	return nil
}

// Search queries the index with a multi-match over display name and
// email, returning hits in relevance order.
func (s *SearchIndex) Search(ctx context.Context, query string) ([]Profile, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"display_name", "email"},
			},
		},
	})
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.Join(ErrQueryFailed, fmt.Errorf("search profiles: %s", res.Status()))
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source indexDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	out := make([]Profile, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		out = append(out, Profile{
			ID:          hit.Source.ID,
			DisplayName: hit.Source.DisplayName,
			Email:       hit.Source.Email,
			Verified:    hit.Source.Verified,
		})
	}

	return out, nil
}
