package profile

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore implements Store on a Mongo collection. Profiles are keyed
// by _id, holding the provider-assigned identity.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a Mongo-backed profile store on the configured
// database and collection.
func NewMongoStore(client *mongo.Client, cfg MongoConfig) *MongoStore {
	return &MongoStore{
		coll: client.Database(cfg.Database).Collection(cfg.Collection),
	}
}

// Save creates or replaces the profile keyed by its ID.
func (s *MongoStore) Save(ctx context.Context, p Profile) error {
	if p.ID == "" {
		return ErrInvalidProfile
	}

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": p.ID}, p,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	return nil
}

// Fetch retrieves a profile by ID. The write-only secret field is
// stripped before returning.
func (s *MongoStore) Fetch(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, errors.Join(ErrQueryFailed, err)
	}

	p.Secret = ""
	return p, nil
}

// UpdateVerification sets only the verified flag of the profile.
func (s *MongoStore) UpdateVerification(ctx context.Context, id string, verified bool) error {
	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"verified": verified}})
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// QueryByVerification lists profiles matching the verified flag.
func (s *MongoStore) QueryByVerification(ctx context.Context, verified bool) ([]Profile, error) {
	return s.list(ctx, bson.M{"verified": verified})
}

// Search lists profiles whose display name or email contains the query,
// case-insensitively. The query is treated as a literal, not a pattern.
func (s *MongoStore) Search(ctx context.Context, query string) ([]Profile, error) {
	pattern := regexp.QuoteMeta(query)
	return s.list(ctx, bson.M{"$or": []bson.M{
		{"display_name": bson.M{"$regex": pattern, "$options": "i"}},
		{"email": bson.M{"$regex": pattern, "$options": "i"}},
	}})
}

// FetchAll lists every profile.
func (s *MongoStore) FetchAll(ctx context.Context) ([]Profile, error) {
	return s.list(ctx, bson.M{})
}

func (s *MongoStore) list(ctx context.Context, filter bson.M) ([]Profile, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(
		bson.D{{Key: "display_name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	var out []Profile
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	for i := range out {
		out[i].Secret = ""
	}
	return out, nil
}
