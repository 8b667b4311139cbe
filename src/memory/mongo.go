package memory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists records in a MongoDB collection and recalls them
// with case-insensitive keyword regexes, newest first.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoRecord struct {
	ID        string         `bson:"_id"`
	Content   string         `bson:"content"`
	Kind      string         `bson:"kind"`
	Metadata  map[string]any `bson:"metadata,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" || collection == "" {
		return nil, errors.New("mongo database and collection names are required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, content, kind string, meta map[string]any) (string, error) {
	rec := mongoRecord{
		ID:        uuid.NewString(),
		Content:   content,
		Kind:      kind,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("save memory: %w", err)
	}
	return rec.ID, nil
}

func (s *MongoStore) Recall(ctx context.Context, query string, topK int) ([]Record, error) {
	if topK <= 0 {
		return nil, nil
	}
	filter := keywordFilter(query)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(topK))
	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("recall memories: %w", err)
	}
	defer cur.Close(ctx)

	var out []Record
	for cur.Next(ctx) {
		var rec mongoRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode memory: %w", err)
		}
		out = append(out, Record{
			ID:        rec.ID,
			Content:   rec.Content,
			Kind:      rec.Kind,
			Metadata:  rec.Metadata,
			CreatedAt: rec.CreatedAt,
		})
	}
	return out, cur.Err()
}

func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// keywordFilter ORs a regex per significant query token so partial
// matches still recall.
func keywordFilter(query string) bson.M {
	var clauses []bson.M
	for _, f := range strings.Fields(strings.ToLower(query)) {
		if len(f) <= 2 {
			continue
		}
		clauses = append(clauses, bson.M{"content": bson.M{
			"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(f), Options: "i"},
		}})
	}
	if len(clauses) == 0 {
		return bson.M{}
	}
	return bson.M{"$or": clauses}
}
