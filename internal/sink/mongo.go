// Package sink exports generated populations to MongoDB.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gophecy/agentgen/internal/config"
	"github.com/gophecy/agentgen/internal/population"
)

const defaultTimeout = 10 * time.Second

// AgentDocument is the stored form of one agent.
type AgentDocument struct {
	RunID             string             `bson:"run_id"`
	Ord               int                `bson:"ord"`
	ID                string             `bson:"id"`
	Category          string             `bson:"category"`
	Opinion           float64            `bson:"opinion"`
	Charisme          map[string]float64 `bson:"charisme"`
	Relation          map[string]float64 `bson:"relation"`
	PersonalParameter float64            `bson:"personal_parameter"`
	SubType           string             `bson:"sub_type"`
	CreatedAt         time.Time          `bson:"created_at"`
}

// MongoSink inserts populations into a MongoDB collection.
type MongoSink struct {
	client  *mongodriver.Client
	coll    collection
	timeout time.Duration
	now     func() time.Time
}

// NewMongoSink connects to cfg.URI, pings the server and ensures the
// (run_id, ord) index exists.
func NewMongoSink(ctx context.Context, cfg config.MongoConfig) (*MongoSink, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("mongo collection name is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongodriver.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo %s: %w", cfg.RedactedURI(), err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo %s: %w", cfg.RedactedURI(), err)
	}

	coll := mongoCollection{coll: client.Database(cfg.Database).Collection(cfg.Collection)}
	if err := ensureIndexes(cctx, coll); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create mongo index: %w", err)
	}

	s := newSinkWithCollection(coll, timeout)
	s.client = client
	return s, nil
}

func newSinkWithCollection(coll collection, timeout time.Duration) *MongoSink {
	return &MongoSink{coll: coll, timeout: timeout, now: time.Now}
}

// Export inserts one document per agent, tagged with runID. It returns the
// number of documents inserted.
func (s *MongoSink) Export(ctx context.Context, runID string, agents []population.Agent) (int, error) {
	if runID == "" {
		return 0, errors.New("run id is required")
	}
	if len(agents) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs := Documents(runID, agents, s.now().UTC())
	batch := make([]any, len(docs))
	for i := range docs {
		batch[i] = docs[i]
	}

	res, err := s.coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true))
	if err != nil {
		return 0, fmt.Errorf("insert agents for run %s: %w", runID, err)
	}
	return len(res.InsertedIDs), nil
}

// Close disconnects the client.
func (s *MongoSink) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Documents converts a population into stored documents, preserving order.
func Documents(runID string, agents []population.Agent, createdAt time.Time) []AgentDocument {
	docs := make([]AgentDocument, len(agents))
	for i, a := range agents {
		category := a.Category
		if !category.Valid() {
			category = population.ClassifyOpinion(a.Opinion)
		}
		docs[i] = AgentDocument{
			RunID:             runID,
			Ord:               i,
			ID:                a.ID,
			Category:          string(category),
			Opinion:           a.Opinion,
			Charisme:          a.Charisme,
			Relation:          a.Relation,
			PersonalParameter: a.PersonalParameter,
			SubType:           string(a.SubType),
			CreatedAt:         createdAt,
		}
	}
	return docs
}

func ensureIndexes(ctx context.Context, coll collection) error {
	index := mongodriver.IndexModel{
		Keys: bson.D{
			{Key: "run_id", Value: 1},
			{Key: "ord", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}

type collection interface {
	InsertMany(ctx context.Context, documents []any, opts ...*options.InsertManyOptions) (*mongodriver.InsertManyResult, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...*options.CreateIndexesOptions) (string, error)
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) InsertMany(ctx context.Context, documents []any, opts ...*options.InsertManyOptions) (*mongodriver.InsertManyResult, error) {
	return c.coll.InsertMany(ctx, documents, opts...)
}

func (c mongoCollection) Indexes() indexView {
	return c.coll.Indexes()
}
