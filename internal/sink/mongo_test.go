package sink

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gophecy/agentgen/internal/config"
	"github.com/gophecy/agentgen/internal/population"
)

func samplePopulation(t *testing.T) []population.Agent {
	t.Helper()
	opts := population.DefaultOptions()
	opts.Believers, opts.Sceptics, opts.Neutrals = 1, 1, 1
	rng, _ := population.NewRand(5)
	agents, err := population.Generate(opts, rng)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return agents
}

func TestDocuments(t *testing.T) {
	t.Parallel()

	agents := samplePopulation(t)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	docs := Documents("run-1", agents, at)

	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}
	for i, d := range docs {
		a := agents[i]
		want := AgentDocument{
			RunID:             "run-1",
			Ord:               i,
			ID:                a.ID,
			Category:          string(a.Category),
			Opinion:           a.Opinion,
			Charisme:          a.Charisme,
			Relation:          a.Relation,
			PersonalParameter: a.PersonalParameter,
			SubType:           string(a.SubType),
			CreatedAt:         at,
		}
		if !reflect.DeepEqual(d, want) {
			t.Errorf("document %d = %+v, want %+v", i, d, want)
		}
	}
}

func TestDocumentsClassifiesParsedAgents(t *testing.T) {
	t.Parallel()

	docs := Documents("run-1", []population.Agent{{ID: "Agent0", Opinion: 0.9}}, time.Time{})
	if docs[0].Category != string(population.Believer) {
		t.Errorf("Category = %q, want %q", docs[0].Category, population.Believer)
	}
}

func TestAgentDocumentFieldNames(t *testing.T) {
	t.Parallel()

	raw, err := bson.Marshal(AgentDocument{RunID: "r", ID: "Agent0"})
	if err != nil {
		t.Fatalf("bson.Marshal failed: %v", err)
	}

	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("bson.Unmarshal failed: %v", err)
	}
	for _, key := range []string{"run_id", "ord", "id", "category", "opinion", "charisme",
		"relation", "personal_parameter", "sub_type", "created_at"} {
		if _, ok := m[key]; !ok {
			t.Errorf("document missing field %q", key)
		}
	}
}

func TestExportInsertsInOrder(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{}
	s := newSinkWithCollection(coll, time.Second)
	s.now = func() time.Time { return time.Unix(100, 0) }

	agents := samplePopulation(t)
	n, err := s.Export(context.Background(), "run-7", agents)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Export() = %d, want 3", n)
	}

	if len(coll.inserted) != 3 {
		t.Fatalf("inserted %d documents, want 3", len(coll.inserted))
	}
	for i, doc := range coll.inserted {
		d, ok := doc.(AgentDocument)
		if !ok {
			t.Fatalf("document %d has type %T", i, doc)
		}
		if d.RunID != "run-7" || d.Ord != i {
			t.Errorf("document %d: run_id=%q ord=%d", i, d.RunID, d.Ord)
		}
		if !d.CreatedAt.Equal(time.Unix(100, 0)) || d.CreatedAt.Location() != time.UTC {
			t.Errorf("document %d: created_at = %v, want 100s UTC", i, d.CreatedAt)
		}
	}
}

func TestExportEmptyPopulation(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{}
	s := newSinkWithCollection(coll, time.Second)

	n, err := s.Export(context.Background(), "run-1", nil)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 0 || coll.calls != 0 {
		t.Errorf("Export(nil) = %d with %d insert calls, want 0 and 0", n, coll.calls)
	}
}

func TestExportErrors(t *testing.T) {
	t.Parallel()

	s := newSinkWithCollection(&fakeCollection{}, time.Second)
	if _, err := s.Export(context.Background(), "", samplePopulation(t)); err == nil {
		t.Error("expected error for empty run ID")
	}

	boom := errors.New("boom")
	s = newSinkWithCollection(&fakeCollection{err: boom}, time.Second)
	if _, err := s.Export(context.Background(), "run-1", samplePopulation(t)); !errors.Is(err, boom) {
		t.Errorf("Export() error = %v, want %v", err, boom)
	}
}

func TestEnsureIndexes(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{}
	if err := ensureIndexes(context.Background(), coll); err != nil {
		t.Fatalf("ensureIndexes failed: %v", err)
	}
	if len(coll.indexes) != 1 {
		t.Fatalf("created %d indexes, want 1", len(coll.indexes))
	}
	want := bson.D{{Key: "run_id", Value: 1}, {Key: "ord", Value: 1}}
	if !reflect.DeepEqual(coll.indexes[0].Keys, want) {
		t.Errorf("index keys = %v, want %v", coll.indexes[0].Keys, want)
	}
}

func TestNewMongoSinkRequiresSettings(t *testing.T) {
	t.Parallel()

	cases := []config.MongoConfig{
		{Database: "db", Collection: "c"},
		{URI: "mongodb://localhost", Collection: "c"},
		{URI: "mongodb://localhost", Database: "db"},
	}
	for _, cfg := range cases {
		if _, err := NewMongoSink(context.Background(), cfg); err == nil {
			t.Errorf("NewMongoSink(%v) expected error", cfg)
		}
	}
}

func TestCloseNilSink(t *testing.T) {
	t.Parallel()

	var s *MongoSink
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("Close() on nil sink = %v", err)
	}
}

// TestMongoSinkLive runs against a real server when AGENTGEN_TEST_MONGO_URI is set.
func TestMongoSinkLive(t *testing.T) {
	uri := os.Getenv("AGENTGEN_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("AGENTGEN_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	cfg := config.MongoConfig{
		URI:        uri,
		Database:   "agentgen_test",
		Collection: "agents_" + time.Now().Format("20060102150405"),
		Timeout:    10 * time.Second,
	}
	s, err := NewMongoSink(ctx, cfg)
	if err != nil {
		t.Fatalf("NewMongoSink failed: %v", err)
	}
	defer s.Close(ctx)

	n, err := s.Export(ctx, "live-run", samplePopulation(t))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Export() = %d, want 3", n)
	}

	if err := s.client.Database(cfg.Database).Collection(cfg.Collection).Drop(ctx); err != nil {
		t.Errorf("dropping test collection: %v", err)
	}
}

type fakeCollection struct {
	err      error
	calls    int
	inserted []any
	indexes  []mongodriver.IndexModel
}

func (c *fakeCollection) InsertMany(_ context.Context, documents []any, _ ...*options.InsertManyOptions) (*mongodriver.InsertManyResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	c.inserted = append(c.inserted, documents...)
	ids := make([]any, len(documents))
	for i := range ids {
		ids[i] = i
	}
	return &mongodriver.InsertManyResult{InsertedIDs: ids}, nil
}

func (c *fakeCollection) Indexes() indexView {
	return fakeIndexView{coll: c}
}

type fakeIndexView struct {
	coll *fakeCollection
}

func (v fakeIndexView) CreateOne(_ context.Context, model mongodriver.IndexModel, _ ...*options.CreateIndexesOptions) (string, error) {
	v.coll.indexes = append(v.coll.indexes, model)
	return "run_id_1_ord_1", nil
}
