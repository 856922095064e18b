// Package mongo implements store.Store on MongoDB.
//
// Each upsert is one FindOneAndUpdate with upsert enabled: $setOnInsert
// assigns the id and FirstSeenAt, $max advances LastSeenAt. Unique indexes
// on the identity and on (path, dependency_id) guarantee a single document
// per key; two concurrent first inserts race on the index and the loser
// retries once, finding the winner's document.
package mongo

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/errors"
	"github.com/matzehuels/locallore/pkg/store"
)

const (
	dependencyCollection = "dependencies"
	linkCollection       = "project_dependencies"
)

// Store is a MongoDB-backed store.Store.
type Store struct {
	client *mongo.Client
	deps   *mongo.Collection
	links  *mongo.Collection
	logger *log.Logger
}

// Open connects to uri, pings the server and ensures indexes on database.
func Open(ctx context.Context, uri, database string, logger *log.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongo")
	}

	s := New(client, database, logger)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New wraps a connected client.
func New(client *mongo.Client, database string, logger *log.Logger) *Store {
	db := client.Database(database)
	return &Store{
		client: client,
		deps:   db.Collection(dependencyCollection),
		links:  db.Collection(linkCollection),
		logger: logger,
	}
}

// EnsureIndexes creates the unique identity indexes and the staleness
// index. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.deps.Indexes().CreateMany(ctx, dependencyIndexes()); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "create dependency indexes")
	}
	if _, err := s.links.Indexes().CreateMany(ctx, linkIndexes()); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "create link indexes")
	}
	return nil
}

func dependencyIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ecosystem", Value: 1}, {Key: "name", Value: 1}, {Key: "version", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("dependencies_identity_key"),
		},
		{
			Keys:    bson.D{{Key: "last_indexed_at", Value: 1}},
			Options: options.Index().SetName("dependencies_last_indexed_at"),
		},
	}
}

func linkIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "path", Value: 1}, {Key: "dependency_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("project_dependencies_path_dependency_key"),
		},
		{
			Keys:    bson.D{{Key: "dependency_id", Value: 1}},
			Options: options.Index().SetName("project_dependencies_dependency_id"),
		},
	}
}

type dependencyDoc struct {
	ID            string     `bson:"_id"`
	Ecosystem     string     `bson:"ecosystem"`
	Name          string     `bson:"name"`
	Version       string     `bson:"version"`
	FirstSeenAt   time.Time  `bson:"first_seen_at"`
	LastSeenAt    time.Time  `bson:"last_seen_at"`
	LastIndexedAt *time.Time `bson:"last_indexed_at"`
}

func (d dependencyDoc) record() store.Record {
	return store.Record{
		ID:            d.ID,
		Ecosystem:     deps.Ecosystem(d.Ecosystem),
		Name:          d.Name,
		Version:       d.Version,
		FirstSeenAt:   d.FirstSeenAt,
		LastSeenAt:    d.LastSeenAt,
		LastIndexedAt: d.LastIndexedAt,
	}
}

type linkDoc struct {
	ID           string    `bson:"_id"`
	Path         string    `bson:"path"`
	DependencyID string    `bson:"dependency_id"`
	FirstSeenAt  time.Time `bson:"first_seen_at"`
	LastSeenAt   time.Time `bson:"last_seen_at"`
}

func identityFilter(id deps.Identity) bson.D {
	return bson.D{
		{Key: "ecosystem", Value: string(id.Ecosystem)},
		{Key: "name", Value: id.Name},
		{Key: "version", Value: id.Version},
	}
}

// touchUpdate inserts the immutable fields once and advances last_seen_at.
// The filter's equality fields are copied into inserted documents by the
// server.
func touchUpdate(newID string, now time.Time, onInsert ...bson.E) bson.D {
	insert := bson.D{{Key: "_id", Value: newID}, {Key: "first_seen_at", Value: now}}
	insert = append(insert, onInsert...)
	return bson.D{
		{Key: "$setOnInsert", Value: insert},
		{Key: "$max", Value: bson.D{{Key: "last_seen_at", Value: now}}},
	}
}

func upsertOptions() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
}

// findOneAndUpsert runs the upsert, retrying once when a concurrent insert
// of the same key wins the unique index.
func findOneAndUpsert(ctx context.Context, coll *mongo.Collection, filter, update bson.D, out any) error {
	err := coll.FindOneAndUpdate(ctx, filter, update, upsertOptions()).Decode(out)
	if mongo.IsDuplicateKeyError(err) {
		err = coll.FindOneAndUpdate(ctx, filter, update, upsertOptions()).Decode(out)
	}
	return err
}

func (s *Store) UpsertDependency(ctx context.Context, dep deps.Dependency, now time.Time) (store.Record, error) {
	update := touchUpdate(uuid.NewString(), now, bson.E{Key: "last_indexed_at", Value: nil})
	var doc dependencyDoc
	if err := findOneAndUpsert(ctx, s.deps, identityFilter(dep.Identity), update, &doc); err != nil {
		return store.Record{}, errors.Wrap(errors.ErrCodeStore, err, "upsert dependency %s", dep.Identity)
	}
	return doc.record(), nil
}

func (s *Store) UpsertLink(ctx context.Context, path, dependencyID string, now time.Time) (store.Link, error) {
	filter := bson.D{{Key: "path", Value: path}, {Key: "dependency_id", Value: dependencyID}}
	var doc linkDoc
	if err := findOneAndUpsert(ctx, s.links, filter, touchUpdate(uuid.NewString(), now), &doc); err != nil {
		return store.Link{}, errors.Wrap(errors.ErrCodeStore, err, "upsert link %s -> %s", path, dependencyID)
	}
	return store.Link(doc), nil
}

func (s *Store) FindUnindexed(ctx context.Context) ([]store.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ecosystem", Value: 1}, {Key: "name", Value: 1}, {Key: "version", Value: 1}})
	cur, err := s.deps.Find(ctx, bson.D{{Key: "last_indexed_at", Value: nil}}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "find unindexed dependencies")
	}
	var docs []dependencyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode unindexed dependencies")
	}
	out := make([]store.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return out, nil
}

func (s *Store) MarkIndexed(ctx context.Context, id deps.Identity, at time.Time) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "last_indexed_at", Value: at}}}}
	res, err := s.deps.UpdateOne(ctx, identityFilter(id), update)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "mark %s indexed", id)
	}
	if res.MatchedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "dependency %s not found", id)
	}
	return nil
}

func (s *Store) ProjectsUsing(ctx context.Context, id deps.Identity) ([]store.Link, error) {
	var dep dependencyDoc
	err := s.deps.FindOne(ctx, identityFilter(id)).Decode(&dep)
	if err == mongo.ErrNoDocuments {
		return []store.Link{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "find %s", id)
	}

	opts := options.Find().SetSort(bson.D{{Key: "path", Value: 1}})
	cur, err := s.links.Find(ctx, bson.D{{Key: "dependency_id", Value: dep.ID}}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "find projects using %s", id)
	}
	var docs []linkDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode projects using %s", id)
	}
	out := make([]store.Link, 0, len(docs))
	for _, d := range docs {
		out = append(out, store.Link(d))
	}
	return out, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
