package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

type mongoStore struct {
	log    *logger.Logger
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and verifies the connection with a ping
// against the primary.
func NewMongoStore(ctx context.Context, log *logger.Logger, uri, dbName string) (Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("missing mongodb uri")
	}
	if dbName == "" {
		return nil, fmt.Errorf("missing mongodb database name")
	}
	slog := log.With("store", "MongoStore", "db", dbName)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	slog.Info("Connected to MongoDB")

	return &mongoStore{log: slog, client: client, db: client.Database(dbName)}, nil
}

func toBSONFilter(f Filter) bson.M {
	out := bson.M{}
	for k, v := range f.normalize() {
		out[k] = v
	}
	return out
}

func projection(fields []string) bson.M {
	p := bson.M{"_id": 0}
	for _, f := range fields {
		p[f] = 1
	}
	return p
}

func (s *mongoStore) Find(ctx context.Context, collection string, filter Filter, out any, opts ...FindOption) error {
	if err := checkSlicePtr(out); err != nil {
		return err
	}
	o := applyFindOptions(opts)
	cur, err := s.db.Collection(collection).Find(ctx, toBSONFilter(filter),
		options.Find().SetProjection(projection(o.Fields)))
	if err != nil {
		return fmt.Errorf("mongo find %s: %w", collection, err)
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("mongo decode %s: %w", collection, err)
	}
	return nil
}

func (s *mongoStore) FindOne(ctx context.Context, collection string, filter Filter, out any, opts ...FindOption) (bool, error) {
	o := applyFindOptions(opts)
	err := s.db.Collection(collection).FindOne(ctx, toBSONFilter(filter),
		options.FindOne().SetProjection(projection(o.Fields))).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongo find_one %s: %w", collection, err)
	}
	return true, nil
}

func (s *mongoStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	n, err := s.db.Collection(collection).CountDocuments(ctx, toBSONFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("mongo count %s: %w", collection, err)
	}
	return n, nil
}

func (s *mongoStore) InsertOne(ctx context.Context, collection string, doc any) error {
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo insert %s: %w", collection, err)
	}
	return nil
}

func (s *mongoStore) UpsertOne(ctx context.Context, collection string, filter Filter, doc any) (bool, error) {
	res, err := s.db.Collection(collection).UpdateOne(ctx, toBSONFilter(filter),
		bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("mongo upsert %s: %w", collection, err)
	}
	return res.UpsertedCount > 0, nil
}

func (s *mongoStore) UpdateOne(ctx context.Context, collection string, filter Filter, set map[string]any) (bool, error) {
	res, err := s.db.Collection(collection).UpdateOne(ctx, toBSONFilter(filter), bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("mongo update %s: %w", collection, err)
	}
	return res.MatchedCount > 0, nil
}

func (s *mongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *mongoStore) Close(ctx context.Context) error {
	s.log.Info("Disconnecting from MongoDB")
	return s.client.Disconnect(ctx)
}
