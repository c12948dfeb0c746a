// Package mongostore implements the query.Searcher capability on MongoDB.
//
// Assets live in one collection, keyed by their string id. Search supports
// two query modes: metadata matching (case-insensitive title match) and, when
// the collection carries a text index and the capability is enabled, semantic
// text search via $text. Pagination uses decimal page cursors: the returned
// next cursor is the following page number, or empty once a short page
// signals exhaustion.
//
// The store also answers the bucket aggregation that seeds chronological
// timelines: one bucket per calendar month with its asset count, newest
// month first.
package mongostore

import (
	"context"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mosaicview/mosaic/pkg/errors"
	"github.com/mosaicview/mosaic/pkg/query"
)

// Config configures the MongoDB connection.
type Config struct {
	URI        string
	Database   string
	Collection string

	// Semantic enables $text search for criteria that request it. Requires
	// a text index on the collection.
	Semantic bool
}

// Store is a MongoDB-backed asset store.
type Store struct {
	client   *mongo.Client
	col      *mongo.Collection
	semantic bool
	logger   *log.Logger
}

// New connects to MongoDB and verifies the connection with a ping.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to %s", cfg.URI)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping %s", cfg.URI)
	}

	return &Store{
		client:   client,
		col:      client.Database(cfg.Database).Collection(cfg.Collection),
		semantic: cfg.Semantic,
		logger:   logger,
	}, nil
}

// Search implements query.Searcher.
func (s *Store) Search(ctx context.Context, c query.Criteria, cursor string) (query.Page, error) {
	if err := c.Validate(); err != nil {
		return query.Page{}, err
	}
	if err := errors.ValidateCursor(cursor); err != nil {
		return query.Page{}, err
	}

	page := 1
	if cursor != "" {
		page, _ = strconv.Atoi(cursor)
	}
	limit := c.Limit()

	filter := s.filter(c)
	opts := options.Find().
		SetSort(bson.D{{Key: "taken_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return query.Page{}, errors.Wrap(errors.ErrCodeNetwork, err, "search page %d", page)
	}
	defer cur.Close(ctx)

	var assets []query.Asset
	if err := cur.All(ctx, &assets); err != nil {
		return query.Page{}, errors.Wrap(errors.ErrCodeNetwork, err, "decode page %d", page)
	}

	result := query.Page{Assets: assets}
	if len(assets) == limit {
		result.NextCursor = strconv.Itoa(page + 1)
	}

	s.logger.Debugf("search %s page %d: %d assets", c.Key(), page, len(assets))
	return result, nil
}

// filter builds the Mongo filter for the criteria, selecting between the two
// query modes for text terms.
func (s *Store) filter(c query.Criteria) bson.M {
	filter := bson.M{"visible": true}

	if start, end, ok := c.MonthRange(); ok {
		filter["taken_at"] = bson.M{"$gte": start, "$lt": end}
	}

	if c.Terms != "" {
		if c.Semantic && s.semantic {
			filter["$text"] = bson.M{"$search": c.Terms}
		} else {
			filter["title"] = primitive.Regex{
				Pattern: regexp.QuoteMeta(c.Terms),
				Options: "i",
			}
		}
	}

	return filter
}

// Buckets implements query.BucketLister: one bucket per calendar month,
// newest first.
func (s *Store) Buckets(ctx context.Context) ([]query.Bucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"visible": true}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m",
				"date":   "$taken_at",
			}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": -1}}},
	}

	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "aggregate buckets")
	}
	defer cur.Close(ctx)

	var buckets []query.Bucket
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode buckets")
	}
	return buckets, nil
}

// Insert stores assets, generating ids for any that arrive without one.
// Assets default to visible.
func (s *Store) Insert(ctx context.Context, assets ...query.Asset) error {
	if len(assets) == 0 {
		return nil
	}

	docs := make([]interface{}, len(assets))
	for i, a := range assets {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Ratio <= 0 {
			a.Ratio = 1
		}
		a.Visible = true
		if err := errors.ValidateAssetID(a.ID); err != nil {
			return err
		}
		docs[i] = a
	}

	if _, err := s.col.InsertMany(ctx, docs); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "insert %d assets", len(assets))
	}
	return nil
}

// Remove deletes assets by id and returns the number removed.
func (s *Store) Remove(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := s.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeNetwork, err, "remove %d assets", len(ids))
	}
	return res.DeletedCount, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var (
	_ query.Searcher     = (*Store)(nil)
	_ query.BucketLister = (*Store)(nil)
)
