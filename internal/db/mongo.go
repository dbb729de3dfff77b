package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/monument-map/internal/models"
)

const (
	UsersCollection    = "users"
	MarkersCollection  = "markers"
	CountersCollection = "counters"
)

// ConnectMongo connects to MongoDB at uri and pings it.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique username index.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}
	return nil
}

// Sequence hands out increasing integer ids, one counter document per name.
type Sequence struct {
	Collection *mongo.Collection
}

// Next returns the next id for name, starting at 1.
func (s *Sequence) Next(ctx context.Context, name string) (int64, error) {
	if s.Collection == nil {
		return 0, fmt.Errorf("mongo collection is nil")
	}
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := s.Collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", name, err)
	}
	return counter.Value, nil
}

// MongoMarkerCollection implements MarkerCollection for MongoDB
type MongoMarkerCollection struct {
	Collection *mongo.Collection
	IDs        *Sequence
}

// NewMongoMarkerCollection wires the marker collection of database.
func NewMongoMarkerCollection(database *mongo.Database) *MongoMarkerCollection {
	return &MongoMarkerCollection{
		Collection: database.Collection(MarkersCollection),
		IDs:        &Sequence{Collection: database.Collection(CountersCollection)},
	}
}

// InsertMarker inserts a marker and assigns it the next id.
func (c *MongoMarkerCollection) InsertMarker(ctx context.Context, marker *models.MarkerRecord) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	id, err := c.IDs.Next(ctx, MarkersCollection)
	if err != nil {
		return err
	}
	marker.ID = id
	_, err = c.Collection.InsertOne(ctx, marker)
	return err
}

// FindMarkers returns every marker ordered by id.
func (c *MongoMarkerCollection) FindMarkers(ctx context.Context) ([]models.MarkerRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	markers := []models.MarkerRecord{}
	if err := cursor.All(ctx, &markers); err != nil {
		return nil, err
	}
	return markers, nil
}

// FindMarkerByID finds a marker by its id.
func (c *MongoMarkerCollection) FindMarkerByID(ctx context.Context, id int64) (*models.MarkerRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var marker models.MarkerRecord
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&marker)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMarkerNotFound
		}
		return nil, err
	}
	return &marker, nil
}

// UpdateMarker replaces title, description and position of marker.ID.
func (c *MongoMarkerCollection) UpdateMarker(ctx context.Context, marker models.MarkerRecord) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": marker.ID}, bson.M{"$set": bson.M{
		"title":       marker.Title,
		"description": marker.Description,
		"lat":         marker.Lat,
		"lng":         marker.Lng,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrMarkerNotFound
	}
	return nil
}

// DeleteMarker deletes a marker by its id.
func (c *MongoMarkerCollection) DeleteMarker(ctx context.Context, id int64) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrMarkerNotFound
	}
	return nil
}
