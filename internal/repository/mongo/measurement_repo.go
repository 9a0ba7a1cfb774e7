package mongo

import (
	"context"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const measurementCollectionName = "measurements"

type mongoMeasurementRepository struct {
	collection *mongo.Collection
}

func NewMongoMeasurementRepository(db *mongo.Database) repository.MeasurementRepository {
	return &mongoMeasurementRepository{
		collection: db.Collection(measurementCollectionName),
	}
}

func (r *mongoMeasurementRepository) Create(ctx context.Context, m *domain.Measurement) (primitive.ObjectID, error) {
	m.ID = primitive.NewObjectID()
	m.Version = 1
	if _, err := r.collection.InsertOne(ctx, m); err != nil {
		return primitive.NilObjectID, err
	}
	return m.ID, nil
}

func (r *mongoMeasurementRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Measurement, error) {
	var m domain.Measurement
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByClient returns the client's measurements, newest first.
func (r *mongoMeasurementRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Measurement, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	ms := []domain.Measurement{}
	if err := cursor.All(ctx, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

func (r *mongoMeasurementRepository) Update(ctx context.Context, m *domain.Measurement) error {
	m.Version++
	if err := replaceVersioned(ctx, r.collection, m.ID, m.Version-1, m); err != nil {
		m.Version--
		return err
	}
	return nil
}

func (r *mongoMeasurementRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func (r *mongoMeasurementRepository) DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error) {
	return deleteByClient(ctx, r.collection, clientID)
}

func EnsureMeasurementIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
	})
	return err
}
