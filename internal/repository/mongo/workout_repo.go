package mongo

import (
	"context"
	"errors"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository.
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout. Timestamps are set by the domain constructor.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.ClientID == primitive.NilObjectID || len(workout.Exercises) == 0 {
		return primitive.NilObjectID, errors.New("workout requires a client and at least one exercise")
	}
	workout.ID = primitive.NewObjectID()
	workout.Version = 1

	if _, err := r.collection.InsertOne(ctx, workout); err != nil {
		return primitive.NilObjectID, err
	}
	return workout.ID, nil
}

func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// ListByClient returns the client's workouts, latest scheduled first.
func (r *mongoWorkoutRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Workout, error) {
	findOptions := options.Find().SetSort(bson.D{
		{Key: "scheduledDate", Value: -1},
		{Key: "createdAt", Value: -1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, findOptions)
	if err != nil {
		return nil, err
	}
	workouts := []domain.Workout{}
	if err := cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	workout.Version++
	if err := replaceVersioned(ctx, r.collection, workout.ID, workout.Version-1, workout); err != nil {
		workout.Version--
		return err
	}
	return nil
}

func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func (r *mongoWorkoutRepository) DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error) {
	return deleteByClient(ctx, r.collection, clientID)
}

// EnsureWorkoutIndexes creates necessary indexes for the workouts collection.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Listing a client's calendar
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "scheduledDate", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index(),
		},
		{
			// Recurring clones
			Keys:    bson.D{{Key: "parentWorkout", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
