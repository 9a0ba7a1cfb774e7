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

const goalCollectionName = "goals"

type mongoGoalRepository struct {
	collection *mongo.Collection
}

func NewMongoGoalRepository(db *mongo.Database) repository.GoalRepository {
	return &mongoGoalRepository{
		collection: db.Collection(goalCollectionName),
	}
}

func (r *mongoGoalRepository) Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	goal.ID = primitive.NewObjectID()
	goal.Version = 1
	if _, err := r.collection.InsertOne(ctx, goal); err != nil {
		return primitive.NilObjectID, err
	}
	return goal.ID, nil
}

func (r *mongoGoalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Goal, error) {
	var goal domain.Goal
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *mongoGoalRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Goal, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID},
		options.Find().SetSort(bson.D{{Key: "deadline", Value: 1}}))
	if err != nil {
		return nil, err
	}
	goals := []domain.Goal{}
	if err := cursor.All(ctx, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *mongoGoalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	goal.Version++
	if err := replaceVersioned(ctx, r.collection, goal.ID, goal.Version-1, goal); err != nil {
		goal.Version--
		return err
	}
	return nil
}

func (r *mongoGoalRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func (r *mongoGoalRepository) DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error) {
	return deleteByClient(ctx, r.collection, clientID)
}

func EnsureGoalIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{clientIndex()})
	return err
}
