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

const nutritionCollectionName = "nutrition"

type mongoNutritionRepository struct {
	collection *mongo.Collection
}

func NewMongoNutritionRepository(db *mongo.Database) repository.NutritionRepository {
	return &mongoNutritionRepository{
		collection: db.Collection(nutritionCollectionName),
	}
}

// Create inserts a plan. The unique clientId index turns a second plan into ErrDuplicate.
func (r *mongoNutritionRepository) Create(ctx context.Context, plan *domain.NutritionPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	plan.Version = 1
	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return plan.ID, nil
}

func (r *mongoNutritionRepository) GetByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.NutritionPlan, error) {
	var plan domain.NutritionPlan
	if err := findOne(ctx, r.collection, bson.M{"clientId": clientID}, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *mongoNutritionRepository) Update(ctx context.Context, plan *domain.NutritionPlan) error {
	plan.Version++
	if err := replaceVersioned(ctx, r.collection, plan.ID, plan.Version-1, plan); err != nil {
		plan.Version--
		return err
	}
	return nil
}

func (r *mongoNutritionRepository) DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error) {
	return deleteByClient(ctx, r.collection, clientID)
}

func EnsureNutritionIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "clientId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
