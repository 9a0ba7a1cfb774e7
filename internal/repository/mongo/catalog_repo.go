package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const catalogCollectionName = "exercises"

// mongoCatalogRepository implements the repository.CatalogRepository interface using MongoDB.
type mongoCatalogRepository struct {
	collection *mongo.Collection
}

func NewMongoCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &mongoCatalogRepository{
		collection: db.Collection(catalogCollectionName),
	}
}

// Create inserts a new exercise into the catalog.
func (r *mongoCatalogRepository) Create(ctx context.Context, exercise *domain.CatalogExercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.AuthorID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise name and author are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, exercise); err != nil {
		return primitive.NilObjectID, err
	}
	return exercise.ID, nil
}

func (r *mongoCatalogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CatalogExercise, error) {
	var exercise domain.CatalogExercise
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

// List returns catalog entries matching the filter, sorted by name.
func (r *mongoCatalogRepository) List(ctx context.Context, filter domain.CatalogFilter) ([]domain.CatalogExercise, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, buildCatalogFilter(filter), findOptions)
	if err != nil {
		return nil, err
	}
	exercises := []domain.CatalogExercise{}
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// buildCatalogFilter translates the filter into a query. Category, equipment and difficulty
// are stored lower-cased; search is a case-insensitive substring match on name or description.
func buildCatalogFilter(f domain.CatalogFilter) bson.M {
	query := bson.M{}
	if v := strings.ToLower(strings.TrimSpace(f.Category)); v != "" {
		query["category"] = v
	}
	if v := strings.ToLower(strings.TrimSpace(f.Equipment)); v != "" {
		query["equipment"] = v
	}
	if v := strings.ToLower(strings.TrimSpace(f.Difficulty)); v != "" {
		query["difficulty"] = v
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	return query
}

// Update modifies an existing exercise. The author is never changed here.
func (r *mongoCatalogRepository) Update(ctx context.Context, exercise *domain.CatalogExercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	exercise.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":        exercise.Name,
			"description": exercise.Description,
			"category":    exercise.Category,
			"equipment":   exercise.Equipment,
			"difficulty":  exercise.Difficulty,
			"videoUrl":    exercise.VideoURL,
			"updatedAt":   exercise.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": exercise.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoCatalogRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

// EnsureCatalogIndexes creates the filter indexes and a name index for sorting.
func EnsureCatalogIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "difficulty", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
