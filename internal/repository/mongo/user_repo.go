package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user. Relation sets start empty so $addToSet works on them.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || len(user.Roles) == 0 {
		return primitive.NilObjectID, errors.New("user email, password hash, and roles are required")
	}

	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Version = 1
	if user.SpecialistIDs == nil {
		user.SpecialistIDs = []primitive.ObjectID{}
	}
	if user.ClientIDs == nil {
		user.ClientIDs = []primitive.ObjectID{}
	}

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return user.ID, nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address, case-insensitively.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	if err := findOne(ctx, r.collection, filter, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *mongoUserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoUserRepository) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["roles"] = role
	}
	return r.find(ctx, filter)
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M) ([]domain.User, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	users := []domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *mongoUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"roles": role})
}

// Update sets the profile fields only. Relation arrays are owned by AddRelation/RemoveRelation.
func (r *mongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":            user.Name,
			"email":           strings.ToLower(strings.TrimSpace(user.Email)),
			"passwordHash":    user.PasswordHash,
			"roles":           user.Roles,
			"phoneNumber":     user.PhoneNumber,
			"profileImageKey": user.ProfileImageKey,
			"updatedAt":       user.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID, "version": user.Version}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return missingOrStale(ctx, r.collection, user.ID)
	}
	user.Version++
	return nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

// AddRelation adds clientID to the specialist and specialistID to the client.
// If the second write fails the first is undone so no one-sided reference remains.
func (r *mongoUserRepository) AddRelation(ctx context.Context, specialistID, clientID primitive.ObjectID) error {
	if err := r.addToSet(ctx, specialistID, "clientIds", clientID); err != nil {
		return err
	}
	if err := r.addToSet(ctx, clientID, "specialistIds", specialistID); err != nil {
		if rbErr := r.pull(ctx, specialistID, "clientIds", clientID); rbErr != nil {
			return fmt.Errorf("add relation: %w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return nil
}

// RemoveRelation removes both directions, restoring the first on failure of the second.
// A client that no longer exists holds no reference, so nothing is restored for it.
func (r *mongoUserRepository) RemoveRelation(ctx context.Context, specialistID, clientID primitive.ObjectID) error {
	if err := r.pull(ctx, specialistID, "clientIds", clientID); err != nil {
		return err
	}
	if err := r.pull(ctx, clientID, "specialistIds", specialistID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if rbErr := r.addToSet(ctx, specialistID, "clientIds", clientID); rbErr != nil {
			return fmt.Errorf("remove relation: %w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return nil
}

func (r *mongoUserRepository) RemoveAllRelations(ctx context.Context, userID primitive.ObjectID) error {
	filter := bson.M{"$or": bson.A{bson.M{"clientIds": userID}, bson.M{"specialistIds": userID}}}
	update := bson.M{
		"$pull": bson.M{"clientIds": userID, "specialistIds": userID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
		"$inc":  bson.M{"version": 1},
	}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

func (r *mongoUserRepository) addToSet(ctx context.Context, id primitive.ObjectID, field string, value primitive.ObjectID) error {
	return r.modifySet(ctx, id, "$addToSet", field, value)
}

func (r *mongoUserRepository) pull(ctx context.Context, id primitive.ObjectID, field string, value primitive.ObjectID) error {
	return r.modifySet(ctx, id, "$pull", field, value)
}

func (r *mongoUserRepository) modifySet(ctx context.Context, id primitive.ObjectID, op, field string, value primitive.ObjectID) error {
	update := bson.M{
		op:     bson.M{field: value},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates a unique email index and role lookups.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "roles", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
