package repository

import (
	"context"

	"coastalfit/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound        = RepositoryError("not found")
	ErrDuplicate       = RepositoryError("duplicate key")
	ErrVersionConflict = RepositoryError("document was modified concurrently")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Versioned updates: Update methods match on (_id, version), bump the version on the
// stored document and on the passed aggregate. A stale version yields ErrVersionConflict.

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) // ErrDuplicate on email
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	List(ctx context.Context, role domain.Role) ([]domain.User, error) // empty role lists everyone
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	// Update writes profile fields, roles and password hash. Relation sets are left alone.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// AddRelation and RemoveRelation keep specialist.clientIds and client.specialistIds mirrored.
	AddRelation(ctx context.Context, specialistID, clientID primitive.ObjectID) error
	RemoveRelation(ctx context.Context, specialistID, clientID primitive.ObjectID) error
	// RemoveAllRelations drops every reference to userID from other users.
	RemoveAllRelations(ctx context.Context, userID primitive.ObjectID) error
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Workout, error) // scheduled date descending
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error)
}

// GoalRepository defines the interface for interacting with goal data.
type GoalRepository interface {
	Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Goal, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Goal, error) // deadline ascending
	Update(ctx context.Context, goal *domain.Goal) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error)
}

// MeasurementRepository defines the interface for interacting with body measurements.
type MeasurementRepository interface {
	Create(ctx context.Context, m *domain.Measurement) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Measurement, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Measurement, error) // date descending
	Update(ctx context.Context, m *domain.Measurement) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error)
}

// NutritionRepository defines the interface for nutrition plans. One plan per client.
type NutritionRepository interface {
	Create(ctx context.Context, plan *domain.NutritionPlan) (primitive.ObjectID, error) // ErrDuplicate per client
	GetByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.NutritionPlan, error)
	Update(ctx context.Context, plan *domain.NutritionPlan) error
	DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error)
}

// CatalogRepository defines the interface for the exercise catalog.
type CatalogRepository interface {
	Create(ctx context.Context, exercise *domain.CatalogExercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CatalogExercise, error)
	List(ctx context.Context, filter domain.CatalogFilter) ([]domain.CatalogExercise, error) // name ascending
	Update(ctx context.Context, exercise *domain.CatalogExercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
