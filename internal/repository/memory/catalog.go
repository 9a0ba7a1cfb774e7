package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogRepository struct {
	exercises *collection[domain.CatalogExercise]
}

var _ repository.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository returns an empty catalog. Catalog entries carry no version;
// updates are last-writer-wins.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		exercises: newCollection[domain.CatalogExercise](
			func(e *domain.CatalogExercise) *primitive.ObjectID { return &e.ID },
			nil,
		),
	}
}

func (r *CatalogRepository) Create(_ context.Context, exercise *domain.CatalogExercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.AuthorID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise name and author are required")
	}
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	return r.exercises.insert(exercise), nil
}

func (r *CatalogRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CatalogExercise, error) {
	return r.exercises.get(id)
}

func (r *CatalogRepository) List(_ context.Context, filter domain.CatalogFilter) ([]domain.CatalogExercise, error) {
	out := r.exercises.find(filter.Matches)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CatalogRepository) Update(_ context.Context, exercise *domain.CatalogExercise) error {
	exercise.UpdatedAt = time.Now().UTC()
	return r.exercises.replace(exercise)
}

func (r *CatalogRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.exercises.delete(id)
}
