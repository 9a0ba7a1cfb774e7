package memory

import (
	"context"
	"errors"
	"sort"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutRepository struct {
	workouts *collection[domain.Workout]
}

var _ repository.WorkoutRepository = (*WorkoutRepository)(nil)

func NewWorkoutRepository() *WorkoutRepository {
	return &WorkoutRepository{
		workouts: newCollection(
			func(w *domain.Workout) *primitive.ObjectID { return &w.ID },
			func(w *domain.Workout) *int64 { return &w.Version },
		),
	}
}

func (r *WorkoutRepository) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.ClientID == primitive.NilObjectID || len(workout.Exercises) == 0 {
		return primitive.NilObjectID, errors.New("workout requires a client and at least one exercise")
	}
	return r.workouts.insert(workout), nil
}

func (r *WorkoutRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	return r.workouts.get(id)
}

func (r *WorkoutRepository) ListByClient(_ context.Context, clientID primitive.ObjectID) ([]domain.Workout, error) {
	out := r.workouts.find(func(w *domain.Workout) bool { return w.ClientID == clientID })
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ScheduledDate, out[j].ScheduledDate
		switch {
		case a == nil && b == nil:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return a.After(*b)
	})
	return out, nil
}

func (r *WorkoutRepository) Update(_ context.Context, workout *domain.Workout) error {
	return r.workouts.replace(workout)
}

func (r *WorkoutRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.workouts.delete(id)
}

func (r *WorkoutRepository) DeleteByClient(_ context.Context, clientID primitive.ObjectID) (int64, error) {
	return r.workouts.deleteWhere(func(w *domain.Workout) bool { return w.ClientID == clientID }), nil
}
