package memory

import (
	"context"
	"sort"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GoalRepository struct {
	goals *collection[domain.Goal]
}

var _ repository.GoalRepository = (*GoalRepository)(nil)

func NewGoalRepository() *GoalRepository {
	return &GoalRepository{
		goals: newCollection(
			func(g *domain.Goal) *primitive.ObjectID { return &g.ID },
			func(g *domain.Goal) *int64 { return &g.Version },
		),
	}
}

func (r *GoalRepository) Create(_ context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	return r.goals.insert(goal), nil
}

func (r *GoalRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Goal, error) {
	return r.goals.get(id)
}

func (r *GoalRepository) ListByClient(_ context.Context, clientID primitive.ObjectID) ([]domain.Goal, error) {
	out := r.goals.find(func(g *domain.Goal) bool { return g.ClientID == clientID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (r *GoalRepository) Update(_ context.Context, goal *domain.Goal) error {
	return r.goals.replace(goal)
}

func (r *GoalRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.goals.delete(id)
}

func (r *GoalRepository) DeleteByClient(_ context.Context, clientID primitive.ObjectID) (int64, error) {
	return r.goals.deleteWhere(func(g *domain.Goal) bool { return g.ClientID == clientID }), nil
}
