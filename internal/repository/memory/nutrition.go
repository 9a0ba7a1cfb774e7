package memory

import (
	"context"
	"sync"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NutritionRepository struct {
	createMu sync.Mutex
	plans    *collection[domain.NutritionPlan]
}

var _ repository.NutritionRepository = (*NutritionRepository)(nil)

func NewNutritionRepository() *NutritionRepository {
	return &NutritionRepository{
		plans: newCollection(
			func(p *domain.NutritionPlan) *primitive.ObjectID { return &p.ID },
			func(p *domain.NutritionPlan) *int64 { return &p.Version },
		),
	}
}

// Create enforces one plan per client.
func (r *NutritionRepository) Create(_ context.Context, plan *domain.NutritionPlan) (primitive.ObjectID, error) {
	r.createMu.Lock()
	defer r.createMu.Unlock()
	if _, err := r.plans.findOne(byClient(plan.ClientID)); err == nil {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	return r.plans.insert(plan), nil
}

func (r *NutritionRepository) GetByClient(_ context.Context, clientID primitive.ObjectID) (*domain.NutritionPlan, error) {
	return r.plans.findOne(byClient(clientID))
}

func (r *NutritionRepository) Update(_ context.Context, plan *domain.NutritionPlan) error {
	return r.plans.replace(plan)
}

func (r *NutritionRepository) DeleteByClient(_ context.Context, clientID primitive.ObjectID) (int64, error) {
	return r.plans.deleteWhere(byClient(clientID)), nil
}

func byClient(clientID primitive.ObjectID) func(*domain.NutritionPlan) bool {
	return func(p *domain.NutritionPlan) bool { return p.ClientID == clientID }
}
