package service

import (
	"context"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/policy"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NutritionService manages the single nutrition plan of each client.
// Plans are created explicitly; logging against a missing plan is NotFound.
type NutritionService interface {
	CreatePlan(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID, targets domain.MacroValues) (*domain.NutritionPlan, error)
	GetPlan(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID) (*domain.NutritionPlan, error)
	UpdateTargets(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID, targets domain.MacroValues) (*domain.NutritionPlan, error)
	LogDay(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID, values domain.MacroValues, note string, date *time.Time) (*domain.NutritionPlan, error)
	DeletePlan(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID) error
}

type nutritionService struct {
	Base
	nutritionRepo repository.NutritionRepository
}

func NewNutritionService(base Base, nutritionRepo repository.NutritionRepository) NutritionService {
	return &nutritionService{
		Base:          base.withDefaults(),
		nutritionRepo: nutritionRepo,
	}
}

func (s *nutritionService) CreatePlan(ctx context.Context, p domain.Principal, clientID primitive.ObjectID, targets domain.MacroValues) (*domain.NutritionPlan, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionPrescribe, clientID); err != nil {
		return nil, err
	}
	if _, err := s.client(ctx, clientID); err != nil {
		return nil, err
	}
	plan, err := domain.NewNutritionPlan(clientID, actor.ID, targets, s.Now())
	if err != nil {
		return nil, err
	}
	if _, err := s.nutritionRepo.Create(ctx, plan); err != nil {
		return nil, translate(err, "nutrition plan")
	}
	s.publish(ctx, notify.Event{
		Type:       notify.EventNutritionPlanCreated,
		ClientID:   clientID,
		ActorID:    actor.ID,
		ResourceID: plan.ID,
	})
	return plan, nil
}

func (s *nutritionService) load(ctx context.Context, p domain.Principal, clientID primitive.ObjectID, action policy.Action) (*domain.User, *domain.NutritionPlan, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	plan, err := s.nutritionRepo.GetByClient(ctx, clientID)
	if err != nil {
		return nil, nil, translate(err, "nutrition plan")
	}
	if err := policy.Authorize(actor, action, plan.ClientID); err != nil {
		return nil, nil, err
	}
	return actor, plan, nil
}

func (s *nutritionService) GetPlan(ctx context.Context, p domain.Principal, clientID primitive.ObjectID) (*domain.NutritionPlan, error) {
	_, plan, err := s.load(ctx, p, clientID, policy.ActionRead)
	return plan, err
}

func (s *nutritionService) UpdateTargets(ctx context.Context, p domain.Principal, clientID primitive.ObjectID, targets domain.MacroValues) (*domain.NutritionPlan, error) {
	_, plan, err := s.load(ctx, p, clientID, policy.ActionPrescribe)
	if err != nil {
		return nil, err
	}
	if err := plan.UpdateTargets(targets, s.Now()); err != nil {
		return nil, err
	}
	if err := s.nutritionRepo.Update(ctx, plan); err != nil {
		return nil, translate(err, "nutrition plan")
	}
	return plan, nil
}

func (s *nutritionService) LogDay(ctx context.Context, p domain.Principal, clientID primitive.ObjectID, values domain.MacroValues, note string, date *time.Time) (*domain.NutritionPlan, error) {
	actor, plan, err := s.load(ctx, p, clientID, policy.ActionLogNutrition)
	if err != nil {
		return nil, err
	}
	if _, err := plan.LogDay(values, note, actor.ID, date, s.Now()); err != nil {
		return nil, err
	}
	if err := s.nutritionRepo.Update(ctx, plan); err != nil {
		return nil, translate(err, "nutrition plan")
	}
	s.Metrics.NutritionLogged()
	s.publish(ctx, notify.Event{
		Type:       notify.EventNutritionLogged,
		ClientID:   clientID,
		ActorID:    actor.ID,
		ResourceID: plan.ID,
		Data:       map[string]any{"entries": len(plan.DailyLogs)},
	})
	return plan, nil
}

func (s *nutritionService) DeletePlan(ctx context.Context, p domain.Principal, clientID primitive.ObjectID) error {
	_, plan, err := s.load(ctx, p, clientID, policy.ActionDelete)
	if err != nil {
		return err
	}
	if _, err := s.nutritionRepo.DeleteByClient(ctx, plan.ClientID); err != nil {
		return translate(err, "nutrition plan")
	}
	return nil
}
