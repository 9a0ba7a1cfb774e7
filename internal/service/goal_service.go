package service

import (
	"context"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/policy"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GoalService interface {
	Create(ctx context.Context, actor domain.Principal, draft domain.GoalDraft) (*domain.Goal, error)
	Get(ctx context.Context, actor domain.Principal, goalID primitive.ObjectID) (*domain.Goal, error)
	ListForClient(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID) ([]domain.Goal, error)
	// RecordProgress appends a history entry and completes the goal once current reaches target.
	RecordProgress(ctx context.Context, actor domain.Principal, goalID primitive.ObjectID, value float64, note string) (*domain.Goal, error)
	Update(ctx context.Context, actor domain.Principal, goalID primitive.ObjectID, update domain.GoalUpdate) (*domain.Goal, error)
	Delete(ctx context.Context, actor domain.Principal, goalID primitive.ObjectID) error
}

type goalService struct {
	Base
	goalRepo repository.GoalRepository
}

func NewGoalService(base Base, goalRepo repository.GoalRepository) GoalService {
	return &goalService{
		Base:     base.withDefaults(),
		goalRepo: goalRepo,
	}
}

func (s *goalService) Create(ctx context.Context, p domain.Principal, draft domain.GoalDraft) (*domain.Goal, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionPrescribe, draft.ClientID); err != nil {
		return nil, err
	}
	if _, err := s.client(ctx, draft.ClientID); err != nil {
		return nil, err
	}
	draft.AssignedBy = actor.ID
	goal, err := domain.NewGoal(draft, s.Now())
	if err != nil {
		return nil, err
	}
	if _, err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, translate(err, "goal")
	}
	s.publish(ctx, goalEvent(notify.EventGoalCreated, actor, goal))
	if goal.Completed {
		s.Metrics.GoalCompleted()
		s.publish(ctx, goalEvent(notify.EventGoalCompleted, actor, goal))
	}
	return goal, nil
}

func (s *goalService) load(ctx context.Context, p domain.Principal, goalID primitive.ObjectID, action policy.Action) (*domain.User, *domain.Goal, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, nil, translate(err, "goal")
	}
	if err := policy.Authorize(actor, action, goal.ClientID); err != nil {
		return nil, nil, err
	}
	return actor, goal, nil
}

func (s *goalService) Get(ctx context.Context, p domain.Principal, goalID primitive.ObjectID) (*domain.Goal, error) {
	_, goal, err := s.load(ctx, p, goalID, policy.ActionRead)
	return goal, err
}

func (s *goalService) ListForClient(ctx context.Context, p domain.Principal, clientID primitive.ObjectID) ([]domain.Goal, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionRead, clientID); err != nil {
		return nil, err
	}
	goals, err := s.goalRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, translate(err, "goals")
	}
	return goals, nil
}

func (s *goalService) RecordProgress(ctx context.Context, p domain.Principal, goalID primitive.ObjectID, value float64, note string) (*domain.Goal, error) {
	actor, goal, err := s.load(ctx, p, goalID, policy.ActionRecordGoalProgress)
	if err != nil {
		return nil, err
	}
	wasCompleted := goal.Completed
	if err := goal.RecordProgress(value, note, s.Now()); err != nil {
		return nil, err
	}
	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, translate(err, "goal")
	}

	event := goalEvent(notify.EventGoalProgress, actor, goal)
	event.Data["value"] = value
	s.publish(ctx, event)
	if goal.Completed && !wasCompleted {
		s.Metrics.GoalCompleted()
		s.publish(ctx, goalEvent(notify.EventGoalCompleted, actor, goal))
	}
	return goal, nil
}

func (s *goalService) Update(ctx context.Context, p domain.Principal, goalID primitive.ObjectID, update domain.GoalUpdate) (*domain.Goal, error) {
	actor, goal, err := s.load(ctx, p, goalID, policy.ActionPrescribe)
	if err != nil {
		return nil, err
	}
	wasCompleted := goal.Completed
	if err := goal.Update(update, s.Now()); err != nil {
		return nil, err
	}
	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, translate(err, "goal")
	}
	if goal.Completed && !wasCompleted {
		s.Metrics.GoalCompleted()
		s.publish(ctx, goalEvent(notify.EventGoalCompleted, actor, goal))
	}
	return goal, nil
}

func (s *goalService) Delete(ctx context.Context, p domain.Principal, goalID primitive.ObjectID) error {
	_, goal, err := s.load(ctx, p, goalID, policy.ActionDelete)
	if err != nil {
		return err
	}
	return translate(s.goalRepo.Delete(ctx, goal.ID), "goal")
}

func goalEvent(t notify.EventType, actor *domain.User, g *domain.Goal) notify.Event {
	return notify.Event{
		Type:       t,
		ClientID:   g.ClientID,
		ActorID:    actor.ID,
		ResourceID: g.ID,
		Data:       map[string]any{"name": g.Name, "current": g.Current, "target": g.Target},
	}
}
