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

// WorkoutService runs the workout lifecycle: scheduled -> started -> completed.
type WorkoutService interface {
	Create(ctx context.Context, actor domain.Principal, draft domain.WorkoutDraft) (*domain.Workout, error)
	Get(ctx context.Context, actor domain.Principal, workoutID primitive.ObjectID) (*domain.Workout, error)
	ListForClient(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID) ([]domain.Workout, error)
	Stats(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID) (domain.WorkoutStats, error)

	Start(ctx context.Context, actor domain.Principal, workoutID primitive.ObjectID) (*domain.Workout, error)
	RecordSetProgress(ctx context.Context, actor domain.Principal, workoutID primitive.ObjectID, exerciseIndex int, set domain.ActualSet) (*domain.Workout, error)
	Complete(ctx context.Context, actor domain.Principal, workoutID primitive.ObjectID, feedback domain.CompletionFeedback) (*domain.Workout, error)

	UpdatePrescription(ctx context.Context, actor domain.Principal, workoutID primitive.ObjectID, update domain.PrescriptionUpdate) (*domain.Workout, error)
	// Clone copies the prescription to a new scheduled workout. A nil date on a dated
	// source schedules the copy one week later.
	Clone(ctx context.Context, actor domain.Principal, workoutID primitive.ObjectID, date *time.Time) (*domain.Workout, error)
	Delete(ctx context.Context, actor domain.Principal, workoutID primitive.ObjectID) error
}

type workoutService struct {
	Base
	workoutRepo repository.WorkoutRepository
}

func NewWorkoutService(base Base, workoutRepo repository.WorkoutRepository) WorkoutService {
	return &workoutService{
		Base:        base.withDefaults(),
		workoutRepo: workoutRepo,
	}
}

func (s *workoutService) Create(ctx context.Context, p domain.Principal, draft domain.WorkoutDraft) (*domain.Workout, error) {
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

	draft.CreatedBy = actor.ID
	workout, err := domain.NewWorkout(draft, s.Now())
	if err != nil {
		return nil, err
	}
	if _, err := s.workoutRepo.Create(ctx, workout); err != nil {
		return nil, translate(err, "workout")
	}

	s.Metrics.WorkoutEvent("created")
	s.publish(ctx, workoutEvent(notify.EventWorkoutCreated, actor, workout))
	return workout, nil
}

// load resolves the actor, fetches the workout and checks action against its client.
func (s *workoutService) load(ctx context.Context, p domain.Principal, workoutID primitive.ObjectID, action policy.Action) (*domain.User, *domain.Workout, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		return nil, nil, translate(err, "workout")
	}
	if err := policy.Authorize(actor, action, workout.ClientID); err != nil {
		return nil, nil, err
	}
	return actor, workout, nil
}

func (s *workoutService) Get(ctx context.Context, p domain.Principal, workoutID primitive.ObjectID) (*domain.Workout, error) {
	_, workout, err := s.load(ctx, p, workoutID, policy.ActionRead)
	return workout, err
}

func (s *workoutService) ListForClient(ctx context.Context, p domain.Principal, clientID primitive.ObjectID) ([]domain.Workout, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionRead, clientID); err != nil {
		return nil, err
	}
	workouts, err := s.workoutRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, translate(err, "workouts")
	}
	return workouts, nil
}

func (s *workoutService) Stats(ctx context.Context, p domain.Principal, clientID primitive.ObjectID) (domain.WorkoutStats, error) {
	workouts, err := s.ListForClient(ctx, p, clientID)
	if err != nil {
		return domain.WorkoutStats{}, err
	}
	return domain.SummarizeWorkouts(workouts), nil
}

func (s *workoutService) Start(ctx context.Context, p domain.Principal, workoutID primitive.ObjectID) (*domain.Workout, error) {
	actor, workout, err := s.load(ctx, p, workoutID, policy.ActionRecordWorkout)
	if err != nil {
		return nil, err
	}
	if !workout.Start(s.Now()) {
		// already started or completed
		return workout, nil
	}
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, translate(err, "workout")
	}
	s.Metrics.WorkoutEvent("started")
	s.publish(ctx, workoutEvent(notify.EventWorkoutStarted, actor, workout))
	return workout, nil
}

func (s *workoutService) RecordSetProgress(ctx context.Context, p domain.Principal, workoutID primitive.ObjectID, exerciseIndex int, set domain.ActualSet) (*domain.Workout, error) {
	actor, workout, err := s.load(ctx, p, workoutID, policy.ActionRecordWorkout)
	if err != nil {
		return nil, err
	}
	recorded, err := workout.RecordSet(exerciseIndex, set, s.Now())
	if err != nil {
		return nil, err
	}
	if !recorded {
		return workout, nil
	}
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, translate(err, "workout")
	}

	s.Metrics.WorkoutEvent("set_recorded")
	event := workoutEvent(notify.EventWorkoutSetRecorded, actor, workout)
	event.Data["exerciseIndex"] = exerciseIndex
	event.Data["exercise"] = workout.Exercises[exerciseIndex].Name
	s.publish(ctx, event)
	return workout, nil
}

func (s *workoutService) Complete(ctx context.Context, p domain.Principal, workoutID primitive.ObjectID, feedback domain.CompletionFeedback) (*domain.Workout, error) {
	actor, workout, err := s.load(ctx, p, workoutID, policy.ActionRecordWorkout)
	if err != nil {
		return nil, err
	}
	first, err := workout.Complete(feedback, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, translate(err, "workout")
	}
	if first {
		s.Metrics.WorkoutEvent("completed")
		event := workoutEvent(notify.EventWorkoutCompleted, actor, workout)
		event.Data["totalVolume"] = workout.TotalVolume()
		s.publish(ctx, event)
	}
	return workout, nil
}

func (s *workoutService) UpdatePrescription(ctx context.Context, p domain.Principal, workoutID primitive.ObjectID, update domain.PrescriptionUpdate) (*domain.Workout, error) {
	actor, workout, err := s.load(ctx, p, workoutID, policy.ActionPrescribe)
	if err != nil {
		return nil, err
	}
	if err := workout.UpdatePrescription(update, s.Now()); err != nil {
		return nil, err
	}
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, translate(err, "workout")
	}
	s.publish(ctx, workoutEvent(notify.EventWorkoutUpdated, actor, workout))
	return workout, nil
}

func (s *workoutService) Clone(ctx context.Context, p domain.Principal, workoutID primitive.ObjectID, date *time.Time) (*domain.Workout, error) {
	actor, source, err := s.load(ctx, p, workoutID, policy.ActionPrescribe)
	if err != nil {
		return nil, err
	}
	if date == nil && source.ScheduledDate != nil {
		next := source.ScheduledDate.AddDate(0, 0, 7)
		date = &next
	}
	clone := source.CloneFor(date, s.Now())
	if _, err := s.workoutRepo.Create(ctx, clone); err != nil {
		return nil, translate(err, "workout")
	}
	s.Metrics.WorkoutEvent("cloned")
	s.publish(ctx, workoutEvent(notify.EventWorkoutCloned, actor, clone))
	return clone, nil
}

func (s *workoutService) Delete(ctx context.Context, p domain.Principal, workoutID primitive.ObjectID) error {
	actor, workout, err := s.load(ctx, p, workoutID, policy.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.workoutRepo.Delete(ctx, workout.ID); err != nil {
		return translate(err, "workout")
	}
	s.publish(ctx, workoutEvent(notify.EventWorkoutDeleted, actor, workout))
	return nil
}

func workoutEvent(t notify.EventType, actor *domain.User, w *domain.Workout) notify.Event {
	return notify.Event{
		Type:       t,
		ClientID:   w.ClientID,
		ActorID:    actor.ID,
		ResourceID: w.ID,
		Data:       map[string]any{"name": w.Name, "status": w.Status},
	}
}
