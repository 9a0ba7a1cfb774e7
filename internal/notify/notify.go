// Package notify carries domain events and outbound email to the message broker.
// Services receive a Notifier at construction; there is no process-wide handle.
package notify

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	EventWorkoutCreated     EventType = "workout.created"
	EventWorkoutUpdated     EventType = "workout.updated"
	EventWorkoutStarted     EventType = "workout.started"
	EventWorkoutSetRecorded EventType = "workout.set_recorded"
	EventWorkoutCompleted   EventType = "workout.completed"
	EventWorkoutCloned      EventType = "workout.cloned"
	EventWorkoutDeleted     EventType = "workout.deleted"

	EventGoalCreated   EventType = "goal.created"
	EventGoalProgress  EventType = "goal.progress"
	EventGoalCompleted EventType = "goal.completed"

	EventNutritionPlanCreated EventType = "nutrition.plan_created"
	EventNutritionLogged      EventType = "nutrition.logged"

	EventMeasurementCreated EventType = "measurement.created"

	EventSpecialistAssigned   EventType = "relation.assigned"
	EventSpecialistUnassigned EventType = "relation.unassigned"
)

// Event is what subscribers see. ClientID is the client whose data changed.
type Event struct {
	ID         string             `json:"id"`
	Type       EventType          `json:"type"`
	ClientID   primitive.ObjectID `json:"clientId"`
	ActorID    primitive.ObjectID `json:"actorId"`
	ResourceID primitive.ObjectID `json:"resourceId,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
	Data       map[string]any     `json:"data,omitempty"`
}

// Notifier publishes domain events after they have been persisted.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// EmailSender delivers transactional email. Only password reset uses it.
type EmailSender interface {
	SendPasswordResetCode(ctx context.Context, to, name, code string) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
