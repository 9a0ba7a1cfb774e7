package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxProgressNoteLen = 500

// ProgressEntry is one recorded value on the way to a goal.
type ProgressEntry struct {
	Date  time.Time `bson:"date" json:"date"`
	Value float64   `bson:"value" json:"value"`
	Note  string    `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Goal is a numeric target assigned to a client by a specialist.
type Goal struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	ClientID        primitive.ObjectID `bson:"clientId" json:"clientId"`
	AssignedBy      primitive.ObjectID `bson:"assignedBy" json:"assignedBy"`
	Target          float64            `bson:"target" json:"target"`
	Current         float64            `bson:"current" json:"current"`
	Unit            string             `bson:"unit,omitempty" json:"unit,omitempty"`
	Deadline        time.Time          `bson:"deadline" json:"deadline"`
	ProgressHistory []ProgressEntry    `bson:"progressHistory" json:"progressHistory"`
	Completed       bool               `bson:"completed" json:"completed"`
	CompletedDate   *time.Time         `bson:"completedDate,omitempty" json:"completedDate,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
	Version         int64              `bson:"version" json:"version"`
}

// GoalDraft is what a specialist supplies when assigning a goal.
type GoalDraft struct {
	Name       string
	ClientID   primitive.ObjectID
	AssignedBy primitive.ObjectID
	Target     float64
	Current    float64
	Unit       string
	Deadline   time.Time
}

func NewGoal(d GoalDraft, now time.Time) (*Goal, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, Validationf("goal name is required")
	}
	if d.ClientID == primitive.NilObjectID || d.AssignedBy == primitive.NilObjectID {
		return nil, Validationf("goal requires a client and an assigning specialist")
	}
	if d.Deadline.IsZero() {
		return nil, Validationf("goal deadline is required")
	}
	g := &Goal{
		Name:            name,
		ClientID:        d.ClientID,
		AssignedBy:      d.AssignedBy,
		Target:          d.Target,
		Current:         d.Current,
		Unit:            strings.TrimSpace(d.Unit),
		Deadline:        d.Deadline,
		ProgressHistory: []ProgressEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	g.evaluate(now)
	return g, nil
}

// evaluate applies the completion rule. It runs after every write.
// Completion is sticky and CompletedDate is never overwritten.
func (g *Goal) evaluate(now time.Time) {
	if g.Current >= g.Target {
		g.Completed = true
	}
	if g.Completed && g.CompletedDate == nil {
		g.CompletedDate = &now
	}
}

// RecordProgress appends a history entry, sets Current and re-evaluates completion.
func (g *Goal) RecordProgress(value float64, note string, now time.Time) error {
	note = strings.TrimSpace(note)
	if len(note) > MaxProgressNoteLen {
		return Validationf("progress note cannot exceed %d characters", MaxProgressNoteLen)
	}
	g.ProgressHistory = append(g.ProgressHistory, ProgressEntry{Date: now, Value: value, Note: note})
	g.Current = value
	g.UpdatedAt = now
	g.evaluate(now)
	return nil
}

// GoalUpdate holds the specialist editable fields. Nil means unchanged.
type GoalUpdate struct {
	Name     *string
	Target   *float64
	Unit     *string
	Deadline *time.Time
}

func (g *Goal) Update(u GoalUpdate, now time.Time) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return Validationf("goal name is required")
		}
		g.Name = name
	}
	if u.Target != nil {
		g.Target = *u.Target
	}
	if u.Unit != nil {
		g.Unit = strings.TrimSpace(*u.Unit)
	}
	if u.Deadline != nil {
		if u.Deadline.IsZero() {
			return Validationf("goal deadline is required")
		}
		g.Deadline = *u.Deadline
	}
	g.UpdatedAt = now
	g.evaluate(now)
	return nil
}

// ProgressPercent is current/target*100 clamped to [0, 100].
func (g *Goal) ProgressPercent() float64 {
	if g.Target == 0 {
		if g.Completed {
			return 100
		}
		return 0
	}
	p := g.Current / g.Target * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return roundTo(p, 1)
}

func (g *Goal) IsOverdue(now time.Time) bool {
	return !g.Completed && now.After(g.Deadline)
}
