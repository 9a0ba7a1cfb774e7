package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxDailyLogNoteLen = 500

// Macro is a target with the client's latest logged value.
type Macro struct {
	Target  float64 `bson:"target" json:"target"`
	Current float64 `bson:"current" json:"current"`
}

// Remaining is target minus current. It may be negative.
func (m Macro) Remaining() float64 {
	return m.Target - m.Current
}

// MacroValues carries optional per-macro values. Nil fields are absent.
type MacroValues struct {
	Protein  *float64 `bson:"protein,omitempty" json:"protein,omitempty"`
	Carbs    *float64 `bson:"carbs,omitempty" json:"carbs,omitempty"`
	Fat      *float64 `bson:"fat,omitempty" json:"fat,omitempty"`
	Calories *float64 `bson:"calories,omitempty" json:"calories,omitempty"`
}

func (v MacroValues) IsEmpty() bool {
	return v.Protein == nil && v.Carbs == nil && v.Fat == nil && v.Calories == nil
}

func (v MacroValues) validate() error {
	for name, p := range map[string]*float64{"protein": v.Protein, "carbs": v.Carbs, "fat": v.Fat, "calories": v.Calories} {
		if p != nil && *p < 0 {
			return Validationf("%s cannot be negative", name)
		}
	}
	return nil
}

// DailyLog is an entry of the append-only nutrition diary.
type DailyLog struct {
	Date     time.Time          `bson:"date" json:"date"`
	Note     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	LoggedBy primitive.ObjectID `bson:"loggedBy" json:"loggedBy"`

	MacroValues `bson:",inline"`
}

// NutritionPlan holds the macro targets of one client.
type NutritionPlan struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID   primitive.ObjectID `bson:"clientId" json:"clientId"` // Unique
	AssignedBy primitive.ObjectID `bson:"assignedBy" json:"assignedBy"`
	Protein    Macro              `bson:"protein" json:"protein"`
	Carbs      Macro              `bson:"carbs" json:"carbs"`
	Fat        Macro              `bson:"fat" json:"fat"`
	Calories   Macro              `bson:"calories" json:"calories"`
	DailyLogs  []DailyLog         `bson:"dailyLogs" json:"dailyLogs"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
	Version    int64              `bson:"version" json:"version"`
}

// NewNutritionPlan creates a plan with the given targets. Missing targets are zero.
func NewNutritionPlan(clientID, assignedBy primitive.ObjectID, targets MacroValues, now time.Time) (*NutritionPlan, error) {
	if clientID == primitive.NilObjectID || assignedBy == primitive.NilObjectID {
		return nil, Validationf("nutrition plan requires a client and an assigning specialist")
	}
	p := &NutritionPlan{
		ClientID:   clientID,
		AssignedBy: assignedBy,
		DailyLogs:  []DailyLog{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.UpdateTargets(targets, now); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateTargets overwrites the targets that are present.
func (p *NutritionPlan) UpdateTargets(targets MacroValues, now time.Time) error {
	if targets.IsEmpty() {
		return Validationf("at least one macro target is required")
	}
	if err := targets.validate(); err != nil {
		return err
	}
	setIf(&p.Protein.Target, targets.Protein)
	setIf(&p.Carbs.Target, targets.Carbs)
	setIf(&p.Fat.Target, targets.Fat)
	setIf(&p.Calories.Target, targets.Calories)
	p.UpdatedAt = now
	return nil
}

// LogDay appends a diary entry and moves each present macro's Current to the logged value.
// Absent macros keep their previous Current.
func (p *NutritionPlan) LogDay(values MacroValues, note string, loggedBy primitive.ObjectID, date *time.Time, now time.Time) (DailyLog, error) {
	if values.IsEmpty() {
		return DailyLog{}, Validationf("at least one macro value is required")
	}
	if err := values.validate(); err != nil {
		return DailyLog{}, err
	}
	note = strings.TrimSpace(note)
	if len(note) > MaxDailyLogNoteLen {
		return DailyLog{}, Validationf("notes cannot exceed %d characters", MaxDailyLogNoteLen)
	}
	entry := DailyLog{Date: now, MacroValues: values, Note: note, LoggedBy: loggedBy}
	if date != nil && !date.IsZero() {
		entry.Date = *date
	}
	setIf(&p.Protein.Current, values.Protein)
	setIf(&p.Carbs.Current, values.Carbs)
	setIf(&p.Fat.Current, values.Fat)
	setIf(&p.Calories.Current, values.Calories)
	p.DailyLogs = append(p.DailyLogs, entry)
	p.UpdatedAt = now
	return entry, nil
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
