package domain

import (
	"math"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus type for the workout lifecycle
type WorkoutStatus string

const (
	WorkoutScheduled WorkoutStatus = "scheduled"
	WorkoutStarted   WorkoutStatus = "started"
	WorkoutCompleted WorkoutStatus = "completed" // Terminal
)

// Grouping links exercises performed back-to-back.
type Grouping string

const (
	GroupingNone     Grouping = "none"
	GroupingSuperset Grouping = "superset"
	GroupingTriset   Grouping = "triset"
)

const (
	MaxExerciseSets     = 20
	MaxHoldTimeSeconds  = 600
	MaxExerciseNotesLen = 500
	MaxWorkoutNameLen   = 100
	MaxWorkoutNotesLen  = 1000
	MaxDurationMinutes  = 480
	MinFeedbackScore    = 1
	MaxFeedbackScore    = 5
	MaxPainLevel        = 10
)

var videoLinkRe = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be|vimeo\.com)/.+`)

// ActualSet is one set the client really performed.
type ActualSet struct {
	Reps       int       `bson:"reps" json:"reps"`
	Weight     float64   `bson:"weight" json:"weight"`
	Difficulty int       `bson:"difficulty" json:"difficulty"` // 1-5
	PainLevel  *int      `bson:"painLevel,omitempty" json:"painLevel,omitempty"`
	Notes      string    `bson:"notes,omitempty" json:"notes,omitempty"`
	RecordedAt time.Time `bson:"recordedAt" json:"recordedAt"`
}

// Validate checks the ranges of a recorded set.
func (s ActualSet) Validate() error {
	if s.Reps < 0 {
		return Validationf("reps cannot be negative")
	}
	if s.Weight < 0 {
		return Validationf("weight cannot be negative")
	}
	if s.Difficulty < MinFeedbackScore || s.Difficulty > MaxFeedbackScore {
		return Validationf("difficulty must be between %d and %d", MinFeedbackScore, MaxFeedbackScore)
	}
	if s.PainLevel != nil && (*s.PainLevel < 0 || *s.PainLevel > MaxPainLevel) {
		return Validationf("pain level must be between 0 and %d", MaxPainLevel)
	}
	return nil
}

// PrescribedExercise is the planned sets/reps/weight template authored by a specialist,
// plus the sets recorded against it during the session.
type PrescribedExercise struct {
	CatalogExerciseID *primitive.ObjectID `bson:"catalogExerciseId,omitempty" json:"catalogExerciseId,omitempty"`
	Name              string              `bson:"name" json:"name"`
	Sets              int                 `bson:"sets" json:"sets"`
	Reps              string              `bson:"reps" json:"reps"` // "10", "8-12", "30s"
	Weight            float64             `bson:"weight" json:"weight"`
	HoldTime          int                 `bson:"holdTime" json:"holdTime"` // seconds, isometric work
	Notes             string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Grouping          Grouping            `bson:"grouping" json:"grouping"`
	GroupID           string              `bson:"groupId,omitempty" json:"groupId,omitempty"`

	ActualSets []ActualSet `bson:"actualSets" json:"actualSets"`
	Completed  bool        `bson:"completed" json:"completed"` // At least one actual set recorded
}

// Validate checks the prescription part of the exercise.
func (e *PrescribedExercise) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return Validationf("exercise name is required")
	}
	if e.Sets < 1 || e.Sets > MaxExerciseSets {
		return Validationf("exercise %q: sets must be between 1 and %d", e.Name, MaxExerciseSets)
	}
	if _, err := ParseTargetReps(e.Reps); err != nil {
		return Validationf("exercise %q: %s", e.Name, err.Error())
	}
	if e.Weight < 0 {
		return Validationf("exercise %q: weight cannot be negative", e.Name)
	}
	if e.HoldTime < 0 || e.HoldTime > MaxHoldTimeSeconds {
		return Validationf("exercise %q: hold time must be between 0 and %d seconds", e.Name, MaxHoldTimeSeconds)
	}
	if len(e.Notes) > MaxExerciseNotesLen {
		return Validationf("exercise %q: notes cannot exceed %d characters", e.Name, MaxExerciseNotesLen)
	}
	switch e.Grouping {
	case "", GroupingNone:
	case GroupingSuperset, GroupingTriset:
		if strings.TrimSpace(e.GroupID) == "" {
			return Validationf("exercise %q: group id is required for %s", e.Name, e.Grouping)
		}
	default:
		return Validationf("exercise %q: unknown grouping %q", e.Name, e.Grouping)
	}
	return nil
}

// Volume is sets x average target reps x weight.
func (e *PrescribedExercise) Volume() float64 {
	reps, err := ParseTargetReps(e.Reps)
	if err != nil {
		return 0
	}
	return float64(e.Sets) * reps.Average() * e.Weight
}

// ActualVolume sums reps x weight over the recorded sets.
func (e *PrescribedExercise) ActualVolume() float64 {
	var total float64
	for _, s := range e.ActualSets {
		total += float64(s.Reps) * s.Weight
	}
	return total
}

// prescription returns a copy with the session data dropped.
func (e PrescribedExercise) prescription() PrescribedExercise {
	e.ActualSets = []ActualSet{}
	e.Completed = false
	if e.Grouping == "" {
		e.Grouping = GroupingNone
	}
	if e.CatalogExerciseID != nil {
		id := *e.CatalogExerciseID
		e.CatalogExerciseID = &id
	}
	return e
}

// Workout is one prescribed session owned by a client.
type Workout struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name"`
	ClientID        primitive.ObjectID   `bson:"clientId" json:"clientId"`
	CreatedBy       primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	ScheduledDate   *time.Time           `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"`
	Exercises       []PrescribedExercise `bson:"exercises" json:"exercises"`
	VideoLink       string               `bson:"videoLink,omitempty" json:"videoLink,omitempty"`
	RepeatWeekly    bool                 `bson:"repeatWeekly" json:"repeatWeekly"`
	ParentWorkoutID *primitive.ObjectID  `bson:"parentWorkout,omitempty" json:"parentWorkout,omitempty"`

	Status           WorkoutStatus `bson:"status" json:"status"`
	StartedAt        *time.Time    `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt      *time.Time    `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	MoodFeedback     *int          `bson:"moodFeedback,omitempty" json:"moodFeedback,omitempty"`
	Notes            string        `bson:"notes,omitempty" json:"notes,omitempty"`
	DurationMinutes  *int          `bson:"duration,omitempty" json:"duration,omitempty"`
	AveragePainLevel *int          `bson:"averagePainLevel,omitempty" json:"averagePainLevel,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	Version   int64     `bson:"version" json:"version"`
}

// WorkoutDraft carries what a specialist supplies when prescribing a workout.
type WorkoutDraft struct {
	Name          string
	ClientID      primitive.ObjectID
	CreatedBy     primitive.ObjectID
	ScheduledDate *time.Time
	Exercises     []PrescribedExercise
	VideoLink     string
	RepeatWeekly  bool
}

// NewWorkout validates a draft and returns a workout in the scheduled state.
func NewWorkout(d WorkoutDraft, now time.Time) (*Workout, error) {
	if d.ClientID == primitive.NilObjectID || d.CreatedBy == primitive.NilObjectID {
		return nil, Validationf("workout requires a client and an author")
	}
	w := &Workout{
		ClientID:      d.ClientID,
		CreatedBy:     d.CreatedBy,
		ScheduledDate: d.ScheduledDate,
		RepeatWeekly:  d.RepeatWeekly,
		Status:        WorkoutScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := w.setName(d.Name); err != nil {
		return nil, err
	}
	if err := w.setVideoLink(d.VideoLink); err != nil {
		return nil, err
	}
	if err := w.setExercises(d.Exercises); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workout) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Validationf("workout name is required")
	}
	if len(name) > MaxWorkoutNameLen {
		return Validationf("workout name cannot exceed %d characters", MaxWorkoutNameLen)
	}
	w.Name = name
	return nil
}

func (w *Workout) setVideoLink(link string) error {
	link = strings.TrimSpace(link)
	if link != "" && !videoLinkRe.MatchString(link) {
		return Validationf("video link must be a YouTube or Vimeo URL")
	}
	w.VideoLink = link
	return nil
}

func (w *Workout) setExercises(exercises []PrescribedExercise) error {
	if len(exercises) == 0 {
		return Validationf("at least one exercise is required")
	}
	out := make([]PrescribedExercise, len(exercises))
	for i := range exercises {
		if err := exercises[i].Validate(); err != nil {
			return err
		}
		out[i] = exercises[i].prescription()
	}
	w.Exercises = out
	return nil
}

func (w *Workout) IsCompleted() bool {
	return w.Status == WorkoutCompleted
}

// Start moves a scheduled workout to started. Already started or completed
// workouts are left untouched and false is returned.
func (w *Workout) Start(now time.Time) bool {
	if w.Status != WorkoutScheduled {
		return false
	}
	w.Status = WorkoutStarted
	w.StartedAt = &now
	w.UpdatedAt = now
	return true
}

// RecordSet appends an actual set to the exercise at index and marks it completed.
// An index outside the exercise list records nothing and returns false without error.
func (w *Workout) RecordSet(index int, set ActualSet, now time.Time) (bool, error) {
	if w.IsCompleted() {
		return false, Conflictf("workout is already completed")
	}
	if err := set.Validate(); err != nil {
		return false, err
	}
	if index < 0 || index >= len(w.Exercises) {
		return false, nil
	}
	set.RecordedAt = now
	ex := &w.Exercises[index]
	ex.ActualSets = append(ex.ActualSets, set)
	ex.Completed = true
	w.UpdatedAt = now
	return true, nil
}

// CompletionFeedback holds the optional audit fields supplied on completion.
type CompletionFeedback struct {
	MoodFeedback     *int
	Notes            *string
	DurationMinutes  *int
	AveragePainLevel *int
}

func (f CompletionFeedback) Validate() error {
	if f.MoodFeedback != nil && (*f.MoodFeedback < MinFeedbackScore || *f.MoodFeedback > MaxFeedbackScore) {
		return Validationf("mood feedback must be between %d and %d", MinFeedbackScore, MaxFeedbackScore)
	}
	if f.Notes != nil && len(*f.Notes) > MaxWorkoutNotesLen {
		return Validationf("notes cannot exceed %d characters", MaxWorkoutNotesLen)
	}
	if f.DurationMinutes != nil && (*f.DurationMinutes < 0 || *f.DurationMinutes > MaxDurationMinutes) {
		return Validationf("duration must be between 0 and %d minutes", MaxDurationMinutes)
	}
	if f.AveragePainLevel != nil && (*f.AveragePainLevel < 0 || *f.AveragePainLevel > MaxPainLevel) {
		return Validationf("average pain level must be between 0 and %d", MaxPainLevel)
	}
	return nil
}

// Complete marks the workout completed and stamps CompletedAt the first time only.
// Later calls only overwrite the feedback fields that are supplied.
// It returns true when this call performed the transition.
func (w *Workout) Complete(f CompletionFeedback, now time.Time) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	first := !w.IsCompleted()
	if first {
		w.Status = WorkoutCompleted
		if w.CompletedAt == nil {
			w.CompletedAt = &now
		}
	}
	if f.MoodFeedback != nil {
		w.MoodFeedback = f.MoodFeedback
	}
	if f.Notes != nil {
		w.Notes = strings.TrimSpace(*f.Notes)
	}
	if f.DurationMinutes != nil {
		w.DurationMinutes = f.DurationMinutes
	}
	if f.AveragePainLevel != nil {
		w.AveragePainLevel = f.AveragePainLevel
	}
	w.UpdatedAt = now
	return first, nil
}

// PrescriptionUpdate lists the specialist editable fields. Nil means unchanged.
type PrescriptionUpdate struct {
	Name          *string
	ScheduledDate *time.Time
	Exercises     []PrescribedExercise
	VideoLink     *string
	RepeatWeekly  *bool
}

// UpdatePrescription edits the prescribed content. Completed workouts are locked.
// When exercises are replaced, recorded sets are kept for positions whose
// exercise name is unchanged.
func (w *Workout) UpdatePrescription(u PrescriptionUpdate, now time.Time) error {
	if w.IsCompleted() {
		return Conflictf("completed workouts cannot be edited")
	}
	next := *w
	if u.Name != nil {
		if err := next.setName(*u.Name); err != nil {
			return err
		}
	}
	if u.VideoLink != nil {
		if err := next.setVideoLink(*u.VideoLink); err != nil {
			return err
		}
	}
	if u.Exercises != nil {
		if err := next.setExercises(u.Exercises); err != nil {
			return err
		}
		for i := range next.Exercises {
			if i < len(w.Exercises) && strings.EqualFold(w.Exercises[i].Name, next.Exercises[i].Name) {
				next.Exercises[i].ActualSets = w.Exercises[i].ActualSets
				next.Exercises[i].Completed = w.Exercises[i].Completed
			}
		}
	}
	if u.ScheduledDate != nil {
		next.ScheduledDate = u.ScheduledDate
	}
	if u.RepeatWeekly != nil {
		next.RepeatWeekly = *u.RepeatWeekly
	}
	next.UpdatedAt = now
	*w = next
	return nil
}

// CloneFor returns a fresh scheduled copy of the prescription for another date.
func (w *Workout) CloneFor(date *time.Time, now time.Time) *Workout {
	exercises := make([]PrescribedExercise, len(w.Exercises))
	for i, e := range w.Exercises {
		exercises[i] = e.prescription()
	}
	parent := w.ID
	return &Workout{
		Name:            w.Name,
		ClientID:        w.ClientID,
		CreatedBy:       w.CreatedBy,
		ScheduledDate:   date,
		Exercises:       exercises,
		VideoLink:       w.VideoLink,
		RepeatWeekly:    w.RepeatWeekly,
		ParentWorkoutID: &parent,
		Status:          WorkoutScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (w *Workout) ExerciseCount() int {
	return len(w.Exercises)
}

// TotalVolume sums the prescribed volume over every exercise.
func (w *Workout) TotalVolume() float64 {
	var total float64
	for i := range w.Exercises {
		total += w.Exercises[i].Volume()
	}
	return total
}

// ActualVolume sums the performed volume over every recorded set.
func (w *Workout) ActualVolume() float64 {
	var total float64
	for i := range w.Exercises {
		total += w.Exercises[i].ActualVolume()
	}
	return total
}

// WorkoutStats summarises a client's workouts.
type WorkoutStats struct {
	TotalWorkouts     int     `json:"totalWorkouts"`
	CompletedWorkouts int     `json:"completedWorkouts"`
	CompletionRate    float64 `json:"completionRate"`
}

// SummarizeWorkouts counts completed workouts. CompletionRate is a percentage
// rounded to one decimal and zero when there are no workouts.
func SummarizeWorkouts(workouts []Workout) WorkoutStats {
	stats := WorkoutStats{TotalWorkouts: len(workouts)}
	for i := range workouts {
		if workouts[i].IsCompleted() {
			stats.CompletedWorkouts++
		}
	}
	stats.CompletionRate = CompletionRate(stats.CompletedWorkouts, stats.TotalWorkouts)
	return stats
}

// CompletionRate returns completed/total*100 rounded to one decimal, 0 for total == 0.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return roundTo(float64(completed)/float64(total)*100, 1)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
