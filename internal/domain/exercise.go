// internal/domain/exercise.go
package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty levels used by the catalog.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// CatalogExercise is a reusable exercise definition specialists pick from when prescribing.
type CatalogExercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID    primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	Category   string `bson:"category,omitempty" json:"category,omitempty"`     // muscle group, e.g. "legs"
	Equipment  string `bson:"equipment,omitempty" json:"equipment,omitempty"`   // e.g. "barbell", "none"
	Difficulty string `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // beginner / intermediate / advanced
	VideoURL   string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Normalize trims the entry and validates the fields the catalog filters on.
func (e *CatalogExercise) Normalize() error {
	e.Name = strings.TrimSpace(e.Name)
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	e.Equipment = strings.ToLower(strings.TrimSpace(e.Equipment))
	e.Difficulty = strings.ToLower(strings.TrimSpace(e.Difficulty))
	e.VideoURL = strings.TrimSpace(e.VideoURL)

	if e.Name == "" {
		return Validationf("exercise name is required")
	}
	if len(e.Name) > MaxWorkoutNameLen {
		return Validationf("exercise name cannot exceed %d characters", MaxWorkoutNameLen)
	}
	switch e.Difficulty {
	case "", DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
	default:
		return Validationf("unknown difficulty %q", e.Difficulty)
	}
	if e.VideoURL != "" && !videoLinkRe.MatchString(e.VideoURL) {
		return Validationf("video url must be a YouTube or Vimeo URL")
	}
	return nil
}

// CatalogFilter narrows catalog listings. Empty fields match everything.
type CatalogFilter struct {
	Search     string
	Category   string
	Equipment  string
	Difficulty string
}

// Matches applies the filter in memory, case-insensitively.
func (f CatalogFilter) Matches(e *CatalogExercise) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, e.Category) {
		return false
	}
	if f.Equipment != "" && !strings.EqualFold(f.Equipment, e.Equipment) {
		return false
	}
	if f.Difficulty != "" && !strings.EqualFold(f.Difficulty, e.Difficulty) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(e.Name), q) || strings.Contains(strings.ToLower(e.Description), q)
	}
	return true
}
