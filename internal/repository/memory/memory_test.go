package memory

import (
	"context"
	"testing"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newUser(t *testing.T, repo *UserRepository, email string, roles ...domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Name: email, Email: email, PasswordHash: "hash", Roles: roles}
	_, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	u := newUser(t, repo, "Coach@Example.com", domain.RoleSpecialist)
	assert.Equal(t, "coach@example.com", u.Email)
	assert.EqualValues(t, 1, u.Version)

	got, err := repo.GetByEmail(ctx, "COACH@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.Create(ctx, &domain.User{Email: "coach@example.com", PasswordHash: "x", Roles: domain.Roles{domain.RoleClient}})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = repo.GetByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := repo.CountByRole(ctx, domain.RoleSpecialist)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserRepository_RelationsMirrored(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	spec := newUser(t, repo, "s@example.com", domain.RoleSpecialist)
	client := newUser(t, repo, "c@example.com", domain.RoleClient)

	require.NoError(t, repo.AddRelation(ctx, spec.ID, client.ID))
	require.NoError(t, repo.AddRelation(ctx, spec.ID, client.ID))

	s, err := repo.GetByID(ctx, spec.ID)
	require.NoError(t, err)
	c, err := repo.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{client.ID}, s.ClientIDs)
	assert.Equal(t, []primitive.ObjectID{spec.ID}, c.SpecialistIDs)

	err = repo.AddRelation(ctx, spec.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.RemoveAllRelations(ctx, client.ID))
	s, err = repo.GetByID(ctx, spec.ID)
	require.NoError(t, err)
	assert.Empty(t, s.ClientIDs)
}

func TestUserRepository_UpdateKeepsRelations(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	spec := newUser(t, repo, "s@example.com", domain.RoleSpecialist)
	client := newUser(t, repo, "c@example.com", domain.RoleClient)
	require.NoError(t, repo.AddRelation(ctx, spec.ID, client.ID))

	// stale copy: relations changed the stored version
	client.Name = "Renamed"
	assert.ErrorIs(t, repo.Update(ctx, client), repository.ErrVersionConflict)

	fresh, err := repo.GetByID(ctx, client.ID)
	require.NoError(t, err)
	fresh.Name = "Renamed"
	fresh.SpecialistIDs = nil
	require.NoError(t, repo.Update(ctx, fresh))
	assert.Equal(t, []primitive.ObjectID{spec.ID}, fresh.SpecialistIDs)

	stored, err := repo.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Equal(t, []primitive.ObjectID{spec.ID}, stored.SpecialistIDs)
}

func TestWorkoutRepository_VersionedUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkoutRepository()
	clientID := primitive.NewObjectID()

	w, err := domain.NewWorkout(domain.WorkoutDraft{
		Name:      "Leg day",
		ClientID:  clientID,
		CreatedBy: primitive.NewObjectID(),
		Exercises: []domain.PrescribedExercise{{Name: "Squat", Sets: 3, Reps: "8-12", Weight: 20}},
	}, testNow)
	require.NoError(t, err)
	_, err = repo.Create(ctx, w)
	require.NoError(t, err)

	a, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)

	a.Start(testNow)
	require.NoError(t, repo.Update(ctx, a))
	assert.EqualValues(t, 2, a.Version)

	b.Start(testNow)
	assert.ErrorIs(t, repo.Update(ctx, b), repository.ErrVersionConflict)

	// mutating a returned copy never leaks into the store
	a.Name = "changed"
	stored, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leg day", stored.Name)
	assert.Equal(t, domain.WorkoutStarted, stored.Status)

	n, err := repo.DeleteByClient(ctx, clientID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.ErrorIs(t, repo.Delete(ctx, w.ID), repository.ErrNotFound)
}

func TestNutritionRepository_OnePlanPerClient(t *testing.T) {
	ctx := context.Background()
	repo := NewNutritionRepository()
	clientID := primitive.NewObjectID()

	_, err := repo.Create(ctx, &domain.NutritionPlan{ClientID: clientID})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.NutritionPlan{ClientID: clientID})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = repo.GetByClient(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCatalogRepository_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()
	author := primitive.NewObjectID()
	for _, e := range []domain.CatalogExercise{
		{Name: "Squat", Category: "legs", Equipment: "barbell", AuthorID: author},
		{Name: "Lunge", Category: "legs", Equipment: "none", AuthorID: author},
		{Name: "Bench press", Category: "chest", Equipment: "barbell", Description: "flat bench", AuthorID: author},
	} {
		e := e
		_, err := repo.Create(ctx, &e)
		require.NoError(t, err)
	}

	legs, err := repo.List(ctx, domain.CatalogFilter{Category: "LEGS"})
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, "Lunge", legs[0].Name)

	found, err := repo.List(ctx, domain.CatalogFilter{Search: "bench"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bench press", found[0].Name)
}
