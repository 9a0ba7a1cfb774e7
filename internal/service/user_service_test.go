package service

import (
	"strings"
	"testing"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUserFixture(t *testing.T) (*fixture, UserService, *storage.MemoryStorage) {
	f := newFixture(t)
	files := storage.NewMemoryStorage()
	svc := NewUserService(f.base(), ClientData{
		Workouts:     f.workouts,
		Goals:        f.goals,
		Measurements: f.measurements,
		Nutrition:    f.nutrition,
	}, files, 0)
	return f, svc, files
}

func TestUserService_AssignmentIsMirrored(t *testing.T) {
	f, svc, _ := newUserFixture(t)

	client, err := svc.AssignSpecialist(f.ctx, as(f.admin), f.otherClient.ID, f.otherSpecialist.ID)
	require.NoError(t, err)
	assert.Contains(t, client.SpecialistIDs, f.otherSpecialist.ID)
	assert.Contains(t, f.reload(t, f.otherSpecialist.ID).ClientIDs, f.otherClient.ID)

	// idempotent
	client, err = svc.AssignSpecialist(f.ctx, as(f.admin), f.otherClient.ID, f.otherSpecialist.ID)
	require.NoError(t, err)
	assert.Len(t, client.SpecialistIDs, 1)

	clients, err := svc.ListClients(f.ctx, as(f.otherSpecialist), f.otherSpecialist.ID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, f.otherClient.ID, clients[0].ID)

	client, err = svc.UnassignSpecialist(f.ctx, as(f.admin), f.otherClient.ID, f.otherSpecialist.ID)
	require.NoError(t, err)
	assert.NotContains(t, client.SpecialistIDs, f.otherSpecialist.ID)
	assert.NotContains(t, f.reload(t, f.otherSpecialist.ID).ClientIDs, f.otherClient.ID)

	assert.Equal(t, []notify.EventType{notify.EventSpecialistAssigned, notify.EventSpecialistAssigned, notify.EventSpecialistUnassigned}, f.notifier.Types())
}

func TestUserService_AssignmentRules(t *testing.T) {
	f, svc, _ := newUserFixture(t)

	_, err := svc.AssignSpecialist(f.ctx, as(f.specialist), f.otherClient.ID, f.specialist.ID)
	assertKind(t, domain.KindForbidden, err)
	_, err = svc.AssignSpecialist(f.ctx, as(f.admin), f.otherClient.ID, f.client.ID)
	assertKind(t, domain.KindValidation, err)
	_, err = svc.AssignSpecialist(f.ctx, as(f.admin), f.specialist.ID, f.otherSpecialist.ID)
	assertKind(t, domain.KindValidation, err)
	_, err = svc.AssignSpecialist(f.ctx, as(f.admin), primitive.NewObjectID(), f.specialist.ID)
	assertKind(t, domain.KindNotFound, err)
	_, err = svc.AssignSpecialist(f.ctx, as(f.client), primitive.NewObjectID(), f.specialist.ID)
	assertKind(t, domain.KindForbidden, err)
	_, err = svc.UnassignSpecialist(f.ctx, as(f.client), f.client.ID, primitive.NewObjectID())
	assertKind(t, domain.KindForbidden, err)

	_, err = svc.ListClients(f.ctx, as(f.otherSpecialist), f.specialist.ID)
	assertKind(t, domain.KindForbidden, err)
	clients, err := svc.ListClients(f.ctx, as(f.admin), f.specialist.ID)
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	specialists, err := svc.ListSpecialists(f.ctx, as(f.client), f.client.ID)
	require.NoError(t, err)
	require.Len(t, specialists, 1)
	assert.Equal(t, f.specialist.ID, specialists[0].ID)
	_, err = svc.ListSpecialists(f.ctx, as(f.otherClient), f.client.ID)
	assertKind(t, domain.KindForbidden, err)
}

func TestUserService_GetProfile(t *testing.T) {
	f, svc, _ := newUserFixture(t)

	u, err := svc.GetProfile(f.ctx, as(f.specialist), f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, f.client.ID, u.ID)
	_, err = svc.GetProfile(f.ctx, as(f.client), f.specialist.ID)
	require.NoError(t, err)
	_, err = svc.GetProfile(f.ctx, as(f.otherClient), f.client.ID)
	assertKind(t, domain.KindForbidden, err)
	_, err = svc.GetProfile(f.ctx, as(f.admin), primitive.NewObjectID())
	assertKind(t, domain.KindNotFound, err)
	_, err = svc.GetProfile(f.ctx, as(f.client), primitive.NewObjectID())
	assertKind(t, domain.KindForbidden, err)

	updated, err := svc.UpdateProfile(f.ctx, as(f.client), ProfileUpdate{Name: strPtr("Casey"), PhoneNumber: strPtr(" 555-0100 ")})
	require.NoError(t, err)
	assert.Equal(t, "Casey", updated.Name)
	assert.Equal(t, "555-0100", updated.PhoneNumber)
	// relations survive a profile edit
	assert.Contains(t, f.reload(t, f.client.ID).SpecialistIDs, f.specialist.ID)

	_, err = svc.UpdateProfile(f.ctx, as(f.client), ProfileUpdate{Email: strPtr("coach@example.com")})
	assertKind(t, domain.KindConflict, err)
}

func TestUserService_Administration(t *testing.T) {
	f, svc, _ := newUserFixture(t)

	_, err := svc.CreateUser(f.ctx, as(f.specialist), NewUserInput{Name: "X", Email: "x@example.com", Password: "password123", Roles: domain.Roles{domain.RoleClient}})
	assertKind(t, domain.KindForbidden, err)
	_, err = svc.CreateUser(f.ctx, as(f.admin), NewUserInput{Name: "X", Email: "x@example.com", Password: "password123", Roles: domain.Roles{domain.RoleOwner}})
	assertKind(t, domain.KindForbidden, err)

	coach, err := svc.CreateUser(f.ctx, as(f.owner), NewUserInput{Name: "New Coach", Email: "new@example.com", Password: "password123", Roles: domain.Roles{domain.RoleSpecialist, domain.RoleClient}})
	require.NoError(t, err)
	assert.True(t, coach.IsSpecialist())
	assert.True(t, coach.IsClient())

	specialists, err := svc.ListUsers(f.ctx, as(f.admin), domain.RoleSpecialist)
	require.NoError(t, err)
	assert.Len(t, specialists, 3)

	// dropping the specialist role while clients remain is refused
	_, err = svc.UpdateUser(f.ctx, as(f.admin), f.specialist.ID, UserUpdate{Roles: domain.Roles{domain.RoleClient}})
	assertKind(t, domain.KindConflict, err)

	_, err = svc.UpdateUser(f.ctx, as(f.admin), f.otherSpecialist.ID, UserUpdate{Roles: domain.Roles{domain.RoleAdmin}})
	require.NoError(t, err)
	_, err = svc.UpdateUser(f.ctx, as(f.owner), f.owner.ID, UserUpdate{Roles: domain.Roles{domain.RoleAdmin}})
	assertKind(t, domain.KindConflict, err)
}

func TestUserService_DeleteUser(t *testing.T) {
	f, svc, _ := newUserFixture(t)

	assertKind(t, domain.KindForbidden, svc.DeleteUser(f.ctx, as(f.admin), f.admin.ID))
	assertKind(t, domain.KindForbidden, svc.DeleteUser(f.ctx, as(f.specialist), f.client.ID))
	assertKind(t, domain.KindConflict, svc.DeleteUser(f.ctx, as(f.admin), f.owner.ID))
	assertKind(t, domain.KindNotFound, svc.DeleteUser(f.ctx, as(f.admin), primitive.NewObjectID()))

	workouts := NewWorkoutService(f.base(), f.workouts)
	w, err := workouts.Create(f.ctx, as(f.specialist), twoExerciseDraft(f.client.ID))
	require.NoError(t, err)
	_, err = NewNutritionService(f.base(), f.nutrition).CreatePlan(f.ctx, as(f.specialist), f.client.ID, domain.MacroValues{Calories: floatPtr(2200)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(f.ctx, as(f.admin), f.client.ID))

	_, err = f.users.GetByID(f.ctx, f.client.ID)
	assert.Error(t, err)
	_, err = f.workouts.GetByID(f.ctx, w.ID)
	assert.Error(t, err)
	_, err = f.nutrition.GetByClient(f.ctx, f.client.ID)
	assert.Error(t, err)
	assert.NotContains(t, f.reload(t, f.specialist.ID).ClientIDs, f.client.ID)
}

func TestUserService_ProfileImage(t *testing.T) {
	f, svc, files := newUserFixture(t)

	_, err := svc.RequestProfileImageUploadURL(f.ctx, as(f.client), "application/pdf")
	assertKind(t, domain.KindValidation, err)

	upload, err := svc.RequestProfileImageUploadURL(f.ctx, as(f.client), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(upload.ObjectKey, ".png"))
	assert.NotEmpty(t, upload.UploadURL)

	// not uploaded yet
	_, err = svc.ConfirmProfileImage(f.ctx, as(f.client), upload.ObjectKey)
	assertKind(t, domain.KindValidation, err)

	files.Put(upload.ObjectKey, "image/png")
	_, err = svc.ConfirmProfileImage(f.ctx, as(f.otherClient), upload.ObjectKey)
	assertKind(t, domain.KindForbidden, err)
	user, err := svc.ConfirmProfileImage(f.ctx, as(f.client), upload.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, upload.ObjectKey, user.ProfileImageKey)

	url, err := svc.GetProfileImageURL(f.ctx, as(f.specialist), f.client.ID)
	require.NoError(t, err)
	assert.Contains(t, url, upload.ObjectKey)

	// replacing the image removes the previous object
	second, err := svc.RequestProfileImageUploadURL(f.ctx, as(f.client), "image/jpeg")
	require.NoError(t, err)
	files.Put(second.ObjectKey, "image/jpeg")
	_, err = svc.ConfirmProfileImage(f.ctx, as(f.client), second.ObjectKey)
	require.NoError(t, err)
	exists, err := files.ObjectExists(f.ctx, upload.ObjectKey)
	require.NoError(t, err)
	assert.False(t, exists)
}
