package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/policy"
	"coastalfit/coach-app/internal/repository"
	"coastalfit/coach-app/internal/storage"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadURLResponse is returned when a client asks to upload a file directly to storage.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // reported back on confirm
}

// ProfileUpdate holds self-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name        *string
	Email       *string
	PhoneNumber *string
}

// NewUserInput is what an administrator supplies to create an account.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	Roles    domain.Roles
}

// UserUpdate is the administrator's edit of an account. Nil roles means unchanged.
type UserUpdate struct {
	ProfileUpdate
	Roles domain.Roles
}

type UserService interface {
	GetProfile(ctx context.Context, actor domain.Principal, userID primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor domain.Principal, update ProfileUpdate) (*domain.User, error)

	// Identity graph. Both directions of a relation are written together.
	AssignSpecialist(ctx context.Context, actor domain.Principal, clientID, specialistID primitive.ObjectID) (*domain.User, error)
	UnassignSpecialist(ctx context.Context, actor domain.Principal, clientID, specialistID primitive.ObjectID) (*domain.User, error)
	ListClients(ctx context.Context, actor domain.Principal, specialistID primitive.ObjectID) ([]domain.User, error)
	ListSpecialists(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID) ([]domain.User, error)

	// Administration.
	ListUsers(ctx context.Context, actor domain.Principal, role domain.Role) ([]domain.User, error)
	CreateUser(ctx context.Context, actor domain.Principal, in NewUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, actor domain.Principal, userID primitive.ObjectID, update UserUpdate) (*domain.User, error)
	// DeleteUser removes the account, the client data it owns and every relation to it.
	DeleteUser(ctx context.Context, actor domain.Principal, userID primitive.ObjectID) error

	// Profile image, uploaded directly to object storage.
	RequestProfileImageUploadURL(ctx context.Context, actor domain.Principal, contentType string) (*UploadURLResponse, error)
	ConfirmProfileImage(ctx context.Context, actor domain.Principal, objectKey string) (*domain.User, error)
	GetProfileImageURL(ctx context.Context, actor domain.Principal, userID primitive.ObjectID) (string, error)
}

// ClientData lists the repositories holding data owned by a client, wiped on account deletion.
type ClientData struct {
	Workouts     repository.WorkoutRepository
	Goals        repository.GoalRepository
	Measurements repository.MeasurementRepository
	Nutrition    repository.NutritionRepository
}

type userService struct {
	Base
	data          ClientData
	fileStorage   storage.FileStorage
	presignExpiry time.Duration
}

func NewUserService(base Base, data ClientData, fileStorage storage.FileStorage, presignExpiry time.Duration) UserService {
	if presignExpiry <= 0 {
		presignExpiry = storage.DefaultPresignedURLExpiry
	}
	return &userService{
		Base:          base.withDefaults(),
		data:          data,
		fileStorage:   fileStorage,
		presignExpiry: presignExpiry,
	}
}

// canView: self, administrators, a specialist of the user, or a client of the user.
func canView(actor *domain.User, targetID primitive.ObjectID) bool {
	return actor.ID == targetID ||
		actor.Roles.IsPrivileged() ||
		actor.HasClient(targetID) ||
		actor.HasSpecialist(targetID)
}

func (s *userService) GetProfile(ctx context.Context, p domain.Principal, userID primitive.ObjectID) (*domain.User, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if userID == actor.ID {
		return actor, nil
	}
	if !canView(actor, userID) {
		return nil, domain.Forbiddenf("not allowed to view this user")
	}
	target, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}
	return target, nil
}

func (s *userService) UpdateProfile(ctx context.Context, p domain.Principal, update ProfileUpdate) (*domain.User, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := update.apply(actor); err != nil {
		return nil, err
	}
	actor.UpdatedAt = s.Now()
	if err := s.Users.Update(ctx, actor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Conflictf("email is already in use")
		}
		return nil, translate(err, "user")
	}
	return actor, nil
}

func (u ProfileUpdate) apply(user *domain.User) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return domain.Validationf("name is required")
		}
		user.Name = name
	}
	if u.Email != nil {
		email, err := normalizeEmail(*u.Email)
		if err != nil {
			return err
		}
		user.Email = email
	}
	if u.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*u.PhoneNumber)
	}
	return nil
}

// === Identity graph ===

func (s *userService) loadPair(ctx context.Context, p domain.Principal, clientID, specialistID primitive.ObjectID) (*domain.User, *domain.User, *domain.User, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := policy.AuthorizeGlobal(actor, policy.ActionManageRelations); err != nil {
		return nil, nil, nil, err
	}
	client, err := s.Users.GetByID(ctx, clientID)
	if err != nil {
		return nil, nil, nil, translate(err, "client")
	}
	specialist, err := s.Users.GetByID(ctx, specialistID)
	if err != nil {
		return nil, nil, nil, translate(err, "specialist")
	}
	return actor, client, specialist, nil
}

func (s *userService) AssignSpecialist(ctx context.Context, p domain.Principal, clientID, specialistID primitive.ObjectID) (*domain.User, error) {
	actor, client, specialist, err := s.loadPair(ctx, p, clientID, specialistID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckLinkable(specialist, client); err != nil {
		return nil, err
	}
	if err := s.Users.AddRelation(ctx, specialist.ID, client.ID); err != nil {
		return nil, translate(err, "relation")
	}
	s.publish(ctx, notify.Event{
		Type:       notify.EventSpecialistAssigned,
		ClientID:   client.ID,
		ActorID:    actor.ID,
		ResourceID: specialist.ID,
	})
	return s.reload(ctx, client.ID)
}

func (s *userService) UnassignSpecialist(ctx context.Context, p domain.Principal, clientID, specialistID primitive.ObjectID) (*domain.User, error) {
	actor, client, specialist, err := s.loadPair(ctx, p, clientID, specialistID)
	if err != nil {
		return nil, err
	}
	if !client.HasSpecialist(specialist.ID) && !specialist.HasClient(client.ID) {
		return client, nil
	}
	if err := s.Users.RemoveRelation(ctx, specialist.ID, client.ID); err != nil {
		return nil, translate(err, "relation")
	}
	s.publish(ctx, notify.Event{
		Type:       notify.EventSpecialistUnassigned,
		ClientID:   client.ID,
		ActorID:    actor.ID,
		ResourceID: specialist.ID,
	})
	return s.reload(ctx, client.ID)
}

func (s *userService) reload(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

func (s *userService) ListClients(ctx context.Context, p domain.Principal, specialistID primitive.ObjectID) ([]domain.User, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	specialist := actor
	if specialistID != actor.ID {
		if !actor.Roles.IsPrivileged() {
			return nil, domain.Forbiddenf("not allowed to list another specialist's clients")
		}
		if specialist, err = s.Users.GetByID(ctx, specialistID); err != nil {
			return nil, translate(err, "specialist")
		}
	}
	if !specialist.IsSpecialist() {
		return nil, domain.Validationf("user %s is not a specialist", specialist.ID.Hex())
	}
	clients, err := s.Users.GetByIDs(ctx, specialist.ClientIDs)
	if err != nil {
		return nil, translate(err, "clients")
	}
	return clients, nil
}

func (s *userService) ListSpecialists(ctx context.Context, p domain.Principal, clientID primitive.ObjectID) ([]domain.User, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionRead, clientID); err != nil {
		return nil, err
	}
	client := actor
	if clientID != actor.ID {
		if client, err = s.Users.GetByID(ctx, clientID); err != nil {
			return nil, translate(err, "client")
		}
	}
	specialists, err := s.Users.GetByIDs(ctx, client.SpecialistIDs)
	if err != nil {
		return nil, translate(err, "specialists")
	}
	return specialists, nil
}

// === Administration ===

func (s *userService) ListUsers(ctx context.Context, p domain.Principal, role domain.Role) ([]domain.User, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeGlobal(actor, policy.ActionManageUsers); err != nil {
		return nil, err
	}
	users, err := s.Users.List(ctx, role)
	if err != nil {
		return nil, translate(err, "users")
	}
	return users, nil
}

func (s *userService) CreateUser(ctx context.Context, p domain.Principal, in NewUserInput) (*domain.User, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeGlobal(actor, policy.ActionManageUsers); err != nil {
		return nil, err
	}
	if len(in.Roles) == 0 {
		return nil, domain.Validationf("at least one role is required")
	}
	if in.Roles.Has(domain.RoleOwner) && !actor.IsOwner() {
		return nil, domain.Forbiddenf("only an owner can grant the owner role")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash, Roles: in.Roles}
	if _, err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Conflictf("user with this email already exists")
		}
		return nil, translate(err, "user")
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, p domain.Principal, userID primitive.ObjectID, update UserUpdate) (*domain.User, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeGlobal(actor, policy.ActionManageUsers); err != nil {
		return nil, err
	}
	target, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}
	if update.Roles != nil {
		owners, err := s.Users.CountByRole(ctx, domain.RoleOwner)
		if err != nil {
			return nil, translate(err, "users")
		}
		if err := policy.AuthorizeRoleChange(actor, target, update.Roles, owners); err != nil {
			return nil, err
		}
		if err := s.checkRoleRemoval(target, update.Roles); err != nil {
			return nil, err
		}
		target.Roles = update.Roles
	}
	if err := update.ProfileUpdate.apply(target); err != nil {
		return nil, err
	}
	target.UpdatedAt = s.Now()
	if err := s.Users.Update(ctx, target); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Conflictf("email is already in use")
		}
		return nil, translate(err, "user")
	}
	return target, nil
}

// checkRoleRemoval keeps the identity graph consistent: a user cannot lose the
// client or specialist role while relations through it exist.
func (s *userService) checkRoleRemoval(target *domain.User, roles domain.Roles) error {
	if target.IsClient() && !roles.Has(domain.RoleClient) && len(target.SpecialistIDs) > 0 {
		return domain.Conflictf("unassign the client's specialists before removing the client role")
	}
	if target.IsSpecialist() && !roles.Has(domain.RoleSpecialist) && len(target.ClientIDs) > 0 {
		return domain.Conflictf("unassign the specialist's clients before removing the specialist role")
	}
	return nil
}

func (s *userService) DeleteUser(ctx context.Context, p domain.Principal, userID primitive.ObjectID) error {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return err
	}
	target, err := s.Users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return translate(err, "user")
	}
	owners, err := s.Users.CountByRole(ctx, domain.RoleOwner)
	if err != nil {
		return translate(err, "users")
	}
	if userID == actor.ID {
		target = actor
	}
	if err := policy.AuthorizeUserDeletion(actor, target, owners); err != nil {
		return err
	}

	logger := log.WithFields(log.Fields{"user": target.ID.Hex(), "actor": actor.ID.Hex()})
	if err := s.deleteClientData(ctx, target.ID); err != nil {
		return err
	}
	if err := s.Users.RemoveAllRelations(ctx, target.ID); err != nil {
		return translate(err, "relations")
	}
	if err := s.Users.Delete(ctx, target.ID); err != nil {
		return translate(err, "user")
	}
	if target.ProfileImageKey != "" && s.fileStorage != nil {
		if err := s.fileStorage.DeleteObject(ctx, target.ProfileImageKey); err != nil {
			logger.WithError(err).Warn("profile image not deleted")
		}
	}
	logger.Info("user deleted")
	return nil
}

func (s *userService) deleteClientData(ctx context.Context, clientID primitive.ObjectID) error {
	if s.data.Workouts != nil {
		if _, err := s.data.Workouts.DeleteByClient(ctx, clientID); err != nil {
			return translate(err, "workouts")
		}
	}
	if s.data.Goals != nil {
		if _, err := s.data.Goals.DeleteByClient(ctx, clientID); err != nil {
			return translate(err, "goals")
		}
	}
	if s.data.Measurements != nil {
		if _, err := s.data.Measurements.DeleteByClient(ctx, clientID); err != nil {
			return translate(err, "measurements")
		}
	}
	if s.data.Nutrition != nil {
		if _, err := s.data.Nutrition.DeleteByClient(ctx, clientID); err != nil {
			return translate(err, "nutrition plan")
		}
	}
	return nil
}

// === Profile image ===

func (s *userService) RequestProfileImageUploadURL(ctx context.Context, p domain.Principal, contentType string) (*UploadURLResponse, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.fileStorage == nil {
		return nil, errors.New("file storage is not configured")
	}
	key, err := storage.ProfileImageKey(actor.ID, contentType)
	if err != nil {
		return nil, domain.Validationf("%s", err.Error())
	}
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, s.presignExpiry)
	if err != nil {
		return nil, err
	}
	return &UploadURLResponse{UploadURL: url, ObjectKey: key}, nil
}

func (s *userService) ConfirmProfileImage(ctx context.Context, p domain.Principal, objectKey string) (*domain.User, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.fileStorage == nil {
		return nil, errors.New("file storage is not configured")
	}
	if !storage.OwnsProfileImageKey(actor.ID, objectKey) {
		return nil, domain.Forbiddenf("object key was not issued to this user")
	}
	exists, err := s.fileStorage.ObjectExists(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.Validationf("the image has not been uploaded yet")
	}

	previous := actor.ProfileImageKey
	actor.ProfileImageKey = objectKey
	actor.UpdatedAt = s.Now()
	if err := s.Users.Update(ctx, actor); err != nil {
		return nil, translate(err, "user")
	}
	if previous != "" && previous != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, previous); err != nil {
			log.WithError(err).WithField("key", previous).Warn("old profile image not deleted")
		}
	}
	return actor, nil
}

func (s *userService) GetProfileImageURL(ctx context.Context, p domain.Principal, userID primitive.ObjectID) (string, error) {
	user, err := s.GetProfile(ctx, p, userID)
	if err != nil {
		return "", err
	}
	if user.ProfileImageKey == "" {
		return "", domain.NotFoundf("user has no profile image")
	}
	if s.fileStorage == nil {
		return "", errors.New("file storage is not configured")
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, user.ProfileImageKey, s.presignExpiry)
}
