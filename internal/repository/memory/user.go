package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	// relMu serialises relation changes so both halves land together.
	relMu sync.Mutex
	users *collection[domain.User]
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: newCollection(
			func(u *domain.User) *primitive.ObjectID { return &u.ID },
			func(u *domain.User) *int64 { return &u.Version },
		),
	}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || len(user.Roles) == 0 {
		return primitive.NilObjectID, errors.New("user email, password hash, and roles are required")
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	r.relMu.Lock()
	defer r.relMu.Unlock()
	if _, err := r.users.findOne(func(u *domain.User) bool { return u.Email == user.Email }); err == nil {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.SpecialistIDs == nil {
		user.SpecialistIDs = []primitive.ObjectID{}
	}
	if user.ClientIDs == nil {
		user.ClientIDs = []primitive.ObjectID{}
	}
	return r.users.insert(user), nil
}

func (r *UserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.users.get(id)
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.users.findOne(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	wanted := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return sortByName(r.users.find(func(u *domain.User) bool { return wanted[u.ID] })), nil
}

func (r *UserRepository) List(_ context.Context, role domain.Role) ([]domain.User, error) {
	return sortByName(r.users.find(func(u *domain.User) bool { return role == "" || u.Roles.Has(role) })), nil
}

func (r *UserRepository) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	return int64(len(r.users.find(func(u *domain.User) bool { return u.Roles.Has(role) }))), nil
}

// Update writes profile fields, keeping the stored relation sets.
func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.relMu.Lock()
	defer r.relMu.Unlock()
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if other, err := r.users.findOne(func(u *domain.User) bool { return u.Email == email }); err == nil && other.ID != user.ID {
		return repository.ErrDuplicate
	}
	return r.users.modify(user.ID, func(stored *domain.User) error {
		if stored.Version != user.Version {
			return repository.ErrVersionConflict
		}
		stored.Name = user.Name
		stored.Email = email
		stored.PasswordHash = user.PasswordHash
		stored.Roles = append(domain.Roles{}, user.Roles...)
		stored.PhoneNumber = user.PhoneNumber
		stored.ProfileImageKey = user.ProfileImageKey
		stored.UpdatedAt = time.Now().UTC()
		stored.Version++

		user.Email = email
		user.UpdatedAt = stored.UpdatedAt
		user.Version = stored.Version
		user.SpecialistIDs = append([]primitive.ObjectID{}, stored.SpecialistIDs...)
		user.ClientIDs = append([]primitive.ObjectID{}, stored.ClientIDs...)
		return nil
	})
}

func (r *UserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.users.delete(id)
}

// AddRelation links both sides under one lock. Both users must exist.
func (r *UserRepository) AddRelation(_ context.Context, specialistID, clientID primitive.ObjectID) error {
	return r.relate(specialistID, clientID, func(s, c *domain.User) {
		if !s.HasClient(clientID) {
			s.ClientIDs = append(s.ClientIDs, clientID)
		}
		if !c.HasSpecialist(specialistID) {
			c.SpecialistIDs = append(c.SpecialistIDs, specialistID)
		}
	})
}

func (r *UserRepository) RemoveRelation(_ context.Context, specialistID, clientID primitive.ObjectID) error {
	return r.relate(specialistID, clientID, func(s, c *domain.User) {
		domain.Unlink(s, c)
	})
}

func (r *UserRepository) relate(specialistID, clientID primitive.ObjectID, fn func(s, c *domain.User)) error {
	r.relMu.Lock()
	defer r.relMu.Unlock()
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	s, ok := r.users.docs[specialistID]
	if !ok {
		return repository.ErrNotFound
	}
	c, ok := r.users.docs[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	fn(s, c)
	now := time.Now().UTC()
	for _, u := range []*domain.User{s, c} {
		u.UpdatedAt = now
		u.Version++
	}
	return nil
}

func (r *UserRepository) RemoveAllRelations(_ context.Context, userID primitive.ObjectID) error {
	r.relMu.Lock()
	defer r.relMu.Unlock()
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	for id, u := range r.users.docs {
		if id == userID || !(u.HasClient(userID) || u.HasSpecialist(userID)) {
			continue
		}
		u.ClientIDs = removeAll(u.ClientIDs, userID)
		u.SpecialistIDs = removeAll(u.SpecialistIDs, userID)
		u.Version++
	}
	return nil
}

func removeAll(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func sortByName(users []domain.User) []domain.User {
	sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users
}
