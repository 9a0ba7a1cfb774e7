package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user in the system. A user may hold several roles at once.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`    // Unique, stored lower-cased
	PasswordHash    string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Roles           Roles              `bson:"roles" json:"roles"`
	PhoneNumber     string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	ProfileImageKey string             `bson:"profileImageKey,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
	Version         int64              `bson:"version" json:"version"`

	// Mirrored relation collections. A specialist's ClientIDs and each of those
	// clients' SpecialistIDs always reference each other.
	SpecialistIDs []primitive.ObjectID `bson:"specialistIds" json:"specialistIds"`
	ClientIDs     []primitive.ObjectID `bson:"clientIds" json:"clientIds"`
}

func (u *User) IsClient() bool {
	return u.Roles.Has(RoleClient)
}

func (u *User) IsSpecialist() bool {
	return u.Roles.Has(RoleSpecialist)
}

func (u *User) IsOwner() bool {
	return u.Roles.Has(RoleOwner)
}

func (u *User) HasClient(clientID primitive.ObjectID) bool {
	return containsID(u.ClientIDs, clientID)
}

func (u *User) HasSpecialist(specialistID primitive.ObjectID) bool {
	return containsID(u.SpecialistIDs, specialistID)
}

// CheckLinkable validates that the pair can be linked as specialist -> client.
func CheckLinkable(specialist, client *User) error {
	if specialist == nil || client == nil {
		return NotFoundf("client or specialist not found")
	}
	if specialist.ID == client.ID {
		return Validationf("a user cannot be their own specialist")
	}
	if !client.IsClient() {
		return Validationf("user %s is not a client", client.ID.Hex())
	}
	if !specialist.IsSpecialist() {
		return Validationf("user %s is not a specialist", specialist.ID.Hex())
	}
	return nil
}

// Link adds the relationship in both directions. It is idempotent.
func Link(specialist, client *User) error {
	if err := CheckLinkable(specialist, client); err != nil {
		return err
	}
	if !specialist.HasClient(client.ID) {
		specialist.ClientIDs = append(specialist.ClientIDs, client.ID)
	}
	if !client.HasSpecialist(specialist.ID) {
		client.SpecialistIDs = append(client.SpecialistIDs, specialist.ID)
	}
	return nil
}

// Unlink removes the relationship from both sides. Missing references are ignored.
func Unlink(specialist, client *User) {
	specialist.ClientIDs = removeID(specialist.ClientIDs, client.ID)
	client.SpecialistIDs = removeID(client.SpecialistIDs, specialist.ID)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
