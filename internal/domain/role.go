package domain

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// The closed set of roles. Anything else is rejected by ParseRole.
const (
	RoleClient     Role = "client"
	RoleSpecialist Role = "specialist"
	RoleAdmin      Role = "admin"
	RoleOwner      Role = "owner"
)

// AllRoles lists every known role in a stable order.
var AllRoles = []Role{RoleClient, RoleSpecialist, RoleAdmin, RoleOwner}

// ParseRole converts a string to a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllRoles {
		if r == known {
			return r, nil
		}
	}
	return "", Validationf("unknown role %q", s)
}

// Roles is the set of roles a user holds. Stored as an array in documents.
type Roles []Role

// ParseRoles parses and de-duplicates a list of role strings.
func ParseRoles(values []string) (Roles, error) {
	roles := make(Roles, 0, len(values))
	for _, v := range values {
		r, err := ParseRole(v)
		if err != nil {
			return nil, err
		}
		if !roles.Has(r) {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

func (rs Roles) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the set contains admin or owner.
func (rs Roles) IsPrivileged() bool {
	return rs.HasAny(RoleAdmin, RoleOwner)
}

func (rs Roles) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// Principal is the authenticated identity handed to the core by the credential verifier.
type Principal struct {
	ID    primitive.ObjectID
	Roles Roles
}

// IsZero reports whether no identity was resolved.
func (p Principal) IsZero() bool {
	return p.ID == primitive.NilObjectID
}
