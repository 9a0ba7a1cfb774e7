// Package policy decides whether an actor may perform an action on a client's resources.
// Every function here is pure: it never touches storage and never mutates its inputs.
package policy

import (
	"coastalfit/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is something an actor wants to do with a resource.
type Action uint8

const (
	ActionRead Action = iota
	// Specialist content: workouts and their exercises, goal targets, nutrition targets.
	ActionPrescribe
	ActionDelete
	// Client-mutable writes.
	ActionRecordWorkout // start, record sets, complete with feedback
	ActionRecordGoalProgress
	ActionLogNutrition
	ActionCreateMeasurement
	ActionEditMeasurement
	// Global actions with no owning client.
	ActionManageRelations
	ActionManageUsers
	ActionReadCatalog
	ActionManageCatalog

	actionCount
)

var actionNames = [actionCount]string{
	"read", "prescribe", "delete", "record workout", "record goal progress", "log nutrition",
	"create measurement", "edit measurement", "manage relations", "manage users", "read catalog", "manage catalog",
}

func (a Action) String() string {
	if a < actionCount {
		return actionNames[a]
	}
	return "unknown"
}

// ActionSet is a bit set of actions.
type ActionSet uint32

func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s |= 1 << a
	}
	return s
}

func (s ActionSet) Has(a Action) bool {
	return s&(1<<a) != 0
}

// Capabilities says which actions a role may take, and on whose resources.
type Capabilities struct {
	Own      ActionSet // resources owned by the actor as a client
	Authored ActionSet // own resources, only when the actor also authored them
	Assigned ActionSet // resources of clients in the actor's clients set
	Any      ActionSet // every resource, and global actions
}

func (c Capabilities) union(o Capabilities) Capabilities {
	return Capabilities{
		Own:      c.Own | o.Own,
		Authored: c.Authored | o.Authored,
		Assigned: c.Assigned | o.Assigned,
		Any:      c.Any | o.Any,
	}
}

var (
	clientResourceActions = NewActionSet(
		ActionRead, ActionRecordWorkout, ActionRecordGoalProgress, ActionLogNutrition, ActionCreateMeasurement,
	)
	allResourceActions = NewActionSet(
		ActionRead, ActionPrescribe, ActionDelete, ActionRecordWorkout, ActionRecordGoalProgress,
		ActionLogNutrition, ActionCreateMeasurement, ActionEditMeasurement,
	)
	allActions = ActionSet(1<<actionCount - 1)
)

var roleCapabilities = map[domain.Role]Capabilities{
	domain.RoleClient: {
		Own:      clientResourceActions,
		Authored: NewActionSet(ActionEditMeasurement),
		Any:      NewActionSet(ActionReadCatalog),
	},
	domain.RoleSpecialist: {
		Assigned: allResourceActions,
		Any:      NewActionSet(ActionReadCatalog, ActionManageCatalog),
	},
	domain.RoleAdmin: {Any: allActions},
	domain.RoleOwner: {Any: allActions},
}

// CapabilitiesOf merges the capabilities of every role in the set.
func CapabilitiesOf(roles domain.Roles) Capabilities {
	var c Capabilities
	for _, r := range roles {
		c = c.union(roleCapabilities[r])
	}
	return c
}

func checkActor(actor *domain.User) error {
	if actor == nil || actor.ID == primitive.NilObjectID || len(actor.Roles) == 0 {
		return domain.Unauthorizedf("authentication required")
	}
	return nil
}

// Authorize decides whether actor may perform action on a resource owned by ownerClientID.
// It returns a domain error of kind Unauthorized or Forbidden on denial.
func Authorize(actor *domain.User, action Action, ownerClientID primitive.ObjectID) error {
	return decide(actor, action, ownerClientID, nil)
}

// AuthorizeAuthored is Authorize for resources that record their author. Actions in the
// Authored capability set are allowed on own resources only when actor is the author.
func AuthorizeAuthored(actor *domain.User, action Action, ownerClientID, authorID primitive.ObjectID) error {
	return decide(actor, action, ownerClientID, &authorID)
}

// AuthorizeGlobal checks actions that are not tied to a client.
func AuthorizeGlobal(actor *domain.User, action Action) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	if CapabilitiesOf(actor.Roles).Any.Has(action) {
		return nil
	}
	return domain.Forbiddenf("not allowed to %s", action)
}

func decide(actor *domain.User, action Action, owner primitive.ObjectID, author *primitive.ObjectID) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	caps := CapabilitiesOf(actor.Roles)
	switch {
	case caps.Any.Has(action):
		return nil
	case caps.Assigned.Has(action) && actor.HasClient(owner):
		return nil
	case caps.Own.Has(action) && actor.ID == owner:
		return nil
	case caps.Authored.Has(action) && actor.ID == owner && author != nil && *author == actor.ID:
		return nil
	}
	return domain.Forbiddenf("not allowed to %s resources of client %s", action, owner.Hex())
}

// AuthorizeCatalogEdit allows privileged users, and specialists on entries they created.
func AuthorizeCatalogEdit(actor *domain.User, authorID primitive.ObjectID) error {
	if err := AuthorizeGlobal(actor, ActionManageCatalog); err != nil {
		return err
	}
	if actor.Roles.IsPrivileged() || actor.ID == authorID {
		return nil
	}
	return domain.Forbiddenf("only the author can edit this exercise")
}

// AuthorizeUserDeletion guards account removal. Users can never delete themselves and the
// last owner account can never be deleted, whoever asks.
func AuthorizeUserDeletion(actor, target *domain.User, ownerCount int64) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	if target != nil && actor.ID == target.ID {
		return domain.Forbiddenf("you cannot delete your own account")
	}
	if err := AuthorizeGlobal(actor, ActionManageUsers); err != nil {
		return err
	}
	if target == nil {
		return domain.NotFoundf("user not found")
	}
	if target.IsOwner() && ownerCount <= 1 {
		return domain.Conflictf("cannot delete the last owner account")
	}
	return nil
}

// AuthorizeRoleChange checks an update of target's roles. Only owners grant or revoke
// the owner role, and the last owner keeps it.
func AuthorizeRoleChange(actor, target *domain.User, roles domain.Roles, ownerCount int64) error {
	if err := AuthorizeGlobal(actor, ActionManageUsers); err != nil {
		return err
	}
	if len(roles) == 0 {
		return domain.Validationf("at least one role is required")
	}
	changesOwner := target.IsOwner() != roles.Has(domain.RoleOwner)
	if changesOwner && !actor.IsOwner() {
		return domain.Forbiddenf("only an owner can grant or revoke the owner role")
	}
	if target.IsOwner() && !roles.Has(domain.RoleOwner) && ownerCount <= 1 {
		return domain.Conflictf("cannot remove the last owner")
	}
	return nil
}
