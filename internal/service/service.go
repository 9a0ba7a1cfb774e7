package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/metrics"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base bundles the collaborators every domain service shares.
// Zero fields get defaults: no-op notifier, no metrics, wall clock.
type Base struct {
	Users    repository.UserRepository
	Notifier notify.Notifier
	Metrics  *metrics.Manager
	Now      func() time.Time
}

func (b Base) withDefaults() Base {
	if b.Notifier == nil {
		b.Notifier = notify.Nop{}
	}
	if b.Now == nil {
		b.Now = func() time.Time { return time.Now().UTC() }
	}
	return b
}

// actor loads the acting user fresh from storage so role and relation changes
// take effect immediately, whatever the token says.
func (b Base) actor(ctx context.Context, p domain.Principal) (*domain.User, error) {
	if p.IsZero() {
		return nil, domain.Unauthorizedf("authentication required")
	}
	user, err := b.Users.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Unauthorizedf("unknown user")
		}
		return nil, fmt.Errorf("load actor: %w", err)
	}
	return user, nil
}

// client loads a user that must hold the client role.
func (b Base) client(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := b.Users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "client")
	}
	if !user.IsClient() {
		return nil, domain.Validationf("user %s is not a client", id.Hex())
	}
	return user, nil
}

// publish emits an event after the change was persisted. Failures are logged, never returned.
func (b Base) publish(ctx context.Context, event notify.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = b.Now()
	}
	if err := b.Notifier.Publish(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":  event.Type,
			"client": event.ClientID.Hex(),
		}).Warn("notification not published")
		b.Metrics.NotifyFailed()
	}
}

// translate maps repository sentinels to domain errors. Domain errors pass through.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case domain.KindOf(err) != "":
		return err
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFoundf("%s not found", what)
	case errors.Is(err, repository.ErrVersionConflict):
		return domain.Conflictf("%s was modified concurrently, reload and retry", what)
	case errors.Is(err, repository.ErrDuplicate):
		return domain.Conflictf("%s already exists", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
