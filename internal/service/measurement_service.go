package service

import (
	"context"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/policy"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MeasurementService interface {
	Create(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID, values domain.MeasurementValues) (*domain.Measurement, error)
	ListForClient(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID) ([]domain.Measurement, error)
	Update(ctx context.Context, actor domain.Principal, measurementID primitive.ObjectID, values domain.MeasurementValues) (*domain.Measurement, error)
	Delete(ctx context.Context, actor domain.Principal, measurementID primitive.ObjectID) error
	// Stats reports ok=false when the client has no measurements.
	Stats(ctx context.Context, actor domain.Principal, clientID primitive.ObjectID) (stats domain.MeasurementStats, ok bool, err error)
}

type measurementService struct {
	Base
	measurementRepo repository.MeasurementRepository
}

func NewMeasurementService(base Base, measurementRepo repository.MeasurementRepository) MeasurementService {
	return &measurementService{
		Base:            base.withDefaults(),
		measurementRepo: measurementRepo,
	}
}

func (s *measurementService) Create(ctx context.Context, p domain.Principal, clientID primitive.ObjectID, values domain.MeasurementValues) (*domain.Measurement, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionCreateMeasurement, clientID); err != nil {
		return nil, err
	}
	if _, err := s.client(ctx, clientID); err != nil {
		return nil, err
	}
	m, err := domain.NewMeasurement(clientID, actor.ID, values, s.Now())
	if err != nil {
		return nil, err
	}
	if _, err := s.measurementRepo.Create(ctx, m); err != nil {
		return nil, translate(err, "measurement")
	}
	s.publish(ctx, notify.Event{
		Type:       notify.EventMeasurementCreated,
		ClientID:   clientID,
		ActorID:    actor.ID,
		ResourceID: m.ID,
	})
	return m, nil
}

func (s *measurementService) ListForClient(ctx context.Context, p domain.Principal, clientID primitive.ObjectID) ([]domain.Measurement, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionRead, clientID); err != nil {
		return nil, err
	}
	ms, err := s.measurementRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, translate(err, "measurements")
	}
	return ms, nil
}

// loadForEdit applies the author rule: clients edit only entries they recorded.
func (s *measurementService) loadForEdit(ctx context.Context, p domain.Principal, measurementID primitive.ObjectID) (*domain.Measurement, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	m, err := s.measurementRepo.GetByID(ctx, measurementID)
	if err != nil {
		return nil, translate(err, "measurement")
	}
	if err := policy.AuthorizeAuthored(actor, policy.ActionEditMeasurement, m.ClientID, m.CreatedBy); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *measurementService) Update(ctx context.Context, p domain.Principal, measurementID primitive.ObjectID, values domain.MeasurementValues) (*domain.Measurement, error) {
	m, err := s.loadForEdit(ctx, p, measurementID)
	if err != nil {
		return nil, err
	}
	if err := m.Update(values, s.Now()); err != nil {
		return nil, err
	}
	if err := s.measurementRepo.Update(ctx, m); err != nil {
		return nil, translate(err, "measurement")
	}
	return m, nil
}

func (s *measurementService) Delete(ctx context.Context, p domain.Principal, measurementID primitive.ObjectID) error {
	m, err := s.loadForEdit(ctx, p, measurementID)
	if err != nil {
		return err
	}
	return translate(s.measurementRepo.Delete(ctx, m.ID), "measurement")
}

func (s *measurementService) Stats(ctx context.Context, p domain.Principal, clientID primitive.ObjectID) (domain.MeasurementStats, bool, error) {
	ms, err := s.ListForClient(ctx, p, clientID)
	if err != nil {
		return domain.MeasurementStats{}, false, err
	}
	stats, ok := domain.ComputeMeasurementStats(ms)
	return stats, ok, nil
}
