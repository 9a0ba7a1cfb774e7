package memory

import (
	"context"
	"sort"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MeasurementRepository struct {
	measurements *collection[domain.Measurement]
}

var _ repository.MeasurementRepository = (*MeasurementRepository)(nil)

func NewMeasurementRepository() *MeasurementRepository {
	return &MeasurementRepository{
		measurements: newCollection(
			func(m *domain.Measurement) *primitive.ObjectID { return &m.ID },
			func(m *domain.Measurement) *int64 { return &m.Version },
		),
	}
}

func (r *MeasurementRepository) Create(_ context.Context, m *domain.Measurement) (primitive.ObjectID, error) {
	return r.measurements.insert(m), nil
}

func (r *MeasurementRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Measurement, error) {
	return r.measurements.get(id)
}

func (r *MeasurementRepository) ListByClient(_ context.Context, clientID primitive.ObjectID) ([]domain.Measurement, error) {
	out := r.measurements.find(func(m *domain.Measurement) bool { return m.ClientID == clientID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *MeasurementRepository) Update(_ context.Context, m *domain.Measurement) error {
	return r.measurements.replace(m)
}

func (r *MeasurementRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.measurements.delete(id)
}

func (r *MeasurementRepository) DeleteByClient(_ context.Context, clientID primitive.ObjectID) (int64, error) {
	return r.measurements.deleteWhere(func(m *domain.Measurement) bool { return m.ClientID == clientID }), nil
}
