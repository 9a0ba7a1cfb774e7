package domain

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Measurement is a point-in-time set of body metrics for a client.
type Measurement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Date      time.Time          `bson:"date" json:"date"`
	Weight    *float64           `bson:"weight,omitempty" json:"weight,omitempty"`
	BodyFat   *float64           `bson:"bodyFat,omitempty" json:"bodyFat,omitempty"` // percent
	// Other circumference or performance metrics keyed by name, e.g. "waist".
	Metrics   map[string]float64 `bson:"metrics,omitempty" json:"metrics,omitempty"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
	Version   int64              `bson:"version" json:"version"`
}

// MeasurementValues is the metric payload for create and update.
type MeasurementValues struct {
	Date    *time.Time
	Weight  *float64
	BodyFat *float64
	Metrics map[string]float64
	Notes   *string
}

func (v MeasurementValues) validate() error {
	if v.Weight != nil && *v.Weight <= 0 {
		return Validationf("weight must be positive")
	}
	if v.BodyFat != nil && (*v.BodyFat < 0 || *v.BodyFat > 100) {
		return Validationf("body fat must be between 0 and 100")
	}
	for name, value := range v.Metrics {
		if strings.TrimSpace(name) == "" {
			return Validationf("metric name is required")
		}
		if value < 0 {
			return Validationf("metric %q cannot be negative", name)
		}
	}
	return nil
}

// NewMeasurement records metrics for a client. Date defaults to now.
func NewMeasurement(clientID, createdBy primitive.ObjectID, v MeasurementValues, now time.Time) (*Measurement, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	if v.Weight == nil && v.BodyFat == nil && len(v.Metrics) == 0 {
		return nil, Validationf("at least one metric is required")
	}
	m := &Measurement{
		ClientID:  clientID,
		CreatedBy: createdBy,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.apply(v)
	return m, nil
}

// Update overwrites the supplied values only.
func (m *Measurement) Update(v MeasurementValues, now time.Time) error {
	if err := v.validate(); err != nil {
		return err
	}
	m.apply(v)
	m.UpdatedAt = now
	return nil
}

func (m *Measurement) apply(v MeasurementValues) {
	if v.Date != nil && !v.Date.IsZero() {
		m.Date = *v.Date
	}
	if v.Weight != nil {
		m.Weight = v.Weight
	}
	if v.BodyFat != nil {
		m.BodyFat = v.BodyFat
	}
	if len(v.Metrics) > 0 {
		if m.Metrics == nil {
			m.Metrics = make(map[string]float64, len(v.Metrics))
		}
		for k, val := range v.Metrics {
			m.Metrics[strings.TrimSpace(k)] = val
		}
	}
	if v.Notes != nil {
		m.Notes = strings.TrimSpace(*v.Notes)
	}
}

// MetricStats describes how one metric moved between its first and latest reading.
type MetricStats struct {
	First  float64 `json:"first"`
	Latest float64 `json:"latest"`
	Change float64 `json:"change"`
	Count  int     `json:"count"`
}

// MeasurementStats is computed over the date sorted readings of a client.
type MeasurementStats struct {
	TotalMeasurements int                    `json:"totalMeasurements"`
	FirstDate         time.Time              `json:"firstDate"`
	LatestDate        time.Time              `json:"latestDate"`
	Weight            *MetricStats           `json:"weight,omitempty"`
	BodyFat           *MetricStats           `json:"bodyFat,omitempty"`
	Metrics           map[string]MetricStats `json:"metrics,omitempty"`
}

type metricAcc struct {
	stats MetricStats
}

func (a *metricAcc) add(v float64) {
	if a.stats.Count == 0 {
		a.stats.First = v
	}
	a.stats.Latest = v
	a.stats.Count++
	a.stats.Change = roundTo(a.stats.Latest-a.stats.First, 2)
}

// ComputeMeasurementStats returns ok == false when there are no measurements.
// Each metric only counts readings where it was recorded.
func ComputeMeasurementStats(measurements []Measurement) (MeasurementStats, bool) {
	if len(measurements) == 0 {
		return MeasurementStats{}, false
	}
	sorted := make([]Measurement, len(measurements))
	copy(sorted, measurements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var weight, bodyFat metricAcc
	others := map[string]*metricAcc{}
	for _, m := range sorted {
		if m.Weight != nil {
			weight.add(*m.Weight)
		}
		if m.BodyFat != nil {
			bodyFat.add(*m.BodyFat)
		}
		for name, v := range m.Metrics {
			acc, ok := others[name]
			if !ok {
				acc = &metricAcc{}
				others[name] = acc
			}
			acc.add(v)
		}
	}

	stats := MeasurementStats{
		TotalMeasurements: len(sorted),
		FirstDate:         sorted[0].Date,
		LatestDate:        sorted[len(sorted)-1].Date,
	}
	if weight.stats.Count > 0 {
		s := weight.stats
		stats.Weight = &s
	}
	if bodyFat.stats.Count > 0 {
		s := bodyFat.stats
		stats.BodyFat = &s
	}
	if len(others) > 0 {
		stats.Metrics = make(map[string]MetricStats, len(others))
		for name, acc := range others {
			stats.Metrics[name] = acc.stats
		}
	}
	return stats, true
}
