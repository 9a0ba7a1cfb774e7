package service

import (
	"context"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/policy"
	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogInput is the editable part of a catalog exercise.
type CatalogInput struct {
	Name        string
	Description string
	Category    string
	Equipment   string
	Difficulty  string
	VideoURL    string
}

// CatalogService manages the shared exercise library specialists prescribe from.
type CatalogService interface {
	CreateExercise(ctx context.Context, actor domain.Principal, in CatalogInput) (*domain.CatalogExercise, error)
	GetExercise(ctx context.Context, actor domain.Principal, exerciseID primitive.ObjectID) (*domain.CatalogExercise, error)
	ListExercises(ctx context.Context, actor domain.Principal, filter domain.CatalogFilter) ([]domain.CatalogExercise, error)
	UpdateExercise(ctx context.Context, actor domain.Principal, exerciseID primitive.ObjectID, in CatalogInput) (*domain.CatalogExercise, error)
	DeleteExercise(ctx context.Context, actor domain.Principal, exerciseID primitive.ObjectID) error
}

type catalogService struct {
	Base
	catalogRepo repository.CatalogRepository
}

func NewCatalogService(base Base, catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{
		Base:        base.withDefaults(),
		catalogRepo: catalogRepo,
	}
}

func (s *catalogService) CreateExercise(ctx context.Context, p domain.Principal, in CatalogInput) (*domain.CatalogExercise, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeGlobal(actor, policy.ActionManageCatalog); err != nil {
		return nil, err
	}
	exercise := in.apply(&domain.CatalogExercise{AuthorID: actor.ID})
	if err := exercise.Normalize(); err != nil {
		return nil, err
	}
	if _, err := s.catalogRepo.Create(ctx, exercise); err != nil {
		return nil, translate(err, "exercise")
	}
	return exercise, nil
}

func (s *catalogService) GetExercise(ctx context.Context, p domain.Principal, exerciseID primitive.ObjectID) (*domain.CatalogExercise, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeGlobal(actor, policy.ActionReadCatalog); err != nil {
		return nil, err
	}
	exercise, err := s.catalogRepo.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, translate(err, "exercise")
	}
	return exercise, nil
}

func (s *catalogService) ListExercises(ctx context.Context, p domain.Principal, filter domain.CatalogFilter) ([]domain.CatalogExercise, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeGlobal(actor, policy.ActionReadCatalog); err != nil {
		return nil, err
	}
	exercises, err := s.catalogRepo.List(ctx, filter)
	if err != nil {
		return nil, translate(err, "exercises")
	}
	return exercises, nil
}

func (s *catalogService) UpdateExercise(ctx context.Context, p domain.Principal, exerciseID primitive.ObjectID, in CatalogInput) (*domain.CatalogExercise, error) {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return nil, err
	}
	existing, err := s.catalogRepo.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, translate(err, "exercise")
	}
	if err := policy.AuthorizeCatalogEdit(actor, existing.AuthorID); err != nil {
		return nil, err
	}
	in.apply(existing)
	if err := existing.Normalize(); err != nil {
		return nil, err
	}
	if err := s.catalogRepo.Update(ctx, existing); err != nil {
		return nil, translate(err, "exercise")
	}
	return existing, nil
}

func (s *catalogService) DeleteExercise(ctx context.Context, p domain.Principal, exerciseID primitive.ObjectID) error {
	actor, err := s.actor(ctx, p)
	if err != nil {
		return err
	}
	existing, err := s.catalogRepo.GetByID(ctx, exerciseID)
	if err != nil {
		return translate(err, "exercise")
	}
	if err := policy.AuthorizeCatalogEdit(actor, existing.AuthorID); err != nil {
		return err
	}
	// Workouts keep their own copy of the exercise, so nothing else to clean up.
	return translate(s.catalogRepo.Delete(ctx, existing.ID), "exercise")
}

func (in CatalogInput) apply(e *domain.CatalogExercise) *domain.CatalogExercise {
	e.Name = in.Name
	e.Description = in.Description
	e.Category = in.Category
	e.Equipment = in.Equipment
	e.Difficulty = in.Difficulty
	e.VideoURL = in.VideoURL
	return e
}
