package elections

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aura-elections/backend/internal/models"
)

// Store is the record store as seen by the election service.
type Store interface {
	Create(ctx context.Context, e *models.Election) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Election, error)
	ListActive(ctx context.Context, now time.Time) ([]models.Election, error)
	ListPast(ctx context.Context, now time.Time) ([]models.Election, error)
	ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Election, error)
}

// Service creates elections and serves the read views.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates an election service. A nil clock means time.Now.
func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Create validates in and stores a new election owned by creator.
// Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, creator uuid.UUID, in CreateInput) (*models.Election, error) {
	in = in.Normalize()
	if err := in.Validate(s.now()); err != nil {
		return nil, err
	}
	e := &models.Election{
		Title:       in.Title,
		Description: in.Description,
		Options:     in.Options,
		CreatedBy:   creator,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsActive:    true,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns one election with its current status.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.ElectionView, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := View(*e, s.now())
	return &v, nil
}

// Active lists elections accepting votes now.
func (s *Service) Active(ctx context.Context) ([]models.ElectionView, error) {
	now := s.now()
	list, err := s.store.ListActive(ctx, now)
	return views(list, now), err
}

// Past lists elections that have ended.
func (s *Service) Past(ctx context.Context) ([]models.ElectionView, error) {
	now := s.now()
	list, err := s.store.ListPast(ctx, now)
	return views(list, now), err
}

// ByCreator lists the elections owned by userID.
func (s *Service) ByCreator(ctx context.Context, userID uuid.UUID) ([]models.ElectionView, error) {
	list, err := s.store.ListByCreator(ctx, userID)
	return views(list, s.now()), err
}

func views(list []models.Election, now time.Time) []models.ElectionView {
	out := make([]models.ElectionView, 0, len(list))
	for _, e := range list {
		out = append(out, View(e, now))
	}
	return out
}
