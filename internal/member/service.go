package member

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Member, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Stringer("member_id", id).Msg("service: member not found")
			return nil, ErrNotFound
		}

		log.Error().Err(err).Stringer("member_id", id).Msg("service: failed to fetch member")
		return nil, fmt.Errorf("service: failed to fetch member: %w", err)
	}

	return m, nil
}
