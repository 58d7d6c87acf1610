package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidQuantity = errors.New("cart item quantity must be greater than zero")

type Service interface {
	GetCartWithItems(ctx context.Context, memberID uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, memberID, productID uuid.UUID, quantity int) error
	UpdateItemQuantity(ctx context.Context, memberID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, memberID, productID uuid.UUID) error
	Clear(ctx context.Context, memberID uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetCartWithItems(ctx context.Context, memberID uuid.UUID) (*Cart, error) {
	c, err := s.repo.GetByMemberIDWithProducts(ctx, memberID)
	if err != nil {
		log.Error().Err(err).Stringer("member_id", memberID).Msg("service: failed to fetch cart")
		return nil, fmt.Errorf("service: failed to fetch cart: %w", err)
	}

	return c, nil
}

func (s *service) AddItem(ctx context.Context, memberID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	c, err := s.repo.GetOrCreateByMemberID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("service: failed to resolve cart: %w", err)
	}

	if err := s.repo.UpsertItem(ctx, c.ID, productID, quantity); err != nil {
		return fmt.Errorf("service: failed to add cart item: %w", err)
	}

	log.Info().Stringer("member_id", memberID).Stringer("product_id", productID).Int("quantity", quantity).Msg("service: cart item added")
	return nil
}

func (s *service) UpdateItemQuantity(ctx context.Context, memberID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	c, err := s.repo.GetOrCreateByMemberID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("service: failed to resolve cart: %w", err)
	}

	err = s.repo.UpdateItemQuantity(ctx, c.ID, productID, quantity)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}

		return fmt.Errorf("service: failed to update cart item: %w", err)
	}

	return nil
}

func (s *service) RemoveItem(ctx context.Context, memberID, productID uuid.UUID) error {
	c, err := s.repo.GetOrCreateByMemberID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("service: failed to resolve cart: %w", err)
	}

	err = s.repo.DeleteItem(ctx, c.ID, productID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}

		return fmt.Errorf("service: failed to remove cart item: %w", err)
	}

	return nil
}

func (s *service) Clear(ctx context.Context, memberID uuid.UUID) error {
	c, err := s.repo.GetOrCreateByMemberID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("service: failed to resolve cart: %w", err)
	}

	if err := s.repo.Clear(ctx, c.ID); err != nil {
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}

	log.Info().Stringer("member_id", memberID).Msg("service: cart cleared")
	return nil
}
