package member_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-service/internal/member"
)

type mockMemberRepository struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*member.Member, error)
}

func (m *mockMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	return m.getByIDFunc(ctx, id)
}

func TestService_FindByID(t *testing.T) {
	memberID, err := uuid.NewV4()
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		repo := &mockMemberRepository{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*member.Member, error) {
				return &member.Member{ID: id, Name: "Jamie Park", Email: "jamie@example.com"}, nil
			},
		}

		m, err := member.NewService(repo).FindByID(context.Background(), memberID)

		require.NoError(t, err)
		assert.Equal(t, memberID, m.ID)
		assert.Equal(t, "Jamie Park", m.Name)
	})

	t.Run("not_found", func(t *testing.T) {
		repo := &mockMemberRepository{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*member.Member, error) {
				return nil, member.ErrNotFound
			},
		}

		_, err := member.NewService(repo).FindByID(context.Background(), memberID)

		assert.ErrorIs(t, err, member.ErrNotFound)
	})
}
