package memstore

import (
	"context"
	"testing"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"github.com/Freeeeeet/jamroom/internal/repository/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return New()
	})
}

func TestClanMembership(t *testing.T) {
	ctx := context.Background()
	s := New()

	owner := &model.User{Nickname: "owner"}
	member := &model.User{Nickname: "member"}
	stranger := &model.User{Nickname: "stranger"}
	for _, u := range []*model.User{owner, member, stranger} {
		require.NoError(t, s.Users().Create(ctx, u))
	}

	clan := &model.Clan{Name: "Riff Raff", OwnerID: owner.ID}
	require.NoError(t, s.CreateClan(ctx, clan))
	require.NoError(t, s.AddClanMember(ctx, clan.ID, member.ID, false))
	assert.ErrorIs(t, s.AddClanMember(ctx, clan.ID+100, member.ID, false), repository.ErrNotFound)

	tests := []struct {
		name       string
		userID     int64
		wantMember bool
		wantAdmin  bool
	}{
		{"owner", owner.ID, true, true},
		{"member", member.ID, true, false},
		{"stranger", stranger.ID, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isMember, err := s.Users().IsClanMember(ctx, clan.ID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMember, isMember)

			isAdmin, err := s.Users().IsClanAdmin(ctx, clan.ID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdmin, isAdmin)
		})
	}
}

func TestNestedTxReusesOuter(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InTx(ctx, func(tx repository.Store) error {
		return tx.InTx(ctx, func(inner repository.Store) error {
			return inner.Users().Create(ctx, &model.User{Nickname: "nested"})
		})
	})
	require.NoError(t, err)

	u, err := s.Users().GetByNickname(ctx, "nested")
	require.NoError(t, err)
	assert.NotNil(t, u)
}
