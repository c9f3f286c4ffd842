package repository

import (
	"testing"

	"github.com/pinpanclub/pingpong-backend/internal/entity"
	"github.com/pinpanclub/pingpong-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	matchRepo := NewMatchRepository(st.Storage)

	// Given: a pending match between two players
	match := entity.NewMatch("123", "player-a", "player-b", 3, 11)

	// When: CreateOrUpdate is called
	err := matchRepo.CreateOrUpdate(ctx, match)

	// Then: no error should be returned, and the match is stored
	require.NoError(t, err)
}

func TestMatchRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage)

		// Given: a stored match with some score on it
		match := entity.NewMatch("123", "player-a", "player-b", 5, 11)
		match.Status = entity.StatusInProgress
		match.PointsA = 7
		match.PointsB = 4
		match.Serve = entity.SideB

		err := matchRepo.CreateOrUpdate(ctx, match)
		require.NoError(t, err)

		// When: GetByID is called with existing ID
		retrievedMatch, err := matchRepo.GetByID(ctx, match.ID)

		// Then: the retrieved match should match the saved one
		require.NoError(t, err)
		require.Equal(t, match.ID, retrievedMatch.ID)
		require.Equal(t, match.Status, retrievedMatch.Status)
		require.Equal(t, match.PointsA, retrievedMatch.PointsA)
		require.Equal(t, match.PointsB, retrievedMatch.PointsB)
		require.Equal(t, match.Serve, retrievedMatch.Serve)
		require.Equal(t, match.BestOf, retrievedMatch.BestOf)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage)

		nonExistentMatchID := "9999999"

		// When: GetByID is called with non-existent ID
		retrievedMatch, err := matchRepo.GetByID(ctx, nonExistentMatchID)

		// Then: an ErrMatchNotFound error should be returned
		require.Error(t, err)
		assert.Equal(t, ErrMatchNotFound, err)
		assert.Empty(t, retrievedMatch.ID)
		assert.Empty(t, retrievedMatch.Status)
	})

	t.Run("GetByID_KeepsUndoLog", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage)

		// Given: a match carrying a point event with a prior snapshot
		match := entity.NewMatch("123", "player-a", "player-b", 3, 11)
		match.Status = entity.StatusInProgress
		prior := match.TakeSnapshot()
		match.PointsA = 1
		match.Events = append(match.Events, entity.ScoringEvent{
			Type:   entity.EventPoint,
			Player: entity.SideA,
			Prior:  prior,
		})

		require.NoError(t, matchRepo.CreateOrUpdate(ctx, match))

		// When: the match is read back
		retrievedMatch, err := matchRepo.GetByID(ctx, match.ID)

		// Then: the event log survived the round trip
		require.NoError(t, err)
		require.Len(t, retrievedMatch.Events, 1)
		require.NotNil(t, retrievedMatch.Events[0].Prior)
		assert.Equal(t, 0, retrievedMatch.Events[0].Prior.PointsA)
	})
}

func TestMatchRepository_DeleteByID(t *testing.T) {
	t.Run("DeleteByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage)

		// Given: a stored match
		match := entity.NewMatch("123", "player-a", "player-b", 3, 11)

		err := matchRepo.CreateOrUpdate(ctx, match)
		require.NoError(t, err)

		// When: DeleteByID is called
		err = matchRepo.DeleteByID(ctx, match.ID)
		require.NoError(t, err)

		// Then: the match is gone
		_, err = matchRepo.GetByID(ctx, match.ID)
		require.Error(t, err)
		assert.Equal(t, ErrMatchNotFound, err)
	})
}
