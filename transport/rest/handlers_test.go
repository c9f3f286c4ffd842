package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/pinpanclub/pingpong-backend/internal/entity"
	"github.com/pinpanclub/pingpong-backend/internal/repository"
	"github.com/pinpanclub/pingpong-backend/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubManager drives the real scoring rules against an in-memory map, so
// handler tests exercise the same error surface the manager produces.
type stubManager struct {
	matches map[string]*entity.Match
	nextID  string
}

func newStubManager() *stubManager {
	return &stubManager{matches: make(map[string]*entity.Match), nextID: "match-1"}
}

func (that *stubManager) CreateMatch(_ context.Context, playerA, playerB string, bestOf, pointsToWinSet int) (*entity.Match, error) {
	match := entity.NewMatch(that.nextID, playerA, playerB, bestOf, pointsToWinSet)
	that.matches[match.ID] = match
	return match, nil
}

func (that *stubManager) GetMatch(_ context.Context, matchID string) (*entity.Match, error) {
	match, ok := that.matches[matchID]
	if !ok {
		return nil, repository.ErrMatchNotFound
	}
	return match, nil
}

func (that *stubManager) mutate(matchID string, operation func(*entity.Match) error) (*entity.Match, error) {
	match, ok := that.matches[matchID]
	if !ok {
		return nil, repository.ErrMatchNotFound
	}
	if err := operation(match); err != nil {
		return nil, err
	}
	return match, nil
}

func (that *stubManager) StartMatch(_ context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(matchID, scoring.Start)
}

func (that *stubManager) PauseMatch(_ context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(matchID, scoring.Pause)
}

func (that *stubManager) ResumeMatch(_ context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(matchID, scoring.Resume)
}

func (that *stubManager) CancelMatch(_ context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(matchID, scoring.Cancel)
}

func (that *stubManager) Undo(_ context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(matchID, scoring.Undo)
}

func (that *stubManager) AddPoint(_ context.Context, matchID, player, pointType string) (*entity.Match, *scoring.Outcome, error) {
	var outcome *scoring.Outcome
	match, err := that.mutate(matchID, func(match *entity.Match) error {
		var pointErr error
		outcome, pointErr = scoring.AddPoint(match, player, pointType)
		return pointErr
	})
	if err != nil {
		return nil, nil, err
	}
	return match, outcome, nil
}

func newTestRouter(t *testing.T) (*http.ServeMux, *stubManager) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	manager := newStubManager()

	return NewRouter(NewHandlers(logger, manager)), manager
}

func doRequest(t *testing.T, router *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reader).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func decodeMatch(t *testing.T, rec *httptest.ResponseRecorder) matchResponse {
	t.Helper()

	var resp matchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Match)

	return resp
}

func TestHandlers_Ping(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/ping", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestHandlers_CreateMatch(t *testing.T) {
	t.Run("Creates a pending match with defaults", func(t *testing.T) {
		router, _ := newTestRouter(t)

		// When: a match is created without explicit rules
		rec := doRequest(t, router, http.MethodPost, "/matches", createMatchRequest{
			PlayerA: "player-a",
			PlayerB: "player-b",
		})

		// Then: the match is pending with the default rules applied
		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeMatch(t, rec)
		assert.Equal(t, entity.StatusPending, resp.Match.Status)
		assert.Equal(t, entity.DefaultBestOf, resp.Match.BestOf)
		assert.Equal(t, entity.DefaultPointsToWinSet, resp.Match.PointsToWinSet)
	})

	t.Run("Rejects missing players", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(t, router, http.MethodPost, "/matches", createMatchRequest{PlayerA: "player-a"})

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Rejects even best_of", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(t, router, http.MethodPost, "/matches", createMatchRequest{
			PlayerA: "player-a",
			PlayerB: "player-b",
			BestOf:  4,
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlers_MatchLifecycle(t *testing.T) {
	router, manager := newTestRouter(t)

	// Given: a created match
	rec := doRequest(t, router, http.MethodPost, "/matches", createMatchRequest{
		PlayerA: "player-a",
		PlayerB: "player-b",
		BestOf:  3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	matchID := decodeMatch(t, rec).Match.ID

	// When: a point arrives before the match starts
	rec = doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/point", pointRequest{Player: entity.SideA})

	// Then: the rule violation maps to a conflict
	require.Equal(t, http.StatusConflict, rec.Code)

	// When: the match is started
	rec = doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.StatusInProgress, decodeMatch(t, rec).Match.Status)

	// When: side A scores
	rec = doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/point", pointRequest{Player: entity.SideA, PointType: "forehand"})

	// Then: the snapshot reflects the point, no set finished
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeMatch(t, rec)
	assert.Equal(t, 1, resp.Match.PointsA)
	assert.False(t, resp.SetWon)
	assert.False(t, resp.MatchFinished)

	// When: the point is undone
	rec = doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decodeMatch(t, rec).Match.PointsA)

	// When: undo is called again with nothing left
	rec = doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/undo", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Then: the stored match never leaked its undo log to viewers
	rec = doRequest(t, router, http.MethodGet, "/matches/"+matchID+"/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeMatch(t, rec).Match.Events)
	require.NotNil(t, manager.matches[matchID])
}

func TestHandlers_PointFlags(t *testing.T) {
	router, _ := newTestRouter(t)

	// Given: a running best-of-1 match at 10-0
	rec := doRequest(t, router, http.MethodPost, "/matches", createMatchRequest{
		PlayerA: "player-a",
		PlayerB: "player-b",
		BestOf:  1,
	})
	matchID := decodeMatch(t, rec).Match.ID
	doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/start", nil)

	for i := 0; i < 10; i++ {
		rec = doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/point", pointRequest{Player: entity.SideA})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// When: the set point lands
	rec = doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/point", pointRequest{Player: entity.SideA})

	// Then: both completion flags are raised and the winner is set
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeMatch(t, rec)
	assert.True(t, resp.SetWon)
	assert.True(t, resp.MatchFinished)
	assert.Equal(t, entity.StatusFinished, resp.Match.Status)
	assert.Equal(t, "player-a", resp.Match.WinnerID)
}

func TestHandlers_UnknownMatch(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/matches/missing/live", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/matches/missing/point", pointRequest{Player: entity.SideA})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_UnknownPlayer(t *testing.T) {
	router, _ := newTestRouter(t)

	// Given: a running match
	rec := doRequest(t, router, http.MethodPost, "/matches", createMatchRequest{
		PlayerA: "player-a",
		PlayerB: "player-b",
	})
	matchID := decodeMatch(t, rec).Match.ID
	doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/start", nil)

	// When: a point names a side that does not exist
	rec = doRequest(t, router, http.MethodPost, "/matches/"+matchID+"/point", pointRequest{Player: "C"})

	// Then: the request is a bad request, not a conflict
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
