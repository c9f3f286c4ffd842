package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pinpanclub/pingpong-backend/internal/apperror"
	"github.com/pinpanclub/pingpong-backend/internal/entity"
	"github.com/pinpanclub/pingpong-backend/internal/repository"
	"github.com/pinpanclub/pingpong-backend/internal/scoring"
)

type matchManager interface {
	CreateMatch(ctx context.Context, playerA, playerB string, bestOf, pointsToWinSet int) (*entity.Match, error)
	GetMatch(ctx context.Context, matchID string) (*entity.Match, error)
	StartMatch(ctx context.Context, matchID string) (*entity.Match, error)
	PauseMatch(ctx context.Context, matchID string) (*entity.Match, error)
	ResumeMatch(ctx context.Context, matchID string) (*entity.Match, error)
	CancelMatch(ctx context.Context, matchID string) (*entity.Match, error)
	AddPoint(ctx context.Context, matchID, player, pointType string) (*entity.Match, *scoring.Outcome, error)
	Undo(ctx context.Context, matchID string) (*entity.Match, error)
}

type Handlers struct {
	logger       *slog.Logger
	matchManager matchManager
}

func NewHandlers(logger *slog.Logger, matchManager matchManager) *Handlers {
	return &Handlers{
		logger:       logger,
		matchManager: matchManager,
	}
}

type createMatchRequest struct {
	PlayerA        string `json:"player_a_id"`
	PlayerB        string `json:"player_b_id"`
	BestOf         int    `json:"best_of"`
	PointsToWinSet int    `json:"points_to_win_set"`
}

type pointRequest struct {
	Player    string `json:"player"`
	PointType string `json:"type"`
}

type matchResponse struct {
	Match         *entity.Match `json:"match"`
	SetWon        bool          `json:"set_won,omitempty"`
	MatchFinished bool          `json:"match_finished,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Handlers) CreateMatch(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CreateMatch")

	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PlayerA == "" || req.PlayerB == "" {
		that.writeError(w, http.StatusBadRequest, "both players are required")
		return
	}

	if req.BestOf != 0 && req.BestOf%2 == 0 {
		that.writeError(w, http.StatusBadRequest, "best_of must be odd")
		return
	}

	match, err := that.matchManager.CreateMatch(r.Context(), req.PlayerA, req.PlayerB, req.BestOf, req.PointsToWinSet)
	if err != nil {
		log.Error("failed to create match", "error", err)
		that.writeError(w, http.StatusInternalServerError, "failed to create match")
		return
	}

	that.writeMatch(w, http.StatusCreated, match, nil)
}

// LiveSnapshot - the polling fallback: always a full, self-contained
// state, identical to what the push channel carries.
func (that *Handlers) LiveSnapshot(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "LiveSnapshot")

	match, err := that.matchManager.GetMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeOperationError(w, log, err)
		return
	}

	that.writeMatch(w, http.StatusOK, match, nil)
}

func (that *Handlers) StartMatch(w http.ResponseWriter, r *http.Request) {
	that.transition(w, r, "StartMatch", that.matchManager.StartMatch)
}

func (that *Handlers) PauseMatch(w http.ResponseWriter, r *http.Request) {
	that.transition(w, r, "PauseMatch", that.matchManager.PauseMatch)
}

func (that *Handlers) ResumeMatch(w http.ResponseWriter, r *http.Request) {
	that.transition(w, r, "ResumeMatch", that.matchManager.ResumeMatch)
}

func (that *Handlers) CancelMatch(w http.ResponseWriter, r *http.Request) {
	that.transition(w, r, "CancelMatch", that.matchManager.CancelMatch)
}

func (that *Handlers) Undo(w http.ResponseWriter, r *http.Request) {
	that.transition(w, r, "Undo", that.matchManager.Undo)
}

func (that *Handlers) AddPoint(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "AddPoint")

	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	match, outcome, err := that.matchManager.AddPoint(r.Context(), r.PathValue("id"), req.Player, req.PointType)
	if err != nil {
		that.writeOperationError(w, log, err)
		return
	}

	that.writeMatch(w, http.StatusOK, match, outcome)
}

// transition - shared path for operations addressed by match ID alone.
func (that *Handlers) transition(w http.ResponseWriter, r *http.Request, name string, operation func(context.Context, string) (*entity.Match, error)) {
	log := that.logger.With("method", name)

	match, err := operation(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeOperationError(w, log, err)
		return
	}

	that.writeMatch(w, http.StatusOK, match, nil)
}

func (that *Handlers) writeMatch(w http.ResponseWriter, status int, match *entity.Match, outcome *scoring.Outcome) {
	resp := matchResponse{
		Match: match.PublicView(),
	}
	if outcome != nil {
		resp.SetWon = outcome.SetWon
		resp.MatchFinished = outcome.MatchWon
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		that.logger.Error("failed to encode error response", "error", err)
	}
}

// writeOperationError - maps engine and lookup errors onto HTTP statuses.
// Rule violations are conflicts, they are expected and non-fatal.
func (that *Handlers) writeOperationError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrMatchNotFound):
		that.writeError(w, http.StatusNotFound, "match not found")
	case errors.Is(err, apperror.ErrUnknownPlayer):
		that.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperror.ErrMatchNotInProgress),
		errors.Is(err, apperror.ErrMatchFinished),
		errors.Is(err, apperror.ErrMatchCancelled),
		errors.Is(err, apperror.ErrInvalidTransition),
		errors.Is(err, apperror.ErrNothingToUndo):
		that.writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error("operation failed", "error", err)
		that.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
