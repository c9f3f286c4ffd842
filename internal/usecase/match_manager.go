package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pinpanclub/pingpong-backend/internal/entity"
	"github.com/pinpanclub/pingpong-backend/internal/repository"
	"github.com/pinpanclub/pingpong-backend/internal/scoring"
)

const (
	// broadcast message types, mirrored by the live viewers
	EventPointScored = "point_scored"
	EventMatchState  = "match_state"
)

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error
}

type archiveRepo interface {
	Save(ctx context.Context, match *entity.Match) error
	Find(ctx context.Context, id string) (*entity.Match, error)
}

// Broadcaster fans the full match snapshot out to every viewer of that
// match. Implementations must tolerate having no subscribers.
type Broadcaster interface {
	BroadcastMatch(event string, match *entity.Match)
}

// Rules - the defaults applied to matches created without explicit rules.
type Rules struct {
	BestOf         int
	PointsToWinSet int
}

// MatchManager owns all mutations of live matches. Calls for one match ID
// are serialized behind a per-match lock, so two arbiters scoring the
// same match can never race; distinct matches proceed in parallel.
type MatchManager struct {
	logger      *slog.Logger
	matchRepo   matchRepo
	archiveRepo archiveRepo
	broadcaster Broadcaster
	rules       Rules

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMatchManager(logger *slog.Logger, matchRepo matchRepo, archiveRepo archiveRepo, broadcaster Broadcaster, rules Rules) *MatchManager {
	return &MatchManager{
		logger:      logger,
		matchRepo:   matchRepo,
		archiveRepo: archiveRepo,
		broadcaster: broadcaster,
		rules:       rules,

		locks: make(map[string]*sync.Mutex),
	}
}

// CreateMatch - schedules a new match in pending status.
func (that *MatchManager) CreateMatch(ctx context.Context, playerA, playerB string, bestOf, pointsToWinSet int) (*entity.Match, error) {
	if bestOf == 0 {
		bestOf = that.rules.BestOf
	}
	if pointsToWinSet == 0 {
		pointsToWinSet = that.rules.PointsToWinSet
	}

	match := entity.NewMatch(uuid.NewString(), playerA, playerB, bestOf, pointsToWinSet)

	if err := that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to save match: %w", err)
	}

	that.logger.With("component", "match_manager").Info("match created", "matchID", match.ID)

	return match, nil
}

// GetMatch - current snapshot of a match, live store first, archive after.
func (that *MatchManager) GetMatch(ctx context.Context, matchID string) (*entity.Match, error) {
	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err == nil {
		return match, nil
	}

	if !errors.Is(err, repository.ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	match, err = that.archiveRepo.Find(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotArchived) {
			return nil, repository.ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to find archived match: %w", err)
	}

	return match, nil
}

// StartMatch - moves a pending or paused match into play.
func (that *MatchManager) StartMatch(ctx context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(ctx, matchID, EventMatchState, func(match *entity.Match) error {
		return scoring.Start(match)
	})
}

// PauseMatch - suspends play without touching the score.
func (that *MatchManager) PauseMatch(ctx context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(ctx, matchID, EventMatchState, func(match *entity.Match) error {
		return scoring.Pause(match)
	})
}

// ResumeMatch - puts a paused match back into play.
func (that *MatchManager) ResumeMatch(ctx context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(ctx, matchID, EventMatchState, func(match *entity.Match) error {
		return scoring.Resume(match)
	})
}

// CancelMatch - aborts a match and moves it to the archive.
func (that *MatchManager) CancelMatch(ctx context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(ctx, matchID, EventMatchState, func(match *entity.Match) error {
		return scoring.Cancel(match)
	})
}

// AddPoint - scores one point and reports set/match completion.
func (that *MatchManager) AddPoint(ctx context.Context, matchID, player, pointType string) (*entity.Match, *scoring.Outcome, error) {
	var outcome *scoring.Outcome

	match, err := that.mutate(ctx, matchID, EventPointScored, func(match *entity.Match) error {
		var pointErr error
		outcome, pointErr = scoring.AddPoint(match, player, pointType)
		return pointErr
	})
	if err != nil {
		return nil, nil, err
	}

	return match, outcome, nil
}

// Undo - reverts the last point of a match.
func (that *MatchManager) Undo(ctx context.Context, matchID string) (*entity.Match, error) {
	return that.mutate(ctx, matchID, EventMatchState, func(match *entity.Match) error {
		return scoring.Undo(match)
	})
}

// mutate - loads a match under its lock, applies the operation, persists
// the result and broadcasts the new snapshot. Terminal matches move from
// the live store to the archive before the broadcast goes out.
func (that *MatchManager) mutate(ctx context.Context, matchID, event string, operation func(*entity.Match) error) (*entity.Match, error) {
	log := that.logger.With("component", "match_manager", "matchID", matchID)

	unlock := that.lockMatch(matchID)
	defer unlock()

	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if err = operation(match); err != nil {
		return nil, err
	}

	if match.IsOver() {
		if err = that.retireMatch(ctx, match); err != nil {
			return nil, err
		}
	} else if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	if that.broadcaster != nil {
		that.broadcaster.BroadcastMatch(event, match)
	}

	log.Debug("match mutated", "status", match.Status, "event", event)

	return match, nil
}

// retireMatch - archives a terminal match and drops it from the live store.
func (that *MatchManager) retireMatch(ctx context.Context, match *entity.Match) error {
	if err := that.archiveRepo.Save(ctx, match); err != nil {
		return fmt.Errorf("failed to archive match: %w", err)
	}

	if err := that.matchRepo.DeleteByID(ctx, match.ID); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	that.mu.Lock()
	delete(that.locks, match.ID)
	that.mu.Unlock()

	return nil
}

// lockMatch - takes the single-writer lock for a match ID.
func (that *MatchManager) lockMatch(matchID string) func() {
	that.mu.Lock()
	lock, ok := that.locks[matchID]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[matchID] = lock
	}
	that.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}
