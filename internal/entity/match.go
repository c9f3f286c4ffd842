package entity

import (
	"fmt"
	"time"

	"github.com/pinpanclub/pingpong-backend/internal/apperror"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusPaused     = "paused"
	StatusFinished   = "finished"
	StatusCancelled  = "cancelled"

	SideA = "A"
	SideB = "B"

	DefaultBestOf         = 5
	DefaultPointsToWinSet = 11
)

// Match holds the authoritative state of one table-tennis match:
// the running point tally, completed sets, serve side and lifecycle status.
type Match struct {
	ID             string         `json:"id"`
	PlayerA        string         `json:"player_a_id"`
	PlayerB        string         `json:"player_b_id"`
	PointsA        int            `json:"points_a"`
	PointsB        int            `json:"points_b"`
	SetsA          int            `json:"sets_a"`
	SetsB          int            `json:"sets_b"`
	CurrentSet     int            `json:"current_set"`
	Serve          string         `json:"serve"`
	FirstServe     string         `json:"first_serve"`
	Status         string         `json:"status"`
	BestOf         int            `json:"best_of"`
	PointsToWinSet int            `json:"points_to_win_set"`
	WinnerID       string         `json:"winner_id,omitempty"`
	Events         []ScoringEvent `json:"events,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func NewMatch(id, playerA, playerB string, bestOf, pointsToWinSet int) *Match {
	if bestOf <= 0 {
		bestOf = DefaultBestOf
	}
	if pointsToWinSet <= 0 {
		pointsToWinSet = DefaultPointsToWinSet
	}

	now := time.Now().UTC()

	return &Match{
		ID:             id,
		PlayerA:        playerA,
		PlayerB:        playerB,
		CurrentSet:     1,
		Serve:          SideA,
		FirstServe:     SideA,
		Status:         StatusPending,
		BestOf:         bestOf,
		PointsToWinSet: pointsToWinSet,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SetsToWin - sets needed to take the match, ceil(BestOf/2).
func (that *Match) SetsToWin() int {
	return that.BestOf/2 + 1
}

// PlayerID - maps a side to the participant reference it stands for.
func (that *Match) PlayerID(side string) string {
	if side == SideA {
		return that.PlayerA
	}
	return that.PlayerB
}

func (that *Match) IsPending() bool {
	return that.Status == StatusPending
}

func (that *Match) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Match) IsPaused() bool {
	return that.Status == StatusPaused
}

func (that *Match) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Match) IsCancelled() bool {
	return that.Status == StatusCancelled
}

// IsOver - true for both terminal statuses.
func (that *Match) IsOver() bool {
	return that.IsFinished() || that.IsCancelled()
}

func (that *Match) ConfirmInProgress() error {
	switch that.Status {
	case StatusInProgress:
		return nil
	case StatusFinished:
		return apperror.ErrMatchFinished
	case StatusCancelled:
		return apperror.ErrMatchCancelled
	case StatusPending, StatusPaused:
		return apperror.ErrMatchNotInProgress
	default:
		return fmt.Errorf("%w: %s", apperror.ErrInvalidTransition, that.Status)
	}
}

// PublicView - copy of the match without the internal undo log. This is
// what viewers receive; a single view is always enough to reconstruct
// the scoreboard.
func (that *Match) PublicView() *Match {
	view := *that
	view.Events = nil
	return &view
}

// OtherSide - the opposite serve side.
func OtherSide(side string) string {
	if side == SideA {
		return SideB
	}
	return SideA
}

// IsSide - reports whether the value names one of the two sides.
func IsSide(side string) bool {
	return side == SideA || side == SideB
}
