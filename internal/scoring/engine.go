// Package scoring applies table-tennis scoring rules to a match:
// point application, serve rotation, set and match completion,
// lifecycle transitions and snapshot-based undo.
package scoring

import (
	"fmt"
	"time"

	"github.com/pinpanclub/pingpong-backend/internal/apperror"
	"github.com/pinpanclub/pingpong-backend/internal/entity"
)

// Outcome reports what a single point did beyond moving the tally.
type Outcome struct {
	SetWon     bool
	SetWinner  string
	MatchWon   bool
	MatchState *entity.Match
}

// Start - moves a pending or paused match into play.
func Start(match *entity.Match) error {
	switch match.Status {
	case entity.StatusPending, entity.StatusPaused:
		match.Status = entity.StatusInProgress
		match.UpdatedAt = time.Now().UTC()
		return nil
	default:
		return fmt.Errorf("%w: cannot start match in status %q", apperror.ErrInvalidTransition, match.Status)
	}
}

// Pause - suspends an in-progress match without touching the score.
func Pause(match *entity.Match) error {
	if !match.IsInProgress() {
		return fmt.Errorf("%w: cannot pause match in status %q", apperror.ErrInvalidTransition, match.Status)
	}

	match.Status = entity.StatusPaused
	match.UpdatedAt = time.Now().UTC()

	return nil
}

// Resume - puts a paused match back into play.
func Resume(match *entity.Match) error {
	if !match.IsPaused() {
		return fmt.Errorf("%w: cannot resume match in status %q", apperror.ErrInvalidTransition, match.Status)
	}

	match.Status = entity.StatusInProgress
	match.UpdatedAt = time.Now().UTC()

	return nil
}

// Cancel - aborts a match that has not reached a terminal status.
func Cancel(match *entity.Match) error {
	if match.IsOver() {
		return fmt.Errorf("%w: cannot cancel match in status %q", apperror.ErrInvalidTransition, match.Status)
	}

	match.Status = entity.StatusCancelled
	match.UpdatedAt = time.Now().UTC()

	return nil
}

// AddPoint - scores one point for a side, rotates the serve and settles
// set and match completion. The applied event carries a snapshot of the
// prior state so that Undo restores it exactly.
func AddPoint(match *entity.Match, player, pointType string) (*Outcome, error) {
	if err := match.ConfirmInProgress(); err != nil {
		return nil, err
	}

	if !entity.IsSide(player) {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownPlayer, player)
	}

	prior := match.TakeSnapshot()
	now := time.Now().UTC()

	if player == entity.SideA {
		match.PointsA++
	} else {
		match.PointsB++
	}

	match.Events = append(match.Events, entity.ScoringEvent{
		Type:      entity.EventPoint,
		Player:    player,
		PointType: pointType,
		Timestamp: now,
		Prior:     prior,
	})

	outcome := &Outcome{MatchState: match}

	if winner := setWinner(match); winner != "" {
		settleSet(match, winner, now, outcome)
	} else {
		match.Serve = serveFor(match)
	}

	match.UpdatedAt = now

	return outcome, nil
}

// Undo - pops the last point and restores the state it was applied to.
// Set and match completions caused by that point are rolled back with it.
// A finished match is immutable.
func Undo(match *entity.Match) error {
	if match.IsFinished() {
		return apperror.ErrMatchFinished
	}
	if match.IsCancelled() {
		return apperror.ErrMatchCancelled
	}

	for i := len(match.Events) - 1; i >= 0; i-- {
		event := match.Events[i]
		if event.Type != entity.EventPoint {
			continue
		}

		match.Restore(event.Prior)
		match.Events = match.Events[:i]
		match.UpdatedAt = time.Now().UTC()

		return nil
	}

	return apperror.ErrNothingToUndo
}

// setWinner - the side that has just taken the current set, or "".
// A set ends at PointsToWinSet or more with a lead of two.
func setWinner(match *entity.Match) string {
	switch {
	case match.PointsA >= match.PointsToWinSet && match.PointsA-match.PointsB >= 2:
		return entity.SideA
	case match.PointsB >= match.PointsToWinSet && match.PointsB-match.PointsA >= 2:
		return entity.SideB
	default:
		return ""
	}
}

// settleSet - credits the set, opens the next one and settles the match
// when the winner has reached the required set count.
func settleSet(match *entity.Match, winner string, now time.Time, outcome *Outcome) {
	if winner == entity.SideA {
		match.SetsA++
	} else {
		match.SetsB++
	}

	match.Events = append(match.Events, entity.ScoringEvent{
		Type:      entity.EventSetWon,
		Player:    winner,
		Timestamp: now,
	})

	outcome.SetWon = true
	outcome.SetWinner = winner

	match.PointsA = 0
	match.PointsB = 0
	match.CurrentSet++
	match.Serve = serveFor(match)

	sets := match.SetsA
	if winner == entity.SideB {
		sets = match.SetsB
	}

	if sets < match.SetsToWin() {
		return
	}

	match.Status = entity.StatusFinished
	match.WinnerID = match.PlayerID(winner)
	match.Events = append(match.Events, entity.ScoringEvent{
		Type:      entity.EventMatchWon,
		Player:    winner,
		Timestamp: now,
	})

	outcome.MatchWon = true
}

// serveFor - derives the serving side from the current tally.
//
// The opening server alternates each set, starting from FirstServe. Within
// a set the serve changes every two points, and every single point once
// both sides stand at PointsToWinSet-1 or higher (deuce).
func serveFor(match *entity.Match) string {
	opening := match.FirstServe
	if match.CurrentSet%2 == 0 {
		opening = entity.OtherSide(opening)
	}

	total := match.PointsA + match.PointsB
	deuceFloor := match.PointsToWinSet - 1

	var switches int
	if match.PointsA >= deuceFloor && match.PointsB >= deuceFloor {
		// both sides passed through deuceFloor-all, after which the
		// serve has changed on every point
		switches = total - deuceFloor
	} else {
		switches = total / 2
	}

	if switches%2 == 0 {
		return opening
	}

	return entity.OtherSide(opening)
}
