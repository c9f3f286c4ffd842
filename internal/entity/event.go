package entity

import "time"

const (
	EventPoint    = "point"
	EventSetWon   = "set_won"
	EventMatchWon = "match_won"
)

// ScoringEvent is one entry of a match's event log. Point events carry a
// full snapshot of the state before the point, so undo restores exactly.
type ScoringEvent struct {
	Type      string    `json:"type"`
	Player    string    `json:"player,omitempty"`
	PointType string    `json:"point_type,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Prior     *Snapshot `json:"prior,omitempty"`
}

// Snapshot captures every field a point event can mutate.
type Snapshot struct {
	PointsA    int    `json:"points_a"`
	PointsB    int    `json:"points_b"`
	SetsA      int    `json:"sets_a"`
	SetsB      int    `json:"sets_b"`
	CurrentSet int    `json:"current_set"`
	Serve      string `json:"serve"`
	Status     string `json:"status"`
	WinnerID   string `json:"winner_id,omitempty"`
}

// TakeSnapshot - copies the mutable scoring fields of the match.
func (that *Match) TakeSnapshot() *Snapshot {
	return &Snapshot{
		PointsA:    that.PointsA,
		PointsB:    that.PointsB,
		SetsA:      that.SetsA,
		SetsB:      that.SetsB,
		CurrentSet: that.CurrentSet,
		Serve:      that.Serve,
		Status:     that.Status,
		WinnerID:   that.WinnerID,
	}
}

// Restore - writes a snapshot back onto the match.
func (that *Match) Restore(snapshot *Snapshot) {
	that.PointsA = snapshot.PointsA
	that.PointsB = snapshot.PointsB
	that.SetsA = snapshot.SetsA
	that.SetsB = snapshot.SetsB
	that.CurrentSet = snapshot.CurrentSet
	that.Serve = snapshot.Serve
	that.Status = snapshot.Status
	that.WinnerID = snapshot.WinnerID
}
