package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pinpanclub/pingpong-backend/internal/entity"
)

var ErrMatchNotArchived = errors.New("match not archived")

// ArchiveRepository keeps finished and cancelled matches with their full
// event history, after they leave the live store.
type ArchiveRepository interface {
	Save(ctx context.Context, match *entity.Match) error
	Find(ctx context.Context, id string) (*entity.Match, error)
}

type archiveRepository struct {
	conn *sql.DB
}

func NewArchiveRepository(conn *sql.DB) ArchiveRepository {
	return &archiveRepository{
		conn: conn,
	}
}

func (that *archiveRepository) Save(ctx context.Context, match *entity.Match) error {
	eventsJSON, err := json.Marshal(match.Events)
	if err != nil {
		return fmt.Errorf("can't marshal events: %w", err)
	}

	query := `INSERT OR REPLACE INTO matches
		(id, player_a_id, player_b_id, sets_a, sets_b, best_of, status, winner_id, events, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = that.conn.ExecContext(ctx, query,
		match.ID, match.PlayerA, match.PlayerB,
		match.SetsA, match.SetsB, match.BestOf,
		match.Status, match.WinnerID, string(eventsJSON),
		match.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("can't save match: %w", err)
	}

	return nil
}

func (that *archiveRepository) Find(ctx context.Context, id string) (*entity.Match, error) {
	query := `SELECT id, player_a_id, player_b_id, sets_a, sets_b, best_of, status, winner_id, events, finished_at
		FROM matches WHERE id = ?`

	var match entity.Match
	var eventsJSON string
	var finishedAt string

	row := that.conn.QueryRowContext(ctx, query, id)
	err := row.Scan(&match.ID, &match.PlayerA, &match.PlayerB,
		&match.SetsA, &match.SetsB, &match.BestOf,
		&match.Status, &match.WinnerID, &eventsJSON, &finishedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotArchived
	}

	if err != nil {
		return nil, fmt.Errorf("can't find match: %w", err)
	}

	if err = json.Unmarshal([]byte(eventsJSON), &match.Events); err != nil {
		return nil, fmt.Errorf("can't unmarshal events: %w", err)
	}

	if match.UpdatedAt, err = time.Parse(time.RFC3339, finishedAt); err != nil {
		return nil, fmt.Errorf("can't parse finished_at: %w", err)
	}

	return &match, nil
}
