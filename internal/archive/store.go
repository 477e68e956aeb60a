package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/bracket"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/seeding"
	"github.com/sirupsen/logrus"
)

const defaultChampionLimit = 10

// Champion is one archived, completed postseason
type Champion struct {
	Season          int       `json:"season"`
	TournamentID    string    `json:"tournament_id"`
	SuperBowlWinner string    `json:"super_bowl_winner"`
	AFCChampion     string    `json:"afc_champion"`
	NFCChampion     string    `json:"nfc_champion"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Store wraps a Postgres connection and persists seedings and bracket snapshots
type Store struct {
	DB     *sql.DB
	logger *logrus.Logger
}

// NewStore opens a Postgres connection using the given connection string
func NewStore(ctx context.Context, connStr string, logger *logrus.Logger) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// verify early
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	logger.Info("Connected to playoff archive")
	return &Store{DB: db, logger: logger}, nil
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the archive tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS playoff_seedings (
			id          SERIAL PRIMARY KEY,
			season      INT         NOT NULL,
			computed_at TIMESTAMPTZ NOT NULL,
			afc_top     TEXT        NOT NULL,
			nfc_top     TEXT        NOT NULL,
			seeding     JSONB       NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS playoff_seedings_season_idx ON playoff_seedings (season);`,
		`CREATE TABLE IF NOT EXISTS playoff_brackets (
			tournament_id     TEXT PRIMARY KEY,
			season            INT         NOT NULL,
			current_round     TEXT        NOT NULL,
			complete          BOOLEAN     NOT NULL DEFAULT FALSE,
			afc_champion      TEXT,
			nfc_champion      TEXT,
			super_bowl_winner TEXT,
			summary           JSONB       NOT NULL,
			updated_at        TIMESTAMPTZ NOT NULL,
			completed_at      TIMESTAMPTZ
		);`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// SaveSeeding stores a seeding snapshot and returns its row id
func (s *Store) SaveSeeding(ctx context.Context, ps *seeding.PlayoffSeeding) (int64, error) {
	if err := ps.Validate(); err != nil {
		return 0, fmt.Errorf("refusing to archive seeding: %w", err)
	}
	payload, err := json.Marshal(ps)
	if err != nil {
		return 0, fmt.Errorf("encoding seeding: %w", err)
	}

	var id int64
	err = s.DB.QueryRowContext(ctx, `
		INSERT INTO playoff_seedings (season, computed_at, afc_top, nfc_top, seeding)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		ps.Season, ps.ComputedAt, ps.AFC[0].TeamID, ps.NFC[0].TeamID, payload,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting seeding for season %d: %w", ps.Season, err)
	}

	s.logger.WithFields(logrus.Fields{"season": ps.Season, "id": id}).Debug("Archived seeding")
	return id, nil
}

// SaveBracket upserts the latest snapshot of a tournament
func (s *Store) SaveBracket(ctx context.Context, tournamentID string, summary bracket.Summary) error {
	row, err := newBracketRow(tournamentID, summary, time.Now().UTC())
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// completed_at is written once, the first time the bracket is seen complete
	_, err = tx.ExecContext(ctx, `
		INSERT INTO playoff_brackets
			(tournament_id, season, current_round, complete, afc_champion, nfc_champion, super_bowl_winner, summary, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tournament_id) DO UPDATE SET
			current_round     = EXCLUDED.current_round,
			complete          = EXCLUDED.complete,
			afc_champion      = EXCLUDED.afc_champion,
			nfc_champion      = EXCLUDED.nfc_champion,
			super_bowl_winner = EXCLUDED.super_bowl_winner,
			summary           = EXCLUDED.summary,
			updated_at        = EXCLUDED.updated_at,
			completed_at      = COALESCE(playoff_brackets.completed_at, EXCLUDED.completed_at)`,
		row.tournamentID, row.season, row.currentRound, row.complete,
		row.afcChampion, row.nfcChampion, row.superBowlWinner, row.summary, row.updatedAt, row.completedAt,
	)
	if err != nil {
		return fmt.Errorf("saving bracket %s: %w", tournamentID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bracket %s: %w", tournamentID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"tournament_id": tournamentID,
		"round":         row.currentRound,
		"complete":      row.complete,
	}).Debug("Archived bracket")
	return nil
}

// ListChampions returns completed postseasons, most recent season first
func (s *Store) ListChampions(ctx context.Context, limit int) ([]Champion, error) {
	if limit <= 0 {
		limit = defaultChampionLimit
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT season, tournament_id, super_bowl_winner, afc_champion, nfc_champion, completed_at
		FROM playoff_brackets
		WHERE complete
		ORDER BY season DESC, completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying champions: %w", err)
	}
	defer rows.Close()

	var champions []Champion
	for rows.Next() {
		var c Champion
		var winner, afc, nfc sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&c.Season, &c.TournamentID, &winner, &afc, &nfc, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning champion: %w", err)
		}
		c.SuperBowlWinner = winner.String
		c.AFCChampion = afc.String
		c.NFCChampion = nfc.String
		c.CompletedAt = completedAt.Time
		champions = append(champions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating champions: %w", err)
	}
	return champions, nil
}

type bracketRow struct {
	tournamentID    string
	season          int
	currentRound    string
	complete        bool
	afcChampion     sql.NullString
	nfcChampion     sql.NullString
	superBowlWinner sql.NullString
	summary         []byte
	updatedAt       time.Time
	completedAt     sql.NullTime
}

func newBracketRow(tournamentID string, summary bracket.Summary, now time.Time) (bracketRow, error) {
	if tournamentID == "" {
		return bracketRow{}, fmt.Errorf("tournament id is required")
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return bracketRow{}, fmt.Errorf("encoding bracket summary: %w", err)
	}

	row := bracketRow{
		tournamentID:    tournamentID,
		season:          summary.Season,
		currentRound:    summary.CurrentRound.String(),
		complete:        summary.TournamentComplete,
		afcChampion:     nullString(summary.AFCChampion),
		nfcChampion:     nullString(summary.NFCChampion),
		superBowlWinner: nullString(summary.SuperBowlWinner),
		summary:         payload,
		updatedAt:       now,
	}
	if summary.TournamentComplete {
		row.completedAt = sql.NullTime{Time: now, Valid: true}
	}
	return row, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
