package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/esportshub/esports-hub/models"
)

// RankSnapshotRepository хранит явные, помеченные scope-ом фиксации рейтинга.
// Каждое сохранение полностью заменяет предыдущий снимок того же scope-а.
type RankSnapshotRepository interface {
	Save(ctx context.Context, exec SQLExecutor, scope string, computedAt time.Time, entries []models.TeamRank) error
	GetLatest(ctx context.Context, scope string) (*models.RankSnapshot, error)
}

type postgresRankSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresRankSnapshotRepository(db *sql.DB) RankSnapshotRepository {
	return &postgresRankSnapshotRepository{db: db}
}

func (r *postgresRankSnapshotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRankSnapshotRepository) Save(ctx context.Context, exec SQLExecutor, scope string, computedAt time.Time, entries []models.TeamRank) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx, `DELETE FROM rank_snapshots WHERE scope = $1`, scope); err != nil {
		return fmt.Errorf("failed to clear rank snapshot for scope %q: %w", scope, err)
	}

	query := `
		INSERT INTO rank_snapshots (scope, team_id, rank, points, wins, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, entry := range entries {
		_, err := executor.ExecContext(ctx, query,
			scope, entry.Team.ID, entry.Rank, entry.Team.Points, entry.Team.Wins, computedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rank snapshot row for team %d: %w", entry.Team.ID, err)
		}
	}
	return nil
}

func (r *postgresRankSnapshotRepository) GetLatest(ctx context.Context, scope string) (*models.RankSnapshot, error) {
	query := `
		SELECT s.team_id, s.rank, s.points, s.wins, s.computed_at, t.name, t.game_name
		FROM rank_snapshots s
		JOIN teams t ON s.team_id = t.id
		WHERE s.scope = $1
		ORDER BY s.rank ASC`

	rows, err := r.db.QueryContext(ctx, query, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query rank snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := &models.RankSnapshot{Scope: scope, Entries: make([]models.TeamRank, 0)}
	for rows.Next() {
		var entry models.TeamRank
		if scanErr := rows.Scan(
			&entry.Team.ID, &entry.Rank, &entry.Team.Points, &entry.Team.Wins,
			&snapshot.ComputedAt, &entry.Team.Name, &entry.Team.GameName,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan rank snapshot row: %w", scanErr)
		}
		rank := entry.Rank
		entry.Team.Rank = &rank
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rank snapshot rows: %w", err)
	}
	return snapshot, nil
}
