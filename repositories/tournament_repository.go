package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/esportshub/esports-hub/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type ListTournamentsFilter struct {
	GameName        *string
	Location        *string
	IncludeArchived bool
	IncludeHidden   bool
	Limit           int
	Offset          int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	SetHidden(ctx context.Context, id int, hidden bool) error
	FindOpenByLocation(ctx context.Context, location string, now time.Time) (*models.Tournament, error)
	ListExpired(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Tournament, error)
	MarkArchived(ctx context.Context, exec SQLExecutor, id int) error
	ListGameNames(ctx context.Context) ([]string, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, game_name, location, date, max_teams, archived, hidden, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, game_name, location, date, max_teams)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, archived, hidden, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.GameName, t.Location, t.Date, t.MaxTeams,
	).Scan(&t.ID, &t.Archived, &t.Hidden, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.findOne(ctx, r.db, query, id)
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.GameName != nil {
		query += fmt.Sprintf(" AND game_name = $%d", argID)
		args = append(args, *filter.GameName)
		argID++
	}
	if filter.Location != nil {
		query += fmt.Sprintf(" AND location = $%d", argID)
		args = append(args, *filter.Location)
		argID++
	}
	if !filter.IncludeArchived {
		query += " AND archived = FALSE"
	}
	if !filter.IncludeHidden {
		query += " AND hidden = FALSE"
	}

	query += " ORDER BY date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	return r.list(ctx, r.db, query, args...)
}

func (r *postgresTournamentRepository) ListUpcoming(ctx context.Context, now time.Time) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE archived = FALSE AND hidden = FALSE AND date >= $1
		ORDER BY date ASC`
	return r.list(ctx, r.db, query, now)
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			game_name = $2,
			location = $3,
			date = $4,
			max_teams = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.GameName, t.Location, t.Date, t.MaxTeams, t.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetHidden(ctx context.Context, id int, hidden bool) error {
	query := `UPDATE tournaments SET hidden = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, hidden, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// FindOpenByLocation возвращает текущий открытый турнир площадки: не архивный,
// не скрытый, с датой в будущем; при нескольких совпадениях — ближайший к
// текущему моменту сверху (самый поздний по дате).
func (r *postgresTournamentRepository) FindOpenByLocation(ctx context.Context, location string, now time.Time) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE location = $1 AND archived = FALSE AND hidden = FALSE AND date > $2
		ORDER BY date DESC
		LIMIT 1`
	return r.findOne(ctx, r.db, query, location, now)
}

func (r *postgresTournamentRepository) ListExpired(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE date < $1 AND archived = FALSE
		ORDER BY date ASC`

	rows, err := executor.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if scanErr := r.scan(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan expired tournament: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during expired tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

// MarkArchived снимает турнир с публикации: archived и hidden одновременно.
// Повторный вызов для уже архивного турнира — no-op без ошибки.
func (r *postgresTournamentRepository) MarkArchived(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET archived = TRUE, hidden = TRUE WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark tournament archived: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListGameNames(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT game_name FROM tournaments WHERE archived = FALSE ORDER BY game_name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if scanErr := rows.Scan(&name); scanErr != nil {
			return nil, scanErr
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *postgresTournamentRepository) scan(rowScanner interface {
	Scan(dest ...interface{}) error
}, t *models.Tournament) error {
	return rowScanner.Scan(
		&t.ID, &t.Name, &t.GameName, &t.Location, &t.Date,
		&t.MaxTeams, &t.Archived, &t.Hidden, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := r.scan(exec.QueryRowContext(ctx, query, args...), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Tournament, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := r.scan(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}
