package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/esportshub/esports-hub/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name conflict")
	ErrTeamCaptainInvalid = errors.New("team captain conflict or invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	GetByCaptainID(ctx context.Context, captainID int) (*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id int) error
	UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error
	ListByGameName(ctx context.Context, gameName string) ([]models.Team, error)
	ListByTournamentName(ctx context.Context, tournamentName string) ([]models.Team, error)
	ListAll(ctx context.Context) ([]models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, name, game_name, captain_id, captain_phone, points, wins, logo_key, created_at`

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (name, game_name, captain_id, captain_phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, points, wins, created_at`

	err := executor.QueryRowContext(ctx, query,
		team.Name,
		team.GameName,
		team.CaptainID,
		team.CaptainPhone,
	).Scan(&team.ID, &team.Points, &team.Wins, &team.CreatedAt)

	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresTeamRepository) GetByCaptainID(ctx context.Context, captainID int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE captain_id = $1 ORDER BY created_at ASC LIMIT 1`
	return r.findOne(ctx, query, captainID)
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams SET
			name = $1,
			game_name = $2,
			captain_phone = $3,
			points = $4,
			wins = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		team.Name, team.GameName, team.CaptainPhone, team.Points, team.Wins, team.ID,
	)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	// Игроки и регистрации команды удаляются каскадно (ON DELETE CASCADE).
	query := `DELETE FROM teams WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error {
	query := `UPDATE teams SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, logoKey, teamID)
	if err != nil {
		return fmt.Errorf("failed to update team logo key: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) ListByGameName(ctx context.Context, gameName string) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE game_name ILIKE '%' || $1 || '%' ORDER BY id ASC`
	return r.list(ctx, query, gameName)
}

// ListByTournamentName — второй шаг разрешения scope-а по категории: команды,
// зарегистрированные на турниры с подходящим названием.
func (r *postgresTeamRepository) ListByTournamentName(ctx context.Context, tournamentName string) ([]models.Team, error) {
	query := `
		SELECT DISTINCT t.id, t.name, t.game_name, t.captain_id, t.captain_phone, t.points, t.wins, t.logo_key, t.created_at
		FROM teams t
		JOIN registrations r ON r.team_id = t.id
		JOIN tournaments trn ON trn.id = r.tournament_id
		WHERE trn.name ILIKE '%' || $1 || '%'
		ORDER BY t.id ASC`
	return r.list(ctx, query, tournamentName)
}

func (r *postgresTeamRepository) ListAll(ctx context.Context) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY id ASC`
	return r.list(ctx, query)
}

func (r *postgresTeamRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Team, error) {
	var team models.Team
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&team.ID, &team.Name, &team.GameName, &team.CaptainID, &team.CaptainPhone,
		&team.Points, &team.Wins, &team.LogoKey, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

func (r *postgresTeamRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.GameName, &t.CaptainID, &t.CaptainPhone,
			&t.Points, &t.Wins, &t.LogoKey, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			// Уникальность имени регистронезависимая: индекс по lower(name).
			if pqErr.Constraint == "teams_name_lower_key" {
				return ErrTeamNameConflict
			}
		case "23503":
			if pqErr.Constraint == "teams_captain_id_fkey" {
				return ErrTeamCaptainInvalid
			}
		}
	}
	return err
}
