package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/esportshub/esports-hub/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrRegistrationConflict — нарушение registrations_team_tournament_key.
	// Констрейнт считается авторитетным сигналом дубликата: проверка в сервисе
	// перед вставкой даёт точный порядок ошибок, констрейнт закрывает гонку
	// check-then-act между параллельными запросами.
	ErrRegistrationConflict          = errors.New("team is already registered for this tournament")
	ErrRegistrationTeamInvalid       = errors.New("registration team conflict or invalid")
	ErrRegistrationTournamentInvalid = errors.New("registration tournament conflict or invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	GetWithDetails(ctx context.Context, id int) (*models.Registration, error)
	ExistsByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (bool, error)
	HasApprovedOnOpenTournament(ctx context.Context, teamID, excludeTournamentID int, now time.Time) (bool, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error
	ArchiveApprovedByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (tournament_id, team_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.TournamentID,
		reg.TeamID,
		reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "registrations_team_tournament_key" {
					return ErrRegistrationConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "registrations_team_id_fkey":
					return ErrRegistrationTeamInvalid
				case "registrations_tournament_id_fkey":
					return ErrRegistrationTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	query := `SELECT id, tournament_id, team_id, status, created_at FROM registrations WHERE id = $1`

	reg := &models.Registration{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reg.ID, &reg.TournamentID, &reg.TeamID, &reg.Status, &reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

// GetWithDetails подтягивает команду и турнир: их имена нужны для
// денормализованного снимка в записи аудита.
func (r *postgresRegistrationRepository) GetWithDetails(ctx context.Context, id int) (*models.Registration, error) {
	query := `
		SELECT
			r.id, r.tournament_id, r.team_id, r.status, r.created_at,
			t.id, t.name, t.game_name, t.captain_id, t.captain_phone, t.points, t.wins, t.logo_key, t.created_at,
			trn.id, trn.name, trn.game_name, trn.location, trn.date, trn.max_teams, trn.archived, trn.hidden, trn.created_at
		FROM registrations r
		JOIN teams t ON r.team_id = t.id
		JOIN tournaments trn ON r.tournament_id = trn.id
		WHERE r.id = $1`

	var reg models.Registration
	var team models.Team
	var trn models.Tournament

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reg.ID, &reg.TournamentID, &reg.TeamID, &reg.Status, &reg.CreatedAt,
		&team.ID, &team.Name, &team.GameName, &team.CaptainID, &team.CaptainPhone,
		&team.Points, &team.Wins, &team.LogoKey, &team.CreatedAt,
		&trn.ID, &trn.Name, &trn.GameName, &trn.Location, &trn.Date,
		&trn.MaxTeams, &trn.Archived, &trn.Hidden, &trn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration with details: %w", err)
	}

	reg.Team = &team
	reg.Tournament = &trn
	return &reg, nil
}

func (r *postgresRegistrationRepository) ExistsByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM registrations WHERE team_id = $1 AND tournament_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, teamID, tournamentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check registration existence: %w", err)
	}
	return exists, nil
}

// HasApprovedOnOpenTournament проверяет, держит ли команда approved-заявку на
// каком-либо другом открытом (не архивном, не скрытом, будущем) турнире.
func (r *postgresRegistrationRepository) HasApprovedOnOpenTournament(ctx context.Context, teamID, excludeTournamentID int, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM registrations r
			JOIN tournaments t ON r.tournament_id = t.id
			WHERE r.team_id = $1
			  AND r.tournament_id <> $2
			  AND r.status = $3
			  AND t.archived = FALSE
			  AND t.hidden = FALSE
			  AND t.date > $4
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, teamID, excludeTournamentID, models.RegistrationApproved, now).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check approved registrations: %w", err)
	}
	return exists, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE registrations SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

// ArchiveApprovedByTournament переводит approved-заявки турнира в archived.
// pending/rejected не трогаем: они не были "живыми" обязательствами.
// Повторный вызов затрагивает 0 строк, что делает каскад идемпотентным.
func (r *postgresRegistrationRepository) ArchiveApprovedByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error) {
	executor := r.getExecutor(exec)
	query := `UPDATE registrations SET status = $1 WHERE tournament_id = $2 AND status = $3`

	result, err := executor.ExecContext(ctx, query,
		models.RegistrationArchived, tournamentID, models.RegistrationApproved,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to archive approved registrations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows for registration archive: %w", err)
	}
	return affected, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	query := `
		SELECT
			r.id, r.tournament_id, r.team_id, r.status, r.created_at,
			t.id, t.name, t.game_name, t.captain_id, t.captain_phone, t.points, t.wins, t.logo_key, t.created_at
		FROM registrations r
		JOIN teams t ON r.team_id = t.id
		WHERE r.tournament_id = $1
		ORDER BY r.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by tournament: %w", err)
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var team models.Team
		if scanErr := rows.Scan(
			&reg.ID, &reg.TournamentID, &reg.TeamID, &reg.Status, &reg.CreatedAt,
			&team.ID, &team.Name, &team.GameName, &team.CaptainID, &team.CaptainPhone,
			&team.Points, &team.Wins, &team.LogoKey, &team.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		reg.Team = &team
		registrations = append(registrations, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}
