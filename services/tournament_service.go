package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/esportshub/esports-hub/models"
	"github.com/esportshub/esports-hub/repositories"
)

type TournamentInput struct {
	Name     string `json:"name"`
	GameName string `json:"game_name"`
	Location string `json:"location"`
	Date     string `json:"date"` // RFC3339
	MaxTeams int    `json:"max_teams"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input TournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Tournament, error)
	ListUpcoming(ctx context.Context) ([]models.Tournament, error)
	ListGameNames(ctx context.Context) ([]string, error)
	UpdateTournament(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error)
	SetHidden(ctx context.Context, id int, hidden bool) error
	ArchiveTournament(ctx context.Context, tournamentID int, actorID *int) error
}

type tournamentService struct {
	txManager      repositories.TxManager
	tournamentRepo repositories.TournamentRepository
	regRepo        repositories.RegistrationRepository
	auditRepo      repositories.AuditRepository
}

func NewTournamentService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	regRepo repositories.RegistrationRepository,
	auditRepo repositories.AuditRepository,
) TournamentService {
	return &tournamentService{
		txManager:      txManager,
		tournamentRepo: tournamentRepo,
		regRepo:        regRepo,
		auditRepo:      auditRepo,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input TournamentInput) (*models.Tournament, error) {
	t, err := validateTournamentInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) ListAll(ctx context.Context, limit, offset int) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		IncludeArchived: true,
		IncludeHidden:   true,
		Limit:           limit,
		Offset:          offset,
	})
}

func (s *tournamentService) ListUpcoming(ctx context.Context) ([]models.Tournament, error) {
	return s.tournamentRepo.ListUpcoming(ctx, time.Now())
}

func (s *tournamentService) ListGameNames(ctx context.Context) ([]string, error) {
	return s.tournamentRepo.ListGameNames(ctx)
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error) {
	existing, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	t, err := validateTournamentInput(input)
	if err != nil {
		return nil, err
	}
	t.ID = existing.ID
	t.Archived = existing.Archived
	t.Hidden = existing.Hidden
	t.CreatedAt = existing.CreatedAt

	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) SetHidden(ctx context.Context, id int, hidden bool) error {
	err := s.tournamentRepo.SetHidden(ctx, id, hidden)
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrNotFound
	}
	return err
}

// ArchiveTournament снимает турнир с публикации и переводит его approved-заявки
// в archived. Всё в одной транзакции вместе с записью аудита. Операция
// идемпотентна: повторный вызов оставляет то же конечное состояние.
func (s *tournamentService) ArchiveTournament(ctx context.Context, tournamentID int, actorID *int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.MarkArchived(ctx, exec, tournament.ID); err != nil {
			return err
		}
		if _, err := s.regRepo.ArchiveApprovedByTournament(ctx, exec, tournament.ID); err != nil {
			return err
		}

		details, err := json.Marshal(models.TournamentSnapshot{
			TournamentName: tournament.Name,
			Location:       tournament.Location,
			Date:           tournament.Date,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal tournament snapshot: %w", err)
		}

		return s.auditRepo.Create(ctx, exec, &models.AuditLog{
			UserID:     actorID,
			Action:     models.AuditActionArchiveTournament,
			TargetType: "tournament",
			TargetID:   tournament.ID,
			Details:    details,
		})
	})
}

func validateTournamentInput(input TournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	game := strings.TrimSpace(input.GameName)
	location := strings.TrimSpace(input.Location)
	if game == "" || location == "" {
		return nil, fmt.Errorf("%w: game and location are required", ErrValidationFailed)
	}

	date, err := time.Parse(time.RFC3339, input.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be RFC3339", ErrTournamentDateInvalid)
	}
	if !date.After(time.Now()) {
		return nil, ErrTournamentDateInvalid
	}
	if input.MaxTeams <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}

	return &models.Tournament{
		Name:     name,
		GameName: game,
		Location: location,
		Date:     date,
		MaxTeams: input.MaxTeams,
	}, nil
}
