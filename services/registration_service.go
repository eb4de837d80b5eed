package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/esportshub/esports-hub/metrics"
	"github.com/esportshub/esports-hub/models"
	"github.com/esportshub/esports-hub/repositories"
)

// RegistrationService — правила допуска команд на турниры и админский
// жизненный цикл заявок.
type RegistrationService interface {
	RegisterTeamForTournament(ctx context.Context, teamID int, location string) (*models.Registration, error)
	ApproveRegistration(ctx context.Context, registrationID, actorID int) (*models.Registration, error)
	RejectRegistration(ctx context.Context, registrationID, actorID int) (*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error)
}

type registrationService struct {
	txManager      repositories.TxManager
	regRepo        repositories.RegistrationRepository
	teamRepo       repositories.TeamRepository
	tournamentRepo repositories.TournamentRepository
	auditRepo      repositories.AuditRepository
}

func NewRegistrationService(
	txManager repositories.TxManager,
	regRepo repositories.RegistrationRepository,
	teamRepo repositories.TeamRepository,
	tournamentRepo repositories.TournamentRepository,
	auditRepo repositories.AuditRepository,
) RegistrationService {
	return &registrationService{
		txManager:      txManager,
		regRepo:        regRepo,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
		auditRepo:      auditRepo,
	}
}

// RegisterTeamForTournament прогоняет четыре независимых проверки в порядке
// от самой дешёвой/конкретной к самой общей, чтобы ошибка была максимально
// информативной: существование турнира → совпадение игры → конфликт с другим
// открытым турниром → дубликат пары (team, tournament).
func (s *registrationService) RegisterTeamForTournament(ctx context.Context, teamID int, location string) (*models.Registration, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	now := time.Now()

	tournament, err := s.tournamentRepo.FindOpenByLocation(ctx, location, now)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if team.GameName != tournament.GameName {
		return nil, fmt.Errorf("%w: team plays %s, tournament is %s",
			ErrGameMismatch, team.GameName, tournament.GameName)
	}

	approved, err := s.regRepo.HasApprovedOnOpenTournament(ctx, team.ID, tournament.ID, now)
	if err != nil {
		return nil, err
	}
	if approved {
		return nil, ErrAlreadyApprovedElsewhere
	}

	exists, err := s.regRepo.ExistsByTeamAndTournament(ctx, team.ID, tournament.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRegistration
	}

	registration := &models.Registration{
		TournamentID: tournament.ID,
		TeamID:       team.ID,
		Status:       models.RegistrationPending,
	}
	if err := s.regRepo.Create(ctx, registration); err != nil {
		// Констрейнт (team_id, tournament_id) — авторитетный сигнал дубликата:
		// параллельный запрос мог вставить строку после нашей проверки.
		if errors.Is(err, repositories.ErrRegistrationConflict) {
			return nil, ErrDuplicateRegistration
		}
		return nil, err
	}

	metrics.RegistrationsCreated.Inc()
	registration.Team = team
	registration.Tournament = tournament
	return registration, nil
}

func (s *registrationService) ApproveRegistration(ctx context.Context, registrationID, actorID int) (*models.Registration, error) {
	reg, err := s.changeStatus(ctx, registrationID, actorID, models.RegistrationApproved, models.AuditActionApproveRegistration)
	if err == nil {
		metrics.RegistrationsApproved.Inc()
	}
	return reg, err
}

func (s *registrationService) RejectRegistration(ctx context.Context, registrationID, actorID int) (*models.Registration, error) {
	reg, err := s.changeStatus(ctx, registrationID, actorID, models.RegistrationRejected, models.AuditActionRejectRegistration)
	if err == nil {
		metrics.RegistrationsRejected.Inc()
	}
	return reg, err
}

func (s *registrationService) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.regRepo.ListByTournament(ctx, tournamentID)
}

// changeStatus выставляет новый статус и пишет запись аудита с денормализованным
// снимком имён команды и турнира: к моменту чтения журнала они могут быть
// переименованы или заархивированы.
func (s *registrationService) changeStatus(ctx context.Context, registrationID, actorID int, status models.RegistrationStatus, action string) (*models.Registration, error) {
	reg, err := s.regRepo.GetWithDetails(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	details, err := json.Marshal(models.RegistrationSnapshot{
		TeamName:       reg.Team.Name,
		TournamentName: reg.Tournament.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registration snapshot: %w", err)
	}

	// Смена статуса и запись аудита — одна транзакция: решение без следа
	// в журнале (или след без решения) существовать не должно.
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.regRepo.UpdateStatus(ctx, exec, reg.ID, status); err != nil {
			return err
		}

		entry := &models.AuditLog{
			UserID:     &actorID,
			Action:     action,
			TargetType: "registration",
			TargetID:   reg.ID,
			Details:    details,
		}
		if err := s.auditRepo.Create(ctx, exec, entry); err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reg.Status = status
	return reg, nil
}
