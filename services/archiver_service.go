package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/esportshub/esports-hub/metrics"
	"github.com/esportshub/esports-hub/models"
	"github.com/esportshub/esports-hub/repositories"
)

// ArchiverService — периодическая зачистка истёкших турниров. Весь проход
// выполняется в одной транзакции: любая ошибка откатывает всю пачку, сам
// планировщик продолжает работать и повторит попытку на следующем тике.
type ArchiverService interface {
	SweepExpired(ctx context.Context) (int, error)
	Run(ctx context.Context, interval time.Duration)
}

type archiverService struct {
	txManager      repositories.TxManager
	tournamentRepo repositories.TournamentRepository
	regRepo        repositories.RegistrationRepository
	auditRepo      repositories.AuditRepository
	logger         *slog.Logger
}

func NewArchiverService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	regRepo repositories.RegistrationRepository,
	auditRepo repositories.AuditRepository,
	logger *slog.Logger,
) ArchiverService {
	return &archiverService{
		txManager:      txManager,
		tournamentRepo: tournamentRepo,
		regRepo:        regRepo,
		auditRepo:      auditRepo,
		logger:         logger,
	}
}

// SweepExpired архивирует все турниры с прошедшей датой: archived + hidden,
// approved-заявки переводятся в archived, на каждый турнир пишется запись
// аудита без актора. Идемпотентна — повторный прогон не находит работы.
func (s *archiverService) SweepExpired(ctx context.Context) (int, error) {
	now := time.Now()
	archived := 0

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		expired, err := s.tournamentRepo.ListExpired(ctx, exec, now)
		if err != nil {
			return err
		}

		for _, tournament := range expired {
			s.logger.Info("auto-archiving expired tournament",
				slog.String("name", tournament.Name),
				slog.Int("tournament_id", tournament.ID),
			)

			if err := s.tournamentRepo.MarkArchived(ctx, exec, tournament.ID); err != nil {
				return fmt.Errorf("archive tournament %d: %w", tournament.ID, err)
			}
			if _, err := s.regRepo.ArchiveApprovedByTournament(ctx, exec, tournament.ID); err != nil {
				return fmt.Errorf("archive registrations for tournament %d: %w", tournament.ID, err)
			}

			details, err := json.Marshal(models.TournamentSnapshot{
				TournamentName: tournament.Name,
				Location:       tournament.Location,
				Date:           tournament.Date,
			})
			if err != nil {
				return fmt.Errorf("marshal snapshot for tournament %d: %w", tournament.ID, err)
			}

			entry := &models.AuditLog{
				UserID:     nil, // автоматическое действие
				Action:     models.AuditActionAutoArchive,
				TargetType: "tournament",
				TargetID:   tournament.ID,
				Details:    details,
			}
			if err := s.auditRepo.Create(ctx, exec, entry); err != nil {
				return fmt.Errorf("audit entry for tournament %d: %w", tournament.ID, err)
			}

			archived++
		}
		return nil
	})
	if err != nil {
		metrics.SweepFailures.Inc()
		return 0, err
	}

	metrics.TournamentsArchived.Add(float64(archived))
	return archived, nil
}

// Run крутит зачистку по таймеру до отмены контекста. Первый прогон — сразу
// при старте. Ошибка прохода логируется и не останавливает расписание.
func (s *archiverService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("archival sweep scheduler started", slog.Duration("interval", interval))

	s.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("archival sweep scheduler stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *archiverService) sweepOnce(ctx context.Context) {
	count, err := s.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("archival sweep failed", slog.Any("error", err))
		return
	}
	if count > 0 {
		s.logger.Info("archival sweep completed", slog.Int("archived", count))
	}
}
