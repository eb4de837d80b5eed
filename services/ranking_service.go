package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/esportshub/esports-hub/models"
	"github.com/esportshub/esports-hub/repositories"
)

// RankingService пересчитывает рейтинг команд по запросу. ComputeRankings —
// чистая функция от scope-а: она никогда не пишет в таблицу teams. Желающие
// зафиксировать результат делают это явно через SaveSnapshot, который кладёт
// помеченные scope-ом и временем строки в rank_snapshots.
type RankingService interface {
	ComputeRankings(ctx context.Context, scope models.RankScope) ([]models.TeamRank, error)
	SaveSnapshot(ctx context.Context, scope models.RankScope, actorID int) (*models.RankSnapshot, error)
	GetLatestSnapshot(ctx context.Context, scope models.RankScope) (*models.RankSnapshot, error)
}

type rankingService struct {
	txManager    repositories.TxManager
	teamRepo     repositories.TeamRepository
	snapshotRepo repositories.RankSnapshotRepository
	auditRepo    repositories.AuditRepository
}

func NewRankingService(
	txManager repositories.TxManager,
	teamRepo repositories.TeamRepository,
	snapshotRepo repositories.RankSnapshotRepository,
	auditRepo repositories.AuditRepository,
) RankingService {
	return &rankingService{
		txManager:    txManager,
		teamRepo:     teamRepo,
		snapshotRepo: snapshotRepo,
		auditRepo:    auditRepo,
	}
}

func (s *rankingService) ComputeRankings(ctx context.Context, scope models.RankScope) ([]models.TeamRank, error) {
	teams, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	// Суммарный порядок: очки по убыванию, победы по убыванию, ID по
	// возрастанию. Последний ключ делает пересчёт детерминированным при
	// полном равенстве. Ранги плотные, с единицы, без делёжки мест.
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].Points != teams[j].Points {
			return teams[i].Points > teams[j].Points
		}
		if teams[i].Wins != teams[j].Wins {
			return teams[i].Wins > teams[j].Wins
		}
		return teams[i].ID < teams[j].ID
	})

	ranked := make([]models.TeamRank, len(teams))
	for i, team := range teams {
		rank := i + 1
		team.Rank = &rank
		ranked[i] = models.TeamRank{Team: team, Rank: rank}
	}
	return ranked, nil
}

func (s *rankingService) SaveSnapshot(ctx context.Context, scope models.RankScope, actorID int) (*models.RankSnapshot, error) {
	ranked, err := s.ComputeRankings(ctx, scope)
	if err != nil {
		return nil, err
	}

	// Замена снимка — это DELETE плюс пачка INSERT-ов. Вместе с записью
	// аудита всё идёт одной транзакцией: читатель либо видит старый снимок
	// целиком, либо новый, но никогда половину.
	computedAt := time.Now()
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.snapshotRepo.Save(ctx, exec, scope.Tag(), computedAt, ranked); err != nil {
			return err
		}

		entry := &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionSaveRankSnapshot,
			TargetType: "rank_snapshot",
			TargetID:   0,
			Details:    []byte(fmt.Sprintf(`{"scope":%q,"teams":%d}`, scope.Tag(), len(ranked))),
		}
		if err := s.auditRepo.Create(ctx, exec, entry); err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.RankSnapshot{
		Scope:      scope.Tag(),
		ComputedAt: computedAt,
		Entries:    ranked,
	}, nil
}

func (s *rankingService) GetLatestSnapshot(ctx context.Context, scope models.RankScope) (*models.RankSnapshot, error) {
	return s.snapshotRepo.GetLatest(ctx, scope.Tag())
}

// resolveScope выбирает множество команд для рейтинга. Для категории
// разрешение двухшаговое: сначала по game_name команды; если совпадений нет,
// fallback — команды, зарегистрированные на турниры с подходящим названием.
func (s *rankingService) resolveScope(ctx context.Context, scope models.RankScope) ([]models.Team, error) {
	switch scope.Kind {
	case models.ScopeByCategory:
		teams, err := s.teamRepo.ListByGameName(ctx, scope.Category)
		if err != nil {
			return nil, err
		}
		if len(teams) > 0 {
			return teams, nil
		}
		return s.teamRepo.ListByTournamentName(ctx, scope.Category)
	default:
		return s.teamRepo.ListAll(ctx)
	}
}
