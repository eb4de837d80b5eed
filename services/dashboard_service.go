package services

import (
	"context"

	"github.com/esportshub/esports-hub/models"
	"golang.org/x/sync/errgroup"
)

// HomeView — данные главной страницы: рейтинг в выбранном scope, предстоящие
// турниры и доступные игровые категории.
type HomeView struct {
	Scope       models.RankScope    `json:"scope"`
	Rankings    []models.TeamRank   `json:"rankings"`
	Tournaments []models.Tournament `json:"tournaments"`
	Categories  []string            `json:"categories"`
}

type DashboardService interface {
	Home(ctx context.Context, scope models.RankScope) (*HomeView, error)
}

type dashboardService struct {
	rankingService    RankingService
	tournamentService TournamentService
}

func NewDashboardService(rankingService RankingService, tournamentService TournamentService) DashboardService {
	return &dashboardService{
		rankingService:    rankingService,
		tournamentService: tournamentService,
	}
}

func (s *dashboardService) Home(ctx context.Context, scope models.RankScope) (*HomeView, error) {
	view := &HomeView{Scope: scope}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rankings, err := s.rankingService.ComputeRankings(gCtx, scope)
		if err != nil {
			return err
		}
		view.Rankings = rankings
		return nil
	})
	g.Go(func() error {
		tournaments, err := s.tournamentService.ListUpcoming(gCtx)
		if err != nil {
			return err
		}
		view.Tournaments = tournaments
		return nil
	})
	g.Go(func() error {
		categories, err := s.tournamentService.ListGameNames(gCtx)
		if err != nil {
			return err
		}
		view.Categories = categories
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}
